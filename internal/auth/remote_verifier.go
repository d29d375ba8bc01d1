package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// RemoteVerifier asks the identity provider to validate each token, the way
// a service-role backend validates end-user sessions it did not issue.
type RemoteVerifier struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	serviceKey string
}

func NewRemoteVerifier(logger *slog.Logger, baseURL, serviceKey string, httpClient *http.Client) *RemoteVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteVerifier{
		logger:     logger.With("component", "remote_token_verifier"),
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
	}
}

func (v *RemoteVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("building identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.serviceKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.WarnContext(ctx, "Identity provider unreachable", "error", err)
		return "", fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrInvalidToken
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil || user.ID == "" {
		return "", ErrInvalidToken
	}
	return user.ID, nil
}
