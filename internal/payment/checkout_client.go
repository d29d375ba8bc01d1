package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// CheckoutClient creates checkout sessions at the payment processor, scoped
// to the buying account via session metadata.
type CheckoutClient struct {
	logger      *slog.Logger
	httpClient  *http.Client
	apiBase     string
	accessToken string
	productID   string
	successURL  string
}

func NewCheckoutClient(logger *slog.Logger, apiBase, accessToken, productID, appBaseURL string, httpClient *http.Client) *CheckoutClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &CheckoutClient{
		logger:      logger.With("component", "checkout_client"),
		httpClient:  httpClient,
		apiBase:     strings.TrimSuffix(apiBase, "/"),
		accessToken: accessToken,
		productID:   productID,
		successURL:  strings.TrimSuffix(appBaseURL, "/") + "/app/dashboard?upgraded=true",
	}
}

type checkoutRequest struct {
	Products   []string          `json:"products"`
	SuccessURL string            `json:"success_url"`
	Metadata   map[string]string `json:"metadata"`
}

type checkoutResponse struct {
	URL    string          `json:"url"`
	Detail json.RawMessage `json:"detail"`
}

// CreateCheckout opens a checkout session for ownerID and returns the
// redirect URL the caller should send the browser to.
func (c *CheckoutClient) CreateCheckout(ctx context.Context, ownerID string) (string, error) {
	payload, err := json.Marshal(checkoutRequest{
		Products:   []string{c.productID},
		SuccessURL: c.successURL,
		Metadata:   map[string]string{"owner_id": ownerID},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/v1/checkouts/", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Checkout request failed", "error", err, "account_id", ownerID)
		return "", fmt.Errorf("checkout request: %w", err)
	}
	defer resp.Body.Close()

	var parsed checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding checkout response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed.URL == "" {
		detail := strings.TrimSpace(string(parsed.Detail))
		c.logger.ErrorContext(ctx, "Checkout session rejected",
			"status_code", resp.StatusCode, "detail", detail, "account_id", ownerID)
		return "", fmt.Errorf("checkout session rejected (status %d): %s", resp.StatusCode, detail)
	}

	c.logger.InfoContext(ctx, "Checkout session created", "account_id", ownerID)
	return parsed.URL, nil
}
