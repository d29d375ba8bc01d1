package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwilioProvider submits messages through Twilio's Messages API
// (form-encoded POST with basic auth).
type TwilioProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiBase    string
	accountSID string
	authToken  string
	fromNumber string
}

func NewTwilioProvider(logger *slog.Logger, apiBase, accountSID, authToken, fromNumber string, httpClient *http.Client) *TwilioProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TwilioProvider{
		logger:     logger.With("provider", "twilio"),
		httpClient: httpClient,
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

// twilioMessageResponse covers both success (sid) and error (message) bodies.
type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

func (p *TwilioProvider) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.apiBase, p.accountSID)

	form := url.Values{}
	form.Set("From", p.fromNumber)
	form.Set("To", req.To)
	form.Set("Body", req.Body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building twilio request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.ErrorContext(ctx, "Twilio request failed", "error", err, "to", req.To)
		return nil, &ProviderError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("reading response: %v", err)}
	}

	var parsed twilioMessageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		p.logger.ErrorContext(ctx, "Twilio returned unparseable body", "status_code", resp.StatusCode)
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("unexpected response (status %d)", resp.StatusCode)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed.SID == "" {
		msg := parsed.Message
		if msg == "" {
			msg = fmt.Sprintf("send rejected (status %d)", resp.StatusCode)
		}
		p.logger.WarnContext(ctx, "Twilio rejected message", "status_code", resp.StatusCode, "provider_error", msg)
		return nil, &ProviderError{Provider: p.Name(), Message: msg}
	}

	p.logger.InfoContext(ctx, "SMS submitted to Twilio", "sid", parsed.SID)
	return &SendResponse{ProviderMessageID: parsed.SID}, nil
}
