package sms

import (
	"context"
	"fmt"
)

// SendRequest is one outbound SMS handed to a provider.
type SendRequest struct {
	To   string
	Body string
}

// SendResponse carries the provider-assigned delivery id.
type SendResponse struct {
	ProviderMessageID string
}

// Provider submits a single SMS to a delivery provider.
type Provider interface {
	Name() string
	Send(ctx context.Context, req SendRequest) (*SendResponse, error)
}

// ProviderError wraps a failure or malformed response from the provider; the
// transport maps it to a gateway-class status.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}
