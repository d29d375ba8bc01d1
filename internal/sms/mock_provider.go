package sms

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify mock of Provider for pipeline and handler tests.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*SendResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}
