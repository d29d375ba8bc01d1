package payment_test

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountDomain "github.com/attendly/backend/internal/account/domain"
	accountMemory "github.com/attendly/backend/internal/account/repository/memory"
	"github.com/attendly/backend/internal/payment"
	"github.com/attendly/backend/internal/webhook"
)

const webhookSecret = "polar_whs_dGhpcy1pcy1hLXRlc3Qtc2lnbmluZy1rZXk="

func newWebhookService(t *testing.T, now time.Time) (*payment.WebhookService, *accountMemory.InMemAccountRepository) {
	t.Helper()
	accounts := accountMemory.NewInMemAccountRepository()
	accounts.Seed(&accountDomain.Account{
		ID:            "X",
		Plan:          accountDomain.PlanFree,
		SMSSentCount:  0,
		SMSSentPeriod: "2024-02",
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := payment.NewWebhookService(webhookSecret, accounts, logger).
		WithClock(func() time.Time { return now })
	return svc, accounts
}

func sign(t *testing.T, body []byte, now time.Time) webhook.Headers {
	t.Helper()
	ts := strconv.FormatInt(now.Unix(), 10)
	sig, err := webhook.Sign("evt_1", ts, body, webhookSecret)
	require.NoError(t, err)
	return webhook.Headers{ID: "evt_1", Timestamp: ts, Signature: "v1," + sig}
}

func TestWebhookService_CheckoutSucceededUpgrades(t *testing.T) {
	now := time.Now().UTC()
	svc, accounts := newWebhookService(t, now)

	body := []byte(`{"type":"checkout.updated","data":{"status":"succeeded","metadata":{"owner_id":"X"}}}`)
	require.NoError(t, svc.Process(context.Background(), body, sign(t, body, now)))

	acct, err := accounts.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, accountDomain.PlanPro, acct.Plan)
}

func TestWebhookService_CheckoutPendingDoesNothing(t *testing.T) {
	now := time.Now().UTC()
	svc, accounts := newWebhookService(t, now)

	body := []byte(`{"type":"checkout.updated","data":{"status":"pending","metadata":{"owner_id":"X"}}}`)
	require.NoError(t, svc.Process(context.Background(), body, sign(t, body, now)))

	acct, err := accounts.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, accountDomain.PlanFree, acct.Plan)
}

func TestWebhookService_SubscriptionEventUsesCheckoutMetadata(t *testing.T) {
	now := time.Now().UTC()
	svc, accounts := newWebhookService(t, now)

	body := []byte(`{"type":"subscription.active","data":{"checkout":{"metadata":{"owner_id":"X"}}}}`)
	require.NoError(t, svc.Process(context.Background(), body, sign(t, body, now)))

	acct, err := accounts.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, accountDomain.PlanPro, acct.Plan)
}

func TestWebhookService_InvalidSignatureChangesNothing(t *testing.T) {
	now := time.Now().UTC()
	svc, accounts := newWebhookService(t, now)

	body := []byte(`{"type":"checkout.updated","data":{"status":"succeeded","metadata":{"owner_id":"X"}}}`)
	h := sign(t, body, now)
	h.Signature = "v1,Zm9yZ2VkLXNpZ25hdHVyZQ=="

	err := svc.Process(context.Background(), body, h)
	assert.ErrorIs(t, err, webhook.ErrSignatureMismatch)

	acct, getErr := accounts.GetByID(context.Background(), "X")
	require.NoError(t, getErr)
	assert.Equal(t, accountDomain.PlanFree, acct.Plan)
}

func TestWebhookService_UnrelatedEventIgnored(t *testing.T) {
	now := time.Now().UTC()
	svc, accounts := newWebhookService(t, now)

	body := []byte(`{"type":"benefit.granted","data":{"metadata":{"owner_id":"X"}}}`)
	require.NoError(t, svc.Process(context.Background(), body, sign(t, body, now)))

	acct, err := accounts.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, accountDomain.PlanFree, acct.Plan)
}

func TestWebhookService_UpgradeWithoutOwnerIsLoggedNotFatal(t *testing.T) {
	now := time.Now().UTC()
	svc, _ := newWebhookService(t, now)

	body := []byte(`{"type":"order.paid","data":{}}`)
	assert.NoError(t, svc.Process(context.Background(), body, sign(t, body, now)))
}

func TestWebhookService_UnknownAccountReportsError(t *testing.T) {
	now := time.Now().UTC()
	svc, _ := newWebhookService(t, now)

	body := []byte(`{"type":"order.paid","data":{"metadata":{"owner_id":"nobody"}}}`)
	assert.Error(t, svc.Process(context.Background(), body, sign(t, body, now)))
}

func TestParseEvent_OwnerIDPrecedence(t *testing.T) {
	ev, err := payment.ParseEvent([]byte(`{"type":"order.paid","data":{"metadata":{"owner_id":"direct"},"checkout":{"metadata":{"owner_id":"nested"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "direct", ev.OwnerID())
}
