package sms_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accountDomain "github.com/attendly/backend/internal/account/domain"
	accountMemory "github.com/attendly/backend/internal/account/repository/memory"
	messageDomain "github.com/attendly/backend/internal/message/domain"
	messageRepo "github.com/attendly/backend/internal/message/repository"
	messageMemory "github.com/attendly/backend/internal/message/repository/memory"
	"github.com/attendly/backend/internal/quota"
	"github.com/attendly/backend/internal/sms"
	studentDomain "github.com/attendly/backend/internal/student/domain"
	studentRepo "github.com/attendly/backend/internal/student/repository"
	studentMemory "github.com/attendly/backend/internal/student/repository/memory"
)

const ownerID = "owner-1"

type fixture struct {
	accounts *accountMemory.InMemAccountRepository
	messages *messageMemory.InMemMessageRepository
	students *studentMemory.InMemStudentRepository
	provider *sms.MockProvider
	service  *sms.SendService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

	accounts := accountMemory.NewInMemAccountRepository()
	accounts.Seed(&accountDomain.Account{
		ID:            ownerID,
		Plan:          accountDomain.PlanFree,
		SMSSentCount:  0,
		SMSSentPeriod: quota.CurrentPeriod(now),
	})

	messages := messageMemory.NewInMemMessageRepository()
	students := studentMemory.NewInMemStudentRepository()
	provider := new(sms.MockProvider)

	ledger := quota.NewLedger(accounts, quota.Limits{Free: 20, Pro: 300}, logger).
		WithClock(func() time.Time { return now })
	limiter := quota.NewMemoryRateLimiter(100)

	return &fixture{
		accounts: accounts,
		messages: messages,
		students: students,
		provider: provider,
		service:  sms.NewSendService(messages, students, ledger, limiter, provider, logger),
	}
}

func (f *fixture) seedStudent(id string) {
	f.students.Seed(&studentDomain.Student{
		ID:          id,
		OwnerID:     ownerID,
		Name:        "민준",
		ParentPhone: "010-1234-5678",
	})
}

func (f *fixture) seedQueuedMessage(id, studentID string) {
	f.messages.Seed(&messageDomain.Message{
		ID:        id,
		OwnerID:   ownerID,
		StudentID: &studentID,
		Type:      messageDomain.MessageTypeAttendance,
		Tone:      messageDomain.ToneFriendly,
		Content:   "오늘 결석 안내드립니다.",
		Status:    messageDomain.MessageStatusQueued,
	})
}

func TestSendOne_Success(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	f.seedQueuedMessage("msg-1", "student-1")

	f.provider.On("Send", mock.Anything, sms.SendRequest{To: "+821012345678", Body: "오늘 결석 안내드립니다."}).
		Return(&sms.SendResponse{ProviderMessageID: "SM123"}, nil).Once()

	sid, err := f.service.SendOne(context.Background(), ownerID, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "SM123", sid)

	stored, ok := f.messages.GetAny("msg-1")
	require.True(t, ok)
	assert.Equal(t, messageDomain.MessageStatusSent, stored.Status)
	require.NotNil(t, stored.ProviderMessageID)
	assert.Equal(t, "SM123", *stored.ProviderMessageID)
	assert.Nil(t, stored.ErrorMessage)

	acct, err := f.accounts.GetByID(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, acct.SMSSentCount)
	f.provider.AssertExpectations(t)
}

func TestSendOne_ProviderFailureConsumesQuota(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	f.seedQueuedMessage("msg-1", "student-1")

	provErr := &sms.ProviderError{Provider: "mock", Message: "The 'To' number is not a valid phone number."}
	f.provider.On("Send", mock.Anything, mock.Anything).Return(nil, provErr).Once()

	_, err := f.service.SendOne(context.Background(), ownerID, "msg-1")
	var pe *sms.ProviderError
	require.ErrorAs(t, err, &pe)

	stored, ok := f.messages.GetAny("msg-1")
	require.True(t, ok)
	assert.Equal(t, messageDomain.MessageStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "not a valid phone number")

	// Reservation is pessimistic: the failed send still counts.
	acct, err := f.accounts.GetByID(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, acct.SMSSentCount)
}

func TestSendOne_MessageNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.SendOne(context.Background(), ownerID, "nope")
	assert.ErrorIs(t, err, messageRepo.ErrMessageNotFound)
}

func TestSendOne_WrongOwner(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	studentID := "student-1"
	f.messages.Seed(&messageDomain.Message{
		ID:        "msg-1",
		OwnerID:   "someone-else",
		StudentID: &studentID,
		Status:    messageDomain.MessageStatusQueued,
	})

	_, err := f.service.SendOne(context.Background(), ownerID, "msg-1")
	assert.ErrorIs(t, err, messageRepo.ErrMessageNotFound)
}

func TestSendOne_NotQueued(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	studentID := "student-1"
	f.messages.Seed(&messageDomain.Message{
		ID:        "msg-1",
		OwnerID:   ownerID,
		StudentID: &studentID,
		Status:    messageDomain.MessageStatusSent,
	})

	_, err := f.service.SendOne(context.Background(), ownerID, "msg-1")
	assert.ErrorIs(t, err, sms.ErrNotQueued)
}

func TestSendOne_StudentNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedQueuedMessage("msg-1", "ghost-student")

	_, err := f.service.SendOne(context.Background(), ownerID, "msg-1")
	assert.ErrorIs(t, err, studentRepo.ErrStudentNotFound)

	// Single-send path reports the error without touching the record.
	stored, ok := f.messages.GetAny("msg-1")
	require.True(t, ok)
	assert.Equal(t, messageDomain.MessageStatusQueued, stored.Status)
}

func TestSendOne_QuotaExceeded(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	f.seedQueuedMessage("msg-1", "student-1")
	f.accounts.Seed(&accountDomain.Account{
		ID:            ownerID,
		Plan:          accountDomain.PlanFree,
		SMSSentCount:  20,
		SMSSentPeriod: "2024-02",
	})

	_, err := f.service.SendOne(context.Background(), ownerID, "msg-1")
	var quotaErr *quota.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 20, quotaErr.Cap)
	assert.Equal(t, 20, quotaErr.Used)

	// Short-circuits before any provider call or message mutation.
	stored, ok := f.messages.GetAny("msg-1")
	require.True(t, ok)
	assert.Equal(t, messageDomain.MessageStatusQueued, stored.Status)
	f.provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendOne_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	f.seedQueuedMessage("msg-1", "student-1")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := quota.NewLedger(f.accounts, quota.Limits{Free: 20, Pro: 300}, logger)
	limiter := quota.NewMemoryRateLimiter(1)
	service := sms.NewSendService(f.messages, f.students, ledger, limiter, f.provider, logger)

	// Exhaust the single slot in the window.
	ok, err := limiter.Allow(context.Background(), ownerID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = service.SendOne(context.Background(), ownerID, "msg-1")
	assert.ErrorIs(t, err, sms.ErrRateLimited)
}

func TestSendBulk_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	f.seedStudent("student-3")
	f.seedQueuedMessage("msg-1", "student-1")
	f.seedQueuedMessage("msg-2", "missing-student")
	f.seedQueuedMessage("msg-3", "student-3")

	f.provider.On("Send", mock.Anything, mock.Anything).
		Return(&sms.SendResponse{ProviderMessageID: "SM1"}, nil).Twice()

	results, err := f.service.SendBulk(context.Background(), ownerID, []string{"msg-1", "msg-2", "msg-3"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "msg-1", results[0].ID)
	assert.Equal(t, sms.BulkStatusSent, results[0].Status)

	assert.Equal(t, "msg-2", results[1].ID)
	assert.Equal(t, sms.BulkStatusFailed, results[1].Status)
	assert.Equal(t, "Student not found", results[1].Error)

	assert.Equal(t, "msg-3", results[2].ID)
	assert.Equal(t, sms.BulkStatusSent, results[2].Status)

	stored, ok := f.messages.GetAny("msg-2")
	require.True(t, ok)
	assert.Equal(t, messageDomain.MessageStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "Student not found", *stored.ErrorMessage)
}

func TestSendBulk_ReservesWholeBatchUpFront(t *testing.T) {
	f := newFixture(t)
	f.accounts.Seed(&accountDomain.Account{
		ID:            ownerID,
		Plan:          accountDomain.PlanFree,
		SMSSentCount:  19,
		SMSSentPeriod: "2024-02",
	})

	_, err := f.service.SendBulk(context.Background(), ownerID, []string{"a", "b", "c"})
	var quotaErr *quota.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	f.provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendBulk_UnknownIDsStillGetResults(t *testing.T) {
	f := newFixture(t)

	results, err := f.service.SendBulk(context.Background(), ownerID, []string{"ghost-1", "ghost-2"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, sms.BulkStatusFailed, r.Status)
		assert.Equal(t, "Not found or not queued", r.Error)
	}
}

func TestSendOne_ClaimGuardBlocksDoubleSend(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	f.seedQueuedMessage("msg-1", "student-1")

	// Simulate another request winning the claim between status check and send.
	require.NoError(t, f.messages.ClaimForSending(context.Background(), "msg-1"))

	_, err := f.service.SendOne(context.Background(), ownerID, "msg-1")
	assert.True(t,
		errors.Is(err, sms.ErrNotQueued) || errors.Is(err, messageRepo.ErrAlreadyHandled),
		"claimed message must not be sent twice, got %v", err)
	f.provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRetry_FailedMessageRequeued(t *testing.T) {
	f := newFixture(t)
	studentID := "student-1"
	errMsg := "provider twilio: unreachable number"
	f.messages.Seed(&messageDomain.Message{
		ID:           "msg-1",
		OwnerID:      ownerID,
		StudentID:    &studentID,
		Content:      "오늘 결석 안내드립니다.",
		Status:       messageDomain.MessageStatusFailed,
		ErrorMessage: &errMsg,
	})

	err := f.service.Retry(context.Background(), ownerID, "msg-1")
	require.NoError(t, err)

	stored, ok := f.messages.GetAny("msg-1")
	require.True(t, ok)
	assert.Equal(t, messageDomain.MessageStatusQueued, stored.Status)
	assert.Nil(t, stored.ErrorMessage)
}

func TestRetry_OnlyFailedMessages(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	f.seedQueuedMessage("msg-1", "student-1")

	err := f.service.Retry(context.Background(), ownerID, "msg-1")
	assert.ErrorIs(t, err, sms.ErrNotFailed)

	stored, ok := f.messages.GetAny("msg-1")
	require.True(t, ok)
	assert.Equal(t, messageDomain.MessageStatusQueued, stored.Status)
}

func TestRetry_WrongOwner(t *testing.T) {
	f := newFixture(t)
	studentID := "student-1"
	f.messages.Seed(&messageDomain.Message{
		ID:        "msg-1",
		OwnerID:   "other-owner",
		StudentID: &studentID,
		Status:    messageDomain.MessageStatusFailed,
	})

	err := f.service.Retry(context.Background(), ownerID, "msg-1")
	assert.ErrorIs(t, err, messageRepo.ErrMessageNotFound)
}

func TestRetry_ThenSendSucceeds(t *testing.T) {
	f := newFixture(t)
	f.seedStudent("student-1")
	errMsg := "provider twilio: temporary outage"
	studentID := "student-1"
	f.messages.Seed(&messageDomain.Message{
		ID:           "msg-1",
		OwnerID:      ownerID,
		StudentID:    &studentID,
		Content:      "오늘 결석 안내드립니다.",
		Status:       messageDomain.MessageStatusFailed,
		ErrorMessage: &errMsg,
	})
	f.provider.On("Send", mock.Anything, mock.Anything).
		Return(&sms.SendResponse{ProviderMessageID: "SM900"}, nil)

	require.NoError(t, f.service.Retry(context.Background(), ownerID, "msg-1"))

	sid, err := f.service.SendOne(context.Background(), ownerID, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, "SM900", sid)
}
