package sms

import (
	"context"
	"errors"
	"log/slog"
	"time"

	messageDomain "github.com/attendly/backend/internal/message/domain"
	messageRepo "github.com/attendly/backend/internal/message/repository"
	"github.com/attendly/backend/internal/quota"
	studentRepo "github.com/attendly/backend/internal/student/repository"
)

var (
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrNotQueued   = errors.New("only queued messages can be sent")
	ErrNotFailed   = errors.New("only failed messages can be retried")
)

// maxErrorLength bounds provider error strings stored on message records.
const maxErrorLength = 500

const defaultSendTimeout = 30 * time.Second

// Bulk item outcomes as surfaced to API callers.
const (
	BulkStatusSent   = "SENT"
	BulkStatusFailed = "FAILED"
)

// BulkItemResult is the per-message outcome of a bulk send. A bulk request
// returns one entry per requested id, in request order.
type BulkItemResult struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// SendService orchestrates the gated send path: throttle, quota reservation,
// message claim, provider call, terminal status write. Quota is reserved
// before the provider call and is not refunded on provider failure.
type SendService struct {
	messages    messageRepo.MessageRepository
	students    studentRepo.StudentRepository
	ledger      *quota.Ledger
	limiter     quota.RateLimiter
	provider    Provider
	logger      *slog.Logger
	sendTimeout time.Duration
}

func NewSendService(
	messages messageRepo.MessageRepository,
	students studentRepo.StudentRepository,
	ledger *quota.Ledger,
	limiter quota.RateLimiter,
	provider Provider,
	logger *slog.Logger,
) *SendService {
	return &SendService{
		messages:    messages,
		students:    students,
		ledger:      ledger,
		limiter:     limiter,
		provider:    provider,
		logger:      logger.With("service", "sms_send"),
		sendTimeout: defaultSendTimeout,
	}
}

// SendOne delivers a single queued message owned by ownerID and returns the
// provider delivery id.
func (s *SendService) SendOne(ctx context.Context, ownerID, messageID string) (string, error) {
	if err := s.checkThrottle(ctx, ownerID); err != nil {
		return "", err
	}

	msg, err := s.messages.GetByIDForOwner(ctx, messageID, ownerID)
	if err != nil {
		return "", err
	}
	if msg.Status != messageDomain.MessageStatusQueued {
		return "", ErrNotQueued
	}

	if msg.StudentID == nil {
		return "", studentRepo.ErrStudentNotFound
	}
	student, err := s.students.GetByID(ctx, *msg.StudentID)
	if err != nil {
		return "", err
	}

	if err := s.ledger.Reserve(ctx, ownerID, 1); err != nil {
		return "", err
	}

	return s.deliver(ctx, msg.ID, msg.Content, student.ParentPhone)
}

// SendBulk reserves quota for the whole batch up front, then processes each
// message independently; one failure never aborts the rest.
func (s *SendService) SendBulk(ctx context.Context, ownerID string, messageIDs []string) ([]BulkItemResult, error) {
	if err := s.checkThrottle(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := s.ledger.Reserve(ctx, ownerID, len(messageIDs)); err != nil {
		return nil, err
	}

	results := make([]BulkItemResult, 0, len(messageIDs))
	for _, id := range messageIDs {
		results = append(results, s.sendItem(ctx, ownerID, id))
	}
	return results, nil
}

// Retry returns a failed message to the queue so it can be sent again. The
// reset is conditional on the failed status, so a concurrent send or retry
// loses cleanly. Quota already consumed by the failed attempt stays consumed.
func (s *SendService) Retry(ctx context.Context, ownerID, messageID string) error {
	msg, err := s.messages.GetByIDForOwner(ctx, messageID, ownerID)
	if err != nil {
		return err
	}
	if msg.Status != messageDomain.MessageStatusFailed {
		return ErrNotFailed
	}

	if err := s.messages.ResetToQueued(ctx, messageID); err != nil {
		if errors.Is(err, messageRepo.ErrAlreadyHandled) {
			return ErrNotFailed
		}
		return err
	}
	s.logger.InfoContext(ctx, "Message returned to queue", "message_id", messageID)
	return nil
}

func (s *SendService) checkThrottle(ctx context.Context, ownerID string) error {
	ok, err := s.limiter.Allow(ctx, ownerID)
	if err != nil {
		// The throttle is advisory flood control; a broken limiter backend
		// must not take the billing-gated send path down with it.
		s.logger.WarnContext(ctx, "Rate limiter unavailable, allowing request", "error", err, "account_id", ownerID)
		return nil
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

// deliver claims the message and performs the provider call, recording the
// terminal status. The claim is the double-send guard: losing it means some
// other request already owns this message.
func (s *SendService) deliver(ctx context.Context, messageID, content, parentPhone string) (string, error) {
	if err := s.messages.ClaimForSending(ctx, messageID); err != nil {
		return "", err
	}

	to := NormalizePhone(parentPhone)

	providerCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	start := time.Now()
	resp, sendErr := s.provider.Send(providerCtx, SendRequest{To: to, Body: content})
	smsProviderDuration.WithLabelValues(s.provider.Name()).Observe(time.Since(start).Seconds())

	if sendErr != nil {
		smsSendsTotal.WithLabelValues(s.provider.Name(), "failed").Inc()
		s.logger.ErrorContext(ctx, "Provider send failed", "error", sendErr, "message_id", messageID)
		if updateErr := s.messages.MarkFailed(ctx, messageID, truncateError(sendErr.Error())); updateErr != nil {
			s.logger.ErrorContext(ctx, "Failed to record send failure", "error", updateErr, "message_id", messageID)
		}
		return "", sendErr
	}

	smsSendsTotal.WithLabelValues(s.provider.Name(), "sent").Inc()
	if err := s.messages.MarkSent(ctx, messageID, resp.ProviderMessageID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record sent status", "error", err, "message_id", messageID)
		return "", err
	}
	s.logger.InfoContext(ctx, "Message sent", "message_id", messageID, "provider_message_id", resp.ProviderMessageID)
	return resp.ProviderMessageID, nil
}

// sendItem is the bulk-path variant of the single send: every failure becomes
// a per-item result instead of an error.
func (s *SendService) sendItem(ctx context.Context, ownerID, messageID string) BulkItemResult {
	msg, err := s.messages.GetByIDForOwner(ctx, messageID, ownerID)
	if err != nil || msg.Status != messageDomain.MessageStatusQueued {
		return BulkItemResult{ID: messageID, Status: BulkStatusFailed, Error: "Not found or not queued"}
	}

	if msg.StudentID == nil {
		return s.failItem(ctx, messageID, "Student not found")
	}
	student, err := s.students.GetByID(ctx, *msg.StudentID)
	if err != nil {
		if errors.Is(err, studentRepo.ErrStudentNotFound) {
			return s.failItem(ctx, messageID, "Student not found")
		}
		return s.failItem(ctx, messageID, truncateError(err.Error()))
	}

	sid, err := s.deliver(ctx, messageID, msg.Content, student.ParentPhone)
	if err != nil {
		if errors.Is(err, messageRepo.ErrAlreadyHandled) {
			return BulkItemResult{ID: messageID, Status: BulkStatusFailed, Error: "Not found or not queued"}
		}
		// deliver already recorded the failure on the message.
		return BulkItemResult{ID: messageID, Status: BulkStatusFailed, Error: truncateError(err.Error())}
	}
	return BulkItemResult{ID: messageID, Status: BulkStatusSent, ProviderMessageID: sid}
}

func (s *SendService) failItem(ctx context.Context, messageID, reason string) BulkItemResult {
	if err := s.messages.MarkFailed(ctx, messageID, reason); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record item failure", "error", err, "message_id", messageID)
	}
	return BulkItemResult{ID: messageID, Status: BulkStatusFailed, Error: reason}
}

func truncateError(msg string) string {
	if len(msg) > maxErrorLength {
		return msg[:maxErrorLength]
	}
	return msg
}
