package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	accountRepo "github.com/attendly/backend/internal/account/repository"
	messageDomain "github.com/attendly/backend/internal/message/domain"
	messageRepo "github.com/attendly/backend/internal/message/repository"
	studentRepo "github.com/attendly/backend/internal/student/repository"
)

// GenerateRequest describes the SMS copy to produce.
type GenerateRequest struct {
	StudentID string
	Type      messageDomain.MessageType
	Tone      messageDomain.MessageTone
	// Date and AttendanceStatus apply to attendance notices only.
	Date             string
	AttendanceStatus string
}

// NoticeRequest describes an academy-wide notice to draft. Unlike
// per-student messages, notice copy is returned to the caller for review and
// is not persisted.
type NoticeRequest struct {
	NoticeType     string
	AdditionalInfo string
	Tone           messageDomain.MessageTone
}

// GenerateService produces SMS copy via the Copywriter and stores it as a
// queued message owned by the caller.
type GenerateService struct {
	copywriter Copywriter
	messages   messageRepo.MessageRepository
	students   studentRepo.StudentRepository
	accounts   accountRepo.AccountRepository
	logger     *slog.Logger
}

func NewGenerateService(copywriter Copywriter, messages messageRepo.MessageRepository, students studentRepo.StudentRepository, accounts accountRepo.AccountRepository, logger *slog.Logger) *GenerateService {
	return &GenerateService{
		copywriter: copywriter,
		messages:   messages,
		students:   students,
		accounts:   accounts,
		logger:     logger.With("service", "generate"),
	}
}

// GenerateMessage creates the copy and the queued message record, returning
// both the new message id and the content.
func (s *GenerateService) GenerateMessage(ctx context.Context, ownerID string, req GenerateRequest) (*messageDomain.Message, error) {
	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(student.Name, req)
	content, err := s.copywriter.GenerateCopy(ctx, prompt)
	if err != nil {
		s.logger.ErrorContext(ctx, "Copy generation failed", "error", err, "student_id", req.StudentID)
		return nil, err
	}

	now := time.Now().UTC()
	msg := &messageDomain.Message{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		StudentID: &student.ID,
		Type:      req.Type,
		Tone:      req.Tone,
		Content:   content,
		Status:    messageDomain.MessageStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("storing generated message: %w", err)
	}

	s.logger.InfoContext(ctx, "Message generated", "message_id", msg.ID, "type", req.Type, "tone", req.Tone)
	return msg, nil
}

// GenerateNotice drafts an academy-wide notice addressed to all parents,
// signed with the caller's academy name. The copy is returned directly; the
// caller decides what to do with it.
func (s *GenerateService) GenerateNotice(ctx context.Context, ownerID string, req NoticeRequest) (string, error) {
	acct, err := s.accounts.GetByID(ctx, ownerID)
	if err != nil {
		return "", err
	}

	prompt := BuildNoticePrompt(acct.AcademyName, req)
	content, err := s.copywriter.GenerateCopy(ctx, prompt)
	if err != nil {
		s.logger.ErrorContext(ctx, "Notice generation failed", "error", err, "account_id", ownerID)
		return "", err
	}

	s.logger.InfoContext(ctx, "Notice generated", "account_id", ownerID, "notice_type", req.NoticeType)
	return content, nil
}

// BuildPrompt renders the Korean prompt the copywriter receives. Attendance
// notices mention date and status; payment notices are unpaid-fee reminders.
func BuildPrompt(studentName string, req GenerateRequest) string {
	tone := "친근하게"
	switch req.Tone {
	case messageDomain.ToneFormal:
		tone = "공식적으로"
	case messageDomain.ToneFirm:
		tone = "단호하게"
	}

	if req.Type == messageDomain.MessageTypeAttendance {
		status := "지각"
		if req.AttendanceStatus == "ABSENT" {
			status = "결석"
		}
		date := req.Date
		if date == "" {
			date = "오늘"
		}
		return fmt.Sprintf(
			"학원 학부모에게 보내는 출결 안내 문자를 작성해줘. 학생 이름: %s, 날짜: %s, 상태: %s. 어조: %s. 120자 이내의 자연스러운 한국어 문자 본문만 출력해. JSON이나 설명 없이 문자 텍스트만.",
			studentName, date, status, tone)
	}
	return fmt.Sprintf(
		"학원 학부모에게 보내는 미납 안내 문자를 작성해줘. 학생 이름: %s. 어조: %s. 120자 이내의 자연스러운 한국어 문자 본문만 출력해. JSON이나 설명 없이 문자 텍스트만.",
		studentName, tone)
}

// BuildNoticePrompt renders the academy-wide notice prompt. A blank academy
// name falls back to the generic "학원".
func BuildNoticePrompt(academyName string, req NoticeRequest) string {
	name := strings.TrimSpace(academyName)
	if name == "" {
		name = "학원"
	}
	info := strings.TrimSpace(req.AdditionalInfo)
	if info == "" {
		info = "없음"
	}
	tone := "따뜻하고 친근하게"
	if req.Tone == messageDomain.ToneFormal {
		tone = "공식적으로"
	}
	return fmt.Sprintf(`학원 전체 학부모에게 보내는 공지 문자를 작성해줘.
학원명: %s
공지 유형: %s
추가 정보: %s
어조: %s
요청사항: 학원 담당자가 학부모님께 직접 보내는 느낌으로, 핵심 내용을 명확하고 자연스럽게 전달. 불필요한 인삿말 반복 금지.
150자 이내의 자연스러운 한국어 문자 본문만 출력해. JSON이나 설명 없이 문자 텍스트만.`,
		name, req.NoticeType, info, tone)
}
