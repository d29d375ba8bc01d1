package httpapi

import "github.com/attendly/backend/internal/sms"

// SendMessageRequestDTO is the payload for POST /api/messages/send.
type SendMessageRequestDTO struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
}

// SendMessageResponseDTO is the success response of a single send.
type SendMessageResponseDTO struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	ProviderMessageID string `json:"provider_message_id"`
}

// BulkSendRequestDTO is the payload for POST /api/messages/send-bulk.
type BulkSendRequestDTO struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1,dive,uuid"`
}

// BulkSendResponseDTO returns one result per requested message id.
type BulkSendResponseDTO struct {
	Results []sms.BulkItemResult `json:"results"`
}

// GenerateMessageRequestDTO is the payload for POST /api/messages/generate.
type GenerateMessageRequestDTO struct {
	StudentID        string `json:"student_id" validate:"required,uuid"`
	Type             string `json:"type" validate:"required,oneof=ATTENDANCE PAYMENT"`
	Tone             string `json:"tone" validate:"required,oneof=FRIENDLY FORMAL FIRM"`
	Date             string `json:"date" validate:"omitempty,max=64"`
	AttendanceStatus string `json:"attendance_status" validate:"omitempty,max=64"`
}

// GenerateMessageResponseDTO describes the queued message that was created.
type GenerateMessageResponseDTO struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// RetryMessageResponseDTO confirms a failed message was returned to the queue.
type RetryMessageResponseDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// GenerateNoticeRequestDTO is the payload for POST /api/notices/generate.
// Notices only come in the two outward-facing tones.
type GenerateNoticeRequestDTO struct {
	NoticeType     string `json:"notice_type" validate:"required,max=100"`
	AdditionalInfo string `json:"additional_info" validate:"omitempty,max=500"`
	Tone           string `json:"tone" validate:"required,oneof=FRIENDLY FORMAL"`
}

// GenerateNoticeResponseDTO carries the drafted notice copy; nothing is
// persisted for notices.
type GenerateNoticeResponseDTO struct {
	Content string `json:"content"`
}

// CheckoutResponseDTO carries the hosted checkout URL for the caller to
// redirect to.
type CheckoutResponseDTO struct {
	URL string `json:"url"`
}

// WebhookAckDTO is always returned to the payment processor, regardless of
// whether the event was accepted.
type WebhookAckDTO struct {
	Received bool `json:"received"`
}
