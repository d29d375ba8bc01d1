package domain

import "time"

// MessageStatus is the delivery lifecycle of an outbound SMS.
// A message leaves "queued" exactly once: the send pipeline claims it by a
// conditional queued->sending transition before calling the provider.
// "failed" messages can be retried by resetting them to "queued".
type MessageStatus string

const (
	MessageStatusQueued  MessageStatus = "queued"
	MessageStatusSending MessageStatus = "sending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// MessageType distinguishes what the SMS copy is about.
type MessageType string

const (
	MessageTypeAttendance MessageType = "ATTENDANCE"
	MessageTypePayment    MessageType = "PAYMENT"
)

// MessageTone controls the register of the generated copy.
type MessageTone string

const (
	ToneFriendly MessageTone = "FRIENDLY"
	ToneFormal   MessageTone = "FORMAL"
	ToneFirm     MessageTone = "FIRM"
)

// Message is one queued or sent SMS for a parent of a student.
type Message struct {
	ID                string
	OwnerID           string
	StudentID         *string
	Type              MessageType
	Tone              MessageTone
	Content           string
	Status            MessageStatus
	ProviderMessageID *string
	ErrorMessage      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
