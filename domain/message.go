package domain

import (
	"time"

	"github.com/google/uuid"
)

// InboundFrame is the client to server chat payload.
// The sender is never part of the frame: it is always taken from the
// authenticated connection to prevent spoofing.
type InboundFrame struct {
	Recipient  string      `json:"recipient" validate:"required"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty" validate:"omitempty"`
}

// HasContent reports whether the frame carries anything worth routing.
func (f InboundFrame) HasContent() bool {
	return f.Text != "" || f.Attachment != nil
}

// Attachment is a file carried inline in an inbound frame.
// Data is base64, possibly prefixed with a data-URL header that the
// router strips before decoding.
type Attachment struct {
	Name string `json:"name" validate:"required"`
	Data string `json:"data" validate:"required"`
}

// DeliveryFrame is pushed to every live connection of the recipient.
type DeliveryFrame struct {
	Text          string  `json:"text"`
	Sender        string  `json:"sender"`
	Recipient     string  `json:"recipient"`
	AttachmentRef *string `json:"attachmentRef"`
	ID            string  `json:"id"`
}

// FailureFrame signals to the submitting connection that its message was
// neither persisted nor delivered.
type FailureFrame struct {
	Error     string `json:"error"`
	Recipient string `json:"recipient"`
}

// Message is the persisted form of a routed chat message.
// The repository assigns the ID; nothing mutates a message afterwards.
type Message struct {
	ID            uuid.UUID `json:"id"`
	Sender        string    `json:"sender"`
	Recipient     string    `json:"recipient"`
	Text          string    `json:"text"`
	AttachmentRef string    `json:"attachmentRef,omitempty"`
	Lang          string    `json:"lang,omitempty"`
	At            time.Time `json:"at"`
}
