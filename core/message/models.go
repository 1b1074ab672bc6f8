package message

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lazoapp/lazo/core"
)

// Message is a note between the two participants of a relationship.
type Message struct {
	ID             string     `json:"id"`
	RelationshipID string     `json:"relationship_id"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	SentAt         time.Time  `json:"sent_at"`           // UTC
	ReadAt         *time.Time `json:"read_at,omitempty"` // UTC; nil until read
}

func (m *Message) IsRead() bool { return m.ReadAt != nil }

// NewMessage contains information needed to post a message.
type NewMessage struct {
	Body string `json:"body" validate:"required,max=4000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}
