// Package email delivers transactional mail (welcome and password reset).
package email

import (
	"context"
	"time"
)

// Message is one outgoing e-mail.
type Message struct {
	To      []string
	From    string // empty selects the sender's default
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers e-mail through an external provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}
