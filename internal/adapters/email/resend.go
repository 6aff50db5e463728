package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
}

// NewResendSender creates a ResendSender with the given API key and default
// from and reply-to addresses. replyTo may be empty.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
func NewResendSender(apiKey, from, replyTo string) *ResendSender {
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		replyTo: replyTo,
	}
}

// Send queues one email for delivery and returns the Resend message ID.
// PRE: msg has at least one recipient and a subject
func (s *ResendSender) Send(ctx context.Context, msg Message) (SendResult, error) {
	from := msg.From
	if from == "" {
		from = s.from
	}
	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = s.replyTo
	}
	params := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: replyTo,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "subject", msg.Subject)
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}
	slog.Info("resend_sent", "message_id", sent.Id, "subject", msg.Subject)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}
