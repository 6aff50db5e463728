package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LogSender logs outgoing mail instead of delivering it. It keeps every
// message so development tooling and tests can read them back.
type LogSender struct {
	mu   sync.Mutex
	sent []Message
}

// NewLogSender creates a new LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send records msg and logs its subject.
func (s *LogSender) Send(_ context.Context, msg Message) (SendResult, error) {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	n := len(s.sent)
	s.mu.Unlock()

	slog.Info("email_logged", "to", msg.To, "subject", msg.Subject)
	return SendResult{
		MessageID: fmt.Sprintf("log-%d", n),
		SentAt:    time.Now(),
	}, nil
}

// Sent returns a copy of every message recorded so far.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
