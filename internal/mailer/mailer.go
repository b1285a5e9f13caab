// internal/mailer/mailer.go
package mailer

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender is the transport collaborator. Send returns the transport's
// message id on success.
type Sender interface {
	Send(m Message) (string, error)
}

// MockSender accepts everything. Used in development when no transport
// credentials are configured.
type MockSender struct{}

func (s *MockSender) Send(m Message) (string, error) {
	id := "mock-" + uuid.New().String()
	log.Info().Str("to", m.To).Str("subject", m.Subject).Str("message_id", id).Msg("mock send")
	return id, nil
}

var _ Sender = (*MockSender)(nil)
