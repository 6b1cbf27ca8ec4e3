// Package mailer delivers transactional mail through a committed outbox.
package mailer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Mail kinds.
const (
	KindInvitation = "invitation"
)

// Message is one outbound mail.
type Message struct {
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends a single message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	log.Info().Str("kind", msg.Kind).Str("to", msg.To).Str("subject", msg.Subject).Msg("Mail (log transport)")
	return nil
}

// Settings select and configure a transport.
type Settings struct {
	Transport        string
	From             string
	SendinblueAPIKey string
	SendgridAPIKey   string
	KafkaBroker      string
	KafkaTopic       string
	KafkaUsername    string
	KafkaPassword    string
}

// New builds the transport named by s.Transport.
func New(s Settings) (Mailer, error) {
	switch s.Transport {
	case "", "log":
		return LogMailer{}, nil
	case "brevo":
		if s.SendinblueAPIKey == "" {
			return nil, errors.New("brevo transport needs SENDINBLUE_API_KEY")
		}
		return &BrevoClient{APIKey: s.SendinblueAPIKey, MailFrom: s.From}, nil
	case "sendgrid":
		if s.SendgridAPIKey == "" {
			return nil, errors.New("sendgrid transport needs SENDGRID_API_KEY")
		}
		return NewSendgridMailer(s.SendgridAPIKey, s.From), nil
	case "kafka":
		if s.KafkaBroker == "" {
			return nil, errors.New("kafka transport needs KAFKA_BROKER")
		}
		return NewKafkaMailer(s.KafkaBroker, s.KafkaTopic, s.KafkaUsername, s.KafkaPassword), nil
	}
	return nil, errors.Errorf("unknown mail transport %q", s.Transport)
}
