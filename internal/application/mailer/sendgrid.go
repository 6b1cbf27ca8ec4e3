package mailer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridMailer sends plain-text mail through the SendGrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendgridMailer(apiKey, from string) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("", from),
	}
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmailPlainText(m.from, msg.Subject, to, msg.Body)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return errors.Wrap(err, "sendgrid send")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("sendgrid send failed: status %d", resp.StatusCode)
	}
	return nil
}
