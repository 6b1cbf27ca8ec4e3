package mailer

import (
	"bytes"
	"text/template"

	"github.com/pkg/errors"
)

// DefaultInvitationTemplate puts only the key in the message.
const DefaultInvitationTemplate = "{{.Key}}"

// InvitationData is what invitation templates can reference.
type InvitationData struct {
	Key   string
	Email string
}

// InvitationRenderer builds invitation messages from a parsed template.
type InvitationRenderer struct {
	tmpl    *template.Template
	subject string
}

func NewInvitationRenderer(text, subject string) (*InvitationRenderer, error) {
	if text == "" {
		text = DefaultInvitationTemplate
	}
	tmpl, err := template.New("invitation").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parse invitation template")
	}
	return &InvitationRenderer{tmpl: tmpl, subject: subject}, nil
}

func (r *InvitationRenderer) Render(email, key string) (Message, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, InvitationData{Key: key, Email: email}); err != nil {
		return Message{}, errors.Wrap(err, "render invitation")
	}
	return Message{Kind: KindInvitation, To: email, Subject: r.subject, Body: buf.String()}, nil
}
