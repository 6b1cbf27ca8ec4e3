package mailer

import (
	"context"

	"hub-backend/internal/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Enqueue stores msg in the outbox using tx, so it commits or rolls back with the caller's change.
func Enqueue(ctx context.Context, tx *gorm.DB, msg Message) error {
	row := &domain.MailOutbox{
		Kind:    msg.Kind,
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
	}
	return errors.Wrap(tx.WithContext(ctx).Create(row).Error, "enqueue mail")
}
