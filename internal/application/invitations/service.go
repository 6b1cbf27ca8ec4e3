package invitations

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"hub-backend/internal/application/mailer"
	"hub-backend/internal/domain"
	"hub-backend/internal/infrastructure/database"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("invitations")

const keyBytes = 32

// Notifier is woken after an outbox row commits.
type Notifier interface {
	Notify()
}

type Service struct {
	DB       *gorm.DB
	Renderer *mailer.InvitationRenderer
	Notifier Notifier
}

// Invite spends one of the inviter's credits on an invitation for email and
// queues the invitation mail in the same transaction.
func (s *Service) Invite(ctx context.Context, inviterID uuid.UUID, email string) (*domain.Invitation, error) {
	ctx, span := tracer.Start(ctx, "Invitations.Service.Invite")
	defer span.End()

	email = validation.NormalizeEmail(email)
	if !validation.IsValidEmail(email) {
		return nil, apperr.Invalidf("Invalid email format")
	}

	var inv *domain.Invitation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.InvitationAccount
		err := database.ForUpdate(tx).Where("user_id = ?", inviterID).First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Forbiddenf("No invitation account")
		}
		if err != nil {
			return errors.Wrap(err, "lock invitation account")
		}

		if err := ValidateInviteCreation(tx, email); err != nil {
			return err
		}
		if account.CurrentCount <= 0 {
			return apperr.Forbiddenf("No remaining invitations")
		}

		inv = &domain.Invitation{InviterID: &inviterID, Email: email, Key: randomHex(keyBytes)}
		if err := tx.Create(inv).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Existsf("An invitation already exists for this email")
			}
			return errors.Wrap(err, "create invitation")
		}
		if err := tx.Where("email = ?", email).Delete(&domain.Prospect{}).Error; err != nil {
			return errors.Wrap(err, "delete prospect")
		}

		res := tx.Model(&domain.InvitationAccount{}).
			Where("user_id = ? AND current_count > 0", inviterID).
			Update("current_count", gorm.Expr("current_count - 1"))
		if res.Error != nil {
			return errors.Wrap(res.Error, "debit invitation credit")
		}
		if res.RowsAffected == 0 {
			return apperr.Forbiddenf("No remaining invitations")
		}

		msg, err := s.Renderer.Render(email, inv.Key)
		if err != nil {
			return err
		}
		return mailer.Enqueue(ctx, tx, msg)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.Notify()
	}
	return inv, nil
}

// RegisterProspect records an address that asked for an invitation. Addresses
// that already belong to a user or an invitation are accepted without change.
func (s *Service) RegisterProspect(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if !validation.IsValidEmail(email) {
		return apperr.Invalidf("Invalid email format")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ValidateInviteCreation(tx, email); err != nil {
			if apperr.Is(err, apperr.AlreadyExists) {
				return nil
			}
			return err
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.Prospect{Email: email}).Error
		return errors.Wrap(err, "create prospect")
	})
}

// Account returns the caller's invitation credits.
func (s *Service) Account(ctx context.Context, userID uuid.UUID) (*domain.InvitationAccount, error) {
	var account domain.InvitationAccount
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("No invitation account")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load invitation account")
	}
	return &account, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
