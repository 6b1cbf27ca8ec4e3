// Package registration redeems staged OpenID logins against invitations.
package registration

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"hub-backend/internal/application/user"
	"hub-backend/internal/domain"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/constants"
	"hub-backend/internal/pkg/validation"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("registration")

type Service struct {
	DB  *gorm.DB
	TTL time.Duration // staged registrations older than this are expired
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// StageNewUser persists the identity an OpenID callback vouched for and
// returns the login token that redeems it. A newer login for the same address
// replaces any earlier staged row.
func (s *Service) StageNewUser(ctx context.Context, firstName, lastName, email string) (*domain.NewUser, error) {
	email = validation.NormalizeEmail(email)
	if !validation.IsValidEmail(email) {
		return nil, apperr.Invalidf("Invalid email format")
	}
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if !validation.IsValidName(firstName) || !validation.IsValidName(lastName) {
		return nil, apperr.Invalidf("Invalid name")
	}

	nu := &domain.NewUser{LoginToken: randomToken(), Email: email, FirstName: firstName, LastName: lastName}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return errors.Wrap(err, "check user")
		}
		if n > 0 {
			return apperr.Existsf("A user already exists with this email")
		}
		if err := tx.Where("email = ?", email).Delete(&domain.NewUser{}).Error; err != nil {
			return errors.Wrap(err, "replace staged user")
		}
		return errors.Wrap(tx.Create(nu).Error, "stage new user")
	})
	if err != nil {
		return nil, err
	}
	return nu, nil
}

// RegisterViaOpenID turns a staged registration into a user when key matches
// the invitation mailed to the staged address. The new user is connected to
// the inviter if the inviter still exists.
func (s *Service) RegisterViaOpenID(ctx context.Context, loginToken, key string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Registration.Service.RegisterViaOpenID")
	defer span.End()

	var created *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var nu domain.NewUser
		err := tx.Where("login_token = ?", loginToken).First(&nu).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Invalidf("Unknown or expired login token")
		}
		if err != nil {
			return errors.Wrap(err, "load new user")
		}
		if nu.Expired(s.TTL, s.now()) {
			return apperr.Invalidf("Unknown or expired login token")
		}

		var inv domain.Invitation
		err = tx.Where("email = ?", nu.Email).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.Unauthorized, "Invalid invitation key")
		}
		if err != nil {
			return errors.Wrap(err, "load invitation")
		}
		if subtle.ConstantTimeCompare([]byte(inv.Key), []byte(key)) != 1 {
			return apperr.New(apperr.Unauthorized, "Invalid invitation key")
		}

		var n int64
		if err := tx.Model(&domain.User{}).Where("email = ?", nu.Email).Count(&n).Error; err != nil {
			return errors.Wrap(err, "check user")
		}
		if n > 0 {
			return apperr.Existsf("A user already exists with this email")
		}

		created = &domain.User{Email: nu.Email, FirstName: nu.FirstName, LastName: nu.LastName, Role: constants.User}
		if err := tx.Create(created).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Existsf("A user already exists with this email")
			}
			return errors.Wrap(err, "create user")
		}
		account := &domain.InvitationAccount{
			UserID:        created.UserID,
			OriginalCount: domain.InvitedUserCredits,
			CurrentCount:  domain.InvitedUserCredits,
		}
		if err := tx.Create(account).Error; err != nil {
			return errors.Wrap(err, "create invitation account")
		}
		if err := tx.Where("email = ?", nu.Email).Delete(&domain.NewUser{}).Error; err != nil {
			return errors.Wrap(err, "delete new user")
		}
		if err := tx.Delete(&inv).Error; err != nil {
			return errors.Wrap(err, "delete invitation")
		}

		if inv.InviterID == nil {
			return nil
		}
		if err := tx.Where("user_id = ?", *inv.InviterID).First(&domain.User{}).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return errors.Wrap(err, "load inviter")
		}
		return user.ConnectBoth(tx, *inv.InviterID, created.UserID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return created, nil
}

// PurgeExpired deletes staged registrations older than the TTL.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.TTL <= 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).Where("created_at < ?", s.now().Add(-s.TTL)).Delete(&domain.NewUser{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "purge new users")
	}
	if res.RowsAffected > 0 {
		log.Info().Int64("count", res.RowsAffected).Msg("Purged expired staged registrations")
	}
	return res.RowsAffected, nil
}

func randomToken() string {
	b := make([]byte, 24)
	rand.Read(b)
	return hex.EncodeToString(b)
}
