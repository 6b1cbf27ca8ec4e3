package user

import (
	"context"
	"strings"

	"hub-backend/internal/application/auth"
	"hub-backend/internal/application/billing"
	"hub-backend/internal/domain"
	"hub-backend/internal/infrastructure/database"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/constants"
	"hub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("user")

// Service holds DB, Redis and the billing provider for user operations.
type Service struct {
	DB                 *gorm.DB
	Rdb                *redis.Client
	Billing            billing.Provider
	DefaultInvitations int
}

// CreateUserInput is the admin registration payload.
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// Create registers a user directly (admin path) with an invitation account.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "User.Service.Create")
	defer span.End()

	email := validation.NormalizeEmail(in.Email)
	if !validation.IsValidEmail(email) {
		return nil, apperr.Invalidf("Invalid email format")
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if !validation.IsValidName(first) || !validation.IsValidName(last) {
		return nil, apperr.Invalidf("First and last name are required and may only contain letters, spaces, hyphens, and apostrophes")
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, apperr.Invalidf("Invalid password format")
	}
	role := in.Role
	if role == "" {
		role = constants.User
	}
	if !constants.IsValidRole(role) {
		return nil, apperr.Invalidf("Invalid role")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Email: email, FirstName: first, LastName: last, PasswordHash: hash, Role: role}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return errors.Wrap(err, "check email")
		}
		if n > 0 {
			return apperr.Existsf("Email already registered")
		}
		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Existsf("Email already registered")
			}
			return errors.Wrap(err, "create user")
		}
		account := &domain.InvitationAccount{
			UserID:        u.UserID,
			OriginalCount: s.DefaultInvitations,
			CurrentCount:  s.DefaultInvitations,
		}
		if err := tx.Create(account).Error; err != nil {
			return errors.Wrap(err, "create invitation account")
		}
		// A staged registration for this address can no longer complete.
		return errors.Wrap(tx.Where("email = ?", email).Delete(&domain.NewUser{}).Error, "drop staged registration")
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return u, nil
}

// FindByEmail looks up a user case-insensitively.
func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Where("email = ?", validation.NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("User not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &u, nil
}

// FindByID returns NotFound for an unknown id.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return findByID(s.DB.WithContext(ctx), id)
}

func findByID(tx *gorm.DB, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := tx.Where("user_id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("User not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}

// Remove deletes a user and everything it owns. Invitations the user issued
// are detached and stay redeemable. An ACTIVE subscription is cancelled with
// the provider first; a provider failure aborts the removal.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "User.Service.Remove")
	defer span.End()

	var cancelled *domain.UserSubscription
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID(database.ForUpdate(tx), id); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.InvitationAccount{}).Error; err != nil {
			return errors.Wrap(err, "delete invitation account")
		}
		if err := tx.Where("user_id = ? OR connected_id = ?", id, id).Delete(&domain.Connection{}).Error; err != nil {
			return errors.Wrap(err, "delete connections")
		}
		if err := tx.Model(&domain.Invitation{}).Where("inviter_id = ?", id).Update("inviter_id", nil).Error; err != nil {
			return errors.Wrap(err, "detach invitations")
		}

		var sub domain.UserSubscription
		err := database.ForUpdate(tx).Where("user_id = ?", id).First(&sub).Error
		hasSub := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "load subscription")
		}
		if hasSub {
			if err := tx.Delete(&sub).Error; err != nil {
				return errors.Wrap(err, "delete subscription")
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.User{}).Error; err != nil {
			return errors.Wrap(err, "delete user")
		}

		if hasSub && sub.State == domain.StateActive {
			if err := s.Billing.Cancel(ctx, &sub); err != nil {
				return apperr.Wrap(apperr.ProviderFailure, "Billing provider failure", err)
			}
			cancelled = &sub
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if cancelled != nil {
			billing.RecordDivergence(ctx, s.DB, id, "cancel", cancelled.ExternalID, err)
		}
		return err
	}
	auth.DestroyUserSessions(ctx, s.Rdb, id.String())
	return nil
}
