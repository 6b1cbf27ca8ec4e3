package user

import (
	"context"

	"hub-backend/internal/domain"
	"hub-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListConnections returns the users in owner's adjacency, ordered by email.
func (s *Service) ListConnections(ctx context.Context, owner uuid.UUID) ([]domain.User, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findByID(db, owner); err != nil {
		return nil, err
	}
	var out []domain.User
	err := db.Model(&domain.User{}).
		Joins(`JOIN "Connections" ON "Connections".connected_id = "Users".user_id`).
		Where(`"Connections".user_id = ?`, owner).
		Order(`"Users".email ASC`).
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "list connections")
	}
	return out, nil
}

// Connect adds other to owner's adjacency. Connecting twice is a no-op.
func (s *Service) Connect(ctx context.Context, owner, other uuid.UUID) error {
	if owner == other {
		return apperr.Forbiddenf("Cannot connect a user to themselves")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID(tx, owner); err != nil {
			return err
		}
		if _, err := findByID(tx, other); err != nil {
			return err
		}
		return connect(tx, owner, other)
	})
}

func connect(tx *gorm.DB, owner, other uuid.UUID) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Connection{UserID: owner, ConnectedID: other}).Error
	return errors.Wrap(err, "connect users")
}

// ConnectBoth links a and b in both adjacencies inside tx.
func ConnectBoth(tx *gorm.DB, a, b uuid.UUID) error {
	if err := connect(tx, a, b); err != nil {
		return err
	}
	return connect(tx, b, a)
}
