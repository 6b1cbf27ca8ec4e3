package subscriptions

import (
	"context"

	"hub-backend/internal/application/billing"
	"hub-backend/internal/application/products"
	"hub-backend/internal/domain"
	"hub-backend/internal/infrastructure/database"
	"hub-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("subscriptions")

type Service struct {
	DB       *gorm.DB
	Products *products.Service
	Billing  billing.Provider
}

// CreateInput carries the provider references for a new subscription.
type CreateInput struct {
	ProductHandle      string
	ExternalID         string
	ExternalCustomerID string
	CreditCard         domain.CreditCard
}

// UpdateInput holds the optional changes of an update. Nil fields are left alone.
type UpdateInput struct {
	ProductHandle *string
	State         *domain.SubscriptionState
	CreditCard    *domain.CreditCard
}

// View is a subscription as clients see it. Sub is nil for the synthetic
// default-product view of a user without a subscription.
type View struct {
	Sub     *domain.UserSubscription
	Product *domain.Product
}

// Create persists a PENDING subscription.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*domain.UserSubscription, error) {
	ctx, span := tracer.Start(ctx, "Subscriptions.Service.Create")
	defer span.End()

	if in.ProductHandle == "" || in.ExternalID == "" || in.ExternalCustomerID == "" {
		return nil, apperr.Invalidf("product, external_id and external_customer_id are required")
	}

	var sub *domain.UserSubscription
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&domain.UserSubscription{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
			return errors.Wrap(err, "check subscription")
		}
		if n > 0 {
			return apperr.Existsf("Subscription already exists")
		}
		product, err := s.Products.FindByHandle(ctx, tx, in.ProductHandle)
		if err != nil {
			return err
		}
		sub = &domain.UserSubscription{
			UserID:             userID,
			ProductID:          product.ProductID,
			State:              domain.StatePending,
			ExternalID:         in.ExternalID,
			ExternalCustomerID: in.ExternalCustomerID,
			CreditCard:         in.CreditCard,
		}
		if err := tx.Create(sub).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Existsf("Subscription already exists")
			}
			return errors.Wrap(err, "create subscription")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return sub, nil
}

// Get returns the user's subscription, or the default product view when there is none.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	db := s.DB.WithContext(ctx)
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	var sub domain.UserSubscription
	err := db.Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def, err := s.Products.Default(ctx)
		if err != nil {
			return nil, err
		}
		return &View{Product: def}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load subscription")
	}
	product, err := s.Products.FindByID(ctx, db, sub.ProductID)
	if err != nil {
		return nil, err
	}
	return &View{Sub: &sub, Product: product}, nil
}

// Update applies product, state and card changes. Every legality check runs
// before the provider is contacted, and the provider call is the last step
// that can fail before commit.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) error {
	ctx, span := tracer.Start(ctx, "Subscriptions.Service.Update")
	defer span.End()

	var applied []string
	var externalID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubscription(tx, userID)
		if err != nil {
			return err
		}
		externalID = sub.ExternalID

		cancel := false
		if in.State != nil && *in.State != sub.State {
			if err := checkTransition(sub.State, *in.State); err != nil {
				return err
			}
			cancel = *in.State == domain.StateCanceled
		}

		var target *domain.Product
		if in.ProductHandle != nil {
			p, err := s.Products.FindByHandle(ctx, tx, *in.ProductHandle)
			if err != nil {
				return err
			}
			if p.ProductID != sub.ProductID {
				if sub.State != domain.StateActive || cancel {
					return apperr.Conflictf("Product can only change on an active subscription")
				}
				target = p
			}
		}

		updates := map[string]interface{}{}
		if in.State != nil && *in.State != sub.State {
			updates["state"] = *in.State
		}
		if target != nil {
			updates["product_id"] = target.ProductID
		}
		if in.CreditCard != nil {
			updates["cc_masked_number"] = in.CreditCard.MaskedNumber
			updates["cc_expiration_month"] = in.CreditCard.ExpirationMonth
			updates["cc_expiration_year"] = in.CreditCard.ExpirationYear
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&domain.UserSubscription{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "update subscription")
		}

		if target != nil {
			if err := s.Billing.Migrate(ctx, sub, target); err != nil {
				return apperr.Wrap(apperr.ProviderFailure, "Billing provider failure", err)
			}
			applied = append(applied, "migrate")
		}
		if cancel {
			if err := s.Billing.Cancel(ctx, sub); err != nil {
				return apperr.Wrap(apperr.ProviderFailure, "Billing provider failure", err)
			}
			applied = append(applied, "cancel")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		for _, op := range applied {
			billing.RecordDivergence(ctx, s.DB, userID, op, externalID, err)
		}
		return err
	}
	return nil
}

// Delete removes the subscription, cancelling it with the provider first when ACTIVE.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Subscriptions.Service.Delete")
	defer span.End()

	cancelled := false
	var externalID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubscription(tx, userID)
		if err != nil {
			return err
		}
		externalID = sub.ExternalID
		if err := tx.Delete(sub).Error; err != nil {
			return errors.Wrap(err, "delete subscription")
		}
		if sub.State == domain.StateActive {
			if err := s.Billing.Cancel(ctx, sub); err != nil {
				return apperr.Wrap(apperr.ProviderFailure, "Billing provider failure", err)
			}
			cancelled = true
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if cancelled {
			billing.RecordDivergence(ctx, s.DB, userID, "cancel", externalID, err)
		}
		return err
	}
	return nil
}

// checkTransition allows PENDING -> ACTIVE and ACTIVE -> CANCELED only.
func checkTransition(from, to domain.SubscriptionState) error {
	switch {
	case from == domain.StatePending && to == domain.StateActive:
		return nil
	case from == domain.StateActive && to == domain.StateCanceled:
		return nil
	}
	return apperr.Conflictf("Cannot change subscription from %s to %s", from, to)
}

func lockSubscription(tx *gorm.DB, userID uuid.UUID) (*domain.UserSubscription, error) {
	var sub domain.UserSubscription
	err := database.ForUpdate(tx).Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("Subscription not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load subscription")
	}
	return &sub, nil
}

func requireUser(tx *gorm.DB, userID uuid.UUID) error {
	var n int64
	if err := tx.Model(&domain.User{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "check user")
	}
	if n == 0 {
		return apperr.NotFoundf("User not found")
	}
	return nil
}
