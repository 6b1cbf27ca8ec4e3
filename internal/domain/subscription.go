package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionState string

const (
	StatePending  SubscriptionState = "PENDING"
	StateActive   SubscriptionState = "ACTIVE"
	StateCanceled SubscriptionState = "CANCELED"
)

// ParseSubscriptionState accepts the upper-case state names only.
func ParseSubscriptionState(s string) (SubscriptionState, bool) {
	switch SubscriptionState(s) {
	case StatePending, StateActive, StateCanceled:
		return SubscriptionState(s), true
	}
	return "", false
}

// CreditCard is informational; the provider observes card changes out of band.
type CreditCard struct {
	MaskedNumber    string `gorm:"column:cc_masked_number" json:"masked_number"`
	ExpirationMonth int    `gorm:"column:cc_expiration_month" json:"expiration_month"`
	ExpirationYear  int    `gorm:"column:cc_expiration_year" json:"expiration_year"`
}

func (c CreditCard) IsZero() bool {
	return c.MaskedNumber == "" && c.ExpirationMonth == 0 && c.ExpirationYear == 0
}

// UserSubscription is keyed by user: at most one per user.
type UserSubscription struct {
	UserID             uuid.UUID         `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	ProductID          uuid.UUID         `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	State              SubscriptionState `gorm:"column:state;not null" json:"state"`
	ExternalID         string            `gorm:"column:external_id;not null" json:"external_id"`
	ExternalCustomerID string            `gorm:"column:external_customer_id;not null" json:"external_customer_id"`
	CreditCard         CreditCard        `gorm:"embedded" json:"credit_card"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

func (UserSubscription) TableName() string {
	return "UserSubscriptions"
}
