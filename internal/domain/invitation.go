package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitedUserCredits is the allowance seeded for a user who redeemed an invitation.
const InvitedUserCredits = 2

// InvitationAccount tracks a user's invitation credits.
// Invariant: 0 <= CurrentCount <= OriginalCount.
type InvitationAccount struct {
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	OriginalCount int       `gorm:"column:original_count;not null" json:"original_count"`
	CurrentCount  int       `gorm:"column:current_count;not null" json:"current_count"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (InvitationAccount) TableName() string {
	return "InvitationAccounts"
}

// Invitation records that an inviter invited an email. InviterID is nil once
// the inviter has been removed; the invitation stays redeemable.
type Invitation struct {
	InvitationID uuid.UUID  `gorm:"column:invitation_id;type:uuid;primaryKey" json:"invitation_id"`
	InviterID    *uuid.UUID `gorm:"column:inviter_id;type:uuid;index" json:"inviter_id"`
	Email        string     `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Key          string     `gorm:"column:invite_key;not null" json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (Invitation) TableName() string {
	return "Invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.InvitationID == uuid.Nil {
		i.InvitationID = uuid.New()
	}
	return nil
}

// NewUser is a staged registration created by the OpenID login flow.
type NewUser struct {
	LoginToken string    `gorm:"column:login_token;primaryKey" json:"login_token"`
	Email      string    `gorm:"column:email;not null;index" json:"email"`
	FirstName  string    `gorm:"column:first_name;not null" json:"first_name"`
	LastName   string    `gorm:"column:last_name;not null" json:"last_name"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (NewUser) TableName() string {
	return "NewUsers"
}

// Expired reports whether the staged registration is older than ttl. A zero ttl never expires.
func (n *NewUser) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(n.CreatedAt) > ttl
}

// Prospect is an address that asked to be kept in the loop.
type Prospect struct {
	Email     string    `gorm:"column:email;primaryKey" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Prospect) TableName() string {
	return "Prospects"
}
