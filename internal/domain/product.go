package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnboundedMembers marks a product without a member limit.
const UnboundedMembers = -1

type Product struct {
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey" json:"id"`
	Handle         string    `gorm:"column:handle;not null;uniqueIndex" json:"handle"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	MaxMemberCount int       `gorm:"column:max_member_count;not null" json:"max_member_count"`
	IsDefault      bool      `gorm:"column:is_default;not null;default:false" json:"default"`
	ExternalPlanID string    `gorm:"column:external_plan_id" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Product) TableName() string {
	return "Products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ProductID == uuid.Nil {
		p.ProductID = uuid.New()
	}
	return nil
}
