package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MailOutbox holds a message committed together with the change that produced it.
type MailOutbox struct {
	MailID    uuid.UUID  `gorm:"column:mail_id;type:uuid;primaryKey" json:"mail_id"`
	Kind      string     `gorm:"column:kind;not null" json:"kind"`
	To        string     `gorm:"column:to_address;not null" json:"to"`
	Subject   string     `gorm:"column:subject;not null" json:"subject"`
	Body      string     `gorm:"column:body;not null" json:"body"`
	Attempts  int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError string     `gorm:"column:last_error" json:"last_error"`
	SentAt    *time.Time `gorm:"column:sent_at;index" json:"sent_at"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (MailOutbox) TableName() string {
	return "MailOutbox"
}

func (m *MailOutbox) BeforeCreate(tx *gorm.DB) error {
	if m.MailID == uuid.Nil {
		m.MailID = uuid.New()
	}
	return nil
}

// ProviderDivergence records a billing-provider change that was not mirrored locally.
type ProviderDivergence struct {
	DivergenceID uuid.UUID      `gorm:"column:divergence_id;type:uuid;primaryKey" json:"divergence_id"`
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Operation    string         `gorm:"column:operation;not null" json:"operation"`
	ExternalID   string         `gorm:"column:external_id" json:"external_id"`
	Details      datatypes.JSON `gorm:"column:details" json:"details"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (ProviderDivergence) TableName() string {
	return "ProviderDivergences"
}

func (d *ProviderDivergence) BeforeCreate(tx *gorm.DB) error {
	if d.DivergenceID == uuid.Nil {
		d.DivergenceID = uuid.New()
	}
	return nil
}
