package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionActive     = "active"
	SubscriptionAuthorized = "authorized"
	SubscriptionPaused     = "paused"
	SubscriptionCancelled  = "cancelled"

	PurchaseApproved = "approved"
)

type Subscription struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;column:user_id;not null;index:idx_subscription_user_status,priority:1" json:"user_id"`
	Status string    `gorm:"column:status;not null;index:idx_subscription_user_status,priority:2" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Subscription) TableName() string { return "subscription" }

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Purchase is a one-off course purchase. Approved purchases unlock career milestones.
type Purchase struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;column:course_id;not null;index" json:"course_id"`
	Status   string    `gorm:"column:status;not null" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Purchase) TableName() string { return "purchase" }

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
