package careers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// StatusForProgress is COMPLETED exactly at 100.
func StatusForProgress(progress int) Status {
	if progress == 100 {
		return StatusCompleted
	}
	return StatusInProgress
}

// UserCareer caches the last computed progress of one user on one career.
type UserCareer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_user_career_key,priority:1" json:"user_id"`
	CareerID   uuid.UUID `gorm:"type:uuid;column:career_id;not null;index;uniqueIndex:idx_user_career_key,priority:2" json:"career_id"`
	Progress   int       `gorm:"column:progress;not null;default:0" json:"progress"`
	Status     Status    `gorm:"column:status;not null" json:"status"`
	LastSyncAt time.Time `gorm:"column:last_sync_at;not null" json:"last_sync_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserCareer) TableName() string { return "user_career" }

func (uc *UserCareer) BeforeCreate(tx *gorm.DB) error {
	if uc.ID == uuid.Nil {
		uc.ID = uuid.New()
	}
	return nil
}
