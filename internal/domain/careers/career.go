package careers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Career is a named, ordered curriculum of milestones. Clients address it by ReferenceID.
type Career struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ReferenceID string         `gorm:"column:reference_id;not null;uniqueIndex" json:"reference_id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Published   bool           `gorm:"column:published;not null;default:false;index" json:"published"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	Milestones []CareerMilestone `gorm:"foreignKey:CareerID;references:ID" json:"milestones,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Career) TableName() string { return "career" }

func (c *Career) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
