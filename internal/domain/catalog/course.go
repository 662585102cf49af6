package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course is owned by the catalog subsystem; careers only reference it.
type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	ImageURL    string    `gorm:"column:image_url" json:"image_url,omitempty"`
	PriceCents  int64     `gorm:"column:price_cents;not null;default:0" json:"price_cents"`
	Published   bool      `gorm:"column:published;not null;default:false;index" json:"published"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CourseModule struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;column:course_id;not null;index" json:"course_id"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	Position int       `gorm:"column:position;not null;default:0" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CourseModule) TableName() string { return "course_module" }

func (m *CourseModule) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
