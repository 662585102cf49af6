package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Lesson struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID uuid.UUID `gorm:"type:uuid;column:module_id;not null;index" json:"module_id"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	Position int       `gorm:"column:position;not null;default:0" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// UserLessonProgress is the per-(user, lesson) completion fact written by the
// lesson player. Careers only read it.
type UserLessonProgress struct {
	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;primaryKey" json:"user_id"`
	LessonID  uuid.UUID `gorm:"type:uuid;column:lesson_id;primaryKey;index" json:"lesson_id"`
	Completed bool      `gorm:"column:completed;not null;default:false" json:"completed"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserLessonProgress) TableName() string { return "user_lesson_progress" }
