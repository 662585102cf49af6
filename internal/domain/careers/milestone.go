package careers

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MilestoneType string

const (
	MilestoneCourse       MilestoneType = "COURSE"
	MilestoneSubscription MilestoneType = "SUBSCRIPTION"
)

func (t MilestoneType) Valid() bool {
	return t == MilestoneCourse || t == MilestoneSubscription
}

// CareerMilestone is one step of a Career. Position is unique per career and
// 0-based contiguous after every roadmap replace.
//
// CourseID is a lookup into the catalog, not ownership: the course may be
// missing and callers must tolerate that.
type CareerMilestone struct {
	ID       uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CareerID uuid.UUID     `gorm:"type:uuid;column:career_id;not null;index;uniqueIndex:idx_career_milestone_position,priority:1" json:"career_id"`
	Position int           `gorm:"column:position;not null;uniqueIndex:idx_career_milestone_position,priority:2" json:"position"`
	Type     MilestoneType `gorm:"column:type;not null" json:"type"`
	CourseID *uuid.UUID    `gorm:"type:uuid;column:course_id;index" json:"course_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CareerMilestone) TableName() string { return "career_milestone" }

func (m *CareerMilestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
