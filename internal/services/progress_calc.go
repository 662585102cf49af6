package services

import (
	types "github.com/yungbote/careerpath-backend/internal/domain"
)

// MilestoneFacts are the completion facts gathered for one milestone.
type MilestoneFacts struct {
	Type             types.MilestoneType
	LessonCount      int
	CompletedLessons int
	// HasActiveSubscription is the user's subscription state at evaluation time.
	HasActiveSubscription bool
	// MissingCourse marks a COURSE milestone whose course row does not exist.
	MissingCourse bool
}

// Completed reports whether the milestone counts toward progress. A course
// with zero lessons is never completed.
func (f MilestoneFacts) Completed() bool {
	switch f.Type {
	case types.MilestoneCourse:
		if f.MissingCourse || f.LessonCount <= 0 {
			return false
		}
		return f.CompletedLessons >= f.LessonCount
	case types.MilestoneSubscription:
		return f.HasActiveSubscription
	}
	return false
}

type Summary struct {
	Total     int
	Completed int
	Progress  int
	Status    types.CareerStatus
	// Flags holds Completed() for each milestone, in input order.
	Flags []bool
}

// Percentage is completed/total*100 rounded half up, and 0 when total is 0.
func Percentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (200*completed + total) / (2 * total)
}

func Calculate(milestones []MilestoneFacts) Summary {
	s := Summary{Total: len(milestones), Flags: make([]bool, len(milestones))}
	for i, m := range milestones {
		if m.Completed() {
			s.Flags[i] = true
			s.Completed++
		}
	}
	s.Progress = Percentage(s.Completed, s.Total)
	s.Status = types.CareerStatusForProgress(s.Progress)
	return s
}
