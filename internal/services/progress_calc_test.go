package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	types "github.com/yungbote/careerpath-backend/internal/domain"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 2, 0},
		{1, 2, 50},
		{2, 2, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 8, 38},
		{5, 8, 63},
		{1, 200, 1},
		{1, 201, 0},
		{199, 200, 100},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, Percentage(tc.completed, tc.total), "Percentage(%d, %d)", tc.completed, tc.total)
	}
}

func TestPercentageBounds(t *testing.T) {
	for total := 0; total <= 60; total++ {
		prev := 0
		for completed := 0; completed <= total; completed++ {
			got := Percentage(completed, total)
			if got < 0 || got > 100 {
				t.Fatalf("Percentage(%d, %d) = %d out of bounds", completed, total, got)
			}
			if got < prev {
				t.Fatalf("Percentage(%d, %d) = %d is not monotonic", completed, total, got)
			}
			prev = got
		}
		if total > 0 && Percentage(total, total) != 100 {
			t.Fatalf("Percentage(%d, %d) should be 100", total, total)
		}
	}
}

func TestCalculate(t *testing.T) {
	t.Run("empty career is zero", func(t *testing.T) {
		s := Calculate(nil)
		assert.Equal(t, 0, s.Progress)
		assert.Equal(t, types.CareerInProgress, s.Status)
		assert.Empty(t, s.Flags)
	})

	t.Run("course without lessons never completes", func(t *testing.T) {
		s := Calculate([]MilestoneFacts{
			{Type: types.MilestoneCourse, LessonCount: 0, CompletedLessons: 0, HasActiveSubscription: true},
		})
		assert.Equal(t, []bool{false}, s.Flags)
		assert.Equal(t, 0, s.Progress)
	})

	t.Run("missing course never completes", func(t *testing.T) {
		s := Calculate([]MilestoneFacts{
			{Type: types.MilestoneCourse, LessonCount: 2, CompletedLessons: 2, MissingCourse: true},
		})
		assert.Equal(t, []bool{false}, s.Flags)
	})

	t.Run("subscription follows active state", func(t *testing.T) {
		for _, active := range []bool{true, false} {
			s := Calculate([]MilestoneFacts{{Type: types.MilestoneSubscription, HasActiveSubscription: active}})
			assert.Equal(t, []bool{active}, s.Flags)
		}
	})

	t.Run("mixed milestones", func(t *testing.T) {
		s := Calculate([]MilestoneFacts{
			{Type: types.MilestoneCourse, LessonCount: 2, CompletedLessons: 2},
			{Type: types.MilestoneCourse, LessonCount: 4, CompletedLessons: 3},
			{Type: types.MilestoneSubscription, HasActiveSubscription: true},
		})
		assert.Equal(t, []bool{true, false, true}, s.Flags)
		assert.Equal(t, 3, s.Total)
		assert.Equal(t, 2, s.Completed)
		assert.Equal(t, 67, s.Progress)
		assert.Equal(t, types.CareerInProgress, s.Status)
	})

	t.Run("all complete", func(t *testing.T) {
		s := Calculate([]MilestoneFacts{
			{Type: types.MilestoneCourse, LessonCount: 1, CompletedLessons: 1},
			{Type: types.MilestoneSubscription, HasActiveSubscription: true},
		})
		assert.Equal(t, 100, s.Progress)
		assert.Equal(t, types.CareerCompleted, s.Status)
	})

	t.Run("unknown type does not count", func(t *testing.T) {
		s := Calculate([]MilestoneFacts{{Type: types.MilestoneType("BADGE"), HasActiveSubscription: true}})
		assert.Equal(t, []bool{false}, s.Flags)
	})
}
