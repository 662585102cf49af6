package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"gorm.io/gorm"
)

// SeedCourse creates a published course with one module holding lessonCount lessons.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string, lessonCount int) (*types.Course, []*types.Lesson) {
	tb.Helper()
	c := &types.Course{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     "Course " + slug,
		Published: true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	if lessonCount == 0 {
		return c, nil
	}
	m := &types.CourseModule{ID: uuid.New(), CourseID: c.ID, Title: "Module 1"}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	lessons := make([]*types.Lesson, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lessons = append(lessons, &types.Lesson{ID: uuid.New(), ModuleID: m.ID, Title: "Lesson", Position: i})
	}
	if err := tx.WithContext(ctx).Create(&lessons).Error; err != nil {
		tb.Fatalf("seed lessons: %v", err)
	}
	return c, lessons
}

// SeedCareer creates a career whose milestones follow the given order. A nil
// entry is a SUBSCRIPTION milestone; anything else is a COURSE milestone.
func SeedCareer(tb testing.TB, ctx context.Context, tx *gorm.DB, referenceID string, published bool, courseIDs ...*uuid.UUID) *types.Career {
	tb.Helper()
	c := &types.Career{
		ID:          uuid.New(),
		ReferenceID: referenceID,
		Name:        "Career " + referenceID,
		Published:   published,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed career: %v", err)
	}
	for i, courseID := range courseIDs {
		m := &types.CareerMilestone{
			ID:       uuid.New(),
			CareerID: c.ID,
			Position: i,
			Type:     types.MilestoneSubscription,
		}
		if courseID != nil {
			id := *courseID
			m.Type = types.MilestoneCourse
			m.CourseID = &id
		}
		if err := tx.WithContext(ctx).Create(m).Error; err != nil {
			tb.Fatalf("seed milestone: %v", err)
		}
		c.Milestones = append(c.Milestones, *m)
	}
	return c
}

func SeedSubscription(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) *types.Subscription {
	tb.Helper()
	s := &types.Subscription{ID: uuid.New(), UserID: userID, Status: status}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed subscription: %v", err)
	}
	return s
}

func SeedPurchase(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, status string) *types.Purchase {
	tb.Helper()
	p := &types.Purchase{ID: uuid.New(), UserID: userID, CourseID: courseID, Status: status}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed purchase: %v", err)
	}
	return p
}

func CompleteLessons(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, lessons ...*types.Lesson) {
	tb.Helper()
	for _, l := range lessons {
		row := &types.UserLessonProgress{UserID: userID, LessonID: l.ID, Completed: true, UpdatedAt: time.Now().UTC()}
		if err := tx.WithContext(ctx).Save(row).Error; err != nil {
			tb.Fatalf("complete lesson: %v", err)
		}
	}
}

func Ptr[T any](v T) *T { return &v }
