package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/careerpath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
)

func TestLessonRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewLessonRepo(db, testutil.Logger(t))

	courseA, lessonsA := testutil.SeedCourse(t, ctx, db, "course-a", 3)
	courseEmpty, _ := testutil.SeedCourse(t, ctx, db, "course-empty", 0)

	byCourse, err := repo.LessonIDsByCourseIDs(dbc, []uuid.UUID{courseA.ID, courseEmpty.ID})
	if err != nil {
		t.Fatalf("LessonIDsByCourseIDs: %v", err)
	}
	if len(byCourse[courseA.ID]) != len(lessonsA) {
		t.Fatalf("LessonIDsByCourseIDs: expected %d lessons, got %d", len(lessonsA), len(byCourse[courseA.ID]))
	}
	if _, ok := byCourse[courseEmpty.ID]; ok {
		t.Fatalf("LessonIDsByCourseIDs: course without lessons should be absent")
	}

	n, err := repo.CountByCourseID(dbc, courseA.ID)
	if err != nil || n != 3 {
		t.Fatalf("CountByCourseID: err=%v n=%d", err, n)
	}

	module := &types.CourseModule{CourseID: courseEmpty.ID, Title: "Intro"}
	if err := repo.CreateModule(dbc, module, []*types.Lesson{{Title: "One"}, {Title: "Two"}}); err != nil {
		t.Fatalf("CreateModule: %v", err)
	}
	if n, err := repo.CountByCourseID(dbc, courseEmpty.ID); err != nil || n != 2 {
		t.Fatalf("CountByCourseID after CreateModule: err=%v n=%d", err, n)
	}
}

func TestLessonProgressRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewLessonProgressRepo(db, testutil.Logger(t))

	_, lessons := testutil.SeedCourse(t, ctx, db, "course-a", 3)
	userID := uuid.New()
	testutil.CompleteLessons(t, ctx, db, userID, lessons[0], lessons[2])

	ids := []uuid.UUID{lessons[0].ID, lessons[1].ID, lessons[2].ID}
	n, err := repo.CountCompleted(dbc, userID, ids)
	if err != nil || n != 2 {
		t.Fatalf("CountCompleted: err=%v n=%d", err, n)
	}
	if n, err := repo.CountCompleted(dbc, uuid.New(), ids); err != nil || n != 0 {
		t.Fatalf("CountCompleted (other user): err=%v n=%d", err, n)
	}
}

func TestCourseRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewCourseRepo(db, testutil.Logger(t))

	first, err := repo.UpsertBySlug(dbc, &types.Course{Slug: "b-course", Title: "B", PriceCents: 700000})
	if err != nil || first == nil {
		t.Fatalf("UpsertBySlug (create): err=%v course=%+v", err, first)
	}
	if _, err := repo.UpsertBySlug(dbc, &types.Course{Slug: "a-course", Title: "A"}); err != nil {
		t.Fatalf("UpsertBySlug (second): %v", err)
	}
	again, err := repo.UpsertBySlug(dbc, &types.Course{Slug: "b-course", Title: "B2", Published: true})
	if err != nil || again.ID != first.ID || again.Title != "B2" {
		t.Fatalf("UpsertBySlug (update): err=%v course=%+v", err, again)
	}

	all, err := repo.ListAll(dbc)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListAll: err=%v len=%d", err, len(all))
	}
	if all[0].Title != "A" {
		t.Fatalf("ListAll: expected title ordering, got %q first", all[0].Title)
	}

	got, err := repo.GetByIDs(dbc, []uuid.UUID{first.ID, uuid.New()})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(got))
	}
}
