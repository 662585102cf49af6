package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/careerpath-backend/internal/data/repos"
	"github.com/yungbote/careerpath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/careerpath-backend/internal/pkg/errors"
	"github.com/yungbote/careerpath-backend/internal/platform/cacheinv"
)

const traderRef = "career-trader-100"

func storedCareer(t *testing.T, f *fixture, userID, careerID uuid.UUID) *types.UserCareer {
	t.Helper()
	row, err := f.repos.UserCareer.GetByUserAndCareer(dbctx.New(context.Background()), userID, careerID)
	require.NoError(t, err)
	return row
}

func TestGetCareerProgressScenarios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	courseA, lessons := testutil.SeedCourse(t, ctx, f.db, "course-a", 2)
	career := testutil.SeedCareer(t, ctx, f.db, traderRef, true, &courseA.ID, nil)
	userID := uuid.New()

	// No lessons done, no subscription.
	res, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Progress)
	assert.Equal(t, types.CareerInProgress, res.Status)
	assert.False(t, res.HasActiveSubscription)
	assert.True(t, res.Persisted)
	require.Len(t, res.Milestones, 2)
	assert.Equal(t, types.MilestoneCourse, res.Milestones[0].Type)
	assert.Equal(t, 2, res.Milestones[0].LessonCount)
	assert.False(t, res.Milestones[0].Completed)
	assert.Equal(t, types.MilestoneSubscription, res.Milestones[1].Type)
	assert.False(t, res.Milestones[1].Completed)

	// Both lessons done.
	testutil.CompleteLessons(t, ctx, f.db, userID, lessons...)
	res, err = f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Progress)
	assert.True(t, res.Milestones[0].Completed)
	assert.Equal(t, 2, res.Milestones[0].CompletedLessons)
	assert.True(t, res.Persisted)
	assert.Equal(t, 50, storedCareer(t, f, userID, career.ID).Progress)

	// Active subscription.
	testutil.SeedSubscription(t, ctx, f.db, userID, types.SubscriptionActive)
	res, err = f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Progress)
	assert.Equal(t, types.CareerCompleted, res.Status)
	assert.True(t, res.HasActiveSubscription)
	assert.True(t, res.Persisted)

	row := storedCareer(t, f, userID, career.ID)
	require.NotNil(t, row)
	assert.Equal(t, 100, row.Progress)
	assert.Equal(t, types.CareerCompleted, row.Status)

	dashboard := cacheinv.DashboardTag(userID)
	assert.Equal(t, []string{dashboard, dashboard, dashboard}, f.inv.Tags())
}

func TestGetCareerProgressIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	courseA, _ := testutil.SeedCourse(t, ctx, f.db, "course-a", 2)
	career := testutil.SeedCareer(t, ctx, f.db, traderRef, true, &courseA.ID, nil)
	userID := uuid.New()

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.progress.now = func() time.Time { return t0 }

	first, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.True(t, first.Persisted)

	f.progress.now = func() time.Time { return t0.Add(time.Hour) }
	second, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.False(t, second.Persisted)
	assert.Equal(t, first.Progress, second.Progress)
	require.NotNil(t, second.LastSyncAt)
	assert.True(t, second.LastSyncAt.Equal(t0), "unchanged progress must not touch last_sync_at")

	assert.Len(t, f.inv.Tags(), 1)
	assert.True(t, storedCareer(t, f, userID, career.ID).LastSyncAt.Equal(t0))
}

func TestGetCareerProgressConverges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	career := testutil.SeedCareer(t, ctx, f.db, traderRef, true, nil)
	userID := uuid.New()

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.progress.now = func() time.Time { return t0 }
	_, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)

	testutil.SeedSubscription(t, ctx, f.db, userID, types.SubscriptionActive)
	t1 := t0.Add(24 * time.Hour)
	f.progress.now = func() time.Time { return t1 }
	res, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Progress)

	row := storedCareer(t, f, userID, career.ID)
	assert.Equal(t, 100, row.Progress)
	assert.Equal(t, types.CareerCompleted, row.Status)
	assert.True(t, row.LastSyncAt.Equal(t1))
}

func TestComputeProgressDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	career := testutil.SeedCareer(t, ctx, f.db, traderRef, true, nil)
	userID := uuid.New()

	res, err := f.progress.ComputeProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.Nil(t, storedCareer(t, f, userID, career.ID))
	assert.Empty(t, f.inv.Tags())
}

func TestGetCareerProgressNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.progress.GetCareerProgress(context.Background(), uuid.New(), "nonexistent-career")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCareerNotFound)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestGetCareerProgressRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.progress.GetCareerProgress(context.Background(), uuid.Nil, traderRef)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	_, err = f.progress.GetCareerProgress(context.Background(), uuid.New(), "  ")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestGetCareerProgressVacuousCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, _ := testutil.SeedCourse(t, ctx, f.db, "empty", 0)
	testutil.SeedCareer(t, ctx, f.db, "career-empty", true, &empty.ID)
	userID := uuid.New()
	testutil.SeedSubscription(t, ctx, f.db, userID, types.SubscriptionActive)

	res, err := f.progress.GetCareerProgress(ctx, userID, "career-empty")
	require.NoError(t, err)
	assert.False(t, res.Milestones[0].Completed)
	assert.Equal(t, 0, res.Progress)
}

func TestGetCareerProgressMissingCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dangling := uuid.New()
	testutil.SeedCareer(t, ctx, f.db, "career-dangling", true, &dangling, nil)
	userID := uuid.New()
	testutil.SeedSubscription(t, ctx, f.db, userID, types.SubscriptionActive)

	res, err := f.progress.GetCareerProgress(ctx, userID, "career-dangling")
	require.NoError(t, err)
	require.Len(t, res.Milestones, 2)
	assert.True(t, res.Milestones[0].MissingCourse)
	assert.False(t, res.Milestones[0].Completed)
	assert.True(t, res.Milestones[1].Completed)
	assert.Equal(t, 50, res.Progress)
}

func TestGetCareerProgressCourseWithoutIDStaysLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	career := testutil.SeedCareer(t, ctx, f.db, "career-no-course", true)
	require.NoError(t, f.db.WithContext(ctx).Create(&types.CareerMilestone{
		ID:       uuid.New(),
		CareerID: career.ID,
		Position: 0,
		Type:     types.MilestoneCourse,
	}).Error)

	res, err := f.progress.GetCareerProgress(ctx, uuid.New(), "career-no-course")
	require.NoError(t, err)
	require.Len(t, res.Milestones, 1)
	assert.True(t, res.Milestones[0].Locked, "a course milestone with no course is locked even in first position")
	assert.True(t, res.Milestones[0].MissingCourse)
	assert.Equal(t, 0, res.Progress)
}

func TestGetCareerProgressLocksAndDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	free, _ := testutil.SeedCourse(t, ctx, f.db, "free", 1)
	paid, _ := testutil.SeedCourse(t, ctx, f.db, "paid", 1)
	require.NoError(t, f.db.Model(paid).Update("price_cents", 700000).Error)
	testutil.SeedCareer(t, ctx, f.db, traderRef, true, &free.ID, &paid.ID, nil)
	userID := uuid.New()

	res, err := f.progress.ComputeProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	require.Len(t, res.Milestones, 3)
	assert.False(t, res.Milestones[0].Locked, "first course is always open")
	assert.True(t, res.Milestones[1].Locked)
	assert.True(t, res.Milestones[2].Locked)
	assert.Equal(t, "Course paid", res.Milestones[1].Title)
	assert.Equal(t, int64(700000), res.Milestones[1].PriceCents)
	assert.Equal(t, "Membresía Aurora", res.Milestones[2].Title)

	testutil.SeedPurchase(t, ctx, f.db, userID, paid.ID, types.PurchaseApproved)
	res, err = f.progress.ComputeProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.False(t, res.Milestones[1].Locked, "approved purchase unlocks the course")
	assert.True(t, res.Milestones[2].Locked)

	other := uuid.New()
	testutil.SeedSubscription(t, ctx, f.db, other, types.SubscriptionActive)
	res, err = f.progress.ComputeProgress(ctx, other, traderRef)
	require.NoError(t, err)
	for i, m := range res.Milestones {
		assert.Falsef(t, m.Locked, "milestone %d should be open with a subscription", i)
	}
}

func TestActiveSubscriptionStatusesConfigurable(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	strict := newFixture(t)
	testutil.SeedCareer(t, ctx, strict.db, traderRef, true, nil)
	testutil.SeedSubscription(t, ctx, strict.db, userID, types.SubscriptionAuthorized)
	res, err := strict.progress.ComputeProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.False(t, res.HasActiveSubscription, "authorized is not active by default")

	cfg := DefaultCareerProgressConfig()
	cfg.ActiveSubscriptionStatuses = []string{types.SubscriptionActive, types.SubscriptionAuthorized}
	lenient := newFixture(t, withProgressConfig(cfg))
	testutil.SeedCareer(t, ctx, lenient.db, traderRef, true, nil)
	testutil.SeedSubscription(t, ctx, lenient.db, userID, types.SubscriptionAuthorized)
	res, err = lenient.progress.ComputeProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.True(t, res.HasActiveSubscription)
	assert.Equal(t, 100, res.Progress)
}

func TestGetCareerProgressInvalidationFailureIsNotReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.inv.err = errors.New("redis down")

	testutil.SeedCareer(t, ctx, f.db, traderRef, true, nil)
	res, err := f.progress.GetCareerProgress(ctx, uuid.New(), traderRef)
	require.NoError(t, err)
	assert.True(t, res.Persisted)
}

func TestGetCareerProgressBootstrapsTraderCareer(t *testing.T) {
	f := newFixture(t, withBootstrap())
	ctx := context.Background()
	userID := uuid.New()

	res, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.Equal(t, "Trader de 0 a 100", res.Name)
	require.Len(t, res.Milestones, 3)
	assert.Equal(t, types.MilestoneCourse, res.Milestones[0].Type)
	assert.Equal(t, "El camino del inversor", res.Milestones[0].Title)
	assert.Equal(t, types.MilestoneCourse, res.Milestones[1].Type)
	assert.Equal(t, types.MilestoneSubscription, res.Milestones[2].Type)

	again, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	assert.Equal(t, res.CareerID, again.CareerID)

	_, err = f.progress.GetCareerProgress(ctx, userID, "career-other")
	assert.ErrorIs(t, err, ErrCareerNotFound, "only the bootstrap reference self-heals")
}

type staleRefsCareerRepo struct {
	repos.CareerRepo
	extra []string
}

func (r staleRefsCareerRepo) ListPublishedReferenceIDs(dbc dbctx.Context) ([]string, error) {
	refs, err := r.CareerRepo.ListPublishedReferenceIDs(dbc)
	if err != nil {
		return nil, err
	}
	return append(r.extra, refs...), nil
}

func TestSyncAllUserCareersSkipsMissing(t *testing.T) {
	f := newFixture(t, withRepos(func(rs repos.Set) repos.Set {
		rs.Career = staleRefsCareerRepo{CareerRepo: rs.Career, extra: []string{"nonexistent-career"}}
		return rs
	}))
	ctx := context.Background()

	testutil.SeedCareer(t, ctx, f.db, "career-one", true, nil)
	testutil.SeedCareer(t, ctx, f.db, "career-two", true, nil)
	testutil.SeedCareer(t, ctx, f.db, "career-draft", false, nil)
	userID := uuid.New()

	report, err := f.progress.SyncAllUserCareers(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"nonexistent-career"}, report.Skipped)
	assert.ElementsMatch(t, []string{"career-one", "career-two"}, report.Synced)
	assert.ElementsMatch(t, []string{"career-one", "career-two"}, report.Written)

	report, err = f.progress.SyncAllUserCareers(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, report.Written, "second sync with unchanged facts writes nothing")
}

type failingUserCareerRepo struct {
	repos.UserCareerRepo
	err error
}

func (r failingUserCareerRepo) Upsert(dbc dbctx.Context, userID, careerID uuid.UUID, progress int, syncedAt time.Time) (*types.UserCareer, error) {
	return nil, r.err
}

func TestSyncAllUserCareersPropagatesStorageErrors(t *testing.T) {
	storageErr := fmt.Errorf("%w: connection refused", pkgerrors.ErrStorageUnavailable)
	f := newFixture(t, withRepos(func(rs repos.Set) repos.Set {
		rs.UserCareer = failingUserCareerRepo{UserCareerRepo: rs.UserCareer, err: storageErr}
		return rs
	}))
	ctx := context.Background()
	testutil.SeedCareer(t, ctx, f.db, "career-one", true, nil)
	testutil.SeedCareer(t, ctx, f.db, "career-two", true, nil)

	report, err := f.progress.SyncAllUserCareers(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrStorageUnavailable)
	assert.Empty(t, report.Synced)
	assert.Empty(t, f.inv.Tags())
}

func TestConcurrentSyncsKeepOneRowPerCareer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	courseA, lessons := testutil.SeedCourse(t, ctx, f.db, "course-a", 2)
	careerA := testutil.SeedCareer(t, ctx, f.db, "career-a", true, &courseA.ID, nil)
	careerB := testutil.SeedCareer(t, ctx, f.db, "career-b", true, nil)
	userID := uuid.New()
	testutil.CompleteLessons(t, ctx, f.db, userID, lessons...)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.progress.SyncAllUserCareers(ctx, userID)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoErrorf(t, err, "sync %d", i)
	}

	for _, careerID := range []uuid.UUID{careerA.ID, careerB.ID} {
		var count int64
		require.NoError(t, f.db.Model(&types.UserCareer{}).
			Where("user_id = ? AND career_id = ?", userID, careerID).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	}
	assert.Equal(t, 50, storedCareer(t, f, userID, careerA.ID).Progress)
	assert.Equal(t, 0, storedCareer(t, f, userID, careerB.ID).Progress)
}

// replaceDuringReadCareerRepo runs afterRead once, right after a reference
// lookup returns and before the caller can cache the result.
type replaceDuringReadCareerRepo struct {
	repos.CareerRepo
	once      sync.Once
	afterRead func()
}

func (r *replaceDuringReadCareerRepo) GetByReferenceID(dbc dbctx.Context, referenceID string) (*types.Career, error) {
	career, err := r.CareerRepo.GetByReferenceID(dbc, referenceID)
	if err == nil && r.afterRead != nil {
		r.once.Do(r.afterRead)
	}
	return career, err
}

func TestRoadmapReplacedDuringLoadIsNotCached(t *testing.T) {
	wrapped := &replaceDuringReadCareerRepo{}
	f := newFixture(t, withCache(8), withRepos(func(rs repos.Set) repos.Set {
		wrapped.CareerRepo = rs.Career
		rs.Career = wrapped
		return rs
	}))
	ctx := context.Background()

	courseA, _ := testutil.SeedCourse(t, ctx, f.db, "course-a", 2)
	career := testutil.SeedCareer(t, ctx, f.db, traderRef, true, &courseA.ID)
	userID := uuid.New()

	wrapped.afterRead = func() {
		_, err := f.roadmap.ReplaceMilestones(ctx, career.ID, []MilestoneSpec{SubscriptionMilestone{}})
		require.NoError(t, err)
	}

	_, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	_, cached := f.cache.Get(traderRef)
	assert.False(t, cached, "a roadmap read before the replace must not be cached")

	testutil.SeedSubscription(t, ctx, f.db, userID, types.SubscriptionActive)
	res, err := f.progress.GetCareerProgress(ctx, userID, traderRef)
	require.NoError(t, err)
	require.Len(t, res.Milestones, 1)
	assert.Equal(t, types.MilestoneSubscription, res.Milestones[0].Type)
	assert.Equal(t, 100, res.Progress)
	assert.Equal(t, 100, storedCareer(t, f, userID, career.ID).Progress)
}
