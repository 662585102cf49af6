package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/careerpath-backend/internal/data/repos"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/observability"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/careerpath-backend/internal/pkg/errors"
	"github.com/yungbote/careerpath-backend/internal/platform/cacheinv"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

// ErrCareerNotFound is returned when no career matches a reference or id.
// It wraps pkg/errors.ErrNotFound.
var ErrCareerNotFound = fmt.Errorf("career %w", pkgerrors.ErrNotFound)

type MilestoneProgress struct {
	ID        uuid.UUID           `json:"id"`
	Position  int                 `json:"position"`
	Type      types.MilestoneType `json:"type"`
	CourseID  *uuid.UUID          `json:"course_id,omitempty"`
	Completed bool                `json:"completed"`
	Locked    bool                `json:"locked"`

	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	PriceCents  int64  `json:"price_cents"`

	LessonCount      int  `json:"lesson_count,omitempty"`
	CompletedLessons int  `json:"completed_lessons,omitempty"`
	MissingCourse    bool `json:"missing_course,omitempty"`
}

type CareerProgress struct {
	CareerID              uuid.UUID           `json:"career_id"`
	ReferenceID           string              `json:"reference_id"`
	Name                  string              `json:"name"`
	Description           string              `json:"description,omitempty"`
	Progress              int                 `json:"progress"`
	Status                types.CareerStatus  `json:"status"`
	HasActiveSubscription bool                `json:"has_active_subscription"`
	Milestones            []MilestoneProgress `json:"milestones"`

	// Persisted is true when this call wrote the user career row.
	Persisted  bool       `json:"persisted"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

type SyncReport struct {
	UserID  uuid.UUID `json:"user_id"`
	Synced  []string  `json:"synced"`
	Written []string  `json:"written"`
	Skipped []string  `json:"skipped"`
}

type MembershipDetails struct {
	Title       string
	Description string
	ImageURL    string
}

type CareerProgressConfig struct {
	// ActiveSubscriptionStatuses are the subscription statuses that count as paid.
	ActiveSubscriptionStatuses []string
	// EvalConcurrency bounds concurrent milestone evaluation.
	EvalConcurrency int
	// BootstrapReference is seeded from the built-in catalog on first lookup when missing.
	BootstrapReference string
	BootstrapEnabled   bool
	Membership         MembershipDetails
}

func DefaultCareerProgressConfig() CareerProgressConfig {
	return CareerProgressConfig{
		ActiveSubscriptionStatuses: []string{types.SubscriptionActive},
		EvalConcurrency:            4,
		BootstrapReference:         BootstrapCareerReference,
		BootstrapEnabled:           true,
		Membership: MembershipDetails{
			Title:       "Membresía Aurora",
			Description: "Acceso total a la academia.",
			ImageURL:    "/images/membership.jpg",
		},
	}
}

// CareerBootstrapper seeds a well-known career on demand.
type CareerBootstrapper interface {
	EnsureCareer(ctx context.Context, referenceID string) (bool, error)
}

type CareerProgressService interface {
	// ComputeProgress evaluates a career for a user without writing anything.
	ComputeProgress(ctx context.Context, userID uuid.UUID, referenceID string) (*CareerProgress, error)
	// GetCareerProgress computes progress and persists it when it changed.
	GetCareerProgress(ctx context.Context, userID uuid.UUID, referenceID string) (*CareerProgress, error)
	// SyncAllUserCareers recomputes every published career for the user, skipping missing ones.
	SyncAllUserCareers(ctx context.Context, userID uuid.UUID) (SyncReport, error)
}

type careerProgressService struct {
	log       *logger.Logger
	repos     repos.Set
	inv       cacheinv.Invalidator
	metrics   *observability.Metrics
	cache     *RoadmapCache
	bootstrap CareerBootstrapper
	cfg       CareerProgressConfig
	now       func() time.Time
}

func NewCareerProgressService(
	log *logger.Logger,
	rs repos.Set,
	inv cacheinv.Invalidator,
	metrics *observability.Metrics,
	cache *RoadmapCache,
	bootstrap CareerBootstrapper,
	cfg CareerProgressConfig,
) CareerProgressService {
	def := DefaultCareerProgressConfig()
	if len(cfg.ActiveSubscriptionStatuses) == 0 {
		cfg.ActiveSubscriptionStatuses = def.ActiveSubscriptionStatuses
	}
	if cfg.EvalConcurrency <= 0 {
		cfg.EvalConcurrency = def.EvalConcurrency
	}
	if cfg.Membership.Title == "" {
		cfg.Membership = def.Membership
	}
	if inv == nil {
		inv = cacheinv.NewNoop()
	}
	return &careerProgressService{
		log:       log.With("service", "CareerProgressService"),
		repos:     rs,
		inv:       inv,
		metrics:   metrics,
		cache:     cache,
		bootstrap: bootstrap,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *careerProgressService) ComputeProgress(ctx context.Context, userID uuid.UUID, referenceID string) (*CareerProgress, error) {
	res, _, err := s.compute(ctx, userID, referenceID)
	return res, err
}

func (s *careerProgressService) GetCareerProgress(ctx context.Context, userID uuid.UUID, referenceID string) (*CareerProgress, error) {
	ctx, span := observability.Tracer().Start(ctx, "career.GetCareerProgress", trace.WithAttributes(
		attribute.String("career.reference_id", referenceID),
	))
	defer span.End()
	start := time.Now()

	res, existing, err := s.compute(ctx, userID, referenceID)
	if err == nil {
		_, err = s.persistIfChanged(ctx, userID, res, existing)
	}
	s.metrics.ObserveProgress(progressOutcome(err), time.Since(start))
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("career.progress", res.Progress),
		attribute.Bool("career.persisted", res.Persisted),
	)
	return res, nil
}

func progressOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pkgerrors.ErrNotFound):
		return "not_found"
	}
	return "error"
}

func (s *careerProgressService) compute(ctx context.Context, userID uuid.UUID, referenceID string) (*CareerProgress, *types.UserCareer, error) {
	referenceID = strings.TrimSpace(referenceID)
	if userID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: user id required", pkgerrors.ErrInvalidArgument)
	}
	if referenceID == "" {
		return nil, nil, fmt.Errorf("%w: career reference required", pkgerrors.ErrInvalidArgument)
	}

	career, err := s.loadCareer(ctx, referenceID)
	if err != nil {
		return nil, nil, err
	}

	dbc := dbctx.New(ctx)
	existing, err := s.repos.UserCareer.GetByUserAndCareer(dbc, userID, career.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load user career: %w", err)
	}
	hasActive, err := s.repos.Subscription.ExistsWithStatus(dbc, userID, s.cfg.ActiveSubscriptionStatuses)
	if err != nil {
		return nil, nil, fmt.Errorf("load subscription state: %w", err)
	}

	courseIDs := milestoneCourseIDs(career.Milestones)
	courses := map[uuid.UUID]*types.Course{}
	lessonsByCourse := map[uuid.UUID][]uuid.UUID{}
	purchased := map[uuid.UUID]bool{}
	if len(courseIDs) > 0 {
		rows, err := s.repos.Course.GetByIDs(dbc, courseIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("load courses: %w", err)
		}
		for _, c := range rows {
			courses[c.ID] = c
		}
		if lessonsByCourse, err = s.repos.Lesson.LessonIDsByCourseIDs(dbc, courseIDs); err != nil {
			return nil, nil, fmt.Errorf("load course lessons: %w", err)
		}
		if purchased, err = s.repos.Purchase.PurchasedCourseIDs(dbc, userID, courseIDs, types.PurchaseApproved); err != nil {
			return nil, nil, fmt.Errorf("load purchases: %w", err)
		}
	}

	facts := make([]MilestoneFacts, len(career.Milestones))
	out := make([]MilestoneProgress, len(career.Milestones))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EvalConcurrency)
	for i := range career.Milestones {
		m := career.Milestones[i]
		out[i] = MilestoneProgress{ID: m.ID, Position: m.Position, Type: m.Type, CourseID: m.CourseID}
		facts[i] = MilestoneFacts{Type: m.Type, HasActiveSubscription: hasActive}

		switch m.Type {
		case types.MilestoneSubscription:
			out[i].Title = s.cfg.Membership.Title
			out[i].Description = s.cfg.Membership.Description
			out[i].ImageURL = s.cfg.Membership.ImageURL
			out[i].Locked = !hasActive

		case types.MilestoneCourse:
			out[i].Locked = m.CourseID == nil || (i != 0 && !hasActive && !purchased[*m.CourseID])
			var course *types.Course
			if m.CourseID != nil {
				course = courses[*m.CourseID]
			}
			if course == nil {
				facts[i].MissingCourse = true
				out[i].MissingCourse = true
				s.metrics.IncMissingCourse()
				s.log.Warn("career milestone references missing course",
					"career_id", career.ID, "milestone_id", m.ID, "course_id", m.CourseID)
				continue
			}
			out[i].Title = course.Title
			out[i].Description = course.Description
			out[i].ImageURL = course.ImageURL
			out[i].PriceCents = course.PriceCents

			lessonIDs := lessonsByCourse[course.ID]
			facts[i].LessonCount = len(lessonIDs)
			out[i].LessonCount = len(lessonIDs)
			if len(lessonIDs) == 0 {
				continue
			}
			idx := i
			g.Go(func() error {
				n, err := s.repos.LessonProgress.CountCompleted(dbctx.New(gctx), userID, lessonIDs)
				if err != nil {
					return fmt.Errorf("count completed lessons for course %s: %w", course.ID, err)
				}
				facts[idx].CompletedLessons = int(n)
				out[idx].CompletedLessons = int(n)
				return nil
			})

		default:
			_ = g.Wait()
			return nil, nil, fmt.Errorf("%w: milestone %s has unknown type %q", pkgerrors.ErrInvalidArgument, m.ID, m.Type)
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	summary := Calculate(facts)
	for i := range out {
		out[i].Completed = summary.Flags[i]
	}
	return &CareerProgress{
		CareerID:              career.ID,
		ReferenceID:           career.ReferenceID,
		Name:                  career.Name,
		Description:           career.Description,
		Progress:              summary.Progress,
		Status:                summary.Status,
		HasActiveSubscription: hasActive,
		Milestones:            out,
	}, existing, nil
}

func milestoneCourseIDs(milestones []types.CareerMilestone) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0, len(milestones))
	for _, m := range milestones {
		if m.Type != types.MilestoneCourse || m.CourseID == nil || seen[*m.CourseID] {
			continue
		}
		seen[*m.CourseID] = true
		ids = append(ids, *m.CourseID)
	}
	return ids
}

func (s *careerProgressService) loadCareer(ctx context.Context, referenceID string) (*types.Career, error) {
	if career, ok := s.cache.Get(referenceID); ok {
		return career, nil
	}
	gen := s.cache.Generation()
	dbc := dbctx.New(ctx)
	career, err := s.repos.Career.GetByReferenceID(dbc, referenceID)
	if err != nil {
		return nil, fmt.Errorf("load career %q: %w", referenceID, err)
	}
	if career == nil && s.canBootstrap(referenceID) {
		seeded, err := s.bootstrap.EnsureCareer(ctx, referenceID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap career %q: %w", referenceID, err)
		}
		if seeded {
			s.log.Info("bootstrapped missing career", "reference_id", referenceID)
			if career, err = s.repos.Career.GetByReferenceID(dbc, referenceID); err != nil {
				return nil, fmt.Errorf("load career %q: %w", referenceID, err)
			}
		}
	}
	if career == nil {
		return nil, fmt.Errorf("%w: %q", ErrCareerNotFound, referenceID)
	}
	s.cache.Add(career, gen)
	return career, nil
}

func (s *careerProgressService) canBootstrap(referenceID string) bool {
	return s.bootstrap != nil && s.cfg.BootstrapEnabled && referenceID == s.cfg.BootstrapReference
}

// persistIfChanged writes the user career row only when there is none yet or
// its stored progress differs from res.Progress.
func (s *careerProgressService) persistIfChanged(ctx context.Context, userID uuid.UUID, res *CareerProgress, existing *types.UserCareer) (bool, error) {
	if existing != nil && existing.Progress == res.Progress {
		s.metrics.IncProgressUnchanged()
		syncedAt := existing.LastSyncAt
		res.LastSyncAt = &syncedAt
		return false, nil
	}
	row, err := s.repos.UserCareer.Upsert(dbctx.New(ctx), userID, res.CareerID, res.Progress, s.now())
	if err != nil {
		return false, fmt.Errorf("persist progress for career %q: %w", res.ReferenceID, err)
	}
	s.metrics.IncProgressWrite()
	res.Persisted = true
	if row != nil {
		syncedAt := row.LastSyncAt
		res.LastSyncAt = &syncedAt
	}
	s.log.Debug("career progress updated",
		"user_id", userID, "career_id", res.CareerID, "progress", res.Progress, "status", res.Status)
	invalidate(ctx, s.log, s.metrics, s.inv, "progress", cacheinv.DashboardTag(userID))
	return true, nil
}

func (s *careerProgressService) SyncAllUserCareers(ctx context.Context, userID uuid.UUID) (SyncReport, error) {
	ctx, span := observability.Tracer().Start(ctx, "career.SyncAllUserCareers")
	defer span.End()

	report := SyncReport{UserID: userID, Synced: []string{}, Written: []string{}, Skipped: []string{}}
	if userID == uuid.Nil {
		return report, fmt.Errorf("%w: user id required", pkgerrors.ErrInvalidArgument)
	}
	refs, err := s.repos.Career.ListPublishedReferenceIDs(dbctx.New(ctx))
	if err != nil {
		span.RecordError(err)
		return report, fmt.Errorf("list published careers: %w", err)
	}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := s.GetCareerProgress(ctx, userID, ref)
		if errors.Is(err, pkgerrors.ErrNotFound) {
			s.log.Warn("skipping missing career during sync", "user_id", userID, "reference_id", ref)
			s.metrics.IncSyncCareer("skipped")
			report.Skipped = append(report.Skipped, ref)
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, fmt.Errorf("sync career %q: %w", ref, err)
		}
		report.Synced = append(report.Synced, ref)
		if res.Persisted {
			s.metrics.IncSyncCareer("written")
			report.Written = append(report.Written, ref)
		} else {
			s.metrics.IncSyncCareer("unchanged")
		}
	}
	span.SetAttributes(
		attribute.Int("career.synced", len(report.Synced)),
		attribute.Int("career.skipped", len(report.Skipped)),
	)
	return report, nil
}

// invalidate emits tags after a committed write. Failures are logged and
// counted; the write already happened.
func invalidate(ctx context.Context, log *logger.Logger, metrics *observability.Metrics, inv cacheinv.Invalidator, source string, tags ...string) {
	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx, tags...); err != nil {
		metrics.IncInvalidationFailure(source)
		log.Warn("cache invalidation failed", "source", source, "tags", tags, "error", err)
	}
}
