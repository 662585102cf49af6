package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/yungbote/careerpath-backend/internal/data/repos"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/observability"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/careerpath-backend/internal/pkg/errors"
	"github.com/yungbote/careerpath-backend/internal/platform/cacheinv"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type CareerOverview struct {
	ID            uuid.UUID               `json:"id"`
	ReferenceID   string                  `json:"reference_id"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description,omitempty"`
	Published     bool                    `json:"published"`
	Metadata      datatypes.JSON          `json:"metadata,omitempty"`
	Milestones    []types.CareerMilestone `json:"milestones"`
	EnrolledUsers int64                   `json:"enrolled_users"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

type CourseSummary struct {
	ID         uuid.UUID `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url,omitempty"`
	PriceCents int64     `json:"price_cents"`
	Published  bool      `json:"published"`
}

type MilestoneDetail struct {
	types.CareerMilestone
	// Course is nil for SUBSCRIPTION milestones and for dangling course ids.
	Course *CourseSummary `json:"course,omitempty"`
}

type CareerDetail struct {
	ID          uuid.UUID         `json:"id"`
	ReferenceID string            `json:"reference_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Published   bool              `json:"published"`
	Metadata    datatypes.JSON    `json:"metadata,omitempty"`
	Milestones  []MilestoneDetail `json:"milestones"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type CareerRoadmapService interface {
	// ReplaceMilestones swaps the whole milestone list of a career in one transaction.
	ReplaceMilestones(ctx context.Context, careerID uuid.UUID, specs []MilestoneSpec) ([]*types.CareerMilestone, error)
	ListCareers(ctx context.Context) ([]CareerOverview, error)
	GetCareer(ctx context.Context, careerID uuid.UUID) (*CareerDetail, error)
	ListCourses(ctx context.Context) ([]CourseSummary, error)
	// InvalidateCareer drops cached roadmaps and dashboards after the career row itself changed.
	InvalidateCareer(ctx context.Context, careerID uuid.UUID)
}

type careerRoadmapService struct {
	log     *logger.Logger
	repos   repos.Set
	inv     cacheinv.Invalidator
	metrics *observability.Metrics
	cache   *RoadmapCache
}

func NewCareerRoadmapService(log *logger.Logger, rs repos.Set, inv cacheinv.Invalidator, metrics *observability.Metrics, cache *RoadmapCache) CareerRoadmapService {
	if inv == nil {
		inv = cacheinv.NewNoop()
	}
	return &careerRoadmapService{
		log:     log.With("service", "CareerRoadmapService"),
		repos:   rs,
		inv:     inv,
		metrics: metrics,
		cache:   cache,
	}
}

func (s *careerRoadmapService) ReplaceMilestones(ctx context.Context, careerID uuid.UUID, specs []MilestoneSpec) ([]*types.CareerMilestone, error) {
	ctx, span := observability.Tracer().Start(ctx, "career.ReplaceMilestones", trace.WithAttributes(
		attribute.String("career.id", careerID.String()),
		attribute.Int("career.milestones", len(specs)),
	))
	defer span.End()

	out, err := s.replace(ctx, careerID, specs)
	if err != nil {
		s.metrics.IncRoadmapReplace("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.metrics.IncRoadmapReplace("ok")
	s.InvalidateCareer(ctx, careerID)
	return out, nil
}

func (s *careerRoadmapService) InvalidateCareer(ctx context.Context, careerID uuid.UUID) {
	s.cache.EvictCareer(careerID)
	invalidate(ctx, s.log, s.metrics, s.inv, "roadmap", cacheinv.RoadmapTag(careerID), cacheinv.AllDashboards)
}

func (s *careerRoadmapService) replace(ctx context.Context, careerID uuid.UUID, specs []MilestoneSpec) ([]*types.CareerMilestone, error) {
	if careerID == uuid.Nil {
		return nil, fmt.Errorf("%w: career id required", pkgerrors.ErrInvalidArgument)
	}
	rows := make([]*types.CareerMilestone, 0, len(specs))
	for i, spec := range specs {
		if spec == nil {
			return nil, fmt.Errorf("%w: milestone %d is empty", pkgerrors.ErrInvalidArgument, i)
		}
		rows = append(rows, spec.milestone())
	}

	dbc := dbctx.New(ctx)
	career, err := s.repos.Career.GetByID(dbc, careerID)
	if err != nil {
		return nil, fmt.Errorf("load career: %w", err)
	}
	if career == nil {
		return nil, fmt.Errorf("%w: %s", ErrCareerNotFound, careerID)
	}
	s.warnUnknownCourses(dbc, careerID, rows)

	out, err := s.repos.CareerMilestone.ReplaceForCareer(dbc, careerID, rows)
	if err != nil {
		return nil, fmt.Errorf("replace milestones: %w", err)
	}
	s.log.Info("career milestones replaced", "career_id", careerID, "count", len(out))
	return out, nil
}

// warnUnknownCourses logs course ids that do not resolve. Milestones only
// reference courses, so the write still proceeds.
func (s *careerRoadmapService) warnUnknownCourses(dbc dbctx.Context, careerID uuid.UUID, rows []*types.CareerMilestone) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		if r.CourseID != nil {
			ids = append(ids, *r.CourseID)
		}
	}
	if len(ids) == 0 {
		return
	}
	found, err := s.repos.Course.GetByIDs(dbc, ids)
	if err != nil {
		s.log.Warn("course lookup failed before milestone replace", "career_id", careerID, "error", err)
		return
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, c := range found {
		known[c.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			s.log.Warn("milestone references unknown course", "career_id", careerID, "course_id", id)
		}
	}
}

func (s *careerRoadmapService) ListCareers(ctx context.Context) ([]CareerOverview, error) {
	dbc := dbctx.New(ctx)
	careers, err := s.repos.Career.ListAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("list careers: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(careers))
	for _, c := range careers {
		ids = append(ids, c.ID)
	}
	counts, err := s.repos.UserCareer.CountByCareerIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("count enrolled users: %w", err)
	}
	out := make([]CareerOverview, 0, len(careers))
	for _, c := range careers {
		milestones := c.Milestones
		if milestones == nil {
			milestones = []types.CareerMilestone{}
		}
		out = append(out, CareerOverview{
			ID:            c.ID,
			ReferenceID:   c.ReferenceID,
			Name:          c.Name,
			Description:   c.Description,
			Published:     c.Published,
			Metadata:      c.Metadata,
			Milestones:    milestones,
			EnrolledUsers: counts[c.ID],
			CreatedAt:     c.CreatedAt,
			UpdatedAt:     c.UpdatedAt,
		})
	}
	return out, nil
}

func (s *careerRoadmapService) GetCareer(ctx context.Context, careerID uuid.UUID) (*CareerDetail, error) {
	dbc := dbctx.New(ctx)
	career, err := s.repos.Career.GetByID(dbc, careerID)
	if err != nil {
		return nil, fmt.Errorf("load career: %w", err)
	}
	if career == nil {
		return nil, fmt.Errorf("%w: %s", ErrCareerNotFound, careerID)
	}
	courses, err := s.repos.Course.GetByIDs(dbc, milestoneCourseIDs(career.Milestones))
	if err != nil {
		return nil, fmt.Errorf("load milestone courses: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	detail := &CareerDetail{
		ID:          career.ID,
		ReferenceID: career.ReferenceID,
		Name:        career.Name,
		Description: career.Description,
		Published:   career.Published,
		Metadata:    career.Metadata,
		Milestones:  make([]MilestoneDetail, 0, len(career.Milestones)),
		CreatedAt:   career.CreatedAt,
		UpdatedAt:   career.UpdatedAt,
	}
	for _, m := range career.Milestones {
		md := MilestoneDetail{CareerMilestone: m}
		if m.CourseID != nil {
			if c, ok := byID[*m.CourseID]; ok {
				summary := courseSummary(c)
				md.Course = &summary
			}
		}
		detail.Milestones = append(detail.Milestones, md)
	}
	return detail, nil
}

func (s *careerRoadmapService) ListCourses(ctx context.Context) ([]CourseSummary, error) {
	courses, err := s.repos.Course.ListAll(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, courseSummary(c))
	}
	return out, nil
}

func courseSummary(c *types.Course) CourseSummary {
	return CourseSummary{
		ID:         c.ID,
		Slug:       c.Slug,
		Title:      c.Title,
		ImageURL:   c.ImageURL,
		PriceCents: c.PriceCents,
		Published:  c.Published,
	}
}
