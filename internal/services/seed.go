package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/careerpath-backend/internal/data/repos"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/careerpath-backend/internal/pkg/errors"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

// BootstrapCareerReference is the career the built-in catalog can self-heal.
const BootstrapCareerReference = "career-trader-100"

//go:embed seed/builtin_catalog.yaml
var builtinCatalog []byte

type Catalog struct {
	Courses []CatalogCourse `yaml:"courses"`
	Careers []CatalogCareer `yaml:"careers"`
}

type CatalogCourse struct {
	Slug        string          `yaml:"slug"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	ImageURL    string          `yaml:"image_url"`
	PriceCents  int64           `yaml:"price_cents"`
	Published   bool            `yaml:"published"`
	Modules     []CatalogModule `yaml:"modules"`
}

type CatalogModule struct {
	Title   string   `yaml:"title"`
	Lessons []string `yaml:"lessons"`
}

type CatalogCareer struct {
	ReferenceID string             `yaml:"reference_id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Published   bool               `yaml:"published"`
	Metadata    map[string]any     `yaml:"metadata"`
	Milestones  []CatalogMilestone `yaml:"milestones"`
}

// CatalogMilestone names its course by slug.
type CatalogMilestone struct {
	Type   string `yaml:"type"`
	Course string `yaml:"course,omitempty"`
}

type SeedReport struct {
	Courses          int `json:"courses"`
	Lessons          int `json:"lessons"`
	Careers          int `json:"careers"`
	RoadmapsReplaced int `json:"roadmaps_replaced"`
}

func LoadCatalog(r io.Reader) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %v", pkgerrors.ErrInvalidArgument, err)
	}
	return &cat, nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

func BuiltinCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(builtinCatalog))
}

// Subset keeps the named career and only the courses it references.
func (c *Catalog) Subset(referenceID string) (*Catalog, bool) {
	for _, career := range c.Careers {
		if career.ReferenceID != referenceID {
			continue
		}
		wanted := map[string]bool{}
		for _, m := range career.Milestones {
			if m.Course != "" {
				wanted[m.Course] = true
			}
		}
		out := &Catalog{Careers: []CatalogCareer{career}}
		for _, course := range c.Courses {
			if wanted[course.Slug] {
				out.Courses = append(out.Courses, course)
			}
		}
		return out, true
	}
	return nil, false
}

// CatalogSeeder upserts catalog courses and careers. Running it twice leaves
// the same state; milestone lists are only replaced when they differ.
type CatalogSeeder struct {
	log     *logger.Logger
	repos   repos.Set
	roadmap CareerRoadmapService
	builtin func() (*Catalog, error)
}

func NewCatalogSeeder(log *logger.Logger, rs repos.Set, roadmap CareerRoadmapService) *CatalogSeeder {
	return &CatalogSeeder{
		log:     log.With("service", "CatalogSeeder"),
		repos:   rs,
		roadmap: roadmap,
		builtin: BuiltinCatalog,
	}
}

// EnsureCareer seeds referenceID from the built-in catalog when it is missing.
func (s *CatalogSeeder) EnsureCareer(ctx context.Context, referenceID string) (bool, error) {
	existing, err := s.repos.Career.GetByReferenceID(dbctx.New(ctx), referenceID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return true, nil
	}
	cat, err := s.builtin()
	if err != nil {
		return false, err
	}
	sub, ok := cat.Subset(referenceID)
	if !ok {
		return false, nil
	}
	if _, err := s.Seed(ctx, sub); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CatalogSeeder) Seed(ctx context.Context, cat *Catalog) (SeedReport, error) {
	var report SeedReport
	if cat == nil {
		return report, nil
	}
	dbc := dbctx.New(ctx)

	courseIDs := map[string]string{}
	for _, cc := range cat.Courses {
		slug := strings.TrimSpace(cc.Slug)
		if slug == "" {
			return report, fmt.Errorf("%w: course without slug", pkgerrors.ErrInvalidArgument)
		}
		course, err := s.repos.Course.UpsertBySlug(dbc, &types.Course{
			Slug:        slug,
			Title:       cc.Title,
			Description: cc.Description,
			ImageURL:    cc.ImageURL,
			PriceCents:  cc.PriceCents,
			Published:   cc.Published,
		})
		if err != nil {
			return report, fmt.Errorf("seed course %q: %w", slug, err)
		}
		courseIDs[slug] = course.ID.String()
		report.Courses++

		n, err := s.seedLessons(dbc, course, cc.Modules)
		if err != nil {
			return report, fmt.Errorf("seed lessons for %q: %w", slug, err)
		}
		report.Lessons += n
	}

	for _, cc := range cat.Careers {
		replaced, err := s.seedCareer(ctx, cc, courseIDs)
		if err != nil {
			return report, fmt.Errorf("seed career %q: %w", cc.ReferenceID, err)
		}
		report.Careers++
		if replaced {
			report.RoadmapsReplaced++
		}
	}
	s.log.Info("catalog seeded",
		"courses", report.Courses, "lessons", report.Lessons,
		"careers", report.Careers, "roadmaps_replaced", report.RoadmapsReplaced)
	return report, nil
}

// seedLessons only fills courses that have no lessons yet.
func (s *CatalogSeeder) seedLessons(dbc dbctx.Context, course *types.Course, modules []CatalogModule) (int, error) {
	if len(modules) == 0 {
		return 0, nil
	}
	existing, err := s.repos.Lesson.CountByCourseID(dbc, course.ID)
	if err != nil || existing > 0 {
		return 0, err
	}
	total := 0
	for i, cm := range modules {
		lessons := make([]*types.Lesson, 0, len(cm.Lessons))
		for j, title := range cm.Lessons {
			lessons = append(lessons, &types.Lesson{Title: title, Position: j})
		}
		module := &types.CourseModule{CourseID: course.ID, Title: cm.Title, Position: i}
		if err := s.repos.Lesson.CreateModule(dbc, module, lessons); err != nil {
			return total, err
		}
		total += len(lessons)
	}
	return total, nil
}

func (s *CatalogSeeder) seedCareer(ctx context.Context, cc CatalogCareer, courseIDs map[string]string) (bool, error) {
	ref := strings.TrimSpace(cc.ReferenceID)
	if ref == "" {
		return false, fmt.Errorf("%w: career without reference_id", pkgerrors.ErrInvalidArgument)
	}
	raw := make([]RawMilestoneSpec, 0, len(cc.Milestones))
	for _, m := range cc.Milestones {
		r := RawMilestoneSpec{Type: m.Type}
		if m.Course != "" {
			id, ok := courseIDs[m.Course]
			if !ok {
				course, err := s.repos.Course.GetBySlugs(dbctx.New(ctx), []string{m.Course})
				if err != nil {
					return false, err
				}
				if len(course) == 0 {
					return false, fmt.Errorf("%w: unknown course %q", pkgerrors.ErrInvalidArgument, m.Course)
				}
				id = course[0].ID.String()
			}
			r.CourseID = id
		}
		raw = append(raw, r)
	}
	specs, err := ParseMilestoneSpecs(raw)
	if err != nil {
		return false, err
	}

	metadata, err := careerMetadata(cc.Metadata)
	if err != nil {
		return false, err
	}

	dbc := dbctx.New(ctx)
	previous, err := s.repos.Career.GetByReferenceID(dbc, ref)
	if err != nil {
		return false, err
	}
	career, err := s.repos.Career.UpsertByReferenceID(dbc, &types.Career{
		ReferenceID: ref,
		Name:        cc.Name,
		Description: cc.Description,
		Published:   cc.Published,
		Metadata:    metadata,
	})
	if err != nil {
		return false, err
	}
	if sameMilestones(career.Milestones, specs) {
		if previous != nil && careerRowChanged(previous, career) {
			s.roadmap.InvalidateCareer(ctx, career.ID)
		}
		return false, nil
	}
	if _, err := s.roadmap.ReplaceMilestones(ctx, career.ID, specs); err != nil {
		return false, err
	}
	return true, nil
}

func careerMetadata(m map[string]any) (datatypes.JSON, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: career metadata: %v", pkgerrors.ErrInvalidArgument, err)
	}
	return datatypes.JSON(b), nil
}

func careerRowChanged(before, after *types.Career) bool {
	return before.Name != after.Name ||
		before.Description != after.Description ||
		before.Published != after.Published ||
		!jsonEqual(before.Metadata, after.Metadata)
}

func jsonEqual(a, b datatypes.JSON) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	var av, bv any
	if json.Unmarshal(a, &av) != nil || json.Unmarshal(b, &bv) != nil {
		return bytes.Equal(a, b)
	}
	ab, _ := json.Marshal(av)
	bb, _ := json.Marshal(bv)
	return bytes.Equal(ab, bb)
}

func sameMilestones(current []types.CareerMilestone, specs []MilestoneSpec) bool {
	if len(current) != len(specs) {
		return false
	}
	for i, spec := range specs {
		want := spec.milestone()
		got := current[i]
		if got.Type != want.Type {
			return false
		}
		if (got.CourseID == nil) != (want.CourseID == nil) {
			return false
		}
		if got.CourseID != nil && *got.CourseID != *want.CourseID {
			return false
		}
	}
	return true
}
