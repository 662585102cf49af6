package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type CourseRepo interface {
	GetByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error)
	GetBySlugs(dbc dbctx.Context, slugs []string) ([]*types.Course, error)
	ListAll(dbc dbctx.Context) ([]*types.Course, error)
	UpsertBySlug(dbc dbctx.Context, course *types.Course) (*types.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error) {
	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, db.Classify(err)
	}
	return results, nil
}

func (r *courseRepo) GetBySlugs(dbc dbctx.Context, slugs []string) ([]*types.Course, error) {
	var results []*types.Course
	if len(slugs) == 0 {
		return results, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("slug IN ?", slugs).
		Find(&results).Error; err != nil {
		return nil, db.Classify(err)
	}
	return results, nil
}

func (r *courseRepo) ListAll(dbc dbctx.Context) ([]*types.Course, error) {
	results := []*types.Course{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Order("title ASC").
		Find(&results).Error; err != nil {
		return nil, db.Classify(err)
	}
	return results, nil
}

func (r *courseRepo) UpsertBySlug(dbc dbctx.Context, course *types.Course) (*types.Course, error) {
	if course == nil || course.Slug == "" {
		return nil, nil
	}
	now := time.Now().UTC()
	row := *course
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "image_url", "price_cents", "published", "updated_at"}),
		}).
		Create(&row).Error; err != nil {
		return nil, db.Classify(err)
	}
	rows, err := r.GetBySlugs(dbc, []string{course.Slug})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
