package careers

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type CareerRepo interface {
	Create(dbc dbctx.Context, careers []*types.Career) ([]*types.Career, error)
	GetByID(dbc dbctx.Context, careerID uuid.UUID) (*types.Career, error)
	GetByReferenceID(dbc dbctx.Context, referenceID string) (*types.Career, error)
	ListAll(dbc dbctx.Context) ([]*types.Career, error)
	ListPublishedReferenceIDs(dbc dbctx.Context) ([]string, error)
	UpsertByReferenceID(dbc dbctx.Context, career *types.Career) (*types.Career, error)
}

type careerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCareerRepo(db *gorm.DB, baseLog *logger.Logger) CareerRepo {
	return &careerRepo{db: db, log: baseLog.With("repo", "CareerRepo")}
}

func (r *careerRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func orderedMilestones(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC")
}

func (r *careerRepo) Create(dbc dbctx.Context, careers []*types.Career) ([]*types.Career, error) {
	if len(careers) == 0 {
		return []*types.Career{}, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Omit("Milestones").Create(&careers).Error; err != nil {
		return nil, db.Classify(err)
	}
	return careers, nil
}

// GetByID returns nil, nil when the career does not exist.
func (r *careerRepo) GetByID(dbc dbctx.Context, careerID uuid.UUID) (*types.Career, error) {
	if careerID == uuid.Nil {
		return nil, nil
	}
	var out types.Career
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("Milestones", orderedMilestones).
		Where("id = ?", careerID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return &out, nil
}

// GetByReferenceID returns nil, nil when no career carries the reference.
func (r *careerRepo) GetByReferenceID(dbc dbctx.Context, referenceID string) (*types.Career, error) {
	if referenceID == "" {
		return nil, nil
	}
	var out types.Career
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("Milestones", orderedMilestones).
		Where("reference_id = ?", referenceID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return &out, nil
}

func (r *careerRepo) ListAll(dbc dbctx.Context) ([]*types.Career, error) {
	out := []*types.Career{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("Milestones", orderedMilestones).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, db.Classify(err)
	}
	return out, nil
}

func (r *careerRepo) ListPublishedReferenceIDs(dbc dbctx.Context) ([]string, error) {
	out := []string{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Career{}).
		Where("published = ?", true).
		Order("created_at ASC").
		Pluck("reference_id", &out).Error; err != nil {
		return nil, db.Classify(err)
	}
	return out, nil
}

// UpsertByReferenceID creates the career or refreshes the editable columns of
// an existing one. The stored row is returned.
func (r *careerRepo) UpsertByReferenceID(dbc dbctx.Context, career *types.Career) (*types.Career, error) {
	if career == nil || career.ReferenceID == "" {
		return nil, nil
	}
	now := time.Now().UTC()
	row := *career
	row.Milestones = nil
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "published", "metadata", "updated_at"}),
		}).
		Create(&row).Error; err != nil {
		return nil, db.Classify(err)
	}
	return r.GetByReferenceID(dbc, career.ReferenceID)
}
