package careers

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type CareerMilestoneRepo interface {
	ListByCareerID(dbc dbctx.Context, careerID uuid.UUID) ([]*types.CareerMilestone, error)
	ReplaceForCareer(dbc dbctx.Context, careerID uuid.UUID, milestones []*types.CareerMilestone) ([]*types.CareerMilestone, error)
}

type careerMilestoneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCareerMilestoneRepo(db *gorm.DB, baseLog *logger.Logger) CareerMilestoneRepo {
	return &careerMilestoneRepo{db: db, log: baseLog.With("repo", "CareerMilestoneRepo")}
}

func (r *careerMilestoneRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *careerMilestoneRepo) ListByCareerID(dbc dbctx.Context, careerID uuid.UUID) ([]*types.CareerMilestone, error) {
	out := []*types.CareerMilestone{}
	if careerID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("career_id = ?", careerID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, db.Classify(err)
	}
	return out, nil
}

// ReplaceForCareer deletes every milestone of the career and inserts the given
// ones with position = index. Both steps share one transaction (a savepoint
// when dbc already carries one), so readers never see an empty or
// half-written list.
func (r *careerMilestoneRepo) ReplaceForCareer(dbc dbctx.Context, careerID uuid.UUID, milestones []*types.CareerMilestone) ([]*types.CareerMilestone, error) {
	out := make([]*types.CareerMilestone, 0, len(milestones))
	for _, m := range milestones {
		if m == nil {
			continue
		}
		row := *m
		row.ID = uuid.New()
		row.CareerID = careerID
		row.Position = len(out)
		if row.Type == types.MilestoneSubscription {
			row.CourseID = nil
		}
		out = append(out, &row)
	}

	err := r.dbx(dbc).WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("career_id = ?", careerID).Delete(&types.CareerMilestone{}).Error; err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, db.Classify(err)
	}
	return out, nil
}
