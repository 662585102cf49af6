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

type UserCareerRepo interface {
	GetByUserAndCareer(dbc dbctx.Context, userID, careerID uuid.UUID) (*types.UserCareer, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserCareer, error)
	CountByCareerIDs(dbc dbctx.Context, careerIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	Upsert(dbc dbctx.Context, userID, careerID uuid.UUID, progress int, syncedAt time.Time) (*types.UserCareer, error)
}

type userCareerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserCareerRepo(db *gorm.DB, baseLog *logger.Logger) UserCareerRepo {
	return &userCareerRepo{db: db, log: baseLog.With("repo", "UserCareerRepo")}
}

func (r *userCareerRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

// GetByUserAndCareer returns nil, nil when the user has no progress row yet.
func (r *userCareerRepo) GetByUserAndCareer(dbc dbctx.Context, userID, careerID uuid.UUID) (*types.UserCareer, error) {
	if userID == uuid.Nil || careerID == uuid.Nil {
		return nil, nil
	}
	var out types.UserCareer
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND career_id = ?", userID, careerID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return &out, nil
}

func (r *userCareerRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserCareer, error) {
	out := []*types.UserCareer{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("last_sync_at DESC").
		Find(&out).Error; err != nil {
		return nil, db.Classify(err)
	}
	return out, nil
}

func (r *userCareerRepo) CountByCareerIDs(dbc dbctx.Context, careerIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if len(careerIDs) == 0 {
		return out, nil
	}
	type row struct {
		CareerID uuid.UUID
		N        int64
	}
	var rows []row
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.UserCareer{}).
		Select("career_id, COUNT(*) AS n").
		Where("career_id IN ?", careerIDs).
		Group("career_id").
		Scan(&rows).Error; err != nil {
		return nil, db.Classify(err)
	}
	for _, rr := range rows {
		out[rr.CareerID] = rr.N
	}
	return out, nil
}

// Upsert writes progress for (user, career) in one statement keyed by the
// unique (user_id, career_id) index, so concurrent writers never create a
// second row. created_at and id survive updates; status follows progress.
func (r *userCareerRepo) Upsert(dbc dbctx.Context, userID, careerID uuid.UUID, progress int, syncedAt time.Time) (*types.UserCareer, error) {
	if userID == uuid.Nil || careerID == uuid.Nil {
		return nil, nil
	}
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}
	syncedAt = syncedAt.UTC()
	row := &types.UserCareer{
		ID:         uuid.New(),
		UserID:     userID,
		CareerID:   careerID,
		Progress:   progress,
		Status:     types.CareerStatusForProgress(progress),
		LastSyncAt: syncedAt,
		CreatedAt:  syncedAt,
		UpdatedAt:  syncedAt,
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "career_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"progress", "status", "last_sync_at", "updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return nil, db.Classify(err)
	}
	return r.GetByUserAndCareer(dbc, userID, careerID)
}
