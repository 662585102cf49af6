package billing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type PurchaseRepo interface {
	// PurchasedCourseIDs returns the subset of courseIDs the user holds a purchase for in the given status.
	PurchasedCourseIDs(dbc dbctx.Context, userID uuid.UUID, courseIDs []uuid.UUID, status string) (map[uuid.UUID]bool, error)
}

type purchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) PurchaseRepo {
	return &purchaseRepo{db: db, log: baseLog.With("repo", "PurchaseRepo")}
}

func (r *purchaseRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *purchaseRepo) PurchasedCourseIDs(dbc dbctx.Context, userID uuid.UUID, courseIDs []uuid.UUID, status string) (map[uuid.UUID]bool, error) {
	out := map[uuid.UUID]bool{}
	if userID == uuid.Nil || len(courseIDs) == 0 {
		return out, nil
	}
	var ids []uuid.UUID
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Purchase{}).
		Where("user_id = ? AND status = ? AND course_id IN ?", userID, status, courseIDs).
		Distinct().
		Pluck("course_id", &ids).Error; err != nil {
		return nil, db.Classify(err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
