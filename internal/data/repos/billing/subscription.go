package billing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type SubscriptionRepo interface {
	ExistsWithStatus(dbc dbctx.Context, userID uuid.UUID, statuses []string) (bool, error)
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return &subscriptionRepo{db: db, log: baseLog.With("repo", "SubscriptionRepo")}
}

func (r *subscriptionRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *subscriptionRepo) ExistsWithStatus(dbc dbctx.Context, userID uuid.UUID, statuses []string) (bool, error) {
	if userID == uuid.Nil || len(statuses) == 0 {
		return false, nil
	}
	var count int64
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Subscription{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, db.Classify(err)
	}
	return count > 0, nil
}
