package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

// LessonProgressRepo reads completion facts owned by the lesson player.
type LessonProgressRepo interface {
	CountCompleted(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) (int64, error)
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{db: db, log: baseLog.With("repo", "LessonProgressRepo")}
}

func (r *lessonProgressRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *lessonProgressRepo) CountCompleted(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) (int64, error) {
	var n int64
	if userID == uuid.Nil || len(lessonIDs) == 0 {
		return 0, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.UserLessonProgress{}).
		Where("user_id = ? AND lesson_id IN ? AND completed = ?", userID, lessonIDs, true).
		Count(&n).Error; err != nil {
		return 0, db.Classify(err)
	}
	return n, nil
}
