package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/careerpath-backend/internal/data/db"
	types "github.com/yungbote/careerpath-backend/internal/domain"
	"github.com/yungbote/careerpath-backend/internal/pkg/dbctx"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type LessonRepo interface {
	// LessonIDsByCourseIDs maps each course to the ids of its lessons (through modules).
	// Courses without lessons are absent from the map.
	LessonIDsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	CountByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
	CreateModule(dbc dbctx.Context, module *types.CourseModule, lessons []*types.Lesson) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *lessonRepo) LessonIDsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := map[uuid.UUID][]uuid.UUID{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	type row struct {
		CourseID uuid.UUID
		LessonID uuid.UUID
	}
	var rows []row
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Table("lesson AS l").
		Select("m.course_id AS course_id, l.id AS lesson_id").
		Joins("JOIN course_module AS m ON m.id = l.module_id").
		Where("m.course_id IN ?", courseIDs).
		Order("m.course_id, m.position, l.position").
		Scan(&rows).Error; err != nil {
		return nil, db.Classify(err)
	}
	for _, rr := range rows {
		out[rr.CourseID] = append(out[rr.CourseID], rr.LessonID)
	}
	return out, nil
}

func (r *lessonRepo) CountByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	var n int64
	if courseID == uuid.Nil {
		return 0, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Table("lesson AS l").
		Joins("JOIN course_module AS m ON m.id = l.module_id").
		Where("m.course_id = ?", courseID).
		Count(&n).Error; err != nil {
		return 0, db.Classify(err)
	}
	return n, nil
}

func (r *lessonRepo) CreateModule(dbc dbctx.Context, module *types.CourseModule, lessons []*types.Lesson) error {
	if module == nil {
		return nil
	}
	err := r.dbx(dbc).WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(module).Error; err != nil {
			return err
		}
		if len(lessons) == 0 {
			return nil
		}
		for i, l := range lessons {
			l.ModuleID = module.ID
			l.Position = i
		}
		return tx.Create(&lessons).Error
	})
	return db.Classify(err)
}
