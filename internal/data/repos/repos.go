package repos

import (
	"github.com/yungbote/careerpath-backend/internal/data/repos/billing"
	"github.com/yungbote/careerpath-backend/internal/data/repos/careers"
	"github.com/yungbote/careerpath-backend/internal/data/repos/catalog"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type CareerRepo = careers.CareerRepo
type CareerMilestoneRepo = careers.CareerMilestoneRepo
type UserCareerRepo = careers.UserCareerRepo

type CourseRepo = catalog.CourseRepo
type LessonRepo = catalog.LessonRepo
type LessonProgressRepo = catalog.LessonProgressRepo

type SubscriptionRepo = billing.SubscriptionRepo
type PurchaseRepo = billing.PurchaseRepo

// Set is every repository the service layer depends on, bound to one storage handle.
type Set struct {
	Career          CareerRepo
	CareerMilestone CareerMilestoneRepo
	UserCareer      UserCareerRepo

	Course         CourseRepo
	Lesson         LessonRepo
	LessonProgress LessonProgressRepo

	Subscription SubscriptionRepo
	Purchase     PurchaseRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Career:          careers.NewCareerRepo(db, log),
		CareerMilestone: careers.NewCareerMilestoneRepo(db, log),
		UserCareer:      careers.NewUserCareerRepo(db, log),

		Course:         catalog.NewCourseRepo(db, log),
		Lesson:         catalog.NewLessonRepo(db, log),
		LessonProgress: catalog.NewLessonProgressRepo(db, log),

		Subscription: billing.NewSubscriptionRepo(db, log),
		Purchase:     billing.NewPurchaseRepo(db, log),
	}
}
