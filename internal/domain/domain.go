package domain

import (
	"github.com/yungbote/careerpath-backend/internal/domain/billing"
	"github.com/yungbote/careerpath-backend/internal/domain/careers"
	"github.com/yungbote/careerpath-backend/internal/domain/catalog"
)

type Career = careers.Career
type CareerMilestone = careers.CareerMilestone
type UserCareer = careers.UserCareer
type MilestoneType = careers.MilestoneType
type CareerStatus = careers.Status

const (
	MilestoneCourse       = careers.MilestoneCourse
	MilestoneSubscription = careers.MilestoneSubscription

	CareerInProgress = careers.StatusInProgress
	CareerCompleted  = careers.StatusCompleted
)

func CareerStatusForProgress(progress int) CareerStatus { return careers.StatusForProgress(progress) }

type Course = catalog.Course
type CourseModule = catalog.CourseModule
type Lesson = catalog.Lesson
type UserLessonProgress = catalog.UserLessonProgress

type Subscription = billing.Subscription
type Purchase = billing.Purchase

const (
	SubscriptionActive     = billing.SubscriptionActive
	SubscriptionAuthorized = billing.SubscriptionAuthorized
	SubscriptionPaused     = billing.SubscriptionPaused
	SubscriptionCancelled  = billing.SubscriptionCancelled
	PurchaseApproved       = billing.PurchaseApproved
)

// AllModels lists every table owned or read by this service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Course{},
		&CourseModule{},
		&Lesson{},
		&UserLessonProgress{},

		&Subscription{},
		&Purchase{},

		&Career{},
		&CareerMilestone{},
		&UserCareer{},
	}
}
