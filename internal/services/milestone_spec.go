package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/careerpath-backend/internal/domain"
	pkgerrors "github.com/yungbote/careerpath-backend/internal/pkg/errors"
)

// MilestoneSpec is one entry of a new milestone list: CourseMilestone or SubscriptionMilestone.
type MilestoneSpec interface {
	milestone() *types.CareerMilestone
}

type CourseMilestone struct {
	CourseID uuid.UUID
}

func (s CourseMilestone) milestone() *types.CareerMilestone {
	id := s.CourseID
	return &types.CareerMilestone{Type: types.MilestoneCourse, CourseID: &id}
}

type SubscriptionMilestone struct{}

func (SubscriptionMilestone) milestone() *types.CareerMilestone {
	return &types.CareerMilestone{Type: types.MilestoneSubscription}
}

// RawMilestoneSpec is the wire and catalog shape of a milestone spec.
type RawMilestoneSpec struct {
	Type     string `json:"type" yaml:"type"`
	CourseID string `json:"course_id,omitempty" yaml:"course_id,omitempty"`
}

// ParseMilestoneSpecs validates raw specs, keeping their order.
func ParseMilestoneSpecs(raw []RawMilestoneSpec) ([]MilestoneSpec, error) {
	specs := make([]MilestoneSpec, 0, len(raw))
	for i, r := range raw {
		courseRef := strings.TrimSpace(r.CourseID)
		switch types.MilestoneType(strings.ToUpper(strings.TrimSpace(r.Type))) {
		case types.MilestoneCourse:
			if courseRef == "" {
				return nil, fmt.Errorf("%w: milestone %d: COURSE requires course_id", pkgerrors.ErrInvalidArgument, i)
			}
			id, err := uuid.Parse(courseRef)
			if err != nil || id == uuid.Nil {
				return nil, fmt.Errorf("%w: milestone %d: invalid course_id %q", pkgerrors.ErrInvalidArgument, i, courseRef)
			}
			specs = append(specs, CourseMilestone{CourseID: id})
		case types.MilestoneSubscription:
			if courseRef != "" {
				return nil, fmt.Errorf("%w: milestone %d: SUBSCRIPTION cannot carry course_id", pkgerrors.ErrInvalidArgument, i)
			}
			specs = append(specs, SubscriptionMilestone{})
		default:
			return nil, fmt.Errorf("%w: milestone %d: unknown type %q", pkgerrors.ErrInvalidArgument, i, r.Type)
		}
	}
	return specs, nil
}
