package cacheinv

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

const (
	dashboardPrefix = "dashboard:"
	roadmapPrefix   = "roadmap:"

	// AllDashboards marks every user's dashboard as stale.
	AllDashboards = "dashboard:*"
)

// Invalidator signals downstream consumers that cached views tagged with tags are stale.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
	// Subscribe delivers tags published by other processes until ctx is done.
	Subscribe(ctx context.Context, onTag func(tag string)) error
	Close() error
}

func DashboardTag(userID uuid.UUID) string { return dashboardPrefix + userID.String() }

func RoadmapTag(careerID uuid.UUID) string { return roadmapPrefix + careerID.String() }

// ParseRoadmapTag returns the career id of a roadmap tag.
func ParseRoadmapTag(tag string) (uuid.UUID, bool) {
	if !strings.HasPrefix(tag, roadmapPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(tag, roadmapPrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func isWildcard(tag string) bool { return strings.HasSuffix(tag, "*") }

type noop struct{}

// NewNoop returns an Invalidator that drops every signal.
func NewNoop() Invalidator { return noop{} }

func (noop) Invalidate(context.Context, ...string) error { return nil }

func (noop) Subscribe(ctx context.Context, _ func(string)) error { return nil }

func (noop) Close() error { return nil }
