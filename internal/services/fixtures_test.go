package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/careerpath-backend/internal/data/repos"
	"github.com/yungbote/careerpath-backend/internal/data/repos/testutil"
	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

type recordingInvalidator struct {
	mu   sync.Mutex
	tags []string
	err  error
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, tags ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tags...)
	return r.err
}

func (r *recordingInvalidator) Subscribe(ctx context.Context, onTag func(string)) error { return nil }

func (r *recordingInvalidator) Close() error { return nil }

func (r *recordingInvalidator) Tags() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tags...)
}

type fixture struct {
	db       *gorm.DB
	log      *logger.Logger
	repos    repos.Set
	inv      *recordingInvalidator
	progress *careerProgressService
	roadmap  CareerRoadmapService
	seeder   *CatalogSeeder
	cache    *RoadmapCache
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	progress  CareerProgressConfig
	cacheSize int
	wrap      func(repos.Set) repos.Set
	bootstrap bool
}

func withProgressConfig(cfg CareerProgressConfig) fixtureOption {
	return func(c *fixtureConfig) { c.progress = cfg }
}

func withCache(size int) fixtureOption {
	return func(c *fixtureConfig) { c.cacheSize = size }
}

func withRepos(wrap func(repos.Set) repos.Set) fixtureOption {
	return func(c *fixtureConfig) { c.wrap = wrap }
}

func withBootstrap() fixtureOption {
	return func(c *fixtureConfig) { c.bootstrap = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{progress: DefaultCareerProgressConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := testutil.DB(t)
	log := testutil.Logger(t)
	rs := repos.NewSet(db, log)
	if cfg.wrap != nil {
		rs = cfg.wrap(rs)
	}
	cache, err := NewRoadmapCache(cfg.cacheSize, nil)
	if err != nil {
		t.Fatalf("NewRoadmapCache: %v", err)
	}
	inv := &recordingInvalidator{}
	roadmap := NewCareerRoadmapService(log, rs, inv, nil, cache)
	seeder := NewCatalogSeeder(log, rs, roadmap)

	var bootstrap CareerBootstrapper
	if cfg.bootstrap {
		bootstrap = seeder
	}
	progress := NewCareerProgressService(log, rs, inv, nil, cache, bootstrap, cfg.progress).(*careerProgressService)

	return &fixture{
		db:       db,
		log:      log,
		repos:    rs,
		inv:      inv,
		progress: progress,
		roadmap:  roadmap,
		seeder:   seeder,
		cache:    cache,
	}
}
