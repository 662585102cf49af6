package observability

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/careerpath-backend/internal/platform/logger"
)

const namespace = "careerpath"

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	progressComputations *prometheus.CounterVec
	progressLatency      prometheus.Histogram
	progressWrites       prometheus.Counter
	progressSkips        prometheus.Counter
	missingCourses       prometheus.Counter
	syncCareers          *prometheus.CounterVec
	roadmapReplacements  *prometheus.CounterVec
	invalidationFailures *prometheus.CounterVec
	roadmapCache         *prometheus.CounterVec
}

func New(log *logger.Logger) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		progressComputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "career_progress_computations_total",
			Help:      "Career progress computations by outcome.",
		}, []string{"outcome"}),
		progressLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "career_progress_duration_seconds",
			Help:      "Latency of a single career progress computation.",
			Buckets:   prometheus.DefBuckets,
		}),
		progressWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "career_progress_writes_total",
			Help:      "User career rows written because the computed progress changed.",
		}),
		progressSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "career_progress_unchanged_total",
			Help:      "Computations whose result matched the stored progress.",
		}),
		missingCourses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "career_milestone_missing_course_total",
			Help:      "COURSE milestones whose course row could not be found.",
		}),
		syncCareers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "career_sync_careers_total",
			Help:      "Careers visited by batch sync, by result.",
		}, []string{"result"}),
		roadmapReplacements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "career_roadmap_replacements_total",
			Help:      "Milestone list replacements by outcome.",
		}, []string{"outcome"}),
		invalidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidation_failures_total",
			Help:      "Cache invalidation signals that could not be delivered.",
		}, []string{"source"}),
		roadmapCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roadmap_cache_lookups_total",
			Help:      "Roadmap cache lookups by result.",
		}, []string{"result"}),
	}
	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.progressComputations,
		m.progressLatency,
		m.progressWrites,
		m.progressSkips,
		m.missingCourses,
		m.syncCareers,
		m.roadmapReplacements,
		m.invalidationFailures,
		m.roadmapCache,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	if log != nil {
		log.Info("prometheus metrics initialized")
	}
	return m, nil
}

// RegisterDBStats exports connection pool statistics for db.
func (m *Metrics) RegisterDBStats(db *sql.DB) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, namespace))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAPI(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// ObserveProgress records one computation; outcome is ok, not_found or error.
func (m *Metrics) ObserveProgress(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.progressComputations.WithLabelValues(outcome).Inc()
	m.progressLatency.Observe(d.Seconds())
}

func (m *Metrics) IncProgressWrite() {
	if m == nil {
		return
	}
	m.progressWrites.Inc()
}

func (m *Metrics) IncProgressUnchanged() {
	if m == nil {
		return
	}
	m.progressSkips.Inc()
}

func (m *Metrics) IncMissingCourse() {
	if m == nil {
		return
	}
	m.missingCourses.Inc()
}

// IncSyncCareer records a batch sync visit; result is written, unchanged or skipped.
func (m *Metrics) IncSyncCareer(result string) {
	if m == nil {
		return
	}
	m.syncCareers.WithLabelValues(result).Inc()
}

func (m *Metrics) IncRoadmapReplace(outcome string) {
	if m == nil {
		return
	}
	m.roadmapReplacements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncInvalidationFailure(source string) {
	if m == nil {
		return
	}
	m.invalidationFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) IncRoadmapCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.roadmapCache.WithLabelValues(result).Inc()
}
