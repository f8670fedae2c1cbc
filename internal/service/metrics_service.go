package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP, cache and scheduling instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	enrollments        *prometheus.CounterVec
	trialSelfHeals     prometheus.Counter
	trialsRecorded     *prometheus.CounterVec
	schedulingWarnings prometheus.Counter
	eventsPurged       prometheus.Counter
	notifications      *prometheus.CounterVec
	rateLimited        prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers every collector on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollments_total",
			Help: "Enrollment attempts by outcome",
		}, []string{"outcome"}),
		trialSelfHeals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trial_ledger_self_heals_total",
			Help: "Trial set entries restored from the booking log",
		}),
		trialsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trials_recorded_total",
			Help: "Trial bookings by whether a new entry was written",
		}, []string{"created"}),
		schedulingWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduling_warnings_total",
			Help: "Enrollments stored without their calendar events",
		}),
		eventsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calendar_events_purged_total",
			Help: "Calendar events removed before re-projection",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification deliveries by sink and result",
		}, []string{"sink", "result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.enrollments, m.trialSelfHeals, m.trialsRecorded, m.schedulingWarnings, m.eventsPurged,
		m.notifications, m.rateLimited, goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request latency and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a hit or miss and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordEnrollment counts an enrollment by outcome (complete, needs_slot_selection, warning, rejected).
func (m *MetricsService) RecordEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.enrollments.WithLabelValues(outcome).Inc()
}

// RecordTrialSelfHeal counts a trial set repair.
func (m *MetricsService) RecordTrialSelfHeal() {
	if m == nil {
		return
	}
	m.trialSelfHeals.Inc()
}

// RecordTrial counts a trial booking.
func (m *MetricsService) RecordTrial(created bool) {
	if m == nil {
		return
	}
	m.trialsRecorded.WithLabelValues(strconv.FormatBool(created)).Inc()
}

// RecordSchedulingWarning counts an enrollment whose sessions were not written.
func (m *MetricsService) RecordSchedulingWarning() {
	if m == nil {
		return
	}
	m.schedulingWarnings.Inc()
}

// RecordEventsPurged adds to the purged calendar events counter.
func (m *MetricsService) RecordEventsPurged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.eventsPurged.Add(float64(n))
}

// RecordNotification counts a delivery attempt.
func (m *MetricsService) RecordNotification(sink string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.notifications.WithLabelValues(sink, result).Inc()
}

// RecordNotificationDropped counts a delivery discarded because the queue was full.
func (m *MetricsService) RecordNotificationDropped(sink string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(sink, "dropped").Inc()
}

// RecordRateLimited counts a throttled request.
func (m *MetricsService) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
