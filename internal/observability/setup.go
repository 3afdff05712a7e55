package observability

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/slavuta-ads/adsbot"

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_events_total",
			Help: "Inbound events by kind and gate outcome",
		},
		[]string{"kind", "outcome"},
	)

	eventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adsbot_event_duration_seconds",
			Help:    "Time spent dispatching one inbound event",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_submissions_total",
			Help: "Accepted submissions by form type",
		},
		[]string{"form_type"},
	)

	quotaDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_quota_denied_total",
			Help: "Submissions refused by the rate limiter",
		},
		[]string{"kind"},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_deliveries_total",
			Help: "Outbound sends by status",
		},
		[]string{"status"},
	)

	jobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_job_runs_total",
			Help: "Scheduled job runs by job and status",
		},
		[]string{"job", "status"},
	)

	blacklistSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsbot_blacklist_size",
			Help: "Current number of blacklist entries",
		},
	)

	registerOnce sync.Once
)

// Init registers metrics and installs the tracer provider; it returns the provider shutdown.
func Init() func(ctx context.Context) error {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			eventsTotal,
			eventDuration,
			submissionsTotal,
			quotaDeniedTotal,
			deliveriesTotal,
			jobRunsTotal,
			blacklistSize,
		)
	})
	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

func Tracer() oteltrace.Tracer {
	return otel.Tracer(tracerName)
}

func RecordEvent(kind, outcome string) {
	eventsTotal.WithLabelValues(kind, outcome).Inc()
}

// StartEvent returns a function that records the dispatch duration of one event.
func StartEvent(kind string) func() {
	started := time.Now()
	return func() {
		eventDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	}
}

func RecordSubmission(formType string) {
	submissionsTotal.WithLabelValues(formType).Inc()
}

func RecordQuotaDenied(kind string) {
	quotaDeniedTotal.WithLabelValues(kind).Inc()
}

func RecordDelivery(ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	deliveriesTotal.WithLabelValues(status).Inc()
}

func RecordJobRun(job string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	jobRunsTotal.WithLabelValues(job, status).Inc()
}

func SetBlacklistSize(n int) {
	blacklistSize.Set(float64(n))
}
