package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. All methods are
// safe on a nil receiver so tests can skip instrumentation.
type Metrics struct {
	RegistrationsSubmitted *prometheus.CounterVec
	CompletionsTotal       *prometheus.CounterVec
	SelfHealedTotal        prometheus.Counter
	CompletionDuration     prometheus.Histogram
	NotificationsTotal     *prometheus.CounterVec
	ProvisionalPurged      prometheus.Counter
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in main and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "confreg_registrations_submitted_total",
			Help: "Registrations accepted, by kind (provisional, upgrade, cash)",
		}, []string{"kind"}),
		CompletionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "confreg_completions_total",
			Help: "Payment completions, by source and outcome",
		}, []string{"source", "outcome"}),
		SelfHealedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "confreg_completion_self_healed_total",
			Help: "Completions that recovered a missing order id via the fallback registration id",
		}),
		CompletionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "confreg_completion_duration_seconds",
			Help:    "Duration of payment completion (lookup, merge, delete)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "confreg_notifications_total",
			Help: "Notification deliveries, by channel and outcome",
		}, []string{"channel", "outcome"}),
		ProvisionalPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "confreg_provisional_purged_total",
			Help: "Provisional registrations removed after the retention window",
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "confreg_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncSubmitted(kind string) {
	if m == nil {
		return
	}
	m.RegistrationsSubmitted.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncCompletion(source, outcome string) {
	if m == nil {
		return
	}
	m.CompletionsTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) IncSelfHealed() {
	if m == nil {
		return
	}
	m.SelfHealedTotal.Inc()
}

// ObserveCompletion records the duration of a completion.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCompletion(start time.Time) {
	if m == nil {
		return
	}
	m.CompletionDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncNotification(channel, outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) AddPurged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ProvisionalPurged.Add(float64(n))
}

func (m *Metrics) ObserveHTTP(method, route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}
