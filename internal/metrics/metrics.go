package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SOSTriggered        prometheus.Counter
	SOSAudienceSize     prometheus.Histogram
	PushDeliveries      *prometheus.CounterVec
	PushBatches         *prometheus.CounterVec
	EmailDeliveries     *prometheus.CounterVec
	HistoryPruned       prometheus.Counter
}

// New registers the collectors on reg. Tests pass a fresh registry so
// repeated construction does not panic on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shesecure_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shesecure_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		SOSTriggered: f.NewCounter(prometheus.CounterOpts{
			Name: "shesecure_sos_triggered_total",
			Help: "SOS alerts accepted for fan-out",
		}),
		SOSAudienceSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "shesecure_sos_audience_size",
			Help:    "Number of circle peers resolved per SOS",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		PushDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shesecure_push_deliveries_total",
			Help: "Push notification outcomes per recipient",
		}, []string{"outcome"}),
		PushBatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shesecure_push_batches_total",
			Help: "Push provider calls by outcome",
		}, []string{"outcome"}),
		EmailDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shesecure_email_deliveries_total",
			Help: "SOS email outcomes per recipient",
		}, []string{"outcome"}),
		HistoryPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "shesecure_location_history_pruned_total",
			Help: "Location history rows removed by the retention job",
		}),
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, latency time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

func (m *Metrics) ObserveSOS(audienceSize int) {
	m.SOSTriggered.Inc()
	m.SOSAudienceSize.Observe(float64(audienceSize))
}

func (m *Metrics) AddPush(outcome string, n int) {
	m.PushDeliveries.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) IncPushBatch(outcome string) {
	m.PushBatches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncEmail(outcome string) {
	m.EmailDeliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddHistoryPruned(n int64) {
	m.HistoryPruned.Add(float64(n))
}
