package mandate

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector records mandate pipeline outcomes.
type MetricsCollector interface {
	RecordCreate(outcome string)
	RecordWebhook(outcome string)
	RecordReconciliation(status string)
	RecordCodecFailure(scheme, kind string)
	RecordTaskResult(result string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreate(string)               {}
func (NoopMetricsCollector) RecordWebhook(string)              {}
func (NoopMetricsCollector) RecordReconciliation(string)       {}
func (NoopMetricsCollector) RecordCodecFailure(string, string) {}
func (NoopMetricsCollector) RecordTaskResult(string)           {}

// PrometheusMetrics exports the pipeline counters.
type PrometheusMetrics struct {
	creates         *prometheus.CounterVec
	webhooks        *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	codecFailures   *prometheus.CounterVec
	taskResults     *prometheus.CounterVec
}

// NewPrometheusMetrics creates the counters and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		creates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emandate",
			Name:      "mandate_creates_total",
			Help:      "Mandate create requests by outcome.",
		}, []string{"outcome"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emandate",
			Name:      "mandate_webhooks_total",
			Help:      "Gateway webhook callbacks by outcome.",
		}, []string{"outcome"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emandate",
			Name:      "mandate_reconciliations_total",
			Help:      "Applied reconciliations by resulting transaction status.",
		}, []string{"status"}),
		codecFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emandate",
			Name:      "codec_failures_total",
			Help:      "Payload decode failures by scheme and error kind.",
		}, []string{"scheme", "kind"}),
		taskResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emandate",
			Name:      "reconciliation_task_results_total",
			Help:      "Outbox task processing results.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.creates, m.webhooks, m.reconciliations, m.codecFailures, m.taskResults} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordCreate(outcome string) {
	m.creates.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) RecordWebhook(outcome string) {
	m.webhooks.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) RecordReconciliation(status string) {
	m.reconciliations.WithLabelValues(status).Inc()
}

func (m *PrometheusMetrics) RecordCodecFailure(scheme, kind string) {
	m.codecFailures.WithLabelValues(scheme, kind).Inc()
}

func (m *PrometheusMetrics) RecordTaskResult(result string) {
	m.taskResults.WithLabelValues(result).Inc()
}
