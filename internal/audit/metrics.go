package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for audits. A nil *Metrics records nothing.
type Metrics struct {
	// Audit latency by job
	AuditDuration *prometheus.HistogramVec

	// Missing dates found by the last audit of a job
	MissingDates *prometheus.GaugeVec

	// Audit outcomes by job and outcome ("complete", "gaps", "error")
	AuditOutcome *prometheus.CounterVec

	// Unix time of the last finished audit of a job
	LastAudit *prometheus.GaugeVec
}

// NewMetrics creates the audit metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuditDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filehole_audit_duration_seconds",
			Help:    "Duration of a delivery audit including file listing and holiday lookup",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"job"}),

		MissingDates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "filehole_missing_deliveries",
			Help: "Expected delivery dates with no matching file at the last audit",
		}, []string{"job"}),

		AuditOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "filehole_audits_total",
			Help: "Total audits by job and outcome",
		}, []string{"job", "outcome"}),

		LastAudit: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "filehole_last_audit_timestamp_seconds",
			Help: "Unix time of the last finished audit",
		}, []string{"job"}),
	}
}

// ObserveAudit records a finished audit
func (m *Metrics) ObserveAudit(job string, missing int, d time.Duration) {
	if m == nil {
		return
	}
	m.AuditDuration.WithLabelValues(job).Observe(d.Seconds())
	m.MissingDates.WithLabelValues(job).Set(float64(missing))
	m.LastAudit.WithLabelValues(job).SetToCurrentTime()
	if missing > 0 {
		m.AuditOutcome.WithLabelValues(job, "gaps").Inc()
	} else {
		m.AuditOutcome.WithLabelValues(job, "complete").Inc()
	}
}

// IncrementError records a failed audit
func (m *Metrics) IncrementError(job string) {
	if m != nil {
		m.AuditOutcome.WithLabelValues(job, "error").Inc()
	}
}
