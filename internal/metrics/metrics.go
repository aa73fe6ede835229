// Package metrics exposes Prometheus instrumentation for units-of-work and
// the audit sink. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commit outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeNoop      = "noop"
	OutcomeConflict  = "conflict"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Metrics holds the collectors for the audit core.
type Metrics struct {
	Commits              *prometheus.CounterVec
	CommitLatency        prometheus.Histogram
	AuditRecords         *prometheus.CounterVec
	AuditWriteFailures   prometheus.Counter
	AuditNoopsSuppressed prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trailkeeper_uow_commits_total",
			Help: "Unit-of-work commits by outcome",
		}, []string{"outcome"}),

		CommitLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trailkeeper_uow_commit_duration_seconds",
			Help:    "Duration of unit-of-work commits from stamping to resolution",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		AuditRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trailkeeper_audit_records_written_total",
			Help: "Audit rows appended by table and action",
		}, []string{"table", "action"}),

		AuditWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trailkeeper_audit_write_failures_total",
			Help: "Audit writes that failed and aborted their unit-of-work",
		}),

		AuditNoopsSuppressed: f.NewCounter(prometheus.CounterOpts{
			Name: "trailkeeper_audit_noops_suppressed_total",
			Help: "Update records with no changed fields that were not written",
		}),
	}
}

// ObserveCommit records one resolved commit.
func (m *Metrics) ObserveCommit(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(outcome).Inc()
	m.CommitLatency.Observe(d.Seconds())
}

// IncAuditRecord records one appended audit row.
func (m *Metrics) IncAuditRecord(table, action string) {
	if m != nil {
		m.AuditRecords.WithLabelValues(table, action).Inc()
	}
}

// IncAuditWriteFailure records a failed audit write.
func (m *Metrics) IncAuditWriteFailure() {
	if m != nil {
		m.AuditWriteFailures.Inc()
	}
}

// IncNoopSuppressed records a skipped no-op update record.
func (m *Metrics) IncNoopSuppressed() {
	if m != nil {
		m.AuditNoopsSuppressed.Inc()
	}
}
