package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	t.Run("records", func(t *testing.T) {
		m := New(prometheus.NewRegistry())
		m.ObserveCommit(OutcomeCommitted, 10*time.Millisecond)
		m.ObserveCommit(OutcomeConflict, time.Millisecond)
		m.IncAuditRecord("users", "CREATED")
		m.IncAuditRecord("users", "CREATED")
		m.IncAuditWriteFailure()
		m.IncNoopSuppressed()

		if got := testutil.ToFloat64(m.Commits.WithLabelValues(OutcomeCommitted)); got != 1 {
			t.Errorf("expected 1 committed, got %v", got)
		}
		if got := testutil.ToFloat64(m.AuditRecords.WithLabelValues("users", "CREATED")); got != 2 {
			t.Errorf("expected 2 audit records, got %v", got)
		}
		if got := testutil.ToFloat64(m.AuditWriteFailures); got != 1 {
			t.Errorf("expected 1 failure, got %v", got)
		}
		if got := testutil.ToFloat64(m.AuditNoopsSuppressed); got != 1 {
			t.Errorf("expected 1 suppressed noop, got %v", got)
		}
	})

	t.Run("nil_is_safe", func(t *testing.T) {
		var m *Metrics
		m.ObserveCommit(OutcomeFailed, time.Second)
		m.IncAuditRecord("users", "UPDATED")
		m.IncAuditWriteFailure()
		m.IncNoopSuppressed()
	})
}
