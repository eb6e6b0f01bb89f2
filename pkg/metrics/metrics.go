package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Authentication metrics
	LoginAttempts   *prometheus.CounterVec
	AccountLockouts prometheus.Counter
	PasswordChanges *prometheus.CounterVec

	// Authorization metrics
	PermissionChecks *prometheus.CounterVec
	GrantsIssued     prometheus.Counter
	GrantsRevoked    prometheus.Counter

	// Audit ledger metrics
	AuditEntriesWritten   prometheus.Counter
	IntegrityFailures     prometheus.Counter
	IntegritySweepTotal   prometheus.Counter
	IntegritySweepLatency prometheus.Histogram

	// Pass metrics
	PassChecks *prometheus.CounterVec

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		AccountLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_lockouts_total",
			Help:      "Total number of accounts locked after repeated failures",
		}),
		PasswordChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_changes_total",
			Help:      "Total number of password change attempts by outcome",
		}, []string{"outcome"}),

		PermissionChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_checks_total",
			Help:      "Total number of authorization decisions",
		}, []string{"decision"}),
		GrantsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegated_grants_issued_total",
			Help:      "Total number of delegated permission grants",
		}),
		GrantsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegated_grants_revoked_total",
			Help:      "Total number of delegated permission revocations",
		}),

		AuditEntriesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_written_total",
			Help:      "Total number of audit entries appended to the ledger",
		}),
		IntegrityFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_integrity_failures_total",
			Help:      "Total number of audit entries that failed tag verification",
		}),
		IntegritySweepTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_integrity_sweeps_total",
			Help:      "Total number of completed integrity sweeps",
		}),
		IntegritySweepLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_integrity_sweep_duration_seconds",
			Help:      "Time spent verifying audit entries per sweep",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),

		PassChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pass_checks_total",
			Help:      "Total number of entry-pass validity checks by result",
		}, []string{"result"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path", "status"}),
	}
}
