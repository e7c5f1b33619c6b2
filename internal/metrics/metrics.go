// Package metrics defines the Prometheus counters exported by the reminder
// pipeline, served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsStarted counts workflow runs entered (trigger or wake-up).
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminder_runs_started_total",
		Help: "Number of reminder workflow run executions started.",
	})

	// RunsSuspended counts durable suspensions written.
	RunsSuspended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminder_runs_suspended_total",
		Help: "Number of times a reminder run was suspended until a wake time.",
	})

	// RunsCompleted counts runs that processed every offset.
	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminder_runs_completed_total",
		Help: "Number of reminder runs that processed all offsets.",
	})

	// RunsAbandoned counts runs terminated early (missing, inactive or
	// already renewed subscription).
	RunsAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminder_runs_abandoned_total",
		Help: "Number of reminder runs terminated without processing offsets.",
	})

	// RemindersPublished counts reminder commands handed to the notifier.
	RemindersPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminders_published_total",
		Help: "Number of reminder send commands published.",
	})

	// RemindersSkipped counts offsets skipped because their instant had
	// already passed when the run executed.
	RemindersSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminders_skipped_total",
		Help: "Number of reminder offsets skipped as already past.",
	})

	// EmailsSent counts reminder emails delivered over SMTP.
	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminder_emails_sent_total",
		Help: "Number of reminder emails delivered.",
	})

	// EmailsFailed counts transport failures (retried by the broker).
	EmailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminder_emails_failed_total",
		Help: "Number of reminder email deliveries that failed.",
	})

	// EmailsDeduplicated counts sends skipped by the dedupe ledger.
	EmailsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminder_emails_deduplicated_total",
		Help: "Number of duplicate reminder sends suppressed.",
	})

	// InvalidTemplates counts commands dropped for unknown template labels.
	InvalidTemplates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_reminder_invalid_templates_total",
		Help: "Number of reminder commands dropped due to unknown template labels.",
	})
)
