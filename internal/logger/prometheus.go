package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// counter is a singleton for the log statement counter vec.
	counter *prometheus.CounterVec //nolint:gochecknoglobals

	// auditCounter counts audit events by entity and action.
	auditCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Number of audited back office changes, differentiated by entity and action.",
		},
		[]string{"entity", "action"},
	)
)

// PrometheusHook calls Prometheus statistics at log write.
type PrometheusHook struct{}

// Run implements zerolog.Hook run method.
func (h PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel {
		counter.WithLabelValues(level.String()).Inc()
	}
}

// NewPrometheusHook returns a prometheus hook counting how often a specific log level was used.
func NewPrometheusHook(service string) PrometheusHook {
	if counter == nil {
		counter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "log_statements_total",
				Help:        "Number of log statements, differentiated by log level.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			[]string{"level"},
		)
	}

	return PrometheusHook{}
}

// AuditEvent writes one audit line and bumps the audit counter.
// The returned event may be extended with fields before Msg is called.
func AuditEvent(entity, action string) *zerolog.Event {
	auditCounter.WithLabelValues(entity, action).Inc()

	return auditLogger.Log().Str("entity", entity).Str("action", action)
}
