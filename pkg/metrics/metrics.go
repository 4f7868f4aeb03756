package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/canonical/maubot-operator/pkg/types"
)

var (
	// Reconciliation metrics
	ReconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maubot_operator_reconciliations_total",
			Help: "Total number of reconciliations by resulting status",
		},
		[]string{"status"},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maubot_operator_reconciliation_duration_seconds",
			Help:    "Reconciliation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationSkipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maubot_operator_reconciliation_skips_total",
			Help: "Total number of reconciliations skipped because applied state already matched",
		},
	)

	ApplyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maubot_operator_apply_failures_total",
			Help: "Total number of failed applies by step",
		},
		[]string{"step"},
	)

	// Unit status (one-hot: exactly one state is 1 at any time)
	UnitStatusState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "maubot_operator_unit_status",
			Help: "Current unit status (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	// Event metrics
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maubot_operator_events_total",
			Help: "Total number of dispatched events by kind",
		},
		[]string{"kind"},
	)

	EventDispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maubot_operator_event_dispatch_duration_seconds",
			Help:    "Event dispatch duration in seconds by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Action metrics
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maubot_operator_actions_total",
			Help: "Total number of account actions by action and result",
		},
		[]string{"action", "result"},
	)

	// Workload API metrics
	WorkloadAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maubot_operator_workload_api_requests_total",
			Help: "Total number of workload API requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	WorkloadAPIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maubot_operator_workload_api_request_duration_seconds",
			Help:    "Workload API request duration in seconds by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Supervisor metrics
	SupervisorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maubot_operator_supervisor_requests_total",
			Help: "Total number of supervisor API requests by operation and status",
		},
		[]string{"operation", "status"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ReconciliationsTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationSkipsTotal)
	prometheus.MustRegister(ApplyFailuresTotal)
	prometheus.MustRegister(UnitStatusState)
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(EventDispatchDuration)
	prometheus.MustRegister(ActionsTotal)
	prometheus.MustRegister(WorkloadAPIRequestsTotal)
	prometheus.MustRegister(WorkloadAPIRequestDuration)
	prometheus.MustRegister(SupervisorRequestsTotal)
}

var unitStatusStates = []types.StatusState{
	types.StatusUnknown,
	types.StatusWaiting,
	types.StatusBlocked,
	types.StatusActive,
}

// SetUnitStatus updates the one-hot unit status gauge
func SetUnitStatus(status types.UnitStatus) {
	for _, state := range unitStatusStates {
		value := 0.0
		if state == status.State {
			value = 1.0
		}
		UnitStatusState.WithLabelValues(string(state)).Set(value)
	}
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
