/*
Package metrics provides Prometheus metrics and health reporting for the
maubot operator.

The metrics package exposes counters, histograms, and gauges covering
reconciliations, event dispatch, account actions, and the two outbound HTTP
boundaries (supervisor and workload API). It also carries the component
health registry behind the operator's health endpoints, and the scrape-job
definition the operator publishes so an external Prometheus can probe the
workload through its blackbox exporter.

# Architecture

	┌──────────────────── METRICS SYSTEM ────────────────────────┐
	│                                                             │
	│  ┌──────────────────────────────────────────────┐          │
	│  │         Prometheus Collectors                 │          │
	│  │  - Registered in init() via MustRegister      │          │
	│  │  - maubot_operator_* namespace                │          │
	│  │  - Updated inline by the owning packages      │          │
	│  └──────────────────┬───────────────────────────┘          │
	│                     │                                       │
	│  ┌──────────────────▼───────────────────────────┐          │
	│  │         HTTP Surfaces                         │          │
	│  │  - Handler(): GET /metrics (promhttp)         │          │
	│  │  - HealthHandler(): GET /v1/health            │          │
	│  │  - ReadyHandler(): GET /v1/ready              │          │
	│  │  - LivenessHandler(): GET /v1/livez           │          │
	│  └──────────────────┬───────────────────────────┘          │
	│                     │                                       │
	│  ┌──────────────────▼───────────────────────────┐          │
	│  │         Component Health Registry             │          │
	│  │  - supervisor / dispatcher / api              │          │
	│  │  - RegisterComponent / UpdateComponent        │          │
	│  │  - Readiness requires all critical healthy    │          │
	│  └──────────────────────────────────────────────┘          │
	└─────────────────────────────────────────────────────────────┘

# Core Components

Collectors:
  - Package-level vars, one per concern, registered once in init()
  - Owning packages update them inline at the point of the event

Timer:
  - Start with NewTimer(), read with Duration()
  - ObserveDuration feeds a histogram; ObserveDurationVec a labeled one

Health registry:
  - Named components with a healthy flag and a message
  - GetHealth aggregates; GetReadiness additionally requires every
    critical component (supervisor, dispatcher, api) present and healthy
  - HTTP handlers render both as JSON with appropriate status codes

Scrape jobs:
  - ScrapeJob, TargetGroup, RelabelConfig model one Prometheus job
  - ProbeScrapeJobs builds the blackbox probe job for this unit

# Metrics Catalog

Reconciliation:
  - maubot_operator_reconciliations_total{status}: cycles by resulting status
  - maubot_operator_reconciliation_duration_seconds: cycle latency
  - maubot_operator_reconciliation_skips_total: cycles where applied state
    already matched (idempotent no-ops)
  - maubot_operator_apply_failures_total{step}: failed applies by step
    (make dirs, push config, add layer, restart services)

Status:
  - maubot_operator_unit_status{state}: one-hot gauge; exactly one of
    unknown/waiting/blocked/active is 1

Events and actions:
  - maubot_operator_events_total{kind}: dispatched events by kind
  - maubot_operator_event_dispatch_duration_seconds{kind}: handler latency
  - maubot_operator_actions_total{action,result}: account actions by
    action name and ok/error outcome

Outbound boundaries:
  - maubot_operator_supervisor_requests_total{operation,status}
  - maubot_operator_workload_api_requests_total{operation,status}
  - maubot_operator_workload_api_request_duration_seconds{operation}

# Usage

Timing a reconciliation:

	timer := metrics.NewTimer()
	status := r.reconcile(ctx, snap)
	timer.ObserveDuration(metrics.ReconciliationDuration)
	metrics.ReconciliationsTotal.WithLabelValues(string(status.State)).Inc()
	metrics.SetUnitStatus(status)

Serving the endpoints:

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/v1/health", metrics.HealthHandler())
	mux.HandleFunc("/v1/ready", metrics.ReadyHandler())
	mux.HandleFunc("/v1/livez", metrics.LivenessHandler())

Component health:

	metrics.RegisterComponent("supervisor", true, "")
	// on a failed connectivity probe:
	metrics.UpdateComponent("supervisor", false, "socket unreachable")

Reading aggregate health in-process:

	health := metrics.GetHealth()
	if health.Status != "healthy" {
		// at least one component reported a problem
	}

# Probe Scrape Jobs

The workload container runs a blackbox exporter as its probe layer. The
operator does not scrape it; it publishes the scrape-job definition for the
runtime's metrics integration to hand to Prometheus:

	jobs := metrics.ProbeScrapeJobs("maubot/0", "maubot", "prod")

The job probes the workload's well-known path through the exporter, with the
relabeling the blackbox exporter docs prescribe (target into __param_target
and instance, exporter address into __address__). A probe failure shows up
as probe_success 0 in Prometheus; it never restarts the workload.

# Health vs Unit Status

Two different things:
  - Unit status (waiting/blocked/active) describes the workload's
    configuration state and is set by the reconciler.
  - Component health (supervisor/dispatcher/api) describes the operator
    process itself and feeds /v1/health and /v1/ready.

A unit can be Blocked while the operator is perfectly healthy.

# Integration Points

This package integrates with:

  - pkg/reconciler: cycle counters, duration, skip counter, unit status
  - pkg/events: event counters and dispatch duration
  - pkg/actions: action outcome counters
  - pkg/supervisor, pkg/maubot: outbound request counters
  - pkg/api: mounts all HTTP surfaces
  - cmd/maubot-operator: version info and the supervisor health probe

# Design Patterns

Inline Instrumentation:
  - Packages update collectors at the point where the event happens
  - No middleware layer; the call sites stay visible and greppable

One-Hot Status Gauge:
  - SetUnitStatus writes all four states every time, exactly one at 1
  - Dashboards read the current state without max_over_time tricks

Global Registry:
  - Collectors register once in init(); double registration panics at
    startup rather than silently splitting a metric

# Performance Characteristics

Collector Updates:
  - Counter increments and gauge sets are lock-free atomics, ~10ns
  - Histogram observations: ~50ns with default buckets
  - Per reconciliation: a handful of updates, invisible next to I/O

Scrape Cost:
  - /metrics renders the full registry per scrape, a few KB of text
  - Health endpoints serialize the component map, microseconds

# Troubleshooting

Common Issues:

Readiness stays false:
  - Symptom: /v1/ready returns 503
  - Cause: a critical component missing or unhealthy
  - Check: the response body lists components and messages
  - Solution: the supervisor entry reflects the last connectivity probe;
    it recovers on the next successful event

Duplicate registration panic at startup:
  - Symptom: "duplicate metrics collector registration attempted"
  - Cause: a collector var declared twice or init run twice via import
  - Check: new collectors are added to the single var block
  - Solution: register only in this package's init()

# Alerting Rules

Suggested starting points:

	- alert: MaubotUnitBlocked
	  expr: maubot_operator_unit_status{state="blocked"} == 1
	  for: 15m

	- alert: MaubotApplyFailures
	  expr: increase(maubot_operator_apply_failures_total[1h]) > 3

	- alert: MaubotWorkloadProbeFailing
	  expr: probe_success{job="blackbox_maubot"} == 0
	  for: 10m

# See Also

  - pkg/api for where the handlers are mounted
  - pkg/layer for the blackbox layer the scrape job pairs with
  - pkg/reconciler for when the reconciliation metrics move
  - https://prometheus.io/docs/practices/naming/ for the metric naming
*/
package metrics
