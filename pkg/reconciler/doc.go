/*
Package reconciler keeps the workload container consistent with the state
the runtime describes.

The reconciler is the operator's state machine. Every lifecycle event runs
one full cycle: read the relation facts from the snapshot, build the
workload configuration, plan the process layers, and apply whatever
differs. Nothing is cached between cycles; two cycles with the same
snapshot and the same container contents reach the same result.

# Architecture

	Event ──▶ Reconcile(ctx, snapshot)
	              │
	              ▼
	    supervisor reachable? ──no──▶ Waiting("container not ready")
	              │
	              ▼
	    RelationReader.ReadAll ──malformed──▶ Blocked("invalid relation: <kind>")
	              │
	              ▼
	    ConfigBuilder.Build ──missing fact──▶ Waiting("waiting for <kind> relation")
	              │          ──bad value────▶ Blocked("invalid configuration: ...")
	              ▼
	    LayerPlanner.Plan
	              │
	              ▼
	    already applied? ──yes──▶ Active (no writes)
	              │
	              ▼
	    make dirs / push config / add layer / restart
	              │          ──any failure──▶ Blocked("apply failed: <step>")
	              ▼
	           Active

# Core Components

Reconciler:
  - Holds the supervisor client, the relation reader, the config builder,
    the layer planner, and the status reporter
  - Stateless between cycles; every run derives everything from its inputs
  - One public operation: Reconcile(ctx, snapshot)

StatusReporter:
  - The interface the reconciler writes its outcome through
  - Exactly one report per cycle, whatever the outcome

StatusTracker:
  - The bundled StatusReporter implementation
  - Remembers the last reported status behind a mutex
  - Starts as Waiting("container not ready") before any event arrives
  - Also serves the API's status endpoint via Status()

# Reconciliation Flow

Each cycle runs these steps in order:

 1. Probe the supervisor. Unreachable means the container is not ready
    for anything else; report Waiting and stop.
 2. Read all relation facts from the snapshot. Malformed data from any
    relation blocks the unit naming that relation.
 3. Build the workload configuration. A missing database fact reports
    Waiting for the database relation; an invalid configuration value
    blocks the unit with the detail.
 4. Plan the process layers from the configuration.
 5. Render everything to be written: the configuration document and the
    combined layer YAML. Render failures count as apply failures.
 6. Compare with the container: pull the applied configuration file and
    the active plan. Identical configuration bytes and an identical
    service/check set end the cycle Active with zero writes.
 7. Apply: ensure the data directories, push the configuration, add the
    combined layer, restart the services. The first failed step blocks
    the unit naming the step.
 8. Report Active.

# Status Semantics

Waiting marks conditions that resolve on their own: the container is still
starting, or a required relation has not published data yet. Blocked marks
conditions that need a human: malformed relation data, an invalid
configuration value, or a failed apply. The database relation is mandatory
and checked before the optional ones, so a unit missing everything reports
the database first.

Status is written through the StatusReporter exactly once per cycle,
overwriting whatever the previous cycle reported. There is no terminal
state; the next event always runs a full cycle.

Reason strings are stable and machine-matchable:
  - "container not ready"
  - "waiting for <kind> relation"
  - "invalid relation: <kind>"
  - "invalid configuration: <detail>"
  - "apply failed: <step>"

# Idempotence

Before writing anything, the reconciler pulls the configuration file and
the active plan from the container and compares them with what this cycle
computed. A byte-identical configuration and an identical service/check
set mean the cycle ends Active without a single write. This is what makes
event redelivery safe: dispatching the same snapshot twice performs the
writes once.

Any doubt counts as not applied: a missing configuration file, an
unreadable plan, or a comparison mismatch all fall through to a full
apply. The comparison is cheap (two reads) next to the apply it avoids
(four writes plus service restarts).

# Failure Handling

Apply failures are not retried internally. The cycle stops at the failed
step, reports Blocked naming it, and relies on the runtime's next event to
try again. Everything to be written is computed in memory before the first
write, and the three services ship in one combined layer, so a failed step
never leaves a half-replaced process set.

# Usage

Assembling and running a cycle:

	sup := supervisor.NewClient(supervisor.DefaultSocketPath)
	tracker := reconciler.NewStatusTracker()
	rec := reconciler.New(sup, relation.NewReader(), tracker)

	status := rec.Reconcile(ctx, snapshot)
	fmt.Println(status) // e.g. "active" or "waiting: container not ready"

As an event handler:

	dispatcher.Register(events.KindConfigChanged,
		func(ctx context.Context, event events.Event) types.UnitStatus {
			return rec.Reconcile(ctx, event.Snapshot)
		})

Reading the last status elsewhere:

	current := tracker.Status()

# Integration Points

This package integrates with:

  - pkg/relation: fact extraction and the malformed-data error
  - pkg/config: document building and the not-ready error
  - pkg/layer: planning, rendering, and the workload constants
  - pkg/supervisor: connectivity, reads, and all apply steps
  - pkg/events: registered as the handler for every event kind
  - pkg/api: StatusTracker serves the status endpoint
  - pkg/metrics: cycle counters, durations, and the unit status gauge

# Design Patterns

Compute Then Write:
  - All rendering happens before the first container write
  - A render failure costs nothing; an apply failure names its step

Errors As Status:
  - No error escapes Reconcile; every failure maps to a unit status
  - errors.As distinguishes the typed errors (malformed data, not ready)
    from plain configuration errors

Capability Injection:
  - The reconciler receives the supervisor client, reader, and reporter
    at construction
  - Tests substitute a scripted supervisor fake and a recording reporter

# Performance Characteristics

Cycle Cost:
  - Idle cycle (applied state matches): 3 supervisor reads, no writes
  - Apply cycle: 3 reads plus 4 writes plus service restarts
  - In-process work (validation, building, planning, rendering) is
    microseconds; supervisor round-trips dominate

Serialization:
  - The dispatcher serializes cycles; there is never more than one in
    flight, so container state cannot be raced by the operator itself

# Troubleshooting

Common Issues:

Unit stays Waiting("container not ready"):
  - Symptom: every event reports the same waiting status
  - Cause: supervisor socket unreachable
  - Check: the socket path and the container's startup logs
  - Solution: once the daemon answers, the next event proceeds normally

Unit Blocked("invalid relation: database"):
  - Symptom: blocked immediately after a relation change
  - Cause: the remote side published incomplete or malformed data
  - Check: the databag against the relation contract in pkg/relation
  - Solution: fix the remote application; redelivery clears the status

Every event performs a full apply:
  - Symptom: maubot_operator_reconciliation_skips_total never increases
  - Cause: the idempotence comparison keeps failing
  - Check: the applied config file and plan the daemon reports
  - Solution: verify nothing else mutates /data/config.yaml in the
    container

# Monitoring Metrics

Key metrics emitted per cycle:

  - maubot_operator_reconciliations_total{status}: cycles by outcome
  - maubot_operator_reconciliation_duration_seconds: full cycle latency
  - maubot_operator_reconciliation_skips_total: cycles with zero writes
  - maubot_operator_apply_failures_total{step}: failed applies by step
  - maubot_operator_unit_status{state}: one-hot current status gauge

A healthy unit shows skips growing with event volume and a flat apply
failure count.

# See Also

  - pkg/relation for the fact contracts the cycle consumes
  - pkg/config and pkg/layer for what gets computed
  - pkg/supervisor for the container boundary
  - pkg/events for how cycles are triggered
*/
package reconciler
