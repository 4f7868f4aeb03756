/*
Package types defines the core data structures used throughout the maubot
operator.

This package contains the fundamental types that represent the operator's
domain model: relation snapshots and databags, validated facts, the workload
configuration document, supervisor layer definitions and plan documents, unit
status, and account action results. These types are used by every other
package; none of them carry behavior beyond small formatting helpers.

# Architecture

The types package is the foundation of the operator's data model. It defines:

  - Relation input (Snapshot, Databag, StaticConfig, RelationKind)
  - Validated facts (DatabaseFact, IngressFact, FederationFact, LoggingFact)
  - The rendered workload configuration (WorkloadConfig and its sections)
  - Supervisor layers (LayerDefinition, Plan, PlanDocument, ServiceSpec)
  - Unit status (UnitStatus, StatusState)
  - Account action outcomes (ActionError, CreateAdminResult,
    RegisterAccountResult)

All types are designed to be:
  - Serializable (JSON on the operator API, YAML toward the supervisor)
  - Value-comparable (idempotence decisions compare rendered bytes)
  - Self-documenting (clear field names, typed string enums)

Data flows through the types in one direction per reconciliation:

	┌─────────────── RECONCILIATION DATA FLOW ───────────────┐
	│                                                          │
	│  Snapshot                 delivered with every event     │
	│   ├── StaticConfig        deploy-time configuration      │
	│   └── Databags            raw relation payloads          │
	│         │                                                │
	│         ▼  pkg/relation validates                        │
	│  Facts                                                   │
	│   ├── DatabaseFact        required                       │
	│   ├── IngressFact         optional                       │
	│   ├── FederationFact      optional                       │
	│   └── LoggingFact         optional                       │
	│         │                                                │
	│         ▼  pkg/config builds                             │
	│  WorkloadConfig           the config.yaml document       │
	│         │                                                │
	│         ▼  pkg/layer plans                               │
	│  Plan → PlanDocument      the supervisor wire form       │
	│         │                                                │
	│         ▼  pkg/reconciler applies and reports            │
	│  UnitStatus               waiting | blocked | active     │
	└──────────────────────────────────────────────────────────┘

# Core Types

Relation input:
  - Snapshot: the full externally-owned state delivered with an event
  - Databag: what one remote instance published on a relation
  - StaticConfig: deploy-time configuration carried in the snapshot
  - RelationKind: database, ingress, matrix-auth, logging

Facts:
  - Facts: aggregate of the four optional typed facts
  - DatabaseFact: host, port, user, password, database name (DSN helper)
  - IngressFact: externally reachable URL
  - FederationFact: homeserver URL, shared secret, server name
  - LoggingFact: log-sink endpoint

Workload configuration:
  - WorkloadConfig: server, database DSN, optional homeservers and logging
  - ServerConfig: the public base URL section
  - Homeserver: one federation target (url + secret)
  - LoggingConfig: the log forwarding section

Supervisor plan:
  - LayerDefinition: one supervised process (command, env, restart, check)
  - LayerCheck: a periodic HTTP readiness probe attached to a layer
  - Plan: the planner's output, all layer definitions
  - PlanDocument: the combined wire form the supervisor applies and reports
  - ServiceSpec, CheckSpec, HTTPCheckSpec: plan document entries
  - RestartCondition: never, on-failure, always

Status and actions:
  - UnitStatus: waiting, blocked, or active with a human-readable reason
  - StatusState: the typed state constant inside a UnitStatus
  - ActionError: structured action failure (auth, call, not-ready, invalid)
  - CreateAdminResult, RegisterAccountResult: success payloads

# Usage

Reading a snapshot:

	snap := types.Snapshot{
		Config: types.StaticConfig{"public-url": "https://maubot.local"},
		Relations: map[types.RelationKind][]types.Databag{
			types.RelationDatabase: {{
				"endpoints": "db.example.com:5432",
				"username":  "maubot",
				"password":  "s3cret",
				"database":  "maubot",
			}},
		},
	}
	bags := snap.Instances(types.RelationDatabase)

Building a DSN from a fact:

	fact := &types.DatabaseFact{
		Host: "db", Port: 5432,
		User: "u", Password: "p", Database: "maubot",
	}
	dsn := fact.DSN() // postgresql://u:p@db:5432/maubot

Reporting status:

	status := types.Waiting("waiting for database relation")
	status = types.Blocked("invalid relation: database")
	status = types.Active()

Handling an action failure:

	var actionErr *types.ActionError
	if errors.As(err, &actionErr) {
		switch actionErr.Kind {
		case types.ActionErrorNotReady:
			// workload cannot serve its API yet; try again later
		case types.ActionErrorAuth:
			// credentials rejected; no follow-up call was made
		case types.ActionErrorInvalid:
			// rejected before any workload call (reserved name)
		case types.ActionErrorCall:
			// authenticated, but the follow-up call failed
		}
	}

# State Machine

Unit status follows the runtime's workload status vocabulary:

	           ┌──────────────────────────────┐
	           │                              ▼
	Waiting ──► Blocked ──► Active ──► Waiting/Blocked/Active
	   ▲           ▲           │
	   └───────────┴───────────┘  (next event recomputes from scratch)

Status meanings:
  - Waiting: a precondition is not met yet; the runtime redelivers events
    and a later reconciliation may succeed without intervention
  - Blocked: an operator must act (malformed relation data, invalid
    configuration, or a failed apply)
  - Active: applied state matches desired state

There are no stored transitions: every reconciliation recomputes the status
from the snapshot it was handed and what the container reports. Waiting on
the database relation takes precedence over every other missing fact.

# Design Patterns

Enumeration Pattern:

	All enums use typed string constants for safety and clarity:

	  type StatusState string
	  const (
	      StatusWaiting StatusState = "waiting"
	      StatusBlocked StatusState = "blocked"
	      StatusActive  StatusState = "active"
	  )

Optional Sections:

	Optional configuration uses nil-able fields so that marshaling omits
	the section entirely rather than writing an empty block:
	  - Facts.Federation nil       → no homeservers section
	  - Facts.Logging nil          → no logging section
	  - ServiceSpec.After empty    → no after list in the plan document

Value Comparison:

	WorkloadConfig and PlanDocument marshal deterministically (struct
	field order is fixed, map keys are sorted by the YAML encoder), so
	equality of rendered bytes is the idempotence test. PlanDocument
	round-trips through the supervisor without change: omitempty on every
	nil-able field keeps reflect.DeepEqual stable across apply and read.

Constructor Helpers:

	UnitStatus values come from the Waiting, Blocked, and Active helpers
	rather than struct literals, so the state constant and the reason
	always agree.

# Integration Points

This package integrates with:

  - pkg/relation: fills Facts from Snapshot databags
  - pkg/config: builds WorkloadConfig from Facts and StaticConfig
  - pkg/layer: expands WorkloadConfig into Plan and PlanDocument
  - pkg/supervisor: applies PlanDocument, reads the applied plan back
  - pkg/reconciler: computes and reports UnitStatus
  - pkg/actions: returns ActionError and the action result types
  - pkg/api, pkg/client: carry Snapshot, UnitStatus, and results as JSON

# Validation

The types here are already-validated values. Shape validation of raw
databags (required keys, URL fields, numeric ports) happens in
pkg/relation before a fact is constructed; a Facts field is either nil or
trustworthy. WorkloadConfig is only ever produced by pkg/config from
validated facts.

Databag.Empty distinguishes a remote side that has not written yet (no
keys at all) from one that wrote something malformed; only the former is
skipped silently.

# Thread Safety

All types are plain data:
  - Read-safe: values can be read concurrently
  - Write-unsafe: mutation requires caller synchronization

In practice the dispatcher serializes all reconciliations and actions, so
at most one goroutine touches a given Snapshot or Plan at a time.

# Performance Considerations

Memory Layout:
  - Facts and the fact structs are small; they live for one reconciliation
  - Snapshot maps are read-only after delivery; no copies are taken
  - Plan carries its layers by value, three per reconciliation

Serialization:
  - Snapshot, UnitStatus, and action results travel as JSON on the
    operator API
  - WorkloadConfig and PlanDocument render to YAML for the container
  - Rendering the full document set is microseconds; supervisor round
    trips dominate every cycle

# See Also

  - pkg/relation for databag validation
  - pkg/config for document construction
  - pkg/layer for plan expansion
  - pkg/reconciler for the status state machine
  - pkg/actions for the action error taxonomy
*/
package types
