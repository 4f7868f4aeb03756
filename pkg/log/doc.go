/*
Package log provides structured logging for the maubot operator using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ───────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐           │
	│  │            Global Logger                    │           │
	│  │  - Zerolog instance                         │           │
	│  │  - Initialized via log.Init()               │           │
	│  │  - Thread-safe for concurrent use           │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Configuration                     │           │
	│  │  - Level: debug/info/warn/error             │           │
	│  │  - Format: JSON or console (human)          │           │
	│  │  - Output: stdout, file, or custom writer   │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │         Context Loggers                     │           │
	│  │  - WithComponent("reconciler")              │           │
	│  │  - WithRelation(types.RelationDatabase)     │           │
	│  │  - WithEventID("9f1c...")                   │           │
	│  │  - WithAction("create-admin")               │           │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init() from the run command
  - Accessible from all operator packages

Context Loggers:
  - WithComponent: component name on all lines (reconciler, dispatcher, api)
  - WithRelation: relation kind being read or reported on
  - WithEventID: the delivered event's identifier
  - WithAction: account action name

Helpers:
  - Info, Debug, Warn, Error, Errorf, Fatal for one-line messages without
    structured fields

# Log Levels

Debug:
  - Per-step reconciliation detail
  - Idempotence skip decisions
  - Enabled with --log-level debug; noisy under event bursts

Info:
  - Event dispatch and completion
  - Reconciliation outcomes with status and reason
  - Startup and shutdown milestones

Warn:
  - Degraded but recoverable conditions
  - Rejected requests on the operator API

Error:
  - Failed applies with the failing step
  - Rejected relation data and configuration
  - Failed action calls (kind and operation, never payloads)

Fatal:
  - Startup failures only; the process exits

# Usage

Initializing the logger:

	import "github.com/canonical/maubot-operator/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
	})

Component loggers:

	logger := log.WithComponent("reconciler")
	logger.Info().
		Str("status", "active").
		Msg("reconciliation complete")

Event context:

	logger := log.WithEventID(ev.ID)
	logger.Debug().Str("kind", string(ev.Kind)).Msg("dispatching event")

Simple helpers:

	log.Info("Operator started")
	log.Errorf("failed to stop API server: %v", err)

# Log Output Examples

JSON output (one line per entry):

	{"level":"info","component":"reconciler","state":"active","reason":"","time":"2026-08-22T10:30:00Z","message":"Reconciliation finished"}
	{"level":"error","component":"reconciler","step":"push config","time":"2026-08-22T10:31:12Z","message":"Apply failed"}

Console output renders the same entries with aligned colored fields for
interactive use.

# Security

Relation payloads and action flows carry credentials: the database password,
the federation shared secret, generated account passwords, and workload API
session tokens. None of these values may ever appear in a log line at any
level. Log the fact kind, the endpoint host, the status code, or the error
text from this side of the connection instead. Error values returned by
pkg/maubot and pkg/supervisor are constructed to be loggable as-is.

# Design Patterns

Child Loggers Over Globals:
  - Components take a WithComponent logger at construction and keep it
  - Every line from a component carries its name without repetition

Fields Over Interpolation:
  - Structured fields (Str, Int, Err) instead of formatted strings
  - Queries against aggregated logs match on field values

Init Once:
  - Only the run command calls Init; libraries never reconfigure the
    global state they share

# Performance Characteristics

Zerolog writes JSON without reflection or intermediate buffers:
  - Disabled-level calls: a level check, ~1ns, no allocation
  - Enabled JSON line: sub-microsecond, allocation-free fast path
  - Console output is for humans and markedly slower; production runs
    JSON

The operator's log volume is event-driven and low; logging is never the
bottleneck next to supervisor round-trips.

# Integration Points

This package integrates with:

  - cmd/maubot-operator: Init from the run command's flags
  - pkg/reconciler: per-cycle structured logging
  - pkg/events: per-event dispatch logging
  - pkg/actions: action outcome logging (never the payloads)
  - pkg/api: request-level logging

# Best Practices

Do:
  - Create one component logger per constructed component
  - Put identifiers in fields, not in the message text
  - Log outcomes (status, step, kind) over narration

Don't:
  - Log databag values, passwords, secrets, or tokens at any level
  - Call Init outside the run command
  - Use Fatal after startup; errors map to status, not exits

# See Also

  - pkg/metrics for the numeric counterpart to these logs
  - pkg/reconciler for the messages emitted per cycle
  - https://github.com/rs/zerolog for the underlying library
*/
package log
