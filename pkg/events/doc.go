/*
Package events defines the operator's lifecycle events and the dispatcher
that routes them to handlers.

Every change the operator reacts to arrives as an Event: a kind, an
optional relation, and a full snapshot of the externally-owned state. The
Dispatcher serializes delivery so handlers never observe two overlapping
reconciliations, assigns identifiers to events that arrive without one,
and records per-kind metrics around each dispatch.

# Architecture

	┌───────────────────── EVENT DISPATCH ───────────────────────┐
	│                                                             │
	│  pkg/api (POST /v1/events)                                  │
	│        │                                                    │
	│        ▼                                                    │
	│  ┌─────────────────────────────────────────────┐           │
	│  │              Dispatcher                      │           │
	│  │  - Mutex-serialized delivery                 │           │
	│  │  - handlers map[Kind]Handler                 │           │
	│  │  - Assigns event ID and timestamp            │           │
	│  └───────────────────┬─────────────────────────┘           │
	│                      │ exactly one at a time                │
	│                      ▼                                      │
	│  ┌─────────────────────────────────────────────┐           │
	│  │               Handler                        │           │
	│  │  func(ctx, Event) types.UnitStatus           │           │
	│  │  (reconciler.Reconcile behind a closure)     │           │
	│  └───────────────────┬─────────────────────────┘           │
	│                      │                                      │
	│                      ▼                                      │
	│             types.UnitStatus back to the caller             │
	└─────────────────────────────────────────────────────────────┘

# Core Components

Event:
  - ID: unique identifier, assigned on dispatch when empty
  - Kind: which lifecycle notification this is
  - Relation: the relation a relation-* event concerns
  - Snapshot: the complete externally-owned state at delivery time
  - Timestamp: delivery time, assigned when zero

Handler:
  - func(ctx context.Context, event Event) types.UnitStatus
  - Consumes one event and returns the unit status it settled on
  - Handlers do not return errors; failures become a status with a reason

Dispatcher:
  - Routes events to registered handlers by kind
  - One dispatch runs to completion before the next starts
  - Register replaces any previous handler for the same kind

# Event Kinds

config-changed:
  - The deploy-time configuration changed
  - Relation field empty; the new values ride in the snapshot

container-ready:
  - The workload container's supervisor became reachable
  - The usual first event that can produce an Active status

relation-joined:
  - A relation gained a remote instance; its databag may still be empty
  - Relation field names the kind that joined

relation-changed:
  - A relation's published data changed
  - The snapshot already contains the post-change databags

relation-departed:
  - A relation lost a remote instance; its data is gone from the snapshot
  - Typically drives the unit back to a Waiting status

Kinds() returns all five in a stable order for table-driven callers.

# Dispatch Flow

1. Caller invokes Dispatch(ctx, event)
2. Dispatcher takes the mutex; concurrent dispatches queue here
3. Handler lookup by event.Kind; unknown kinds return an error
4. Empty ID gets a generated UUID; zero Timestamp gets the current time
5. Dispatch start logged with event_id, kind, and relation when present
6. Handler runs to completion with the caller's context
7. Duration and count recorded per kind
8. Resulting unit status logged and returned

The error return covers routing only. A handler that cannot reconcile
expresses that through the returned status, not through an error.

# Usage

Wiring the dispatcher at startup:

	import "github.com/canonical/maubot-operator/pkg/events"

	dispatcher := events.NewDispatcher()

	handler := func(ctx context.Context, ev events.Event) types.UnitStatus {
		return rec.Reconcile(ctx, ev.Snapshot)
	}
	for _, kind := range events.Kinds() {
		dispatcher.Register(kind, handler)
	}

Delivering an event:

	status, err := dispatcher.Dispatch(ctx, events.Event{
		Kind:     events.KindRelationChanged,
		Relation: types.RelationDatabase,
		Snapshot: snapshot,
	})
	if err != nil {
		// no handler registered for the kind
	}
	fmt.Println(status.State, status.Reason)

Kind-specific handlers are possible but the operator registers the same
reconcile closure for every kind: the snapshot carries the whole state, so
the reaction is identical regardless of what changed.

# Design Patterns

Serialized Dispatch:
  - The mutex is the operator's whole concurrency model
  - Handlers run alone and need no internal locking
  - An unhandled kind is a hard error instead of a silent drop

Snapshot Carries Everything:
  - Events are not deltas; each snapshot stands alone
  - A missed event is repaired by the next one

Replace On Register:
  - Registering a kind twice keeps only the last handler
  - Startup wiring stays idempotent

Shared Event Identity:
  - Events without an ID get a generated UUID before the handler runs
  - Every log line of one dispatch shares an event_id
  - Caller-assigned IDs are kept as-is

# Limitations

  - No event queue: Dispatch blocks the caller while the handler runs
  - No retry: a dispatch that produced a Blocked status stays Blocked
    until the runtime delivers another event
  - No fan-out: exactly one handler per kind

# See Also

  - pkg/reconciler for the handler behind every registration
  - pkg/api for the HTTP surface that feeds Dispatch
  - pkg/types for Snapshot and UnitStatus
*/
package events
