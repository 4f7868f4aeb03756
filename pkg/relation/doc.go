/*
Package relation derives typed facts from delivered relation data.

The relation package is the first stage of every reconciliation: it takes the
raw key/value databags the runtime delivered in a snapshot and turns them
into validated, typed facts (database credentials, ingress URL, federation
contract, log sink). It performs no I/O and keeps no state; a Reader applied
twice to the same snapshot yields the same facts.

# Architecture

	┌─────────────────── RELATION READER ─────────────────────┐
	│                                                          │
	│  Snapshot.Relations                                      │
	│  map[kind][]Databag                                      │
	│        │                                                 │
	│        ▼                                                 │
	│  ┌───────────────────────────────┐                       │
	│  │ firstPopulated(bags)          │  empty bags skipped   │
	│  │ nil → relation ABSENT         │  (joined, unwritten)  │
	│  └──────────────┬────────────────┘                       │
	│                 ▼                                        │
	│  ┌───────────────────────────────┐                       │
	│  │ payload struct + validate tags│  required fields,     │
	│  │ (go-playground/validator)     │  http_url checks      │
	│  └──────────────┬────────────────┘                       │
	│            ok   │   violation                            │
	│                 ▼                                        │
	│   typed fact        *MalformedDataError{Kind, Reason}    │
	└──────────────────────────────────────────────────────────┘

# Core Components

Reader:
  - One read method per relation kind: Database, Ingress, Federation,
    Logging
  - ReadAll runs all four and aggregates into types.Facts
  - Holds only the validator instance; fully reusable and stateless

MalformedDataError:
  - Carries the relation kind and a human-readable reason
  - The reason names the offending key, never its value (payloads carry
    credentials)

Payload structs:
  - Unexported per-kind structs with validator/v10 tags
  - Struct validation is declarative; endpoint splitting is explicit code

# Absent vs Malformed

The distinction drives the unit status state machine:

  - Absent (nil fact, nil error): the relation is not formed, or the remote
    side has not published anything yet. For the database this means
    Waiting; for everything else it means "proceed without".
  - Malformed (*MalformedDataError): the remote side published data the
    operator cannot act on (missing required key, empty password,
    unparseable URL, bad endpoint). This is Blocked territory: redelivering
    the same event cannot fix it, a human or the remote application must.

An empty published value is malformed, never absent. A databag with no keys
at all is absent.

# Relation Catalog

database:
  - Keys: endpoints ("host:port[,host:port...]"), username, password,
    database
  - Validation: all required non-empty; the first endpoint must split
    into a host and a numeric port
  - Fact: DatabaseFact{Host, Port, User, Password, Database}
  - Consumers: pkg/config (DSN), mandatory for any workload config

ingress:
  - Keys: url
  - Validation: required absolute http(s) URL
  - Fact: IngressFact{URL}
  - Consumers: pkg/config (public URL precedence, highest)

matrix-auth:
  - Keys: homeserver, shared_secret, server_name
  - Validation: homeserver required absolute http(s) URL; shared_secret
    required non-empty; server_name optional, defaults to "synapse"
  - Fact: FederationFact{Homeserver, SharedSecret, ServerName}
  - Consumers: pkg/config (homeservers block), pkg/layer (secret env),
    pkg/actions (registration target)

logging:
  - Keys: endpoint
  - Validation: required absolute http(s) URL
  - Fact: LoggingFact{Endpoint}
  - Consumers: pkg/config (logging block)

Multiple instances per kind: the first databag with any keys wins; the
rest are ignored. All instances empty counts as absent.

# Usage

Reading everything at once:

	reader := relation.NewReader()

	facts, err := reader.ReadAll(snap)
	if err != nil {
		var malformedErr *relation.MalformedDataError
		if errors.As(err, &malformedErr) {
			// report Blocked("invalid relation: <kind>")
		}
	}

	if facts.Database == nil {
		// report Waiting("waiting for database relation")
	}

Reading one kind:

	fact, err := reader.Database(snap)
	switch {
	case err != nil:
		// malformed
	case fact == nil:
		// absent
	default:
		dsn := fact.DSN()
	}

# Design Patterns

Declarative Shape, Explicit Structure:
  - Required fields and URL shapes live in struct tags
  - Anything structural (endpoint splitting, port parsing, defaulting)
    is ordinary code after validation passes

Read, Never Interpret:
  - The reader validates and types; it never decides policy
  - Whether a missing fact is fatal belongs to pkg/config

First Populated Wins:
  - ReadAll and the per-kind methods share one selection rule, so a
    joined-but-unwritten instance can never mask a populated one

# Integration Points

This package integrates with:

  - pkg/types: Snapshot in, Facts out
  - pkg/config: consumes Facts to build the workload configuration
  - pkg/reconciler: maps MalformedDataError to a blocked status

# Troubleshooting

Common Issues:

Blocked("invalid relation: database") right after relating:
  - Symptom: unit blocks the moment the relation forms
  - Cause: the remote application published a partial databag
  - Check: MalformedDataError.Reason names the missing or bad key
  - Solution: usually transient ordering on the remote side; if it
    persists the remote application is publishing the wrong keys

Relation formed but fact stays absent:
  - Symptom: Waiting("waiting for database relation") despite a relation
  - Cause: every delivered databag is empty (remote not written yet)
  - Check: the snapshot's databags for the kind
  - Solution: none needed; the next relation-changed event carries data

# Thread Safety

Reader is safe for concurrent use; the validator instance it wraps is
itself concurrency-safe. Snapshots are never mutated.

# See Also

  - pkg/config for what happens to the facts next
  - pkg/reconciler for the status mapping
  - pkg/types for the fact and snapshot shapes
*/
package relation
