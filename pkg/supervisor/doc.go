/*
Package supervisor is the operator's boundary to the process supervisor
inside the workload container.

Everything the operator does to the container goes through this package:
connectivity probes, reading the applied plan, replacing the layer, writing
and reading files, restarting services. The supervisor daemon itself is not
part of the operator; this is strictly the consuming side of its HTTP API.

# Architecture

	┌── operator process ──────────┐      ┌── workload container ────────┐
	│                              │      │                              │
	│  reconciler / actions        │      │   supervisor daemon          │
	│        │                     │      │        │                     │
	│        ▼                     │ unix │        ▼                     │
	│  supervisor.Client ══════════╪══════╪═▶ /v1/system-info            │
	│  (HTTP over socket)          │ sock │   /v1/plan                   │
	│                              │      │   /v1/layers                 │
	│                              │      │   /v1/services               │
	│                              │      │   /v1/files                  │
	└──────────────────────────────┘      └──────────────────────────────┘

The daemon listens on a unix socket inside the shared mount namespace
(DefaultSocketPath). The client dials the socket through a custom transport;
the URL host in requests is a placeholder, never resolved.

Responses arrive in a JSON envelope:

	{"type": "sync", "status-code": 200, "status": "OK", "result": ...}

The plan result is a YAML document inside the envelope; it parses into
types.PlanDocument, the same shape pkg/layer renders.

# Core Components

Client:
  - Interface covering the eight container operations
  - Implemented by HTTPClient for production
  - Substituted by hand-written fakes in reconciler and actions tests

HTTPClient:
  - One http.Client with a 10 second timeout per request
  - NewClient(socketPath) dials the unix socket
  - NewClientForURL(baseURL) targets an httptest daemon in tests

APIError:
  - Carries Op, StatusCode, and the daemon's status line for non-2xx
  - ErrNotFound wraps the 404 case of PullFile specifically

# API Endpoints

Connectivity:

CanConnect:
  - GET /v1/system-info
  - Any failure (dial error, timeout, non-2xx) reports false
  - False short-circuits the reconciliation as "container not ready"

Plan:
  - GET /v1/plan?format=yaml
  - Envelope result is a YAML string; parsed into types.PlanDocument
  - An empty document (no services) means nothing has been applied yet
  - The applied-state side of the idempotence check

Layers:

AddLayer:
  - POST /v1/layers
  - Payload: {"action": "add", "label": ..., "format": "yaml",
    "layer": ..., "combine": true}
  - One labelled layer holds all of the operator's services, so
    replacement is atomic

Services:

Restart:
  - POST /v1/services
  - Payload: {"action": "restart", "services": [...]}
  - Services restart in the given order

ServiceRunning:
  - GET /v1/services?names=<name>
  - True when the named service reports current state "active"
  - A service the daemon does not know is running=false, not an error
  - Backs the action readiness gate

Files:

PushFile:
  - POST /v1/files with {"action": "write", "files": [...]}
  - Content travels base64-encoded; parent directories are created

PullFile:
  - GET /v1/files?action=read&path=<path>
  - Returns the decoded content; ErrNotFound when the file is missing

MakeDirs:
  - POST /v1/files with {"action": "make-dirs", "dirs": [...]}
  - Parents are created (make-parents: true)

# Usage

Creating the production client:

	client := supervisor.NewClient(supervisor.DefaultSocketPath)

	if !client.CanConnect(ctx) {
		// Waiting("container not ready")
	}

Applying a configuration change:

	current, err := client.Plan(ctx)
	// compare against desired, then:
	err = client.MakeDirs(ctx, "/data/plugins", "/data/trash", "/data/dbs")
	err = client.PushFile(ctx, "/data/config.yaml", rendered)
	err = client.AddLayer(ctx, "maubot", layerYAML, true)
	err = client.Restart(ctx, "maubot", "nginx", "blackbox")

Reading applied state back:

	data, err := client.PullFile(ctx, "/data/config.yaml")
	if errors.Is(err, supervisor.ErrNotFound) {
		// nothing applied yet
	}

Testing against an httptest daemon:

	srv := httptest.NewServer(fakeDaemonHandler)
	defer srv.Close()
	client := supervisor.NewClientForURL(srv.URL)

# Error Handling

Error categories:

Transport errors:
  - Dial failures, timeouts, connection resets
  - Wrapped with the operation name: "supervisor push: ..."
  - CanConnect converts them to false; everywhere else they propagate

Daemon errors (*APIError):
  - Non-2xx envelope responses
  - Carry the operation, HTTP status code, and daemon status line
  - errors.As extracts them when the caller cares about the code

Not found (ErrNotFound):
  - Only from PullFile, for 404
  - The reconciler treats it as "nothing applied yet", not as a failure

The caller decides what an error means: the reconciler maps apply-step
failures to a blocked status and never retries internally; the runtime's
event redelivery is the retry path.

# Design Patterns

Interface Boundary:
  - Client is an interface; consumers hold the capability, not the
    concrete type
  - Fakes implement just the calls a test exercises

Single Envelope Decoder:
  - All operations funnel through one do() helper: build request, send,
    read, decode envelope, classify status
  - Per-operation request/response types stay next to their method

Compute Before Write:
  - The package offers no transactions; callers order operations so that
    every write happens only after all inputs rendered successfully

# Performance Characteristics

Request Latency:
  - Unix socket round-trip: sub-millisecond for system-info and services
  - Plan reads scale with document size; the combined layer stays small
  - PushFile is bounded by content size; config documents are a few KB

Reconciliation Cost:
  - Idle cycle (already applied): 3 GETs (system-info, file read, plan)
  - Apply cycle: 3 GETs plus 4 POSTs (make-dirs, write, add-layer, restart)
  - No connection pooling concerns: the transport keeps the socket alive

Timeouts:
  - Every request carries the client's 10 second timeout
  - No internal retries; a slow daemon surfaces as an error within 10s

# Thread Safety

HTTPClient is safe for concurrent use: it holds only the base URL and an
http.Client, both read-only after construction. In practice the dispatcher
serializes reconciliations, so requests arrive one at a time.

# Integration Points

This package integrates with:

  - pkg/reconciler: every apply step and both idempotence reads
  - pkg/actions: readiness gate (CanConnect, ServiceRunning) and the
    applied-config pull
  - pkg/types: PlanDocument round-trips
  - pkg/metrics: SupervisorRequestsTotal per operation and outcome
  - cmd/maubot-operator: connectivity probe for component health

# Troubleshooting

Common Issues:

Connection refused on the socket:
  - Symptom: CanConnect false, "container not ready" status
  - Cause: workload container still starting, or socket not mounted
  - Check: socket path exists in the operator's mount namespace
  - Solution: wait for the runtime's container-ready event

404 from PullFile on every cycle:
  - Symptom: config rewritten on each event despite no changes
  - Cause: config path mismatch between planner and reconciler
  - Check: the path pushed equals the path pulled (/data/config.yaml)
  - Solution: both sides use layer.ConfigPath; custom callers must too

Plan never matches the rendered document:
  - Symptom: idempotence check always falls through to a full apply
  - Cause: daemon normalizes the layer (field order, defaults)
  - Check: compare PullFile bytes first; they gate the plan comparison
  - Solution: keep PlanDocument fields omitempty so round-trips are stable

# Testing

The package tests run the HTTP implementation against httptest servers
speaking the envelope protocol, covering every operation, the 404 path,
and non-2xx envelope decoding. Consumers test against the Client
interface with hand-written fakes; test/integration drives the real
HTTPClient against a fake daemon end to end.

# See Also

  - pkg/layer for the document AddLayer sends
  - pkg/reconciler for how operation failures become unit status
  - pkg/actions for the readiness gate built on this client
*/
package supervisor
