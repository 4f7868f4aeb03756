/*
Package api implements the operator's inbound HTTP server.

The api package is how the outside world drives the operator: the runtime
posts lifecycle events, operators invoke account actions, and monitoring
reads status and metrics. Everything mutating funnels into the dispatcher,
which serializes work, so the server itself needs no locking.

# Architecture

	┌───────────────────── CLIENTS ──────────────────────┐
	│                                                     │
	│  runtime          CLI                monitoring     │
	│     │              │                     │          │
	└─────┼──────────────┼─────────────────────┼──────────┘
	      │ POST         │ POST                │ GET
	      ▼              ▼                     ▼
	┌───────────────── API SERVER ───────────────────────┐
	│                                                     │
	│  /v1/events                /v1/status               │
	│  /v1/actions/create-admin  /v1/health  /v1/ready    │
	│  /v1/actions/              /v1/livez   /metrics     │
	│      register-client-account                        │
	│      │                                              │
	│      ▼                                              │
	│  Dispatcher (serialized) ──▶ Reconciler             │
	│  ActionHandler           ──▶ workload API           │
	└─────────────────────────────────────────────────────┘

# Core Components

Server:
  - Owns the mux, the listener, and the http.Server timeouts
  - Start binds and serves; Stop drains via graceful shutdown
  - Handler() exposes the mux for httptest-based callers

Dispatcher interface:
  - Dispatch(ctx, event) (types.UnitStatus, error)
  - Satisfied by *events.Dispatcher

ActionHandler interface:
  - CreateAdmin and RegisterClientAccount
  - Satisfied by *actions.Handler

StatusSource interface:
  - Status() types.UnitStatus
  - Satisfied by *reconciler.StatusTracker

# Endpoints

POST /v1/events:
  - Body: one events.Event with its snapshot
  - Dispatched synchronously; the 200 body is the unit status the
    reconciliation ended on, {"state", "reason"}
  - Undecodable payloads and unknown kinds are 400 {"error"}

POST /v1/actions/create-admin:
  - Body: {"name": "<admin account>"}; empty or missing name is 400
  - 200 body: {"password": "<generated>"}

POST /v1/actions/register-client-account:
  - Body: {"admin-name", "admin-password", "account-name"}, all required
  - 200 body: {"user-id", "password", "access-token", "device-id"}

GET /v1/status:
  - The last reported unit status, {"state", "reason"}
  - Served from memory; never touches the workload

GET /v1/health:
  - Component health document; 503 when overall status is unhealthy

GET /v1/ready:
  - Readiness of the critical components; 503 until all are up

GET /v1/livez:
  - Process liveness, always 200 with {"status": "alive", "uptime"}

GET /metrics:
  - The Prometheus registry in exposition format

Every handler guards its method: anything else is 405.

# Error Responses

	400  {"error": "<detail>"}        malformed body, missing fields,
	                                  unknown event kind
	405  plain text                   wrong HTTP method
	422  {"error": "...", "kind"}     structured action failure; kind is
	                                  one of auth, call, not-ready, invalid
	500  {"error": "internal error"}  unexpected action failure, logged
	                                  server-side without detail leaking

The 422 body is a types.ActionError rendered directly, so CLI callers
branch on the kind field without string matching.

# Listening

Start accepts either a TCP address or unix:///path/to/socket. The unix
socket is the normal deployment (the runtime shares the pod); TCP exists
for development. Stale socket files are removed before binding, so a
crashed predecessor never wedges the next start. Stop drains in-flight
requests via the standard graceful shutdown.

The write timeout is two minutes: a single event dispatch can walk every
supervisor operation in one request, and the response must outlive it.

# Usage

Serving:

	server := api.NewServer(dispatcher, handler, tracker)

	go func() {
		if err := server.Start("unix:///run/maubot-operator.sock"); err != nil {
			log.Errorf("api server: %v", err)
		}
	}()

	// on shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Stop(ctx)

Testing against the handler without a listener:

	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/events", "application/json", body)

# Design Patterns

Interfaces At The Boundary:
  - The server depends on three small interfaces, not concrete types
  - Tests substitute fakes without touching the wiring

Synchronous Dispatch:
  - The event response carries the reconciliation's outcome
  - Callers never poll for the result of something they just caused

Structured Failure Mapping:
  - errors.As picks *types.ActionError out of wrapped chains
  - Only recognized failures carry detail to the caller

# Security

The server has no authentication: it binds a unix socket with filesystem
permissions as the boundary. Action responses carry generated passwords
and access tokens; they go to the requester once and are never logged.
Internal errors return a constant body so workload addresses and
credentials cannot leak through error text.

# Troubleshooting

Issue: connection refused on the socket path
  - Cause: operator not running, or Start failed after Stop
  - Check: process logs for "API listening" with the address
  - Solution: restart the operator; the stale socket is removed on bind

Issue: every action returns 422 kind "not-ready"
  - Cause: supervisor unreachable or the maubot service is not running
  - Check: GET /v1/status for the current state and reason
  - Solution: deliver a container-ready event once the workload is up

Issue: event POST hangs for tens of seconds
  - Cause: reconciliation is walking supervisor calls that time out
  - Check: workload API request metrics for slow operations
  - Solution: fix supervisor reachability; the 2m write timeout bounds
    the worst case

# Monitoring

The server updates the "api" component health on Start and Stop, which
feeds /v1/health and /v1/ready. Request-level outcomes appear in the
dispatcher and action metrics rather than a separate HTTP histogram.

# See Also

  - pkg/events for the dispatch semantics behind POST /v1/events
  - pkg/actions for the action semantics behind the 422 kinds
  - pkg/client for the Go caller used by the CLI
  - pkg/metrics for the health and metrics endpoints mounted here
*/
package api
