/*
Package client provides a Go client library for the operator HTTP API.

The client package wraps the operator's REST endpoints with a convenient,
idiomatic Go interface. It handles address resolution (TCP or unix socket),
request encoding, error decoding, and provides type-safe methods for every
operator operation.

# Architecture

The client sits between calling code (the CLI, hook scripts, tests) and the
operator process:

	┌──────────────────── CALLING CODE ───────────────────────────┐
	│                                                              │
	│  import ".../maubot-operator/pkg/client"                     │
	│                                                              │
	│  c := client.New("unix:///run/maubot-operator.sock")         │
	│  status, err := c.DispatchEvent(event)                       │
	│                                                              │
	└──────────────────┬───────────────────────────────────────┘
	                   │
	┌──────────────────▼──── pkg/client ─────────────────────────┐
	│                                                              │
	│  ┌──────────────────────────────────────────────┐          │
	│  │           Client Wrapper                      │          │
	│  │  - High-level methods                         │          │
	│  │  - Per-call timeouts                          │          │
	│  │  - ActionError reconstruction                 │          │
	│  └──────────────────┬───────────────────────────┘          │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐          │
	│  │         HTTP Client                           │          │
	│  │  - JSON request/response bodies               │          │
	│  │  - unix socket or TCP transport               │          │
	│  └──────────────────┬───────────────────────────┘          │
	└─────────────────────┼────────────────────────────────────┘
	                      │ HTTP
	                      ▼
	              Operator API Server (pkg/api)

# Core Components

Client:
  - One struct wrapping an http.Client with the resolved transport
  - New(addr) never fails; the first call surfaces connection problems
  - No mutable state after construction

Request Helpers:
  - get and post own encoding, decoding, and error mapping
  - Every public method is a thin typed veneer over them

# Operations

DispatchEvent(event):
  - POST /v1/events; returns the unit status the reconciliation ended on
  - 3 minute timeout: the dispatch runs a whole reconciliation

CreateAdmin(name):
  - POST /v1/actions/create-admin; returns the generated password
  - 60 second timeout

RegisterClientAccount(adminName, adminPassword, accountName):
  - POST /v1/actions/register-client-account; returns the credentials
  - 60 second timeout

Status():
  - GET /v1/status; the last reported unit status, served from memory
  - 10 second timeout

Health():
  - GET /v1/health; the component health document
  - 10 second timeout

# Addresses

New accepts two address forms. "unix:///path/to.sock" dials the socket at
/path/to.sock; the URL host in requests is a placeholder because HTTP
requires one. Everything else is treated as a TCP host:port.

# Timeouts

Each method creates its own context internally, so callers never pass one.
Reads use a short timeout and actions a longer one. DispatchEvent gets the
longest: a dispatch runs a whole reconciliation synchronously, which can
walk every supervisor operation in one request.

# Usage

Dispatching an event:

	c := client.New("unix:///run/maubot-operator.sock")

	status, err := c.DispatchEvent(events.Event{
		Kind:     events.KindConfigChanged,
		Snapshot: snapshot,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %s\n", status.State, status.Reason)

Creating an admin account:

	result, err := c.CreateAdmin("oncall")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("password: %s\n", result.Password)

Registering a Matrix client account:

	result, err := c.RegisterClientAccount("oncall", password, "alerts")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("user: %s token: %s\n", result.UserID, result.AccessToken)

Reading unit status:

	status, err := c.Status()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %s\n", status.State, status.Reason)

# Error Handling

Transport failures are wrapped as "operator unreachable". Structured action
failures (HTTP 422 with a kind field) are reconstructed as
*types.ActionError, so callers can branch on the kind:

	_, err := c.CreateAdmin("root")
	if err != nil {
		var actionErr *types.ActionError
		if errors.As(err, &actionErr) {
			switch actionErr.Kind {
			case types.ActionErrorNotReady:
				// Workload not up yet; try again later.
			case types.ActionErrorInvalid:
				// The request itself was rejected.
			}
		}
		log.Fatal(err)
	}

Kindless error responses stay plain errors carrying the server's message
and status code.

# Design Patterns

Symmetric Errors:
  - The 422 body the server writes is the ActionError the client returns
  - errors.As works identically in-process and across the wire

Internal Contexts:
  - Callers get sensible per-operation deadlines without plumbing
  - CLI handlers stay one-liners

Typed Veneer:
  - Every endpoint has exactly one method with exact request and
    response types; no stringly-typed paths leak to callers

# Performance Considerations

The client adds one JSON encode and decode per call on top of the HTTP
round-trip. Reads (Status, Health) answer from the operator's memory in
well under a millisecond; DispatchEvent's latency is the reconciliation
itself. Connections are pooled by the underlying http.Client, so repeated
CLI invocations against TCP reuse nothing but separate processes, while a
long-lived caller reuses sockets.

# Thread Safety

The client is safe for concurrent use. The underlying http.Client is
thread-safe by design, and the wrapper maintains no mutable state. Note
that concurrent DispatchEvent calls serialize inside the operator's
dispatcher, not in the client.

# Troubleshooting

Issue: "operator unreachable" on every call
  - Cause: wrong address, or the operator is not running
  - Check: the socket path or host:port against the run command's flags
  - Solution: point New at the address the operator logged on startup

Issue: DispatchEvent returns after minutes with a timeout
  - Cause: the reconciliation is stuck on supervisor calls
  - Check: operator logs for the failing step; supervisor metrics
  - Solution: fix workload reachability; the dispatch timeout bounds the
    caller regardless

Issue: action errors lose their kind
  - Cause: a proxy rewrote the 422 body
  - Check: raw response with curl against the same address
  - Solution: talk to the operator directly; the unix socket never
    traverses a proxy

# Testing

Point New at an httptest server wrapping api's handler to exercise the
full client-server pair without sockets:

	srv := httptest.NewServer(apiServer.Handler())
	defer srv.Close()

	c := client.New(strings.TrimPrefix(srv.URL, "http://"))

# Integration Points

This package integrates with:

  - pkg/api: Consumes the HTTP API
  - pkg/events: Event payloads for DispatchEvent
  - pkg/types: Status and action result types
  - pkg/metrics: Health document type
  - cmd/maubot-operator: CLI usage

# See Also

  - pkg/api for the server side of every endpoint
  - pkg/types for ActionError and the result types
  - cmd/maubot-operator for the CLI built on this client
*/
package client
