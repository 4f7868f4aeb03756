/*
Package maubot is the client for the workload's own management API.

The supervisor (pkg/supervisor) manages the workload's process tree and
filesystem; this package talks to the application inside it. The two
boundaries are deliberately separate: reconciliation only ever needs the
supervisor, while account actions need both.

# Architecture

	┌────────────┐   HTTP :29316            ┌──────────────┐
	│  operator  │ ───────────────────────▶ │   workload   │
	│  (actions) │   /_matrix/maubot/v1/*   │  management  │
	└────────────┘                          │     API      │
	                                        └──────────────┘

# Core Components

Client:
  - Thin HTTP client over the management API
  - NewClient(baseURL); an empty baseURL falls back to DefaultBaseURL
  - Stateless: session tokens are arguments, never stored

APIError:
  - Operation name, HTTP status, and a message
  - StatusCode zero when the request never completed

AccountCredentials:
  - What the workload hands back for a freshly registered account:
    user_id, access_token, device_id

# API Operations

Login:
  - POST /v1/auth/login with {"username", "password"}
  - Returns the session token from {"token"}
  - A 2xx response without a token is an error; nothing can proceed
    without one

EnsureAdmin:
  - PUT /v1/admins/<name> with {"password"}, bearer token required
  - Idempotent upsert: creating and resetting are the same call

RegisterAccount:
  - POST /v1/client/auth/<server>/register with {"username", "password"},
    bearer token required
  - Returns AccountCredentials decoded from the response body

All three ride the same request path: JSON body, Authorization header
when a token is supplied, 5 second timeout per request.

# Authentication

The client is stateless. Login returns a bearer token and every
authenticated call takes it as an argument, so a single client can serve
flows with different credentials in the same process. Tokens live exactly
as long as the action flow that obtained them.

# Error Handling

Every failure surfaces as *APIError with the operation name, the HTTP
status (zero when the request never completed), and a message. When the
workload returns a JSON body with an "error" field, that text becomes the
message; otherwise the HTTP status line is used. Messages never include
the credentials that were sent.

	var apiErr *maubot.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// bad credentials, surface as an auth failure
	}

# Usage

	import "github.com/canonical/maubot-operator/pkg/maubot"

	client := maubot.NewClient("") // DefaultBaseURL

	token, err := client.Login(ctx, "root", adminPassword)
	if err != nil {
		return err
	}

	if err := client.EnsureAdmin(ctx, token, "alice", generated); err != nil {
		return err
	}

	creds, err := client.RegisterAccount(ctx, token, "matrix.example.com", "bot", generated)
	if err != nil {
		return err
	}
	fmt.Println(creds.UserID, creds.DeviceID)

# Design Patterns

Token As Argument:
  - No session cache, no refresh logic, no invalidation bugs
  - Callers with different credentials share one client

Typed Responses:
  - Each operation decodes into its own response struct
  - Malformed bodies become APIError, not partial results

One Request Helper:
  - A single do() owns marshalling, headers, timeout, metrics, and the
    error body decode for every operation

# Security

Credentials and tokens travel in request bodies and the Authorization
header over the pod-local network; they never appear in error messages,
logs, or metrics labels. The error body decode keeps the workload's own
text, which by contract names the problem, not the secret.

# Troubleshooting

Issue: login returns APIError with status 401
  - Cause: wrong credentials, commonly a reset workload database
  - Check: which credentials the flow used (operator vs supplied)
  - Solution: re-seed the operator admin or correct the caller's input

Issue: "no token in login response"
  - Cause: a proxy or an unexpected workload version answered 2xx with a
    different body shape
  - Check: the workload's version and the base URL in use
  - Solution: point the client at the management API root, not the UI

Issue: requests time out after 5 seconds
  - Cause: workload up but wedged, or the base URL points somewhere
    unroutable
  - Check: supervisor check status for maubot-up
  - Solution: restart the workload service via a reconciliation

# Monitoring

Each request increments maubot_operator_workload_api_requests_total with
the operation and ok/error, and observes its duration in
maubot_operator_workload_api_request_duration_seconds.

# See Also

  - pkg/actions for the flows built on these three calls
  - pkg/supervisor for the process-level boundary underneath
  - pkg/types for how action failures are surfaced to callers
*/
package maubot
