/*
Package actions implements the two user-invocable account actions:
create-admin and register-client-account.

Both actions run against a live workload, so both start with the same
readiness gate: the supervisor must answer and the maubot service must be
running. An action invoked too early fails with a not-ready result rather
than waiting; the caller retries once the unit is active. The handler is
stateless between invocations.

# Architecture

	┌──────────────────── ACTION EXECUTION ──────────────────────┐
	│                                                             │
	│  pkg/api (POST /v1/actions/*)                               │
	│        │                                                    │
	│        ▼                                                    │
	│  ┌─────────────────────────────────────────────┐           │
	│  │               Handler                        │           │
	│  │  1. readiness gate (supervisor)              │           │
	│  │  2. flow-specific validation                 │           │
	│  │  3. login for a session token                │           │
	│  │  4. the one privileged call                  │           │
	│  └─────────┬─────────────────────┬─────────────┘           │
	│            │                     │                          │
	│            ▼                     ▼                          │
	│   supervisor.Client       maubot.Client                     │
	│   (readiness, applied     (login, ensure admin,             │
	│    configuration)          register account)                │
	└─────────────────────────────────────────────────────────────┘

# Core Components

Handler:
  - Runs both account actions against a ready workload
  - Holds the supervisor client, the workload API, and the operator's
    own admin credentials
  - NewHandler(sup, workload, adminName, adminPassword)

WorkloadAPI interface:
  - Login, EnsureAdmin, RegisterAccount
  - The slice of pkg/maubot the handler needs; tests substitute fakes

ReservedAdminName:
  - "root", held back for the operator's own authentication round-trips
  - create-admin rejects it before any workload call

# Action Catalog

create-admin(name):
  - Reject "root" with kind invalid, before the readiness gate
  - Readiness gate; fails with kind not-ready
  - Generate a password; login with the operator's credentials (kind
    auth on failure)
  - EnsureAdmin(name, password) against the workload (kind call on
    failure); the call is idempotent, re-running resets the password
  - Result: {"password": "<generated>"}

register-client-account(admin-name, admin-password, account-name):
  - Readiness gate; fails with kind not-ready
  - Pull the applied configuration and pick the federation server; a
    missing homeservers block fails with kind invalid, message
    "matrix-auth integration is required"
  - Login with the supplied admin credentials (kind auth on failure)
  - Generate a password; RegisterAccount on the federation server (kind
    call on failure)
  - Result: {"user-id", "password", "access-token", "device-id"}

When the applied configuration lists several homeservers the handler
registers on the alphabetically first one.

# Readiness Gate

Both flows begin with the same two checks:

1. supervisor.CanConnect answers within its probe timeout
2. The maubot service exists and reports running

Either failing produces kind not-ready with the message "maubot is not
ready". The gate reads the supervisor only; it never calls the workload
API, so a gate failure makes zero authenticated requests.

# Failure Kinds

Failures are *types.ActionError values with a kind the caller can branch
on:

	invalid    rejected before any workload call (reserved name,
	           missing matrix-auth integration)
	not-ready  the workload cannot serve its API yet
	auth       the login round-trip failed; nothing else was attempted
	call       login succeeded but the follow-up call failed

The auth/call split is load-bearing for register-client-account: a failed
login makes exactly zero registration calls.

# Usage

Wiring at startup:

	import "github.com/canonical/maubot-operator/pkg/actions"

	handler := actions.NewHandler(sup, workloadClient, "root", adminPassword)

Running an action:

	result, err := handler.CreateAdmin(ctx, "alice")
	if err != nil {
		var actionErr *types.ActionError
		if errors.As(err, &actionErr) && actionErr.Kind == types.ActionErrorNotReady {
			// retry after the unit goes active
		}
		return err
	}
	fmt.Println("password:", result.Password)

# Design Patterns

Gate Then Act:
  - Cheap local checks run before any authenticated call
  - Failures early in the flow cannot leave partial workload state

Generated Credentials:
  - Account passwords are generated, never accepted from the caller
  - 10 bytes from crypto/rand, URL-safe base64 without padding

Stateless Invocations:
  - Every call re-checks readiness, re-reads the applied configuration,
    and authenticates from scratch
  - Nothing is cached between actions, so stale sessions cannot exist

# Security

The generated password is returned in the result and appears nowhere in
logs; neither do the supplied admin credentials, the session token, or
the registration response. Log lines carry the action name, the account
name, and the failure kind. The operator's own admin credentials live in
the handler for create-admin's login and are never echoed back.

# Troubleshooting

Issue: every action fails with kind not-ready
  - Cause: supervisor unreachable or the maubot service stopped
  - Check: GET /v1/status; supervisor request metrics
  - Solution: restore the workload container, then retry the action

Issue: register-client-account fails with "matrix-auth integration is required"
  - Cause: the federation relation was never joined, so the applied
    configuration has no homeservers block
  - Check: the relation snapshot in the last delivered event
  - Solution: join the matrix-auth relation and let a reconciliation
    apply it, then retry

Issue: create-admin fails with kind auth
  - Cause: the operator's own admin credentials are wrong, usually
    because the workload database was reset after bootstrap
  - Check: workload API metrics for 401 responses on login
  - Solution: re-run the bootstrap that seeds the operator admin

# Monitoring

Each invocation increments maubot_operator_actions_total with the action
name and ok/error. Workload round-trips appear in the pkg/maubot request
metrics.

# See Also

  - pkg/maubot for the workload API calls behind both actions
  - pkg/supervisor for the readiness probes and the applied configuration
  - pkg/types for ActionError and the result types
  - pkg/api for the HTTP mapping of failure kinds to status codes
*/
package actions
