/*
Package layer plans the supervised processes for the workload container.

The layer package is the third stage of a reconciliation: given the built
workload configuration, it produces the layer definitions the process
supervisor runs, and renders them into the combined document the supervisor
applies. Planning is pure and deterministic.

# Architecture

	┌─────────────────────── CONTAINER ───────────────────────┐
	│                                                          │
	│   :8080 ┌─────────┐        :29316 ┌──────────┐          │
	│  ───────▶  nginx  ├───────────────▶  maubot  │          │
	│         │ (proxy) │                │(workload)│          │
	│         └─────────┘                └─────▲────┘          │
	│              after: [maubot]             │ /_matrix/...  │
	│                                          │               │
	│   :9115 ┌────────────┐  probes          │               │
	│  ───────▶  blackbox   ├─────────────────┘               │
	│         │ (exporter)  │   results → Prometheus           │
	│         └────────────┘                                   │
	└──────────────────────────────────────────────────────────┘

# Core Components

Planner:
  - Plan(cfg) expands the configuration into three LayerDefinitions
  - Stateless and pure; identical configuration yields identical plans

Render / Marshal:
  - Render combines the definitions into one types.PlanDocument
  - Marshal encodes it deterministically for AddLayer and for the
    idempotence comparison

ServiceNames:
  - The services in start order, for the restart call

Constants:
  - ConfigPath (/data/config.yaml) and DataDirs (/data/plugins,
    /data/trash, /data/dbs): the workload filesystem contract
  - Label ("maubot"): the combined layer's identity in the supervisor
  - WorkloadPort 29316, ProxyPort 8080, ExporterPort 9115
  - EnvDatabaseURL, EnvHomeserverSecret: the workload's environment keys

# Service Catalog

maubot (the workload):
  - Command: python3 -m maubot -c /data/config.yaml
  - Working dir: /data
  - Restart: on-failure
  - Environment: MAUBOT_DATABASE_URL always; MAUBOT_HOMESERVER_SECRET
    only when the configuration carries a homeservers section
  - Check "maubot-up": GET http://localhost:29316/_matrix/maubot/
    every 10s, threshold 3

nginx (the proxy):
  - Command: /usr/sbin/nginx
  - Starts after maubot; restart always
  - Listens on the external port 8080
  - Check "nginx-up": GET http://localhost:8080/health every 10s;
    the path answers regardless of workload health

blackbox (the probe):
  - Command: /usr/bin/blackbox_exporter --config.file=/etc/blackbox.yaml
  - Restart always, independent of the workload's policy
  - Check "blackbox-up": GET http://localhost:9115/-/healthy every 10s
  - Probes the workload's well-known path; results surface as Prometheus
    metrics via the scrape job in pkg/metrics, never as restarts

# Rendered Document

Render produces the combined document with override: replace everywhere:

	summary: maubot services
	description: workload, reverse proxy, and probe exporter managed by the operator
	services:
	    maubot:
	        override: replace
	        summary: maubot application server
	        command: python3 -m maubot -c /data/config.yaml
	        startup: enabled
	        working-dir: /data
	        environment:
	            MAUBOT_DATABASE_URL: postgresql://...
	        restart: on-failure
	    nginx:
	        override: replace
	        ...
	checks:
	    maubot-up:
	        override: replace
	        period: 10s
	        threshold: 3
	        http:
	            url: http://localhost:29316/_matrix/maubot/
	    ...

One document replaces the operator's whole layer atomically; there is no
incremental patching of individual services. Marshal output is
deterministic, which lets the reconciler compare desired against applied.

# Environment Derivation

The workload reads secrets from its environment, rendered from the
configuration document. Secret values pass through LayerDefinition
.Environment and the plan document only; they are never logged and never
appear in a command line.

# Usage

Planning and rendering:

	planner := layer.NewPlanner()
	plan := planner.Plan(cfg)

	doc := layer.Render(plan)
	data, err := layer.Marshal(doc)
	// supervisor.AddLayer(ctx, layer.Label, data, true)
	// supervisor.Restart(ctx, layer.ServiceNames(plan)...)

Using the filesystem contract:

	// before the first config write:
	// supervisor.MakeDirs(ctx, layer.DataDirs...)
	// supervisor.PushFile(ctx, layer.ConfigPath, rendered)

# Design Patterns

Atomic Replacement:
  - All three services live in one labelled layer added with combine
  - A failed apply never leaves a half-replaced process set

Independent Policies:
  - The probe's restart policy and checks are decoupled from the
    workload's; a failing probe is a metrics signal, not a restart

Secrets In Environment:
  - Credentials reach the workload via environment entries in the plan,
    never via command-line arguments visible in process listings

# Integration Points

This package integrates with:

  - pkg/config: consumes the built WorkloadConfig
  - pkg/supervisor: the rendered document is what AddLayer sends
  - pkg/reconciler: plans and renders inside every cycle
  - pkg/metrics: the probe service pairs with ProbeScrapeJobs
  - pkg/actions: shares ConfigPath for the pull-and-parse gate

# Troubleshooting

Common Issues:

Workload restarts in a loop:
  - Symptom: maubot flapping, nginx staying up
  - Cause: workload exits on startup (bad database DSN, unreachable DB)
  - Check: the maubot-up check state and the container's service logs
  - Solution: fix the database relation data; on-failure restart keeps
    retrying until it sticks

Proxy up but workload unreachable from outside:
  - Symptom: :8080/health answers, bot paths 502
  - Cause: nginx is healthy by design even when maubot is down
  - Check: the maubot service state, not the proxy's
  - Solution: the proxy check is intentionally independent; read the
    workload check for workload health

# See Also

  - pkg/supervisor for how the document is applied
  - pkg/metrics for the scrape job that consumes the probe exporter
  - pkg/config for the document that drives the environments
*/
package layer
