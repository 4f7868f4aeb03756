package layer

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/canonical/maubot-operator/pkg/types"
)

// Workload filesystem locations
const (
	DataDir    = "/data"
	ConfigPath = "/data/config.yaml"
)

// DataDirs are created before the first configuration write; the workload
// expects them to exist but never creates them itself
var DataDirs = []string{"/data/plugins", "/data/trash", "/data/dbs"}

// Service names within the combined layer
const (
	WorkloadService = "maubot"
	ProxyService    = "nginx"
	ProbeService    = "blackbox"
)

// Label identifies the operator's combined layer in the supervisor
const Label = "maubot"

// Container ports
const (
	WorkloadPort = 29316
	ProxyPort    = 8080
	ExporterPort = 9115
)

// Environment keys injected into the workload service
const (
	EnvDatabaseURL      = "MAUBOT_DATABASE_URL"
	EnvHomeserverSecret = "MAUBOT_HOMESERVER_SECRET"
)

// Process commands
const (
	workloadCommand = "python3 -m maubot -c /data/config.yaml"
	proxyCommand    = "/usr/sbin/nginx"
	probeCommand    = "/usr/bin/blackbox_exporter --config.file=/etc/blackbox.yaml"
)

// Readiness check cadence shared by all three services
const (
	checkPeriod    = 10 * time.Second
	checkThreshold = 3
)

// Planner expands a workload configuration into the layer definitions the
// supervisor runs. Planning is pure; the same configuration always yields
// the same plan.
type Planner struct{}

// NewPlanner creates a layer planner
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan returns the three layer definitions: the workload itself, the
// reverse proxy in front of it, and the probe exporter beside it.
func (p *Planner) Plan(cfg *types.WorkloadConfig) types.Plan {
	env := map[string]string{
		EnvDatabaseURL: cfg.Database,
	}
	if secret, ok := federationSecret(cfg); ok {
		env[EnvHomeserverSecret] = secret
	}

	workload := types.LayerDefinition{
		Name:        WorkloadService,
		Summary:     "maubot application server",
		Command:     workloadCommand,
		WorkingDir:  DataDir,
		Environment: env,
		Restart:     types.RestartOnFailure,
		Check: &types.LayerCheck{
			Name:      WorkloadService + "-up",
			URL:       fmt.Sprintf("http://localhost:%d/_matrix/maubot/", WorkloadPort),
			Period:    checkPeriod,
			Threshold: checkThreshold,
		},
	}

	proxy := types.LayerDefinition{
		Name:    ProxyService,
		Summary: "nginx reverse proxy",
		Command: proxyCommand,
		After:   []string{WorkloadService},
		Restart: types.RestartAlways,
		Check: &types.LayerCheck{
			Name:      ProxyService + "-up",
			URL:       fmt.Sprintf("http://localhost:%d/health", ProxyPort),
			Period:    checkPeriod,
			Threshold: checkThreshold,
		},
	}

	// The probe exporter's own liveness; probe results flow to Prometheus,
	// never back into workload restarts.
	probe := types.LayerDefinition{
		Name:    ProbeService,
		Summary: "blackbox exporter probes",
		Command: probeCommand,
		Restart: types.RestartAlways,
		Check: &types.LayerCheck{
			Name:      ProbeService + "-up",
			URL:       fmt.Sprintf("http://localhost:%d/-/healthy", ExporterPort),
			Period:    checkPeriod,
			Threshold: checkThreshold,
		},
	}

	return types.Plan{Layers: []types.LayerDefinition{workload, proxy, probe}}
}

// ServiceNames returns the services in start order
func ServiceNames(plan types.Plan) []string {
	names := make([]string, 0, len(plan.Layers))
	for _, l := range plan.Layers {
		names = append(names, l.Name)
	}
	return names
}

// Render converts a plan into the combined document shape the supervisor
// applies and reports back
func Render(plan types.Plan) *types.PlanDocument {
	doc := &types.PlanDocument{
		Summary:     "maubot services",
		Description: "workload, reverse proxy, and probe exporter managed by the operator",
		Services:    make(map[string]types.ServiceSpec, len(plan.Layers)),
		Checks:      make(map[string]types.CheckSpec),
	}

	for _, l := range plan.Layers {
		doc.Services[l.Name] = types.ServiceSpec{
			Override:    "replace",
			Summary:     l.Summary,
			Command:     l.Command,
			Startup:     "enabled",
			After:       l.After,
			WorkingDir:  l.WorkingDir,
			Environment: l.Environment,
			Restart:     l.Restart,
		}

		if l.Check != nil {
			doc.Checks[l.Check.Name] = types.CheckSpec{
				Override:  "replace",
				Period:    l.Check.Period.String(),
				Threshold: l.Check.Threshold,
				HTTP:      &types.HTTPCheckSpec{URL: l.Check.URL},
			}
		}
	}

	return doc
}

// Marshal renders a plan document deterministically (the encoder sorts the
// service and check maps)
func Marshal(doc *types.PlanDocument) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering layer document: %w", err)
	}
	return data, nil
}

// federationSecret returns the shared secret from the homeservers section.
// The builder writes at most one entry; iteration is sorted anyway so the
// result is stable if that ever changes.
func federationSecret(cfg *types.WorkloadConfig) (string, bool) {
	if len(cfg.Homeservers) == 0 {
		return "", false
	}

	names := make([]string, 0, len(cfg.Homeservers))
	for name := range cfg.Homeservers {
		names = append(names, name)
	}
	sort.Strings(names)

	return cfg.Homeservers[names[0]].Secret, true
}
