package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/maubot-operator/pkg/types"
)

func minimalConfig() *types.WorkloadConfig {
	return &types.WorkloadConfig{
		Server:   types.ServerConfig{PublicURL: "https://maubot.local"},
		Database: "postgresql://u:p@db:5432/maubot",
	}
}

func federatedConfig() *types.WorkloadConfig {
	cfg := minimalConfig()
	cfg.Homeservers = map[string]types.Homeserver{
		"synapse": {URL: "https://matrix.example.com", Secret: "topsecret"},
	}
	return cfg
}

func findLayer(t *testing.T, plan types.Plan, name string) types.LayerDefinition {
	t.Helper()
	for _, l := range plan.Layers {
		if l.Name == name {
			return l
		}
	}
	t.Fatalf("plan has no %q layer", name)
	return types.LayerDefinition{}
}

func TestPlanHasAllThreeServices(t *testing.T) {
	plan := NewPlanner().Plan(minimalConfig())

	require.Len(t, plan.Layers, 3)
	assert.Equal(t, []string{"maubot", "nginx", "blackbox"}, ServiceNames(plan))
}

func TestPlanWorkloadLayer(t *testing.T) {
	plan := NewPlanner().Plan(minimalConfig())
	workload := findLayer(t, plan, WorkloadService)

	assert.Equal(t, "python3 -m maubot -c /data/config.yaml", workload.Command)
	assert.Equal(t, DataDir, workload.WorkingDir)
	assert.Equal(t, types.RestartOnFailure, workload.Restart)
	require.NotNil(t, workload.Check)
	assert.Equal(t, "http://localhost:29316/_matrix/maubot/", workload.Check.URL)
}

func TestPlanDatabaseEnvironment(t *testing.T) {
	plan := NewPlanner().Plan(minimalConfig())
	workload := findLayer(t, plan, WorkloadService)

	assert.Equal(t, "postgresql://u:p@db:5432/maubot", workload.Environment[EnvDatabaseURL])
}

func TestPlanFederationEnvironment(t *testing.T) {
	t.Run("secret present when federated", func(t *testing.T) {
		plan := NewPlanner().Plan(federatedConfig())
		workload := findLayer(t, plan, WorkloadService)

		assert.Equal(t, "topsecret", workload.Environment[EnvHomeserverSecret])
	})

	t.Run("no federation keys when absent", func(t *testing.T) {
		plan := NewPlanner().Plan(minimalConfig())
		workload := findLayer(t, plan, WorkloadService)

		_, present := workload.Environment[EnvHomeserverSecret]
		assert.False(t, present, "federation absent means no federation environment keys")
	})
}

func TestPlanProxyLayer(t *testing.T) {
	plan := NewPlanner().Plan(minimalConfig())
	proxy := findLayer(t, plan, ProxyService)

	assert.Equal(t, "/usr/sbin/nginx", proxy.Command)
	assert.Equal(t, []string{WorkloadService}, proxy.After, "proxy starts after the workload")
	assert.Equal(t, types.RestartAlways, proxy.Restart)
	require.NotNil(t, proxy.Check)
	assert.Equal(t, "http://localhost:8080/health", proxy.Check.URL, "fixed health path, independent of workload health")
}

func TestPlanProbeLayer(t *testing.T) {
	plan := NewPlanner().Plan(minimalConfig())
	probe := findLayer(t, plan, ProbeService)

	assert.Equal(t, "/usr/bin/blackbox_exporter --config.file=/etc/blackbox.yaml", probe.Command)
	assert.Empty(t, probe.After, "probe exporter does not wait on the workload")
	assert.NotEqual(t, findLayer(t, plan, WorkloadService).Restart, probe.Restart,
		"probe and workload restart policies are independent")
}

func TestRenderDocument(t *testing.T) {
	plan := NewPlanner().Plan(federatedConfig())
	doc := Render(plan)

	require.Len(t, doc.Services, 3)
	require.Len(t, doc.Checks, 3)

	svc := doc.Services[WorkloadService]
	assert.Equal(t, "replace", svc.Override)
	assert.Equal(t, "enabled", svc.Startup)
	assert.Equal(t, types.RestartOnFailure, svc.Restart)

	check := doc.Checks[WorkloadService+"-up"]
	assert.Equal(t, "replace", check.Override)
	assert.Equal(t, "10s", check.Period)
	assert.Equal(t, 3, check.Threshold)
	require.NotNil(t, check.HTTP)
}

func TestMarshalDeterministic(t *testing.T) {
	plan := NewPlanner().Plan(federatedConfig())

	first, err := Marshal(Render(plan))
	require.NoError(t, err)
	second, err := Marshal(Render(NewPlanner().Plan(federatedConfig())))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSecretsNeverInCommands(t *testing.T) {
	cfg := federatedConfig()
	plan := NewPlanner().Plan(cfg)

	for _, l := range plan.Layers {
		assert.NotContains(t, l.Command, "topsecret")
		assert.NotContains(t, l.Command, cfg.Database)
	}
}
