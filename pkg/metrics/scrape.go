package metrics

import (
	"fmt"
	"strings"
)

// ScrapeJob is one Prometheus scrape job the operator publishes for the
// workload's probe exporter
type ScrapeJob struct {
	JobName        string              `json:"job_name"`
	MetricsPath    string              `json:"metrics_path"`
	Params         map[string][]string `json:"params,omitempty"`
	StaticConfigs  []TargetGroup       `json:"static_configs"`
	RelabelConfigs []RelabelConfig     `json:"relabel_configs,omitempty"`
}

// TargetGroup is a static_configs entry
type TargetGroup struct {
	Targets []string `json:"targets"`
}

// RelabelConfig is one relabeling rule in a scrape job
type RelabelConfig struct {
	SourceLabels []string `json:"source_labels,omitempty"`
	TargetLabel  string   `json:"target_label,omitempty"`
	Replacement  string   `json:"replacement,omitempty"`
}

// ProbeTarget is the workload path the probe exporter checks
const ProbeTarget = "http://127.0.0.1:29316/_matrix/maubot/"

// ProbeScrapeJobs returns the scrape jobs that route probe requests through
// the workload's blackbox exporter. The exporter address follows the
// runtime's per-unit endpoint naming.
func ProbeScrapeJobs(unitName, appName, modelName string) []ScrapeJob {
	unit := strings.ReplaceAll(unitName, "/", "-")
	exporterAddress := fmt.Sprintf("%s.%s-endpoints.%s.svc.cluster.local:9115", unit, appName, modelName)

	job := ScrapeJob{
		JobName:       "blackbox_maubot",
		MetricsPath:   "/probe",
		Params:        map[string][]string{"module": {"http_2xx"}},
		StaticConfigs: []TargetGroup{{Targets: []string{ProbeTarget}}},
		// Relabel configs per the blackbox exporter docs: point the scrape
		// at the exporter, keep the probed URL as instance and probe_target.
		RelabelConfigs: []RelabelConfig{
			{SourceLabels: []string{"__address__"}, TargetLabel: "__param_target"},
			{SourceLabels: []string{"__param_target"}, TargetLabel: "instance"},
			{SourceLabels: []string{"__param_target"}, TargetLabel: "probe_target"},
			{TargetLabel: "__address__", Replacement: exporterAddress},
		},
	}

	return []ScrapeJob{job}
}
