package config

import (
	"fmt"
	"net/url"

	"gopkg.in/yaml.v3"

	"github.com/canonical/maubot-operator/pkg/types"
)

// DefaultPublicURL is the public base URL when neither ingress nor static
// configuration provides one
const DefaultPublicURL = "https://maubot.local"

// NotReadyError reports a required fact that is still absent. It maps to a
// waiting status: the runtime will redeliver once the relation forms.
type NotReadyError struct {
	Kind types.RelationKind
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s relation not ready", e.Kind)
}

// Builder derives the workload configuration document from validated facts
// and static configuration. Building is pure: no I/O, no stored state.
type Builder struct{}

// NewBuilder creates a configuration builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Build constructs the complete workload configuration. The database fact
// is required and checked first: without credentials there is nothing to
// run, regardless of what else is present or missing.
func (b *Builder) Build(facts types.Facts, static types.StaticConfig) (*types.WorkloadConfig, error) {
	if facts.Database == nil {
		return nil, &NotReadyError{Kind: types.RelationDatabase}
	}

	publicURL, err := resolvePublicURL(facts.Ingress, static)
	if err != nil {
		return nil, err
	}

	cfg := &types.WorkloadConfig{
		Server:   types.ServerConfig{PublicURL: publicURL},
		Database: facts.Database.DSN(),
	}

	if facts.Federation != nil {
		cfg.Homeservers = map[string]types.Homeserver{
			facts.Federation.ServerName: {
				URL:    facts.Federation.Homeserver,
				Secret: facts.Federation.SharedSecret,
			},
		}
	}

	if facts.Logging != nil {
		cfg.Logging = &types.LoggingConfig{Endpoint: facts.Logging.Endpoint}
	}

	return cfg, nil
}

// Marshal renders the configuration document. Field order is fixed and the
// encoder sorts map keys, so identical configurations produce identical
// bytes; the reconciler compares these bytes to decide whether to write.
func Marshal(cfg *types.WorkloadConfig) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering workload configuration: %w", err)
	}
	return data, nil
}

// Unmarshal parses a configuration document read back from the container
func Unmarshal(data []byte) (*types.WorkloadConfig, error) {
	var cfg types.WorkloadConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing workload configuration: %w", err)
	}
	return &cfg, nil
}

// resolvePublicURL applies the precedence: ingress over static configuration
// over the default. Static configuration is only validated when it is
// actually the source.
func resolvePublicURL(ingress *types.IngressFact, static types.StaticConfig) (string, error) {
	if ingress != nil {
		return ingress.URL, nil
	}

	if raw := static[types.ConfigKeyPublicURL]; raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return "", fmt.Errorf("invalid configuration: public-url %q is not an absolute URL", raw)
		}
		return raw, nil
	}

	return DefaultPublicURL, nil
}
