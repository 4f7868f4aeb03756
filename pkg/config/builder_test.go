package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/maubot-operator/pkg/types"
)

func databaseFact() *types.DatabaseFact {
	return &types.DatabaseFact{
		Host: "db", Port: 5432,
		User: "u", Password: "p", Database: "maubot",
	}
}

func TestBuildRequiresDatabaseFirst(t *testing.T) {
	tests := []struct {
		name  string
		facts types.Facts
	}{
		{
			name:  "nothing at all",
			facts: types.Facts{},
		},
		{
			name: "every other fact present",
			facts: types.Facts{
				Ingress:    &types.IngressFact{URL: "https://bots.example.org"},
				Federation: &types.FederationFact{Homeserver: "https://matrix.example.com", SharedSecret: "s", ServerName: "synapse"},
				Logging:    &types.LoggingFact{Endpoint: "http://loki:3100/loki/api/v1/push"},
			},
		},
	}

	builder := NewBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := builder.Build(tt.facts, nil)

			require.Error(t, err)
			var notReady *NotReadyError
			require.ErrorAs(t, err, &notReady)
			assert.Equal(t, types.RelationDatabase, notReady.Kind)
			assert.Nil(t, cfg)
		})
	}
}

func TestBuildMinimal(t *testing.T) {
	builder := NewBuilder()

	cfg, err := builder.Build(types.Facts{Database: databaseFact()}, nil)

	require.NoError(t, err)
	assert.Equal(t, "postgresql://u:p@db:5432/maubot", cfg.Database)
	assert.Equal(t, DefaultPublicURL, cfg.Server.PublicURL)
	assert.Nil(t, cfg.Homeservers, "no federation fact, no homeservers block")
	assert.Nil(t, cfg.Logging, "no logging fact, no logging block")
}

func TestBuildPublicURLPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		ingress *types.IngressFact
		static  types.StaticConfig
		want    string
		wantErr string
	}{
		{
			name:    "ingress over static",
			ingress: &types.IngressFact{URL: "https://bots.example.org"},
			static:  types.StaticConfig{"public-url": "https://maubot.local"},
			want:    "https://bots.example.org",
		},
		{
			name:   "static when no ingress",
			static: types.StaticConfig{"public-url": "https://maubot.example.com"},
			want:   "https://maubot.example.com",
		},
		{
			name: "default when neither",
			want: DefaultPublicURL,
		},
		{
			name:    "invalid static is an error when used",
			static:  types.StaticConfig{"public-url": "not-a-url"},
			wantErr: "invalid configuration",
		},
		{
			name:    "invalid static is ignored when ingress wins",
			ingress: &types.IngressFact{URL: "https://bots.example.org"},
			static:  types.StaticConfig{"public-url": "not-a-url"},
			want:    "https://bots.example.org",
		},
	}

	builder := NewBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := types.Facts{Database: databaseFact(), Ingress: tt.ingress}
			cfg, err := builder.Build(facts, tt.static)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var notReady *NotReadyError
				assert.False(t, errors.As(err, &notReady), "configuration errors are not not-ready errors")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Server.PublicURL)
		})
	}
}

func TestBuildFederationBlock(t *testing.T) {
	builder := NewBuilder()

	facts := types.Facts{
		Database: databaseFact(),
		Federation: &types.FederationFact{
			Homeserver:   "https://matrix.example.com",
			SharedSecret: "topsecret",
			ServerName:   "example",
		},
	}

	cfg, err := builder.Build(facts, nil)

	require.NoError(t, err)
	require.Len(t, cfg.Homeservers, 1)
	hs, ok := cfg.Homeservers["example"]
	require.True(t, ok, "homeserver keyed by server name")
	assert.Equal(t, "https://matrix.example.com", hs.URL)
	assert.Equal(t, "topsecret", hs.Secret)
}

func TestBuildLoggingBlock(t *testing.T) {
	builder := NewBuilder()

	facts := types.Facts{
		Database: databaseFact(),
		Logging:  &types.LoggingFact{Endpoint: "http://loki:3100/loki/api/v1/push"},
	}

	cfg, err := builder.Build(facts, nil)

	require.NoError(t, err)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "http://loki:3100/loki/api/v1/push", cfg.Logging.Endpoint)
}

func TestMarshalDeterministic(t *testing.T) {
	builder := NewBuilder()

	facts := types.Facts{
		Database: databaseFact(),
		Federation: &types.FederationFact{
			Homeserver:   "https://matrix.example.com",
			SharedSecret: "s",
			ServerName:   "synapse",
		},
		Logging: &types.LoggingFact{Endpoint: "http://loki:3100/loki/api/v1/push"},
	}

	first, err := builder.Build(facts, nil)
	require.NoError(t, err)
	second, err := builder.Build(facts, nil)
	require.NoError(t, err)

	firstBytes, err := Marshal(first)
	require.NoError(t, err)
	secondBytes, err := Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes, "identical inputs must render identical bytes")
}

func TestMarshalOmitsAbsentSections(t *testing.T) {
	cfg, err := NewBuilder().Build(types.Facts{Database: databaseFact()}, nil)
	require.NoError(t, err)

	data, err := Marshal(cfg)
	require.NoError(t, err)

	rendered := string(data)
	assert.NotContains(t, rendered, "homeservers")
	assert.NotContains(t, rendered, "logging")
	assert.Contains(t, rendered, "public_url")
}

func TestUnmarshalAppliedDocument(t *testing.T) {
	doc := strings.Join([]string{
		"server:",
		"    public_url: https://bots.example.org",
		"database: postgresql://u:p@db:5432/maubot",
		"homeservers:",
		"    synapse:",
		"        url: https://matrix.example.com",
		"        secret: s",
	}, "\n")

	cfg, err := Unmarshal([]byte(doc))

	require.NoError(t, err)
	assert.Equal(t, "https://bots.example.org", cfg.Server.PublicURL)
	require.Len(t, cfg.Homeservers, 1)
	assert.Equal(t, "https://matrix.example.com", cfg.Homeservers["synapse"].URL)
}
