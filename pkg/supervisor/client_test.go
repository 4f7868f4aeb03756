package supervisor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/maubot-operator/pkg/types"
)

// fakeDaemon is an in-memory supervisor daemon speaking the v1 wire format
type fakeDaemon struct {
	planYAML string
	files    map[string][]byte
	dirs     []string
	layers   []addLayerPayload
	restarts [][]string
	services map[string]string
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{
		files:    make(map[string][]byte),
		services: make(map[string]string),
	}
}

func writeEnvelope(w http.ResponseWriter, statusCode int, status string, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":        "sync",
		"status-code": statusCode,
		"status":      status,
		"result":      result,
	})
}

func (d *fakeDaemon) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/system-info", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "OK", map[string]string{"version": "test"})
	})

	mux.HandleFunc("/v1/plan", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "OK", d.planYAML)
	})

	mux.HandleFunc("/v1/layers", func(w http.ResponseWriter, r *http.Request) {
		var payload addLayerPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeEnvelope(w, http.StatusBadRequest, "bad request", nil)
			return
		}
		d.layers = append(d.layers, payload)
		writeEnvelope(w, http.StatusOK, "OK", true)
	})

	mux.HandleFunc("/v1/services", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var payload serviceActionPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeEnvelope(w, http.StatusBadRequest, "bad request", nil)
				return
			}
			d.restarts = append(d.restarts, payload.Services)
			writeEnvelope(w, http.StatusOK, "OK", nil)
			return
		}

		name := r.URL.Query().Get("names")
		var infos []serviceInfo
		if current, ok := d.services[name]; ok {
			infos = append(infos, serviceInfo{Name: name, Current: current})
		}
		writeEnvelope(w, http.StatusOK, "OK", infos)
	})

	mux.HandleFunc("/v1/files", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			path := r.URL.Query().Get("path")
			data, ok := d.files[path]
			if !ok {
				writeEnvelope(w, http.StatusNotFound, "not found", nil)
				return
			}
			writeEnvelope(w, http.StatusOK, "OK", fileContent{
				Path: path,
				Data: base64.StdEncoding.EncodeToString(data),
			})
			return
		}

		var generic map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&generic); err != nil {
			writeEnvelope(w, http.StatusBadRequest, "bad request", nil)
			return
		}
		var action string
		_ = json.Unmarshal(generic["action"], &action)

		switch action {
		case "write":
			var files []writeFile
			_ = json.Unmarshal(generic["files"], &files)
			for _, f := range files {
				data, err := base64.StdEncoding.DecodeString(f.Data)
				if err != nil {
					writeEnvelope(w, http.StatusBadRequest, "bad content", nil)
					return
				}
				d.files[f.Path] = data
			}
		case "make-dirs":
			var dirs []makeDir
			_ = json.Unmarshal(generic["dirs"], &dirs)
			for _, dir := range dirs {
				d.dirs = append(d.dirs, dir.Path)
			}
		default:
			writeEnvelope(w, http.StatusBadRequest, "unknown action", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "OK", nil)
	})

	return mux
}

func newTestClient(t *testing.T) (*HTTPClient, *fakeDaemon) {
	t.Helper()
	daemon := newFakeDaemon()
	server := httptest.NewServer(daemon.handler())
	t.Cleanup(server.Close)
	return NewClientForURL(server.URL), daemon
}

func TestCanConnect(t *testing.T) {
	client, _ := newTestClient(t)
	assert.True(t, client.CanConnect(context.Background()))
}

func TestCanConnectDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClientForURL(server.URL)
	assert.False(t, client.CanConnect(context.Background()))
}

func TestPlanEmpty(t *testing.T) {
	client, _ := newTestClient(t)

	doc, err := client.Plan(context.Background())

	require.NoError(t, err)
	assert.Empty(t, doc.Services)
}

func TestPlanApplied(t *testing.T) {
	client, daemon := newTestClient(t)
	daemon.planYAML = `
services:
    maubot:
        override: replace
        command: python3 -m maubot -c /data/config.yaml
        startup: enabled
        restart: on-failure
checks:
    maubot-up:
        override: replace
        period: 10s
        threshold: 3
        http:
            url: http://localhost:29316/_matrix/maubot/
`

	doc, err := client.Plan(context.Background())

	require.NoError(t, err)
	require.Contains(t, doc.Services, "maubot")
	assert.Equal(t, types.RestartOnFailure, doc.Services["maubot"].Restart)
	require.Contains(t, doc.Checks, "maubot-up")
	assert.Equal(t, "10s", doc.Checks["maubot-up"].Period)
}

func TestAddLayer(t *testing.T) {
	client, daemon := newTestClient(t)

	layerYAML := []byte("services:\n    maubot:\n        override: replace\n")
	err := client.AddLayer(context.Background(), "maubot", layerYAML, true)

	require.NoError(t, err)
	require.Len(t, daemon.layers, 1)
	applied := daemon.layers[0]
	assert.Equal(t, "add", applied.Action)
	assert.Equal(t, "maubot", applied.Label)
	assert.True(t, applied.Combine)
	assert.Equal(t, string(layerYAML), applied.Layer)
}

func TestRestartOrder(t *testing.T) {
	client, daemon := newTestClient(t)

	err := client.Restart(context.Background(), "maubot", "nginx", "blackbox")

	require.NoError(t, err)
	require.Len(t, daemon.restarts, 1)
	assert.Equal(t, []string{"maubot", "nginx", "blackbox"}, daemon.restarts[0])
}

func TestServiceRunning(t *testing.T) {
	client, daemon := newTestClient(t)
	daemon.services["maubot"] = "active"
	daemon.services["nginx"] = "inactive"

	running, err := client.ServiceRunning(context.Background(), "maubot")
	require.NoError(t, err)
	assert.True(t, running)

	running, err = client.ServiceRunning(context.Background(), "nginx")
	require.NoError(t, err)
	assert.False(t, running)

	running, err = client.ServiceRunning(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, running)
}

func TestPushAndPullFile(t *testing.T) {
	client, daemon := newTestClient(t)

	content := []byte("server:\n    public_url: https://maubot.local\n")
	err := client.PushFile(context.Background(), "/data/config.yaml", content)
	require.NoError(t, err)
	assert.Equal(t, content, daemon.files["/data/config.yaml"])

	got, err := client.PullFile(context.Background(), "/data/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestPullFileNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.PullFile(context.Background(), "/data/missing.yaml")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMakeDirs(t *testing.T) {
	client, daemon := newTestClient(t)

	err := client.MakeDirs(context.Background(), "/data/plugins", "/data/trash", "/data/dbs")

	require.NoError(t, err)
	assert.Equal(t, []string{"/data/plugins", "/data/trash", "/data/dbs"}, daemon.dirs)
}

func TestAPIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, "layer validation failed", nil)
	}))
	t.Cleanup(server.Close)

	client := NewClientForURL(server.URL)
	err := client.AddLayer(context.Background(), "maubot", []byte("services: {}\n"), true)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "layer validation failed", apiErr.Status)
}
