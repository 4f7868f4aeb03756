package supervisor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/canonical/maubot-operator/pkg/metrics"
	"github.com/canonical/maubot-operator/pkg/types"
)

// DefaultSocketPath is where the supervisor daemon listens inside the
// operator's mount namespace
const DefaultSocketPath = "/charm/containers/maubot/pebble.socket"

const requestTimeout = 10 * time.Second

// ErrNotFound reports a file the container does not have
var ErrNotFound = errors.New("file not found")

// APIError is a non-2xx supervisor response
type APIError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supervisor %s: %s (status %d)", e.Op, e.Status, e.StatusCode)
}

// Client is the operator's view of the process supervisor running inside
// the workload container. Everything the operator does to the container
// goes through this boundary.
type Client interface {
	// CanConnect reports whether the supervisor answers at all. False here
	// means the container is not ready for anything else.
	CanConnect(ctx context.Context) bool

	// Plan returns the currently applied plan. An empty document (no
	// services) means nothing has been applied yet.
	Plan(ctx context.Context) (*types.PlanDocument, error)

	// AddLayer adds or replaces the labelled layer
	AddLayer(ctx context.Context, label string, layerYAML []byte, combine bool) error

	// Restart restarts the named services in order
	Restart(ctx context.Context, services ...string) error

	// ServiceRunning reports whether the named service exists and is active
	ServiceRunning(ctx context.Context, name string) (bool, error)

	// PushFile writes a file into the container
	PushFile(ctx context.Context, path string, data []byte) error

	// PullFile reads a file from the container; ErrNotFound if missing
	PullFile(ctx context.Context, path string) ([]byte, error)

	// MakeDirs creates directories (with parents) in the container
	MakeDirs(ctx context.Context, paths ...string) error
}

// HTTPClient talks to the supervisor daemon over its unix socket using the
// v1 HTTP API. Responses arrive in a JSON envelope; the plan body itself is
// YAML inside the envelope.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a supervisor client for the daemon socket
func NewClient(socketPath string) *HTTPClient {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}

	return &HTTPClient{
		// The host is a placeholder; the transport always dials the socket
		baseURL: "http://localhost",
		http:    &http.Client{Transport: transport, Timeout: requestTimeout},
	}
}

// NewClientForURL creates a supervisor client against an HTTP base URL.
// Used by tests; production always goes through the socket.
func NewClientForURL(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// envelope is the daemon's standard response wrapper
type envelope struct {
	Type       string          `json:"type"`
	StatusCode int             `json:"status-code"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
}

func (c *HTTPClient) CanConnect(ctx context.Context) bool {
	_, err := c.do(ctx, "system-info", http.MethodGet, "/v1/system-info", nil, nil)
	return err == nil
}

func (c *HTTPClient) Plan(ctx context.Context) (*types.PlanDocument, error) {
	result, err := c.do(ctx, "plan", http.MethodGet, "/v1/plan", url.Values{"format": {"yaml"}}, nil)
	if err != nil {
		return nil, err
	}

	var planYAML string
	if err := json.Unmarshal(result, &planYAML); err != nil {
		return nil, fmt.Errorf("decoding plan result: %w", err)
	}

	var doc types.PlanDocument
	if err := yaml.Unmarshal([]byte(planYAML), &doc); err != nil {
		return nil, fmt.Errorf("parsing applied plan: %w", err)
	}

	return &doc, nil
}

type addLayerPayload struct {
	Action  string `json:"action"`
	Label   string `json:"label"`
	Format  string `json:"format"`
	Layer   string `json:"layer"`
	Combine bool   `json:"combine"`
}

func (c *HTTPClient) AddLayer(ctx context.Context, label string, layerYAML []byte, combine bool) error {
	payload := addLayerPayload{
		Action:  "add",
		Label:   label,
		Format:  "yaml",
		Layer:   string(layerYAML),
		Combine: combine,
	}

	_, err := c.do(ctx, "add-layer", http.MethodPost, "/v1/layers", nil, payload)
	return err
}

type serviceActionPayload struct {
	Action   string   `json:"action"`
	Services []string `json:"services"`
}

func (c *HTTPClient) Restart(ctx context.Context, services ...string) error {
	payload := serviceActionPayload{Action: "restart", Services: services}

	_, err := c.do(ctx, "restart", http.MethodPost, "/v1/services", nil, payload)
	return err
}

type serviceInfo struct {
	Name    string `json:"name"`
	Current string `json:"current"`
}

func (c *HTTPClient) ServiceRunning(ctx context.Context, name string) (bool, error) {
	result, err := c.do(ctx, "services", http.MethodGet, "/v1/services", url.Values{"names": {name}}, nil)
	if err != nil {
		return false, err
	}

	var infos []serviceInfo
	if err := json.Unmarshal(result, &infos); err != nil {
		return false, fmt.Errorf("decoding services result: %w", err)
	}

	for _, info := range infos {
		if info.Name == name {
			return info.Current == "active", nil
		}
	}

	return false, nil
}

type writeFilesPayload struct {
	Action string      `json:"action"`
	Files  []writeFile `json:"files"`
}

type writeFile struct {
	Path     string `json:"path"`
	Data     string `json:"data"`
	MakeDirs bool   `json:"make-dirs"`
}

func (c *HTTPClient) PushFile(ctx context.Context, path string, data []byte) error {
	payload := writeFilesPayload{
		Action: "write",
		Files: []writeFile{{
			Path:     path,
			Data:     base64.StdEncoding.EncodeToString(data),
			MakeDirs: true,
		}},
	}

	_, err := c.do(ctx, "push", http.MethodPost, "/v1/files", nil, payload)
	return err
}

type fileContent struct {
	Path string `json:"path"`
	Data string `json:"data"`
}

func (c *HTTPClient) PullFile(ctx context.Context, path string) ([]byte, error) {
	query := url.Values{"action": {"read"}, "path": {path}}
	result, err := c.do(ctx, "pull", http.MethodGet, "/v1/files", query, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var content fileContent
	if err := json.Unmarshal(result, &content); err != nil {
		return nil, fmt.Errorf("decoding file result: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(content.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding file content: %w", err)
	}

	return data, nil
}

type makeDirsPayload struct {
	Action string    `json:"action"`
	Dirs   []makeDir `json:"dirs"`
}

type makeDir struct {
	Path        string `json:"path"`
	MakeParents bool   `json:"make-parents"`
}

func (c *HTTPClient) MakeDirs(ctx context.Context, paths ...string) error {
	payload := makeDirsPayload{Action: "make-dirs"}
	for _, path := range paths {
		payload.Dirs = append(payload.Dirs, makeDir{Path: path, MakeParents: true})
	}

	_, err := c.do(ctx, "make-dirs", http.MethodPost, "/v1/files", nil, payload)
	return err
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.SupervisorRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("supervisor %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SupervisorRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("reading %s response: %w", op, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.SupervisorRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("decoding %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.SupervisorRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Status: env.Status}
	}

	metrics.SupervisorRequestsTotal.WithLabelValues(op, "ok").Inc()
	return env.Result, nil
}
