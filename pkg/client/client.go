package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/canonical/maubot-operator/pkg/events"
	"github.com/canonical/maubot-operator/pkg/metrics"
	"github.com/canonical/maubot-operator/pkg/types"
)

// Per-call timeouts. Dispatching an event runs a whole reconciliation on
// the server side; actions make two workload round-trips.
const (
	requestTimeout  = 10 * time.Second
	actionTimeout   = 60 * time.Second
	dispatchTimeout = 3 * time.Minute
)

// Client wraps the operator API for CLI usage
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given operator address. unix:///path dials
// the socket; everything else is TCP.
func New(addr string) *Client {
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		return &Client{
			baseURL: "http://localhost",
			http: &http.Client{
				Transport: &http.Transport{
					DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
						var d net.Dialer
						return d.DialContext(ctx, "unix", path)
					},
				},
			},
		}
	}
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{},
	}
}

// DispatchEvent delivers one lifecycle event and returns the unit status
// the reconciliation ended on
func (c *Client) DispatchEvent(event events.Event) (types.UnitStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	var status types.UnitStatus
	if err := c.post(ctx, "/v1/events", event, &status); err != nil {
		return types.UnitStatus{}, err
	}
	return status, nil
}

// CreateAdmin runs the create-admin action. Structured action failures come
// back as *types.ActionError.
func (c *Client) CreateAdmin(name string) (*types.CreateAdminResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var result types.CreateAdminResult
	if err := c.post(ctx, "/v1/actions/create-admin", map[string]string{"name": name}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterClientAccount runs the register-client-account action
func (c *Client) RegisterClientAccount(adminName, adminPassword, accountName string) (*types.RegisterAccountResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	body := map[string]string{
		"admin-name":     adminName,
		"admin-password": adminPassword,
		"account-name":   accountName,
	}
	var result types.RegisterAccountResult
	if err := c.post(ctx, "/v1/actions/register-client-account", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status returns the last reported unit status
func (c *Client) Status() (types.UnitStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var status types.UnitStatus
	if err := c.get(ctx, "/v1/status", &status); err != nil {
		return types.UnitStatus{}, err
	}
	return status, nil
}

// Health returns the operator's component health
func (c *Client) Health() (metrics.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var health metrics.HealthStatus
	if err := c.get(ctx, "/v1/health", &health); err != nil {
		return metrics.HealthStatus{}, err
	}
	return health, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// errorBody is the API's error shape; kind is present on structured action
// failures
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("operator unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed errorBody
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			if parsed.Kind != "" {
				return &types.ActionError{
					Kind:    types.ActionErrorKind(parsed.Kind),
					Message: parsed.Error,
				}
			}
			return fmt.Errorf("%s (status %d)", parsed.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
