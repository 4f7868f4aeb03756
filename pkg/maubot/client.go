package maubot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/canonical/maubot-operator/pkg/metrics"
)

// DefaultBaseURL is the workload's management API root, reachable from the
// operator over the pod-local network
const DefaultBaseURL = "http://localhost:29316/_matrix/maubot"

const requestTimeout = 5 * time.Second

// APIError is a failed workload API call: transport trouble, a non-2xx
// response, or a 2xx response missing required fields. The message never
// echoes credentials.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("workload api %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("workload api %s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

// Client calls the workload's management API. It holds no session state;
// callers authenticate per flow and pass the token in.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a workload API client. An empty baseURL selects the
// default pod-local root.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates against the workload and returns a session token.
// A 2xx response without a token is an error; nothing can proceed without
// one.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := c.do(ctx, "login", http.MethodPost, "/v1/auth/login", "", loginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", err
	}

	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &APIError{Op: "login", Message: "malformed login response"}
	}
	if parsed.Token == "" {
		return "", &APIError{Op: "login", Message: "no token in login response"}
	}

	return parsed.Token, nil
}

type ensureAdminRequest struct {
	Password string `json:"password"`
}

// EnsureAdmin creates or updates the named admin account with the given
// password
func (c *Client) EnsureAdmin(ctx context.Context, token, name, password string) error {
	path := "/v1/admins/" + name
	_, err := c.do(ctx, "ensure-admin", http.MethodPut, path, token, ensureAdminRequest{
		Password: password,
	})
	return err
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountCredentials is what the workload hands back for a freshly
// registered client account
type AccountCredentials struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
}

// RegisterAccount registers a client account on the named federation
// server through the workload's shared-secret registration flow
func (c *Client) RegisterAccount(ctx context.Context, token, server, username, password string) (*AccountCredentials, error) {
	path := fmt.Sprintf("/v1/client/auth/%s/register", server)
	body, err := c.do(ctx, "register-account", http.MethodPost, path, token, registerRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var creds AccountCredentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return nil, &APIError{Op: "register-account", Message: "malformed registration response"}
	}

	return &creds, nil
}

// errorBody is the workload's error shape
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, op, method, path, token string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &APIError{Op: op, Message: "encoding request"}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, &APIError{Op: op, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	timer := metrics.NewTimer()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.WorkloadAPIRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, &APIError{Op: op, Message: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()
	timer.ObserveDurationVec(metrics.WorkloadAPIRequestDuration, op)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.WorkloadAPIRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: "reading response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.WorkloadAPIRequestsTotal.WithLabelValues(op, "error").Inc()
		message := resp.Status
		var parsed errorBody
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			message = parsed.Error
		}
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: message}
	}

	metrics.WorkloadAPIRequestsTotal.WithLabelValues(op, "ok").Inc()
	return body, nil
}
