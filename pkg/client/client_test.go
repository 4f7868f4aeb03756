package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/maubot-operator/pkg/events"
	"github.com/canonical/maubot-operator/pkg/types"
)

func newTCPClient(server *httptest.Server) *Client {
	return New(strings.TrimPrefix(server.URL, "http://"))
}

func TestDispatchEvent(t *testing.T) {
	var gotPath string
	var gotEvent events.Event

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEvent))
		json.NewEncoder(w).Encode(types.Active())
	}))
	defer server.Close()

	status, err := newTCPClient(server).DispatchEvent(events.Event{
		Kind: events.KindConfigChanged,
		Snapshot: types.Snapshot{
			Config: types.StaticConfig{"public-url": "https://chat.example.com"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/events", gotPath)
	assert.Equal(t, events.KindConfigChanged, gotEvent.Kind)
	assert.Equal(t, types.StatusActive, status.State)
}

func TestCreateAdmin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/actions/create-admin", r.URL.Path)
		json.NewEncoder(w).Encode(types.CreateAdminResult{Password: "generated"})
	}))
	defer server.Close()

	result, err := newTCPClient(server).CreateAdmin("oncall")
	require.NoError(t, err)
	assert.Equal(t, "generated", result.Password)
}

func TestCreateAdminActionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(types.ActionError{
			Kind:    types.ActionErrorInvalid,
			Message: "root is reserved",
		})
	}))
	defer server.Close()

	_, err := newTCPClient(server).CreateAdmin("root")
	require.Error(t, err)

	var actionErr *types.ActionError
	require.True(t, errors.As(err, &actionErr), "422 responses come back as *types.ActionError")
	assert.Equal(t, types.ActionErrorInvalid, actionErr.Kind)
	assert.Equal(t, "root is reserved", actionErr.Message)
}

func TestRegisterClientAccount(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/actions/register-client-account", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(types.RegisterAccountResult{
			UserID:      "@bot:example.com",
			Password:    "generated",
			AccessToken: "syt_secret",
			DeviceID:    "DEVICE",
		})
	}))
	defer server.Close()

	result, err := newTCPClient(server).RegisterClientAccount("admin", "hunter2", "bot")
	require.NoError(t, err)

	assert.Equal(t, "admin", gotBody["admin-name"])
	assert.Equal(t, "bot", gotBody["account-name"])
	assert.Equal(t, "@bot:example.com", result.UserID)
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/status", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(types.Waiting("waiting for database relation"))
	}))
	defer server.Close()

	status, err := newTCPClient(server).Status()
	require.NoError(t, err)
	assert.Equal(t, types.StatusWaiting, status.State)
	assert.Equal(t, "waiting for database relation", status.Reason)
}

func TestPlainErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid event payload"})
	}))
	defer server.Close()

	_, err := newTCPClient(server).DispatchEvent(events.Event{})
	require.Error(t, err)

	var actionErr *types.ActionError
	assert.False(t, errors.As(err, &actionErr), "kindless errors stay plain")
	assert.Contains(t, err.Error(), "invalid event payload")
}

func TestOperatorUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTCPClient(server).Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operator unreachable")
}

func TestUnixAddress(t *testing.T) {
	c := New("unix:///run/operator.socket")
	assert.Equal(t, "http://localhost", c.baseURL)

	c = New("127.0.0.1:9000")
	assert.Equal(t, "http://127.0.0.1:9000", c.baseURL)
}
