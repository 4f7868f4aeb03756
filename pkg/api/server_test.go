package api

import (
	"bytes"
	"context"
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

type fakeDispatcher struct {
	lastEvent events.Event
	status    types.UnitStatus
	err       error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, event events.Event) (types.UnitStatus, error) {
	f.lastEvent = event
	if f.err != nil {
		return types.UnitStatus{}, f.err
	}
	return f.status, nil
}

type fakeActions struct {
	createResult   *types.CreateAdminResult
	createErr      error
	lastName       string
	registerResult *types.RegisterAccountResult
	registerErr    error
	lastAdminName  string
	lastAccount    string
}

func (f *fakeActions) CreateAdmin(ctx context.Context, name string) (*types.CreateAdminResult, error) {
	f.lastName = name
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeActions) RegisterClientAccount(ctx context.Context, adminName, adminPassword, accountName string) (*types.RegisterAccountResult, error) {
	f.lastAdminName = adminName
	f.lastAccount = accountName
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registerResult, nil
}

type fixedStatus struct {
	status types.UnitStatus
}

func (f fixedStatus) Status() types.UnitStatus { return f.status }

func newTestServer(dispatcher *fakeDispatcher, actions *fakeActions, status types.UnitStatus) *Server {
	if dispatcher == nil {
		dispatcher = &fakeDispatcher{status: types.Active()}
	}
	if actions == nil {
		actions = &fakeActions{}
	}
	return NewServer(dispatcher, actions, fixedStatus{status: status})
}

func postJSON(t *testing.T, server *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	return w
}

func TestEventsHandler(t *testing.T) {
	dispatcher := &fakeDispatcher{status: types.Active()}
	server := newTestServer(dispatcher, nil, types.Active())

	event := events.Event{
		Kind: events.KindRelationChanged,
		Snapshot: types.Snapshot{
			Relations: map[types.RelationKind][]types.Databag{
				types.RelationDatabase: {{"endpoints": "db:5432"}},
			},
		},
	}
	w := postJSON(t, server, "/v1/events", event)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status types.UnitStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, types.StatusActive, status.State)

	assert.Equal(t, events.KindRelationChanged, dispatcher.lastEvent.Kind)
	assert.Len(t, dispatcher.lastEvent.Snapshot.Relations[types.RelationDatabase], 1)
}

func TestEventsHandlerMethodValidation(t *testing.T) {
	server := newTestServer(nil, nil, types.Active())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/v1/events", nil)
			w := httptest.NewRecorder()
			server.mux.ServeHTTP(w, req)
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}

func TestEventsHandlerBadPayload(t *testing.T) {
	server := newTestServer(nil, nil, types.Active())

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventsHandlerUnknownKind(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New(`unknown event kind "node-upgraded"`)}
	server := newTestServer(dispatcher, nil, types.Active())

	w := postJSON(t, server, "/v1/events", events.Event{Kind: events.Kind("node-upgraded")})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body["error"], "unknown event kind")
}

func TestCreateAdminHandler(t *testing.T) {
	actions := &fakeActions{createResult: &types.CreateAdminResult{Password: "generated"}}
	server := newTestServer(nil, actions, types.Active())

	w := postJSON(t, server, "/v1/actions/create-admin", map[string]string{"name": "oncall"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "oncall", actions.lastName)

	var result types.CreateAdminResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, "generated", result.Password)
}

func TestCreateAdminHandlerMissingName(t *testing.T) {
	server := newTestServer(nil, &fakeActions{}, types.Active())

	w := postJSON(t, server, "/v1/actions/create-admin", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAdminHandlerActionError(t *testing.T) {
	actions := &fakeActions{createErr: &types.ActionError{
		Kind:    types.ActionErrorInvalid,
		Message: "root is reserved",
	}}
	server := newTestServer(nil, actions, types.Active())

	w := postJSON(t, server, "/v1/actions/create-admin", map[string]string{"name": "root"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "root is reserved", body["error"])
	assert.Equal(t, "invalid", body["kind"])
}

func TestCreateAdminHandlerInternalError(t *testing.T) {
	actions := &fakeActions{createErr: errors.New("entropy exhausted")}
	server := newTestServer(nil, actions, types.Active())

	w := postJSON(t, server, "/v1/actions/create-admin", map[string]string{"name": "oncall"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "internal error", body["error"], "internal detail must not leak")
}

func TestRegisterAccountHandler(t *testing.T) {
	actions := &fakeActions{registerResult: &types.RegisterAccountResult{
		UserID:      "@bot:example.com",
		Password:    "generated",
		AccessToken: "syt_secret",
		DeviceID:    "DEVICE",
	}}
	server := newTestServer(nil, actions, types.Active())

	w := postJSON(t, server, "/v1/actions/register-client-account", map[string]string{
		"admin-name":     "admin",
		"admin-password": "hunter2",
		"account-name":   "bot",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", actions.lastAdminName)
	assert.Equal(t, "bot", actions.lastAccount)

	var result types.RegisterAccountResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, "@bot:example.com", result.UserID)
	assert.Equal(t, "generated", result.Password)
}

func TestRegisterAccountHandlerMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{
			name: "missing admin name",
			body: map[string]string{"admin-password": "x", "account-name": "bot"},
		},
		{
			name: "missing admin password",
			body: map[string]string{"admin-name": "admin", "account-name": "bot"},
		},
		{
			name: "missing account name",
			body: map[string]string{"admin-name": "admin", "admin-password": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(nil, &fakeActions{}, types.Active())
			w := postJSON(t, server, "/v1/actions/register-client-account", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestStatusHandler(t *testing.T) {
	server := newTestServer(nil, nil, types.Blocked("invalid relation: database"))

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status types.UnitStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, types.StatusBlocked, status.State)
	assert.Equal(t, "invalid relation: database", status.Reason)
}

func TestStatusHandlerMethodValidation(t *testing.T) {
	server := newTestServer(nil, nil, types.Active())

	req := httptest.NewRequest(http.MethodPost, "/v1/status", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRoutes(t *testing.T) {
	server := newTestServer(nil, nil, types.Active())

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{path: "/v1/status", expectedStatus: http.StatusOK},
		{path: "/v1/livez", expectedStatus: http.StatusOK},
		{path: "/metrics", expectedStatus: http.StatusOK},
		{path: "/nonexistent", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			server.mux.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code, "Path: %s", tt.path)
		})
	}
}
