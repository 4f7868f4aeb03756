package maubot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody loginRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	token, err := client.Login(context.Background(), "root", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "session-token", token)
	assert.Equal(t, "/v1/auth/login", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "root", gotBody.Username)
	assert.Equal(t, "hunter2", gotBody.Password)
}

func TestLoginMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Login(context.Background(), "root", "hunter2")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "login", apiErr.Op)
	assert.Contains(t, apiErr.Message, "no token")
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid username or password"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Login(context.Background(), "root", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid username or password", apiErr.Message)
}

func TestEnsureAdmin(t *testing.T) {
	var gotPath, gotMethod, gotAuth string
	var gotBody ensureAdminRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.EnsureAdmin(context.Background(), "session-token", "oncall", "generated")
	require.NoError(t, err)

	assert.Equal(t, "/v1/admins/oncall", gotPath)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Equal(t, "generated", gotBody.Password)
}

func TestRegisterAccount(t *testing.T) {
	var gotPath, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{
			"user_id":      "@bot:example.com",
			"access_token": "syt_secret",
			"device_id":    "DEVICE",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	creds, err := client.RegisterAccount(context.Background(), "session-token", "synapse", "bot", "botpass")
	require.NoError(t, err)

	assert.Equal(t, "/v1/client/auth/synapse/register", gotPath)
	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Equal(t, "@bot:example.com", creds.UserID)
	assert.Equal(t, "syt_secret", creds.AccessToken)
	assert.Equal(t, "DEVICE", creds.DeviceID)
}

func TestRegisterAccountServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RegisterAccount(context.Background(), "session-token", "synapse", "bot", "botpass")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "register-account", apiErr.Op)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestRequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL)
	_, err := client.Login(context.Background(), "root", "hunter2")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.StatusCode)
}

func TestDefaultBaseURL(t *testing.T) {
	client := NewClient("")
	assert.Equal(t, DefaultBaseURL, client.baseURL)

	client = NewClient("http://example.com/api/")
	assert.Equal(t, "http://example.com/api", client.baseURL)
}
