package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/canonical/maubot-operator/pkg/events"
	"github.com/canonical/maubot-operator/pkg/log"
	"github.com/canonical/maubot-operator/pkg/metrics"
	"github.com/canonical/maubot-operator/pkg/types"
)

// Dispatcher delivers one event and returns the resulting unit status
type Dispatcher interface {
	Dispatch(ctx context.Context, event events.Event) (types.UnitStatus, error)
}

// ActionHandler runs the account actions
type ActionHandler interface {
	CreateAdmin(ctx context.Context, name string) (*types.CreateAdminResult, error)
	RegisterClientAccount(ctx context.Context, adminName, adminPassword, accountName string) (*types.RegisterAccountResult, error)
}

// StatusSource exposes the last reported unit status
type StatusSource interface {
	Status() types.UnitStatus
}

// Server is the operator's inbound HTTP surface: the runtime posts events
// to it, the CLI invokes actions through it, and monitoring scrapes it
type Server struct {
	dispatcher Dispatcher
	actions    ActionHandler
	status     StatusSource
	mux        *http.ServeMux
	http       *http.Server
	logger     zerolog.Logger
}

// NewServer creates the API server
func NewServer(dispatcher Dispatcher, actions ActionHandler, status StatusSource) *Server {
	mux := http.NewServeMux()
	s := &Server{
		dispatcher: dispatcher,
		actions:    actions,
		status:     status,
		mux:        mux,
		logger:     log.WithComponent("api"),
	}

	mux.HandleFunc("/v1/events", s.eventsHandler)
	mux.HandleFunc("/v1/actions/create-admin", s.createAdminHandler)
	mux.HandleFunc("/v1/actions/register-client-account", s.registerAccountHandler)
	mux.HandleFunc("/v1/status", s.statusHandler)
	mux.HandleFunc("/v1/health", metrics.HealthHandler())
	mux.HandleFunc("/v1/ready", metrics.ReadyHandler())
	mux.HandleFunc("/v1/livez", metrics.LivenessHandler())
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// Start listens and serves until Stop or a listener error. Addresses with a
// unix:// scheme become unix sockets (any stale socket file is removed
// first); everything else is TCP.
func (s *Server) Start(addr string) error {
	lis, err := listen(addr)
	if err != nil {
		return err
	}

	// The write timeout bounds a whole dispatch, which can walk every
	// supervisor operation in one request.
	s.http = &http.Server{
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	metrics.UpdateComponent("api", true, "serving")
	s.logger.Info().Str("address", addr).Msg("API listening")
	return s.http.Serve(lis)
}

// Stop drains in-flight requests and closes the listener
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	metrics.UpdateComponent("api", false, "shutting down")
	return s.http.Shutdown(ctx)
}

// Handler returns the HTTP handler for embedding in tests and other servers
func (s *Server) Handler() http.Handler {
	return s.mux
}

func listen(addr string) (net.Listener, error) {
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale socket %s: %w", path, err)
		}
		return net.Listen("unix", path)
	}
	return net.Listen("tcp", addr)
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event events.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	status, err := s.dispatcher.Dispatch(r.Context(), event)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, status)
}

type createAdminRequest struct {
	Name string `json:"name"`
}

func (s *Server) createAdminHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "a non-empty name is required")
		return
	}

	result, err := s.actions.CreateAdmin(r.Context(), req.Name)
	if err != nil {
		s.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type registerAccountRequest struct {
	AdminName     string `json:"admin-name"`
	AdminPassword string `json:"admin-password"`
	AccountName   string `json:"account-name"`
}

func (s *Server) registerAccountHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.AdminName == "" || req.AdminPassword == "" || req.AccountName == "" {
		writeError(w, http.StatusBadRequest, "admin-name, admin-password, and account-name are required")
		return
	}

	result, err := s.actions.RegisterClientAccount(r.Context(), req.AdminName, req.AdminPassword, req.AccountName)
	if err != nil {
		s.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.status.Status())
}

// writeActionError maps structured action failures to 422 so callers can
// branch on the kind; anything else stays a plain 500 without detail
func (s *Server) writeActionError(w http.ResponseWriter, err error) {
	var actionErr *types.ActionError
	if errors.As(err, &actionErr) {
		writeJSON(w, http.StatusUnprocessableEntity, actionErr)
		return
	}

	s.logger.Error().Err(err).Msg("Action failed internally")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
