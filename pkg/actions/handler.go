package actions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/canonical/maubot-operator/pkg/config"
	"github.com/canonical/maubot-operator/pkg/layer"
	"github.com/canonical/maubot-operator/pkg/log"
	"github.com/canonical/maubot-operator/pkg/maubot"
	"github.com/canonical/maubot-operator/pkg/metrics"
	"github.com/canonical/maubot-operator/pkg/supervisor"
	"github.com/canonical/maubot-operator/pkg/types"
)

// ReservedAdminName is held back for the operator's own authentication
// round-trips and can never be handed out by create-admin
const ReservedAdminName = "root"

const passwordBytes = 10

// WorkloadAPI is the slice of the workload client the handler needs
type WorkloadAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	EnsureAdmin(ctx context.Context, token, name, password string) error
	RegisterAccount(ctx context.Context, token, server, username, password string) (*maubot.AccountCredentials, error)
}

// Handler runs the two account actions against a ready workload. It keeps
// no state between invocations; every call re-checks readiness and
// authenticates from scratch.
type Handler struct {
	supervisor    supervisor.Client
	workload      WorkloadAPI
	adminName     string
	adminPassword string
	logger        zerolog.Logger
}

// NewHandler creates an action handler. The admin credentials are the
// operator's own, used to authenticate create-admin flows.
func NewHandler(sup supervisor.Client, workload WorkloadAPI, adminName, adminPassword string) *Handler {
	return &Handler{
		supervisor:    sup,
		workload:      workload,
		adminName:     adminName,
		adminPassword: adminPassword,
		logger:        log.WithComponent("actions"),
	}
}

// CreateAdmin creates or updates an admin account with a generated password
// and returns that password. The name "root" is rejected before any
// workload call.
func (h *Handler) CreateAdmin(ctx context.Context, name string) (*types.CreateAdminResult, error) {
	logger := h.logger.With().Str("action", "create-admin").Logger()

	if name == ReservedAdminName {
		return nil, h.fail(logger, "create-admin", &types.ActionError{
			Kind:    types.ActionErrorInvalid,
			Message: "root is reserved",
		})
	}
	if err := h.ready(ctx); err != nil {
		return nil, h.fail(logger, "create-admin", err)
	}

	password, err := generatePassword()
	if err != nil {
		metrics.ActionsTotal.WithLabelValues("create-admin", "error").Inc()
		return nil, err
	}

	token, err := h.workload.Login(ctx, h.adminName, h.adminPassword)
	if err != nil {
		return nil, h.fail(logger, "create-admin", &types.ActionError{
			Kind:    types.ActionErrorAuth,
			Message: fmt.Sprintf("authenticating as %s: %v", h.adminName, err),
		})
	}

	if err := h.workload.EnsureAdmin(ctx, token, name, password); err != nil {
		return nil, h.fail(logger, "create-admin", &types.ActionError{
			Kind:    types.ActionErrorCall,
			Message: fmt.Sprintf("creating admin %s: %v", name, err),
		})
	}

	metrics.ActionsTotal.WithLabelValues("create-admin", "ok").Inc()
	logger.Info().Str("admin", name).Msg("Admin account created")
	return &types.CreateAdminResult{Password: password}, nil
}

// RegisterClientAccount registers a client account on the configured
// federation server, authenticating with the supplied admin credentials.
// An authentication failure ends the flow; no registration call follows it.
func (h *Handler) RegisterClientAccount(ctx context.Context, adminName, adminPassword, accountName string) (*types.RegisterAccountResult, error) {
	logger := h.logger.With().Str("action", "register-client-account").Logger()

	if err := h.ready(ctx); err != nil {
		return nil, h.fail(logger, "register-client-account", err)
	}

	server, err := h.federationServer(ctx)
	if err != nil {
		return nil, h.fail(logger, "register-client-account", err)
	}

	token, err := h.workload.Login(ctx, adminName, adminPassword)
	if err != nil {
		return nil, h.fail(logger, "register-client-account", &types.ActionError{
			Kind:    types.ActionErrorAuth,
			Message: fmt.Sprintf("authenticating as %s: %v", adminName, err),
		})
	}

	password, err := generatePassword()
	if err != nil {
		metrics.ActionsTotal.WithLabelValues("register-client-account", "error").Inc()
		return nil, err
	}

	creds, err := h.workload.RegisterAccount(ctx, token, server, accountName, password)
	if err != nil {
		return nil, h.fail(logger, "register-client-account", &types.ActionError{
			Kind:    types.ActionErrorCall,
			Message: fmt.Sprintf("registering account %s on %s: %v", accountName, server, err),
		})
	}

	metrics.ActionsTotal.WithLabelValues("register-client-account", "ok").Inc()
	logger.Info().Str("account", accountName).Str("server", server).Msg("Client account registered")
	return &types.RegisterAccountResult{
		UserID:      creds.UserID,
		Password:    password,
		AccessToken: creds.AccessToken,
		DeviceID:    creds.DeviceID,
	}, nil
}

// ready gates both flows on a reachable supervisor with the workload
// service present and running
func (h *Handler) ready(ctx context.Context) error {
	if !h.supervisor.CanConnect(ctx) {
		return notReady()
	}
	running, err := h.supervisor.ServiceRunning(ctx, layer.WorkloadService)
	if err != nil || !running {
		return notReady()
	}
	return nil
}

// federationServer pulls the applied configuration and returns the server
// the workload is authenticated against. No homeservers block means the
// federation relation was never joined.
func (h *Handler) federationServer(ctx context.Context) (string, error) {
	raw, err := h.supervisor.PullFile(ctx, layer.ConfigPath)
	if err != nil {
		return "", notReady()
	}
	cfg, err := config.Unmarshal(raw)
	if err != nil {
		return "", fmt.Errorf("reading applied configuration: %w", err)
	}
	if len(cfg.Homeservers) == 0 {
		return "", &types.ActionError{
			Kind:    types.ActionErrorInvalid,
			Message: "matrix-auth integration is required",
		}
	}

	servers := make([]string, 0, len(cfg.Homeservers))
	for name := range cfg.Homeservers {
		servers = append(servers, name)
	}
	sort.Strings(servers)
	return servers[0], nil
}

func (h *Handler) fail(logger zerolog.Logger, action string, err error) error {
	metrics.ActionsTotal.WithLabelValues(action, "error").Inc()
	logger.Error().Err(err).Msg("Action failed")
	return err
}

func notReady() *types.ActionError {
	return &types.ActionError{
		Kind:    types.ActionErrorNotReady,
		Message: "maubot is not ready",
	}
}

// generatePassword produces a URL-safe random password
func generatePassword() (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
