package reconciler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/canonical/maubot-operator/pkg/config"
	"github.com/canonical/maubot-operator/pkg/layer"
	"github.com/canonical/maubot-operator/pkg/log"
	"github.com/canonical/maubot-operator/pkg/metrics"
	"github.com/canonical/maubot-operator/pkg/relation"
	"github.com/canonical/maubot-operator/pkg/supervisor"
	"github.com/canonical/maubot-operator/pkg/types"
)

// StatusReporter receives the unit status the reconciler settled on.
// Exactly one report per reconciliation, overwriting the previous value.
type StatusReporter interface {
	Report(status types.UnitStatus)
}

// Reconciler drives the workload toward the state the snapshot describes.
// It holds no state of its own between runs; every run derives everything
// from the snapshot it was handed and what the container reports.
type Reconciler struct {
	supervisor supervisor.Client
	relations  *relation.Reader
	builder    *config.Builder
	planner    *layer.Planner
	reporter   StatusReporter
	logger     zerolog.Logger
}

// New creates a reconciler
func New(sup supervisor.Client, relations *relation.Reader, reporter StatusReporter) *Reconciler {
	return &Reconciler{
		supervisor: sup,
		relations:  relations,
		builder:    config.NewBuilder(),
		planner:    layer.NewPlanner(),
		reporter:   reporter,
		logger:     log.WithComponent("reconciler"),
	}
}

// Reconcile performs one reconciliation cycle and returns the unit status
// it ended on. The status is also written through the reporter, exactly
// once, whatever the outcome.
func (r *Reconciler) Reconcile(ctx context.Context, snap types.Snapshot) types.UnitStatus {
	timer := metrics.NewTimer()
	status := r.reconcile(ctx, snap)
	timer.ObserveDuration(metrics.ReconciliationDuration)
	metrics.ReconciliationsTotal.WithLabelValues(string(status.State)).Inc()
	metrics.SetUnitStatus(status)

	r.reporter.Report(status)
	r.logger.Info().
		Str("state", string(status.State)).
		Str("reason", status.Reason).
		Msg("Reconciliation finished")
	return status
}

func (r *Reconciler) reconcile(ctx context.Context, snap types.Snapshot) types.UnitStatus {
	if !r.supervisor.CanConnect(ctx) {
		return types.Waiting("container not ready")
	}

	facts, err := r.relations.ReadAll(snap)
	if err != nil {
		var malformedErr *relation.MalformedDataError
		if errors.As(err, &malformedErr) {
			r.logger.Error().Err(err).Msg("Relation data rejected")
			return types.Blocked(fmt.Sprintf("invalid relation: %s", malformedErr.Kind))
		}
		return types.Blocked(err.Error())
	}

	cfg, err := r.builder.Build(facts, snap.Config)
	if err != nil {
		var notReadyErr *config.NotReadyError
		if errors.As(err, &notReadyErr) {
			return types.Waiting(fmt.Sprintf("waiting for %s relation", notReadyErr.Kind))
		}
		r.logger.Error().Err(err).Msg("Configuration rejected")
		return types.Blocked(err.Error())
	}

	// Everything to be written is computed up front; no write happens
	// until all of it rendered.
	plan := r.planner.Plan(cfg)
	desired, err := config.Marshal(cfg)
	if err != nil {
		return r.applyFailed("render config", err)
	}
	document := layer.Render(plan)
	layerYAML, err := layer.Marshal(document)
	if err != nil {
		return r.applyFailed("render layer", err)
	}

	if r.applied(ctx, desired, document) {
		metrics.ReconciliationSkipsTotal.Inc()
		r.logger.Debug().Msg("Applied state already matches; skipping writes")
		return types.Active()
	}

	if err := r.supervisor.MakeDirs(ctx, layer.DataDirs...); err != nil {
		return r.applyFailed("make dirs", err)
	}
	if err := r.supervisor.PushFile(ctx, layer.ConfigPath, desired); err != nil {
		return r.applyFailed("push config", err)
	}
	if err := r.supervisor.AddLayer(ctx, layer.Label, layerYAML, true); err != nil {
		return r.applyFailed("add layer", err)
	}
	if err := r.supervisor.Restart(ctx, layer.ServiceNames(plan)...); err != nil {
		return r.applyFailed("restart services", err)
	}

	return types.Active()
}

// applied reports whether the container already runs exactly what this
// snapshot asks for: same configuration bytes, same services, same checks.
// Any doubt (missing file, unreadable plan) counts as not applied.
func (r *Reconciler) applied(ctx context.Context, desired []byte, document *types.PlanDocument) bool {
	current, err := r.supervisor.PullFile(ctx, layer.ConfigPath)
	if err != nil || !bytes.Equal(current, desired) {
		return false
	}

	active, err := r.supervisor.Plan(ctx)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(active.Services, document.Services) &&
		reflect.DeepEqual(active.Checks, document.Checks)
}

func (r *Reconciler) applyFailed(step string, err error) types.UnitStatus {
	metrics.ApplyFailuresTotal.WithLabelValues(step).Inc()
	r.logger.Error().Err(err).Str("step", step).Msg("Apply failed")
	return types.Blocked("apply failed: " + step)
}
