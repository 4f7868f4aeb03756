package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/canonical/maubot-operator/pkg/log"
	"github.com/canonical/maubot-operator/pkg/metrics"
	"github.com/canonical/maubot-operator/pkg/types"
)

// Kind identifies a lifecycle event delivered by the runtime
type Kind string

const (
	KindConfigChanged    Kind = "config-changed"
	KindContainerReady   Kind = "container-ready"
	KindRelationJoined   Kind = "relation-joined"
	KindRelationChanged  Kind = "relation-changed"
	KindRelationDeparted Kind = "relation-departed"
)

// Kinds lists every event kind in delivery order preference; useful for
// CLI validation and registration loops
func Kinds() []Kind {
	return []Kind{
		KindConfigChanged,
		KindContainerReady,
		KindRelationJoined,
		KindRelationChanged,
		KindRelationDeparted,
	}
}

// Event is one lifecycle notification. The snapshot carries the full
// externally-owned state; nothing about the previous event survives.
type Event struct {
	ID        string             `json:"id,omitempty"`
	Kind      Kind               `json:"kind"`
	Relation  types.RelationKind `json:"relation,omitempty"`
	Snapshot  types.Snapshot     `json:"snapshot"`
	Timestamp time.Time          `json:"timestamp,omitempty"`
}

// Handler consumes one event and returns the unit status it settled on
type Handler func(ctx context.Context, event Event) types.UnitStatus

// Dispatcher routes events to registered handlers, one at a time. The
// mutex is the concurrency model: a dispatch runs to completion before the
// next one starts, so handlers never observe overlapping reconciliations.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[Kind]Handler
	logger   zerolog.Logger
}

// NewDispatcher creates an empty dispatch table
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Kind]Handler),
		logger:   log.WithComponent("dispatcher"),
	}
}

// Register installs the handler for one event kind, replacing any previous
// registration
func (d *Dispatcher) Register(kind Kind, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = handler
}

// Dispatch delivers one event to its handler and returns the resulting
// unit status. Events without an ID get one assigned. A kind nothing was
// registered for is an error.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) (types.UnitStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handler, ok := d.handlers[event.Kind]
	if !ok {
		return types.UnitStatus{}, fmt.Errorf("unknown event kind %q", event.Kind)
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	logger := d.logger.With().
		Str("event_id", event.ID).
		Str("kind", string(event.Kind)).
		Logger()
	if event.Relation != "" {
		logger = logger.With().Str("relation", string(event.Relation)).Logger()
	}
	logger.Info().Msg("Dispatching event")

	timer := metrics.NewTimer()
	status := handler(ctx, event)
	timer.ObserveDurationVec(metrics.EventDispatchDuration, string(event.Kind))
	metrics.EventsTotal.WithLabelValues(string(event.Kind)).Inc()

	logger.Info().
		Str("state", string(status.State)).
		Str("reason", status.Reason).
		Msg("Event handled")

	return status, nil
}
