package reconciler

import (
	"sync"

	"github.com/canonical/maubot-operator/pkg/types"
)

// StatusTracker holds the last reported unit status. It is the reporter
// the reconciler writes through and the source the status API reads from.
type StatusTracker struct {
	mu     sync.RWMutex
	status types.UnitStatus
}

// NewStatusTracker starts at the initial unit state: waiting for the
// container, nothing reconciled yet
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{status: types.Waiting("container not ready")}
}

// Report overwrites the tracked status
func (t *StatusTracker) Report(status types.UnitStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// Status returns the last reported status
func (t *StatusTracker) Status() types.UnitStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}
