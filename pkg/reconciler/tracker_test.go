package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canonical/maubot-operator/pkg/types"
)

func TestStatusTrackerInitialState(t *testing.T) {
	tracker := NewStatusTracker()

	status := tracker.Status()
	assert.Equal(t, types.StatusWaiting, status.State)
	assert.Equal(t, "container not ready", status.Reason)
}

func TestStatusTrackerOverwrites(t *testing.T) {
	tracker := NewStatusTracker()

	tracker.Report(types.Blocked("invalid relation: database"))
	tracker.Report(types.Active())

	assert.Equal(t, types.Active(), tracker.Status())
}
