package bridge

import (
	"mlbridge/internal/assignment"
	"mlbridge/pkg/types"
)

// AssignmentCallbacks re-exports the host HTTP surface used to fetch
// model assignments. A returned body prefixed "ERROR:" denotes failure.
type AssignmentCallbacks = assignment.Callbacks

// AssignmentSetCallbacks installs the assignment callback; nil clears it
// and drops the cached assignments. With autoFetch the first fetch runs
// synchronously during install.
func AssignmentSetCallbacks(cb AssignmentCallbacks, autoFetch bool) error {
	return assignment.SetCallbacks(cb, autoFetch)
}

// AssignmentFetch returns the models assigned to this device, hitting
// the backend on the first call and serving the cache afterwards unless
// forceRefresh is set.
func AssignmentFetch(forceRefresh bool) ([]*types.ModelEntry, error) {
	return assignment.Fetch(forceRefresh)
}
