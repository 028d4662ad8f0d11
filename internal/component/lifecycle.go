package component

import (
	"sync"
	"time"

	"mlbridge/internal/platform"
	"mlbridge/pkg/types"
)

// lifecycleTracker accumulates load/unload accounting for one component.
type lifecycleTracker struct {
	mu              sync.Mutex
	totalEvents     int64
	startTimeMS     int64
	lastEventTimeMS int64
	totalLoads      int64
	successfulLoads int64
	failedLoads     int64
	totalUnloads    int64
	loadTimeSumMS   float64
}

func newLifecycleTracker() *lifecycleTracker {
	now := platform.NowMS()
	return &lifecycleTracker{startTimeMS: now, lastEventTimeMS: now}
}

func (t *lifecycleTracker) event() {
	t.totalEvents++
	t.lastEventTimeMS = platform.NowMS()
}

func (t *lifecycleTracker) loadStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalLoads++
	t.event()
}

func (t *lifecycleTracker) loadSucceeded(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successfulLoads++
	t.loadTimeSumMS += float64(d.Milliseconds())
	t.event()
}

func (t *lifecycleTracker) loadFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failedLoads++
	t.event()
}

func (t *lifecycleTracker) unloaded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalUnloads++
	t.event()
}

func (t *lifecycleTracker) snapshot() types.LifecycleMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := types.LifecycleMetrics{
		TotalEvents:     t.totalEvents,
		StartTimeMS:     t.startTimeMS,
		LastEventTimeMS: t.lastEventTimeMS,
		TotalLoads:      t.totalLoads,
		SuccessfulLoads: t.successfulLoads,
		FailedLoads:     t.failedLoads,
		TotalUnloads:    t.totalUnloads,
	}
	if t.successfulLoads > 0 {
		m.AverageLoadTimeMS = t.loadTimeSumMS / float64(t.successfulLoads)
	}
	return m
}
