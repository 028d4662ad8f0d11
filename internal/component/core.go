package component

import (
	"sync"
	"sync/atomic"
	"time"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// State is the component lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateLoading
	StateLoaded
	StateRunning
	StateUnloading
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateUnloading:
		return "unloading"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// destroyDrainPoll is how often Destroy re-checks for an in-flight verb.
const destroyDrainPoll = 10 * time.Millisecond

// core is the state shared by all capability wrappers.
type core struct {
	kind string

	mu        sync.Mutex
	state     State
	modelID   string
	modelName string

	// slot enforces a single in-flight verb. Size 1: a failed
	// non-blocking acquire means another verb is running.
	slot chan struct{}

	cancelled atomic.Bool
	tracker   *lifecycleTracker
}

func newCore(kind string) *core {
	componentsActive.WithLabelValues(kind).Inc()
	return &core{
		kind:    kind,
		state:   StateCreated,
		slot:    make(chan struct{}, 1),
		tracker: newLifecycleTracker(),
	}
}

func (c *core) logf(level platform.LogLevel, msg string) {
	platform.Log(level, c.kind, msg)
}

// State returns the current lifecycle state.
func (c *core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ModelID returns the ID given at load time, empty when nothing is loaded.
func (c *core) ModelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelID
}

// IsLoaded reports whether a model is resident: Loaded, or Running a
// verb against one.
func (c *core) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateLoaded || c.state == StateRunning
}

// Metrics returns a snapshot of lifecycle accounting.
func (c *core) Metrics() types.LifecycleMetrics {
	return c.tracker.snapshot()
}

// Cancel requests that the in-flight verb stop at its next checkpoint.
// Callable from any goroutine, any state; a no-op when nothing runs.
func (c *core) Cancel() {
	c.cancelled.Store(true)
}

func (c *core) isCancelled() bool { return c.cancelled.Load() }

// beginLoad transitions Created -> Loading. Returns the func that
// finalizes the transition with the load outcome.
func (c *core) beginLoad(path, id string, name *string) (func(err error), error) {
	if path == "" || id == "" {
		return nil, status.InvalidArgument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateDestroyed:
		return nil, status.InvalidHandle
	case StateCreated:
	default:
		return nil, status.InvalidState
	}
	c.state = StateLoading
	c.modelID = id
	if name != nil {
		c.modelName = *name
	} else {
		c.modelName = id
	}
	start := time.Now()
	c.tracker.loadStarted()
	c.logf(platform.LevelInfo, "loading model: "+id)
	return func(err error) {
		elapsed := time.Since(start)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.state = StateCreated
			c.modelID = ""
			c.modelName = ""
			c.tracker.loadFailed()
			loadsTotal.WithLabelValues(c.kind, "error").Inc()
			c.logf(platform.LevelError, "model load failed: "+err.Error())
			return
		}
		c.state = StateLoaded
		c.tracker.loadSucceeded(elapsed)
		loadsTotal.WithLabelValues(c.kind, "ok").Inc()
		loadDuration.WithLabelValues(c.kind).Observe(elapsed.Seconds())
		c.logf(platform.LevelInfo, "model loaded: "+id)
	}, nil
}

// beginUnload transitions Loaded -> Unloading; commit finishes it.
func (c *core) beginUnload() (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateDestroyed:
		return nil, status.InvalidHandle
	case StateLoaded:
	default:
		return nil, status.InvalidState
	}
	c.state = StateUnloading
	id := c.modelID
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state = StateCreated
		c.modelID = ""
		c.modelName = ""
		c.cancelled.Store(false)
		c.tracker.unloaded()
		c.logf(platform.LevelInfo, "model unloaded: "+id)
	}, nil
}

// beginVerb admits one verb when the component is Loaded and idle. The
// returned release must be called when the verb finishes. A second
// concurrent verb is rejected, never queued.
func (c *core) beginVerb() (func(), error) {
	c.mu.Lock()
	switch c.state {
	case StateDestroyed:
		c.mu.Unlock()
		return nil, status.InvalidHandle
	case StateLoaded:
	default:
		c.mu.Unlock()
		return nil, status.InvalidState
	}
	select {
	case c.slot <- struct{}{}:
	default:
		c.mu.Unlock()
		return nil, status.InvalidState
	}
	c.state = StateRunning
	c.cancelled.Store(false)
	c.mu.Unlock()
	return c.endVerb, nil
}

// endVerb finishes the verb admitted by beginVerb, restoring Loaded and
// freeing the slot. Normally called by the verb itself; after a stream
// timeout the reaper goroutine calls it once the worker actually exits.
func (c *core) endVerb() {
	c.mu.Lock()
	if c.state == StateRunning {
		c.state = StateLoaded
	}
	c.mu.Unlock()
	<-c.slot
}

// destroy marks the component Destroyed and waits for any in-flight verb
// to drain before returning. Idempotent.
func (c *core) destroy() {
	c.mu.Lock()
	if c.state == StateDestroyed {
		c.mu.Unlock()
		return
	}
	wasActive := c.state == StateRunning
	c.state = StateDestroyed
	c.mu.Unlock()

	c.cancelled.Store(true)
	if wasActive {
		// Wait for the running verb to release its slot.
		for {
			select {
			case c.slot <- struct{}{}:
				<-c.slot
				componentsActive.WithLabelValues(c.kind).Dec()
				c.logf(platform.LevelDebug, "component destroyed")
				return
			default:
				time.Sleep(destroyDrainPoll)
			}
		}
	}
	componentsActive.WithLabelValues(c.kind).Dec()
	c.logf(platform.LevelDebug, "component destroyed")
}
