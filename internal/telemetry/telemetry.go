// Package telemetry batches analytics events and ships them through a
// host-provided HTTP callback. Delivery is best effort: a failed flush
// drops the batch rather than blocking the caller.
package telemetry

import (
	"encoding/json"
	"sync"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
)

// Event is one analytics record queued for delivery.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	TimeMS     int64          `json:"time_ms"`
	Properties map[string]any `json:"properties,omitempty"`
}

// HTTPCallback posts one request body to the backend. requiresAuth tells
// the host to attach its credentials.
type HTTPCallback func(endpoint, body string, requiresAuth bool) error

// eventsEndpoint receives flushed batches.
const eventsEndpoint = "/v1/telemetry/events"

// maxQueued bounds the in-memory queue; events past it are dropped.
const maxQueued = 1000

// Manager accumulates events and flushes them in batches.
type Manager struct {
	environment string
	deviceID    string
	platformTag string
	sdkVersion  string

	mu        sync.Mutex
	model     string
	osVersion string
	post      HTTPCallback
	queue     []Event
	destroyed bool
}

// NewManager creates a telemetry manager for one device/session.
func NewManager(environment, deviceID, platformTag, sdkVersion string) (*Manager, error) {
	if environment == "" || deviceID == "" {
		return nil, status.InvalidArgument
	}
	platform.Log(platform.LevelInfo, "Telemetry", "telemetry manager created")
	return &Manager{
		environment: environment,
		deviceID:    deviceID,
		platformTag: platformTag,
		sdkVersion:  sdkVersion,
	}, nil
}

// SetDeviceInfo attaches device model/OS to subsequent batches.
func (m *Manager) SetDeviceInfo(model, osVersion string) {
	m.mu.Lock()
	m.model = model
	m.osVersion = osVersion
	m.mu.Unlock()
}

// SetHTTPCallback installs the transport. Passing nil disables delivery;
// queued events then drop at the next flush.
func (m *Manager) SetHTTPCallback(cb HTTPCallback) {
	m.mu.Lock()
	m.post = cb
	m.mu.Unlock()
}

// Track queues one event. Events on a destroyed manager or past the
// queue bound are dropped and counted.
func (m *Manager) Track(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		eventsDropped.WithLabelValues("destroyed").Inc()
		return status.InvalidState
	}
	if len(m.queue) >= maxQueued {
		eventsDropped.WithLabelValues("queue_full").Inc()
		return status.InvalidState
	}
	if ev.TimeMS == 0 {
		ev.TimeMS = platform.NowMS()
	}
	m.queue = append(m.queue, ev)
	eventsTracked.Inc()
	return nil
}

// Pending reports the queued event count.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// batch is the flush payload shape.
type batch struct {
	Environment string  `json:"environment"`
	DeviceID    string  `json:"device_id"`
	Platform    string  `json:"platform"`
	SDKVersion  string  `json:"sdk_version"`
	Model       string  `json:"model,omitempty"`
	OSVersion   string  `json:"os_version,omitempty"`
	Events      []Event `json:"events"`
}

// Flush posts all queued events as one batch. The queue empties whether
// or not delivery succeeds; telemetry never retries.
func (m *Manager) Flush() error {
	m.mu.Lock()
	events := m.queue
	m.queue = nil
	cb := m.post
	payload := batch{
		Environment: m.environment,
		DeviceID:    m.deviceID,
		Platform:    m.platformTag,
		SDKVersion:  m.sdkVersion,
		Model:       m.model,
		OSVersion:   m.osVersion,
		Events:      events,
	}
	m.mu.Unlock()

	if len(events) == 0 {
		return nil
	}
	if cb == nil {
		eventsDropped.WithLabelValues("no_transport").Inc()
		return status.NotInitialized
	}
	body, err := json.Marshal(payload)
	if err != nil {
		eventsDropped.WithLabelValues("encode").Inc()
		return status.InvalidArgument
	}
	if err := m.send(cb, string(body)); err != nil {
		flushesTotal.WithLabelValues("error").Inc()
		platform.Log(platform.LevelWarn, "Telemetry", "flush failed: "+err.Error())
		return status.NetworkError
	}
	flushesTotal.WithLabelValues("ok").Inc()
	platform.Log(platform.LevelDebug, "Telemetry", "flushed batch")
	return nil
}

func (m *Manager) send(cb HTTPCallback, body string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = status.NetworkError
		}
	}()
	return cb(eventsEndpoint, body, true)
}

// Destroy flushes what is queued and rejects further tracking.
func (m *Manager) Destroy() {
	_ = m.Flush()
	m.mu.Lock()
	m.destroyed = true
	m.mu.Unlock()
	platform.Log(platform.LevelInfo, "Telemetry", "telemetry manager destroyed")
}
