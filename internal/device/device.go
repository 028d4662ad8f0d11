// Package device handles device identity and one-time registration with
// the backend, driven entirely through host-provided callbacks.
package device

import (
	"encoding/json"
	"sync"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// Callbacks is the host surface the device manager depends on. HTTPPost
// returns the response status code; transport failures return an error.
type Callbacks interface {
	GetDeviceInfo() (string, error)
	GetDeviceID() string
	IsRegistered() bool
	SetRegistered(registered bool)
	HTTPPost(endpoint, body string, requiresAuth bool) (int, error)
}

// registerEndpoint is where registration bodies are posted. The host's
// HTTP client resolves it against its configured base URL.
const registerEndpoint = "/v1/devices/register"

// Manager caches device identity fetched from the host and drives the
// registration flow.
type Manager struct {
	mu         sync.Mutex
	callbacks  Callbacks
	info       *types.DeviceInfo
	deviceID   string
	registered bool
}

func NewManager() *Manager {
	platform.Log(platform.LevelInfo, "DeviceManager", "device manager created")
	return &Manager{}
}

// SetCallbacks installs the host callbacks. nil is rejected.
func (m *Manager) SetCallbacks(cb Callbacks) error {
	if cb == nil {
		return status.InvalidArgument
	}
	m.mu.Lock()
	m.callbacks = cb
	m.mu.Unlock()
	return nil
}

func (m *Manager) cb() (Callbacks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.callbacks == nil {
		return nil, status.NotInitialized
	}
	return m.callbacks, nil
}

// guard maps a panicking host callback to a network error instead of
// unwinding through the bridge.
func guard(err *error) {
	if r := recover(); r != nil {
		platform.Log(platform.LevelError, "DeviceManager", "host callback panicked")
		*err = status.NetworkError
	}
}

// DeviceID returns the cached device ID, fetching it from the host on
// first use.
func (m *Manager) DeviceID() (id string, err error) {
	cb, err := m.cb()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	if m.deviceID != "" {
		id = m.deviceID
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()
	defer guard(&err)
	id = cb.GetDeviceID()
	if id == "" {
		return "", status.InvalidState
	}
	m.mu.Lock()
	m.deviceID = id
	m.mu.Unlock()
	return id, nil
}

// Info returns the cached device info, fetching and parsing the host's
// JSON description on first use.
func (m *Manager) Info() (info *types.DeviceInfo, err error) {
	cb, err := m.cb()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if m.info != nil {
		cp := *m.info
		m.mu.Unlock()
		return &cp, nil
	}
	m.mu.Unlock()

	defer guard(&err)
	raw, err := cb.GetDeviceInfo()
	if err != nil {
		return nil, err
	}
	var parsed types.DeviceInfo
	if jerr := json.Unmarshal([]byte(raw), &parsed); jerr != nil {
		platform.Log(platform.LevelError, "DeviceManager", "device info JSON invalid: "+jerr.Error())
		return nil, status.InvalidArgument
	}
	m.mu.Lock()
	m.info = &parsed
	m.mu.Unlock()
	cp := parsed
	return &cp, nil
}

// IsRegistered reports registration, preferring the cached flag and
// falling back to the host.
func (m *Manager) IsRegistered() (reg bool, err error) {
	m.mu.Lock()
	if m.registered {
		m.mu.Unlock()
		return true, nil
	}
	m.mu.Unlock()
	cb, err := m.cb()
	if err != nil {
		return false, err
	}
	defer guard(&err)
	return cb.IsRegistered(), nil
}

// ClearRegistration drops the cached flag and tells the host to forget
// its persisted one.
func (m *Manager) ClearRegistration() (err error) {
	cb, err := m.cb()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.registered = false
	m.mu.Unlock()
	defer guard(&err)
	cb.SetRegistered(false)
	return nil
}

// registrationBody is the payload posted to the backend.
type registrationBody struct {
	DeviceID    string            `json:"device_id"`
	Environment string            `json:"environment"`
	BuildToken  string            `json:"build_token,omitempty"`
	Device      *types.DeviceInfo `json:"device"`
}

// RegisterIfNeeded registers the device once: already-registered devices
// return immediately. On a 2xx response both the host flag and the
// cached flag are set.
func (m *Manager) RegisterIfNeeded(environment, buildToken string) error {
	if environment == "" {
		return status.InvalidArgument
	}
	cb, err := m.cb()
	if err != nil {
		return err
	}
	if reg, err := m.IsRegistered(); err != nil {
		return err
	} else if reg {
		platform.Log(platform.LevelDebug, "DeviceManager", "device already registered")
		return nil
	}

	info, err := m.Info()
	if err != nil {
		return err
	}
	id, err := m.DeviceID()
	if err != nil {
		return err
	}
	body, err := json.Marshal(registrationBody{
		DeviceID:    id,
		Environment: environment,
		BuildToken:  buildToken,
		Device:      info,
	})
	if err != nil {
		return status.InvalidArgument
	}

	code, err := m.post(cb, string(body))
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		platform.Log(platform.LevelError, "DeviceManager", "registration rejected by backend")
		return status.NetworkError
	}
	m.mu.Lock()
	m.registered = true
	m.mu.Unlock()
	m.markHostRegistered(cb)
	platform.Log(platform.LevelInfo, "DeviceManager", "device registered: "+id)
	return nil
}

func (m *Manager) post(cb Callbacks, body string) (code int, err error) {
	defer guard(&err)
	return cb.HTTPPost(registerEndpoint, body, true)
}

func (m *Manager) markHostRegistered(cb Callbacks) {
	defer func() { recover() }()
	cb.SetRegistered(true)
}
