package bridge

import (
	"sync"

	"mlbridge/internal/analytics"
	"mlbridge/internal/telemetry"
	"mlbridge/pkg/status"
)

// TelemetryEvent re-exports the queued event shape.
type TelemetryEvent = telemetry.Event

// TelemetryHTTPCallback re-exports the transport callback.
type TelemetryHTTPCallback = telemetry.HTTPCallback

// NewTelemetry creates a telemetry manager and returns its handle.
func NewTelemetry(environment, deviceID, platformTag, sdkVersion string) (Handle, error) {
	m, err := telemetry.NewManager(environment, deviceID, platformTag, sdkVersion)
	if err != nil {
		return InvalidHandle, err
	}
	return put(m), nil
}

// TelemetryDestroy flushes pending events, then releases the manager. If
// the analytics route points at this manager it is unregistered first.
func TelemetryDestroy(h Handle) {
	m, ok := drop[*telemetry.Manager](h)
	if !ok {
		return
	}
	unbindAnalytics(h)
	m.Destroy()
}

func TelemetrySetDeviceInfo(h Handle, model, osVersion string) error {
	m, err := lookup[*telemetry.Manager](h)
	if err != nil {
		return err
	}
	m.SetDeviceInfo(model, osVersion)
	return nil
}

func TelemetrySetHTTPCallback(h Handle, cb TelemetryHTTPCallback) error {
	m, err := lookup[*telemetry.Manager](h)
	if err != nil {
		return err
	}
	m.SetHTTPCallback(cb)
	return nil
}

func TelemetryTrack(h Handle, ev TelemetryEvent) error {
	m, err := lookup[*telemetry.Manager](h)
	if err != nil {
		return err
	}
	return m.Track(ev)
}

func TelemetryFlush(h Handle) error {
	m, err := lookup[*telemetry.Manager](h)
	if err != nil {
		return err
	}
	return m.Flush()
}

// boundTelemetry tracks which manager the analytics route feeds, so the
// route can be torn down when that manager goes away.
var boundTelemetry Handle

// AnalyticsBindTelemetry routes analytics emitters into the telemetry
// manager at h. InvalidHandle unregisters the route.
func AnalyticsBindTelemetry(h Handle) error {
	if h == InvalidHandle {
		analytics.SetRoute(nil)
		setBoundTelemetry(InvalidHandle)
		return nil
	}
	m, err := lookup[*telemetry.Manager](h)
	if err != nil {
		return err
	}
	analytics.SetRoute(func(ev telemetry.Event) { _ = m.Track(ev) })
	setBoundTelemetry(h)
	return nil
}

var boundMu sync.Mutex

func setBoundTelemetry(h Handle) {
	boundMu.Lock()
	boundTelemetry = h
	boundMu.Unlock()
}

func unbindAnalytics(h Handle) {
	boundMu.Lock()
	bound := boundTelemetry
	if bound == h {
		boundTelemetry = InvalidHandle
	}
	boundMu.Unlock()
	if bound == h {
		analytics.SetRoute(nil)
	}
}

// StatusOf maps an error returned by any entry point to its result code,
// for hosts that marshal numeric results.
func StatusOf(err error) status.Code { return status.From(err) }
