package bridge

import (
	"mlbridge/internal/device"
	"mlbridge/pkg/types"
)

// DeviceCallbacks re-exports the host surface the device manager needs.
type DeviceCallbacks = device.Callbacks

// NewDeviceManager creates a device manager and returns its handle.
func NewDeviceManager() Handle {
	return put(device.NewManager())
}

func DeviceManagerDestroy(h Handle) {
	drop[*device.Manager](h)
}

func DeviceSetCallbacks(h Handle, cb DeviceCallbacks) error {
	m, err := lookup[*device.Manager](h)
	if err != nil {
		return err
	}
	return m.SetCallbacks(cb)
}

func DeviceRegisterIfNeeded(h Handle, environment, buildToken string) error {
	m, err := lookup[*device.Manager](h)
	if err != nil {
		return err
	}
	return m.RegisterIfNeeded(environment, buildToken)
}

func DeviceIsRegistered(h Handle) (bool, error) {
	m, err := lookup[*device.Manager](h)
	if err != nil {
		return false, err
	}
	return m.IsRegistered()
}

func DeviceClearRegistration(h Handle) error {
	m, err := lookup[*device.Manager](h)
	if err != nil {
		return err
	}
	return m.ClearRegistration()
}

func DeviceID(h Handle) (string, error) {
	m, err := lookup[*device.Manager](h)
	if err != nil {
		return "", err
	}
	return m.DeviceID()
}

func DeviceInfo(h Handle) (*types.DeviceInfo, error) {
	m, err := lookup[*device.Manager](h)
	if err != nil {
		return nil, err
	}
	return m.Info()
}
