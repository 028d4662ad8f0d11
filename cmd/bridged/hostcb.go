package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"mlbridge/internal/platform"
	"mlbridge/pkg/types"
)

// registeredKey is the secure-storage key holding the registration flag.
const registeredKey = "device_registered"

// hostCallbacks is the workstation stand-in for a mobile host: device
// identity comes from the local machine, the registration flag lives in
// the platform adapter's secure store, and HTTP goes through net/http.
type hostCallbacks struct {
	baseURL  string
	apiKey   string
	deviceID string
	client   *http.Client
}

func newHostCallbacks(baseURL, apiKey, deviceID string) *hostCallbacks {
	return &hostCallbacks{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		deviceID: deviceID,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *hostCallbacks) GetDeviceID() string { return h.deviceID }

func (h *hostCallbacks) GetDeviceInfo() (string, error) {
	info := types.DeviceInfo{
		DeviceID: h.deviceID,
		Model:    runtime.GOARCH,
		Platform: runtime.GOOS,
	}
	b, err := json.Marshal(info)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *hostCallbacks) IsRegistered() bool {
	v, err := platform.SecureGet(registeredKey)
	return err == nil && v == "1"
}

func (h *hostCallbacks) SetRegistered(registered bool) {
	if registered {
		_ = platform.SecureSet(registeredKey, "1")
		return
	}
	_ = platform.SecureDelete(registeredKey)
}

func (h *hostCallbacks) HTTPPost(endpoint, body string, requiresAuth bool) (int, error) {
	req, err := http.NewRequest(http.MethodPost, h.baseURL+endpoint, strings.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if requiresAuth && h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// HTTPGet fetches an endpoint and returns the body as a string, using
// the "ERROR:" prefix convention the assignment callback expects.
func (h *hostCallbacks) HTTPGet(endpoint string, requiresAuth bool) string {
	req, err := http.NewRequest(http.MethodGet, h.baseURL+endpoint, nil)
	if err != nil {
		return "ERROR: " + err.Error()
	}
	if requiresAuth && h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "ERROR: " + err.Error()
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "ERROR: " + err.Error()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Sprintf("ERROR: backend returned %d", resp.StatusCode)
	}
	return string(body)
}

// TelemetryPost adapts HTTPPost to the telemetry transport contract,
// where any non-2xx response counts as a failed delivery.
func (h *hostCallbacks) TelemetryPost(endpoint, body string, requiresAuth bool) error {
	code, err := h.HTTPPost(endpoint, body, requiresAuth)
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		return fmt.Errorf("telemetry post: backend returned %d", code)
	}
	return nil
}
