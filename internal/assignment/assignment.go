// Package assignment fetches the backend's model assignments for this
// device through a host-provided HTTP callback. Like the analytics route,
// the callback is process-wide state.
package assignment

import (
	"encoding/json"
	"strings"
	"sync"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// Callbacks is the host surface: one GET returning the response body as a
// string. A body prefixed "ERROR:" denotes failure and carries the
// remainder as the error message.
type Callbacks interface {
	HTTPGet(endpoint string, requiresAuth bool) string
}

// assignmentsEndpoint is resolved by the host against its base URL.
const assignmentsEndpoint = "/v1/models/assignments"

const errorPrefix = "ERROR:"

var (
	mu     sync.Mutex
	cb     Callbacks
	cached []*types.ModelEntry
)

// fetchError carries the host-reported failure message.
type fetchError struct{ msg string }

func (e fetchError) Error() string           { return e.msg }
func (e fetchError) StatusCode() status.Code { return status.HTTPRequestFailed }

// IsFetchFailed reports whether err is a failed assignment fetch.
func IsFetchFailed(err error) bool {
	_, ok := err.(fetchError)
	return ok
}

// SetCallbacks installs the host callback; nil clears it and drops the
// cache. With autoFetch the first fetch runs synchronously during install.
// The callback is invoked outside the install lock, so it may re-enter
// the bridge freely.
func SetCallbacks(c Callbacks, autoFetch bool) error {
	mu.Lock()
	cb = c
	if c == nil {
		cached = nil
	}
	mu.Unlock()
	if c == nil || !autoFetch {
		return nil
	}
	if _, err := Fetch(false); err != nil {
		platform.Log(platform.LevelWarn, "ModelAssignment", "auto fetch failed: "+err.Error())
	}
	return nil
}

// Reset clears the callback and cache.
func Reset() {
	mu.Lock()
	cb = nil
	cached = nil
	mu.Unlock()
}

// Fetch returns the models assigned to this device. The first successful
// fetch is cached; forceRefresh bypasses the cache. Returned entries are
// deep copies.
func Fetch(forceRefresh bool) ([]*types.ModelEntry, error) {
	mu.Lock()
	c := cb
	if c == nil {
		mu.Unlock()
		return nil, status.NotInitialized
	}
	if !forceRefresh && cached != nil {
		out := copyEntries(cached)
		mu.Unlock()
		return out, nil
	}
	mu.Unlock()

	body, err := get(c)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(body, errorPrefix) {
		msg := strings.TrimSpace(strings.TrimPrefix(body, errorPrefix))
		platform.Log(platform.LevelError, "ModelAssignment", "fetch failed: "+msg)
		return nil, fetchError{msg: msg}
	}
	entries, err := parseAssignments(body)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	cached = entries
	out := copyEntries(cached)
	mu.Unlock()
	return out, nil
}

// get contains a panicking host callback the same way the device manager
// does.
func get(c Callbacks) (body string, err error) {
	defer func() {
		if r := recover(); r != nil {
			platform.Log(platform.LevelError, "ModelAssignment", "host callback panicked")
			err = fetchError{msg: "host callback panicked"}
		}
	}()
	return c.HTTPGet(assignmentsEndpoint, true), nil
}

// wireAssignment is the backend's record shape; keys differ from the
// registry's canonical form.
type wireAssignment struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	Format           string `json:"format"`
	Framework        string `json:"framework"`
	DownloadURL      string `json:"downloadUrl"`
	DownloadSize     int64  `json:"downloadSize"`
	ContextLength    int    `json:"contextLength"`
	SupportsThinking bool   `json:"supportsThinking"`
}

func parseAssignments(body string) ([]*types.ModelEntry, error) {
	var wire []wireAssignment
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		platform.Log(platform.LevelError, "ModelAssignment", "assignment JSON invalid: "+err.Error())
		return nil, status.InvalidArgument
	}
	entries := make([]*types.ModelEntry, 0, len(wire))
	for _, w := range wire {
		if w.ID == "" {
			continue
		}
		e := &types.ModelEntry{
			ModelID:          w.ID,
			Name:             w.Name,
			Category:         w.Category,
			Format:           w.Format,
			Framework:        w.Framework,
			DownloadSize:     w.DownloadSize,
			ContextLength:    w.ContextLength,
			SupportsThinking: w.SupportsThinking,
		}
		if w.DownloadURL != "" {
			u := w.DownloadURL
			e.DownloadURL = &u
		}
		if e.Name == "" {
			e.Name = e.ModelID
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func copyEntries(in []*types.ModelEntry) []*types.ModelEntry {
	out := make([]*types.ModelEntry, len(in))
	for i, e := range in {
		cp := *e
		if e.DownloadURL != nil {
			u := *e.DownloadURL
			cp.DownloadURL = &u
		}
		if e.LocalPath != nil {
			p := *e.LocalPath
			cp.LocalPath = &p
		}
		if e.Description != nil {
			d := *e.Description
			cp.Description = &d
		}
		out[i] = &cp
	}
	return out
}
