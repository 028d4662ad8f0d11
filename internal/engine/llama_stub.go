//go:build !llama

package engine

// No-CGO stub compiled when the 'llama' build tag is NOT set, keeping
// default builds and CI CGO-free. The real engine lives in llama.go
// (tagged 'llama').

import (
	"mlbridge/internal/component"
)

var llamaBuilt = false

type Llama struct {
	ctxSize int
	threads int
}

func NewLlama(ctxSize, threads int) *Llama {
	return &Llama{ctxSize: ctxSize, threads: threads}
}

func (e *Llama) Start(modelPath string) (component.LLMSession, error) {
	// Fail fast: llama runtime not available in this build.
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
