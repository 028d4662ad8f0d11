package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"mlbridge/internal/component"
	"mlbridge/internal/engine"
	"mlbridge/internal/httpapi"
	"mlbridge/pkg/bridge"
	"mlbridge/pkg/types"
)

// bridgeService backs the HTTP harness with the bridge entry points, the
// same surface host SDKs call through FFI.
type bridgeService struct {
	models bridge.Handle
	loras  bridge.Handle
	llm    bridge.Handle

	mu       sync.Mutex
	loadedID string
}

func newBridgeService(ctxSize, threads int) (*bridgeService, error) {
	llm, err := bridge.NewLLM(engine.NewLlama(ctxSize, threads))
	if err != nil {
		return nil, err
	}
	return &bridgeService{
		models: bridge.NewModelRegistry(),
		loras:  bridge.NewLoraRegistry(),
		llm:    llm,
	}, nil
}

func (s *bridgeService) Close() {
	bridge.LLMDestroy(s.llm)
	bridge.ModelRegistryDestroy(s.models)
	bridge.LoraRegistryDestroy(s.loras)
}

func (s *bridgeService) Models() []*types.ModelEntry {
	entries, err := bridge.ModelRegistryGetAll(s.models)
	if err != nil {
		return nil
	}
	return entries
}

func (s *bridgeService) Loras() []*types.LoraEntry {
	entries, err := bridge.LoraRegistryGetAll(s.loras)
	if err != nil {
		return nil
	}
	return entries
}

func (s *bridgeService) Ready() bool {
	st, err := bridge.LLMState(s.llm)
	return err == nil && st == component.StateLoaded
}

func (s *bridgeService) Status() httpapi.StatusResponse {
	resp := httpapi.StatusResponse{
		EngineBuilt:      engine.Built(),
		ModelsRegistered: len(s.Models()),
		LorasRegistered:  len(s.Loras()),
		SDKInitialized:   bridge.SDKInitialized(),
	}
	if st, err := bridge.LLMState(s.llm); err == nil {
		resp.LLMState = st.String()
	}
	s.mu.Lock()
	resp.ModelID = s.loadedID
	s.mu.Unlock()
	return resp
}

// LoadFirstModel loads the first downloaded model into the LLM component.
// A harness without models (or without the engine built in) stays up and
// reports not-ready instead.
func (s *bridgeService) LoadFirstModel() error {
	downloaded, err := bridge.ModelRegistryGetDownloaded(s.models)
	if err != nil {
		return err
	}
	if len(downloaded) == 0 {
		return fmt.Errorf("no downloaded models")
	}
	entry := downloaded[0]
	if entry.LocalPath == nil {
		return fmt.Errorf("model %s has no local path", entry.ModelID)
	}
	name := entry.Name
	if err := bridge.LLMLoadModel(s.llm, *entry.LocalPath, entry.ModelID, &name); err != nil {
		return err
	}
	s.mu.Lock()
	s.loadedID = entry.ModelID
	s.mu.Unlock()
	return nil
}

type tokenLine struct {
	Token string `json:"token"`
}

type resultLine struct {
	Done   bool             `json:"done"`
	Result *types.LLMResult `json:"result"`
}

// Generate streams NDJSON token lines into w and finishes with the
// aggregated result. Cancellation from ctx is forwarded to the component.
func (s *bridgeService) Generate(ctx context.Context, req httpapi.GenerateRequest, w io.Writer, flush func()) error {
	opts := types.GenerationOptions{
		MaxTokens:    req.MaxTokens,
		Temperature:  float32(req.Temperature),
		TopP:         float32(req.TopP),
		StreamTokens: true,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = bridge.LLMCancel(s.llm)
		case <-done:
		}
	}()

	enc := json.NewEncoder(w)
	res, err := bridge.LLMGenerateStream(s.llm, req.Prompt, opts, bridge.TokenSinkFunc(func(tok []byte) bool {
		if err := enc.Encode(tokenLine{Token: string(tok)}); err != nil {
			return false
		}
		if flush != nil {
			flush()
		}
		return true
	}))
	if err != nil {
		if engine.IsDependencyUnavailable(err) {
			return httpError{code: 503, msg: err.Error()}
		}
		return err
	}
	if err := enc.Encode(resultLine{Done: true, Result: res}); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}

// httpError satisfies httpapi.HTTPError for cases the generic result-code
// mapping cannot express.
type httpError struct {
	code int
	msg  string
}

func (e httpError) Error() string   { return e.msg }
func (e httpError) StatusCode() int { return e.code }
