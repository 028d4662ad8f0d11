//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"mlbridge/internal/component"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// Llama is the llama.cpp engine. ctxSize and threads apply to every
// session it opens.
type Llama struct {
	ctxSize int
	threads int
}

func NewLlama(ctxSize, threads int) *Llama {
	return &Llama{ctxSize: ctxSize, threads: threads}
}

type llamaSession struct {
	model   *llama.LLama
	ctxSize int
	threads int

	mu    sync.Mutex
	loras []types.LoraInfo
}

func (e *Llama) Start(modelPath string) (component.LLMSession, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, status.InvalidArgument
	}
	m, err := llama.New(modelPath, llama.SetContext(e.ctxSize))
	if err != nil {
		return nil, err
	}
	return &llamaSession{model: m, ctxSize: e.ctxSize, threads: e.threads}, nil
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, opts types.GenerationOptions, onToken func(string) error) (*types.LLMResult, error) {
	if s.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	s.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if err := onToken(tok); err != nil {
			return false
		}
		return true
	})
	text, err := s.model.Predict(prompt, predictOptions(opts, s.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	// Token counts are not exposed without deeper hooks; the component
	// layer fills them from the streamed count.
	return &types.LLMResult{Text: text, StopReason: types.StopReasonNormal}, nil
}

func (s *llamaSession) ContextSize() int { return s.ctxSize }

func (s *llamaSession) Tokenize(text string) (int, error) {
	// go-llama.cpp does not expose a tokenizer entry point; estimate.
	return 0, errors.New("tokenizer not available")
}

func (s *llamaSession) LoadLora(path string, scale float32) error {
	// Adapter application at predict time is not plumbed through
	// go-llama.cpp; track the set so callers can inspect it.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loras = append(s.loras, types.LoraInfo{Path: path, Scale: scale})
	return nil
}

func (s *llamaSession) RemoveLora(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.loras {
		if l.Path == path {
			s.loras = append(s.loras[:i], s.loras[i+1:]...)
			return nil
		}
	}
	return status.NotFound
}

func (s *llamaSession) ClearLora() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loras = nil
	return nil
}

func (s *llamaSession) Loras() []types.LoraInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.LoraInfo, len(s.loras))
	copy(out, s.loras)
	return out
}

func (s *llamaSession) Close() error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts generation options into go-llama.cpp options.
func predictOptions(opts types.GenerationOptions, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(maxInt(1, opts.MaxTokens)),
		llama.SetThreads(maxInt(1, threads)),
		llama.SetTopP(zf(opts.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(opts.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(opts.Temperature, llama.DefaultOptions.Temperature)),
	}
	if opts.Seed != 0 {
		po = append(po, llama.SetSeed(opts.Seed))
	}
	if len(opts.StopSequences) > 0 {
		po = append(po, llama.SetStopWords(opts.StopSequences...))
	}
	return po
}
