// Package component implements the lifecycle shared by every capability
// wrapper (LLM, STT, TTS, VAD, VLM): a small state machine, a single
// in-flight verb per component, cooperative cancellation, and load/unload
// accounting.
package component

import (
	"context"

	"mlbridge/pkg/types"
)

// LLMEngine opens sessions against a model file. Implementations live in
// internal/engine; tests supply fakes.
type LLMEngine interface {
	Start(modelPath string) (LLMSession, error)
}

// LLMSession is a loaded LLM model. onToken is called once per generated
// token; returning a non-nil error stops generation at the next checkpoint.
type LLMSession interface {
	Generate(ctx context.Context, prompt string, opts types.GenerationOptions, onToken func(token string) error) (*types.LLMResult, error)
	ContextSize() int
	Tokenize(text string) (int, error)
	LoadLora(path string, scale float32) error
	RemoveLora(path string) error
	ClearLora() error
	Loras() []types.LoraInfo
	Close() error
}

// STTEngine opens transcription sessions.
type STTEngine interface {
	Start(modelPath string) (STTSession, error)
}

type STTSession interface {
	Transcribe(ctx context.Context, audio []byte, opts types.STTOptions) (*types.STTResult, error)
	Close() error
}

// TTSEngine opens synthesis sessions.
type TTSEngine interface {
	Start(modelPath string) (TTSSession, error)
}

type TTSSession interface {
	Synthesize(ctx context.Context, text string, opts types.TTSOptions) (*types.TTSResult, error)
	Close() error
}

// VADEngine opens voice-activity sessions.
type VADEngine interface {
	Start(modelPath string) (VADSession, error)
}

type VADSession interface {
	Process(frame []float32, sampleRate int) (*types.VADResult, error)
	// Reset clears accumulated detector state between utterances.
	Reset() error
	Close() error
}

// VLMEngine opens vision-language sessions. mmprojPath carries the
// multimodal projector when the format splits it out; nil otherwise.
type VLMEngine interface {
	Start(modelPath string, mmprojPath *string) (VLMSession, error)
}

type VLMSession interface {
	Process(ctx context.Context, prompt string, image []byte, opts types.GenerationOptions, onToken func(token string) error) (*types.VLMResult, error)
	SupportsStreaming() bool
	Close() error
}
