// Package types holds the wire-stable records exchanged across the bridge.
//
// JSON key names are part of the contract consumed by host SDKs; do not
// rename them. Nullable strings are *string so absence serializes as null
// rather than "".
package types

// Stop reasons for LLM generation.
const (
	StopReasonNormal    = 0
	StopReasonMaxTokens = 1
	StopReasonStopToken = 2
	StopReasonCancelled = 3
	StopReasonError     = 4
)

// STT completion reasons.
const (
	STTCompletionFinal      = 0
	STTCompletionEndOfAudio = 1
)

// LLMResult is the aggregated outcome of a generation, streamed or not.
type LLMResult struct {
	Text            string  `json:"text"`
	TokensGenerated int     `json:"tokens_generated"`
	TokensEvaluated int     `json:"tokens_evaluated"`
	StopReason      int     `json:"stop_reason"`
	TotalTimeMS     int64   `json:"total_time_ms"`
	TokensPerSecond float64 `json:"tokens_per_second"`
}

// GenerationOptions controls a single LLM or VLM generation.
type GenerationOptions struct {
	MaxTokens     int      `json:"max_tokens"`
	Temperature   float32  `json:"temperature"`
	TopP          float32  `json:"top_p"`
	TopK          int      `json:"top_k"`
	StopSequences []string `json:"stop_sequences,omitempty"`
	Seed          int      `json:"seed"`
	SystemPrompt  *string  `json:"system_prompt,omitempty"`
	EnableVision  bool     `json:"enable_vision"`
	StreamTokens  bool     `json:"stream_tokens"`
}

// STTResult is a finished transcription.
type STTResult struct {
	Text             string  `json:"text"`
	Language         string  `json:"language"`
	DurationMS       int64   `json:"duration_ms"`
	CompletionReason int     `json:"completion_reason"`
	Confidence       float64 `json:"confidence"`
}

// STTOptions controls a transcription.
type STTOptions struct {
	Language   string `json:"language,omitempty"`
	SampleRate int    `json:"sample_rate"`
	Translate  bool   `json:"translate"`
}

// TTSResult carries synthesized audio with its format metadata.
type TTSResult struct {
	Audio      []byte `json:"-"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
	DurationMS int64  `json:"duration_ms"`
}

// TTSOptions controls synthesis.
type TTSOptions struct {
	Voice  string  `json:"voice,omitempty"`
	Rate   float32 `json:"rate"`
	Pitch  float32 `json:"pitch"`
	Volume float32 `json:"volume"`
}

// VADResult reports speech presence for a single audio frame.
type VADResult struct {
	IsSpeech    bool    `json:"is_speech"`
	Probability float64 `json:"probability"`
}

// VLMResult is the outcome of an image+text generation.
type VLMResult struct {
	Text               string  `json:"text"`
	PromptTokens       int     `json:"prompt_tokens"`
	ImageTokens        int     `json:"image_tokens"`
	CompletionTokens   int     `json:"completion_tokens"`
	TotalTokens        int     `json:"total_tokens"`
	TimeToFirstTokenMS int64   `json:"time_to_first_token_ms"`
	ImageEncodeTimeMS  int64   `json:"image_encode_time_ms"`
	TotalTimeMS        int64   `json:"total_time_ms"`
	TokensPerSecond    float64 `json:"tokens_per_second"`
}

// LifecycleMetrics summarizes load/unload activity for one component.
type LifecycleMetrics struct {
	TotalEvents       int64   `json:"total_events"`
	StartTimeMS       int64   `json:"start_time_ms"`
	LastEventTimeMS   int64   `json:"last_event_time_ms"`
	TotalLoads        int64   `json:"total_loads"`
	SuccessfulLoads   int64   `json:"successful_loads"`
	FailedLoads       int64   `json:"failed_loads"`
	AverageLoadTimeMS float64 `json:"average_load_time_ms"`
	TotalUnloads      int64   `json:"total_unloads"`
}
