// Package analytics turns domain happenings into telemetry events. Each
// emitter builds one typed event and hands it to the registered route,
// normally a telemetry.Manager. With no route installed, events are
// silently discarded.
package analytics

import (
	"sync"

	"github.com/google/uuid"

	"mlbridge/internal/platform"
	"mlbridge/internal/telemetry"
)

// Route receives every emitted event.
type Route func(telemetry.Event)

var (
	mu    sync.Mutex
	route Route
)

// SetRoute installs the event destination. nil unregisters. Safe to call
// while emitters run; in-flight events keep the route they started with.
func SetRoute(r Route) {
	mu.Lock()
	route = r
	mu.Unlock()
	if r == nil {
		platform.Log(platform.LevelDebug, "Analytics", "route unregistered")
	} else {
		platform.Log(platform.LevelDebug, "Analytics", "route registered")
	}
}

// emit builds the event and dispatches it outside the route lock, so a
// route may itself call SetRoute without deadlocking.
func emit(eventType string, props map[string]any) {
	mu.Lock()
	r := route
	mu.Unlock()
	if r == nil {
		return
	}
	r(telemetry.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		TimeMS:     platform.NowMS(),
		Properties: props,
	})
}

// EmitDownload reports a model download outcome.
func EmitDownload(modelID string, sizeBytes int64, durationMS int64, success bool, errMsg string) {
	props := map[string]any{
		"model_id":    modelID,
		"size_bytes":  sizeBytes,
		"duration_ms": durationMS,
		"success":     success,
	}
	if errMsg != "" {
		props["error"] = errMsg
	}
	emit("download", props)
}

// EmitSDKLifecycle reports init/shutdown phases of the SDK itself.
func EmitSDKLifecycle(phase, sdkVersion string) {
	emit("sdk_lifecycle", map[string]any{
		"phase":       phase,
		"sdk_version": sdkVersion,
	})
}

// EmitStorage reports a storage scan or cleanup.
func EmitStorage(operation string, bytesUsed, bytesFreed int64) {
	emit("storage", map[string]any{
		"operation":   operation,
		"bytes_used":  bytesUsed,
		"bytes_freed": bytesFreed,
	})
}

// EmitDevice reports device registration activity.
func EmitDevice(action string, success bool) {
	emit("device", map[string]any{
		"action":  action,
		"success": success,
	})
}

// EmitSDKError reports an internal error worth surfacing.
func EmitSDKError(component, message string, code int) {
	emit("sdk_error", map[string]any{
		"component": component,
		"message":   message,
		"code":      code,
	})
}

// EmitNetwork reports one backend request.
func EmitNetwork(endpoint string, statusCode int, durationMS int64) {
	emit("network", map[string]any{
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": durationMS,
	})
}

// EmitLLMGeneration reports one finished generation.
func EmitLLMGeneration(modelID string, tokensGenerated int, totalTimeMS int64, tokensPerSecond float64, stopReason int) {
	emit("llm_generation", map[string]any{
		"model_id":          modelID,
		"tokens_generated":  tokensGenerated,
		"total_time_ms":     totalTimeMS,
		"tokens_per_second": tokensPerSecond,
		"stop_reason":       stopReason,
	})
}

// EmitLLMModel reports an LLM model load or unload.
func EmitLLMModel(modelID, action string, durationMS int64, success bool) {
	emit("llm_model", map[string]any{
		"model_id":    modelID,
		"action":      action,
		"duration_ms": durationMS,
		"success":     success,
	})
}

// EmitSTTTranscription reports one finished transcription.
func EmitSTTTranscription(modelID string, audioDurationMS, processingMS int64, completionReason int) {
	emit("stt_transcription", map[string]any{
		"model_id":          modelID,
		"audio_duration_ms": audioDurationMS,
		"processing_ms":     processingMS,
		"completion_reason": completionReason,
	})
}

// EmitTTSSynthesis reports one finished synthesis.
func EmitTTSSynthesis(modelID string, textLength int, audioDurationMS, processingMS int64) {
	emit("tts_synthesis", map[string]any{
		"model_id":          modelID,
		"text_length":       textLength,
		"audio_duration_ms": audioDurationMS,
		"processing_ms":     processingMS,
	})
}

// EmitVAD reports a voice-activity decision.
func EmitVAD(modelID string, isSpeech bool, probability float64) {
	emit("vad", map[string]any{
		"model_id":    modelID,
		"is_speech":   isSpeech,
		"probability": probability,
	})
}

// EmitVoiceAgentState reports a voice-agent state transition.
func EmitVoiceAgentState(from, to, trigger string) {
	emit("voice_agent_state", map[string]any{
		"from":    from,
		"to":      to,
		"trigger": trigger,
	})
}
