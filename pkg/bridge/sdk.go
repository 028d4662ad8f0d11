package bridge

import (
	"mlbridge/internal/analytics"
	"mlbridge/internal/assignment"
	"mlbridge/internal/audio"
	"mlbridge/internal/platform"
	"mlbridge/internal/sdkcfg"
	"mlbridge/internal/toolcall"
	"mlbridge/pkg/types"
)

// SDKConfig re-exports the init-time configuration.
type SDKConfig = sdkcfg.Config

// PlatformAdapter re-exports the host capability surface.
type PlatformAdapter = platform.Adapter

// SDKInit installs the process-wide SDK configuration. Idempotence is
// intentionally rejected: a second call reports invalid state.
func SDKInit(cfg SDKConfig) error {
	if err := sdkcfg.Init(cfg); err != nil {
		return err
	}
	analytics.EmitSDKLifecycle("init", cfg.SDKVersion)
	return nil
}

// SDKInitialized reports whether SDKInit has run.
func SDKInitialized() bool { return sdkcfg.Initialized() }

// SDKShutdown tears the process-wide configuration down so SDKInit may
// run again. The assignment callback and its cache are cleared; live
// handles are the host's to destroy.
func SDKShutdown() error {
	cfg, err := sdkcfg.Get()
	if err != nil {
		return err
	}
	analytics.EmitSDKLifecycle("shutdown", cfg.SDKVersion)
	assignment.Reset()
	return sdkcfg.Shutdown()
}

// SetPlatformAdapter installs the host adapter for logging, files,
// secure storage and the clock.
func SetPlatformAdapter(a PlatformAdapter) error { return platform.Set(a) }

// Dev-config getters; ok is false when the value was not baked into this
// build.
func DevBaseURL() (string, bool)    { return sdkcfg.DevBaseURL() }
func DevAPIKey() (string, bool)     { return sdkcfg.DevAPIKey() }
func DevBuildToken() (string, bool) { return sdkcfg.DevBuildToken() }
func DevSentryDSN() (string, bool)  { return sdkcfg.DevSentryDSN() }

// WAVHeaderSize returns the byte length of the header the audio helpers
// prepend.
func WAVHeaderSize() int { return audio.HeaderSize }

// Float32ToWAV wraps float32 PCM bytes in a mono WAV container.
func Float32ToWAV(pcm []byte, sampleRate int) ([]byte, error) {
	return audio.Float32ToWAV(pcm, sampleRate)
}

// Int16ToWAV wraps int16 PCM bytes in a mono WAV container.
func Int16ToWAV(pcm []byte, sampleRate int) ([]byte, error) {
	return audio.Int16ToWAV(pcm, sampleRate)
}

// ToolCallParse scans LLM output for a tool invocation.
func ToolCallParse(output string) types.ToolCall { return toolcall.Parse(output) }

// ToolPromptOptions re-exports prompt construction options.
type ToolPromptOptions = toolcall.PromptOptions

// DefaultToolPromptOptions mirrors host defaults.
func DefaultToolPromptOptions() ToolPromptOptions { return toolcall.DefaultPromptOptions() }

// ToolFormatPrompt renders the tools system prompt from a JSON array of
// tool definitions in the named style (empty name means default).
func ToolFormatPrompt(toolsJSON, formatName string) (string, error) {
	if formatName == "" {
		return toolcall.FormatPromptJSON(toolsJSON)
	}
	return toolcall.FormatPromptNamed(toolsJSON, formatName)
}

// ToolBuildInitialPrompt combines the tools prompt with a user request.
func ToolBuildInitialPrompt(userPrompt, toolsJSON string, opts ToolPromptOptions) (string, error) {
	return toolcall.BuildInitialPrompt(userPrompt, toolsJSON, opts)
}

// ToolBuildFollowupPrompt continues the conversation after a tool ran.
func ToolBuildFollowupPrompt(originalPrompt string, toolsPrompt *string, toolName, resultJSON string, keepToolsAvailable bool) (string, error) {
	return toolcall.BuildFollowupPrompt(originalPrompt, toolsPrompt, toolName, resultJSON, keepToolsAvailable)
}

// NormalizeJSON re-encodes a JSON document into canonical compact form.
func NormalizeJSON(s string) (string, error) { return toolcall.NormalizeJSON(s) }
