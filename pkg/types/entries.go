package types

// ModelEntry describes one model known to the registry. DownloadURL,
// LocalPath and Description are absent (null) until set.
type ModelEntry struct {
	ModelID          string  `json:"model_id"`
	Name             string  `json:"name"`
	Category         string  `json:"category"`
	Format           string  `json:"format"`
	Framework        string  `json:"framework"`
	DownloadURL      *string `json:"download_url"`
	LocalPath        *string `json:"local_path"`
	DownloadSize     int64   `json:"download_size"`
	ContextLength    int     `json:"context_length"`
	SupportsThinking bool    `json:"supports_thinking"`
	SupportsLora     bool    `json:"supports_lora"`
	Description      *string `json:"description"`
}

// LoraEntry describes one LoRA adapter and the models it applies to.
type LoraEntry struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        *string  `json:"description"`
	DownloadURL        *string  `json:"download_url"`
	Filename           string   `json:"filename"`
	FileSize           int64    `json:"file_size"`
	DefaultScale       float32  `json:"default_scale"`
	CompatibleModelIDs []string `json:"compatible_model_ids"`
}

// LoraInfo reports one adapter currently applied to an LLM component.
type LoraInfo struct {
	Path  string  `json:"path"`
	Scale float32 `json:"scale"`
}

// DeviceInfo is the parsed device description supplied by the host.
type DeviceInfo struct {
	DeviceID     string `json:"device_id"`
	Model        string `json:"model"`
	OSVersion    string `json:"os_version"`
	Platform     string `json:"platform"`
	Manufacturer string `json:"manufacturer,omitempty"`
	TotalMemory  int64  `json:"total_memory,omitempty"`
	ChipName     string `json:"chip_name,omitempty"`
}

// ToolCall is the parsed outcome of scanning LLM output for a tool call.
// ArgumentsJSON is always valid JSON: an object, an array, or "{}" when
// the model produced something unusable.
type ToolCall struct {
	HasToolCall   bool   `json:"has_tool_call"`
	CleanText     string `json:"clean_text"`
	ToolName      string `json:"tool_name,omitempty"`
	ArgumentsJSON string `json:"arguments_json,omitempty"`
	CallID        string `json:"call_id,omitempty"`
}
