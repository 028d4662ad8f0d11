package bridge

import (
	"context"

	"mlbridge/internal/component"
	"mlbridge/pkg/types"
)

// TokenSink re-exports the streaming sink contract.
type TokenSink = component.TokenSink

// TokenSinkFunc re-exports the function adapter for TokenSink.
type TokenSinkFunc = component.TokenSinkFunc

// NewLLM creates an LLM component over engine and returns its handle.
func NewLLM(engine component.LLMEngine) (Handle, error) {
	c, err := component.NewLLM(engine)
	if err != nil {
		return InvalidHandle, err
	}
	return put(c), nil
}

// LLMDestroy tears the component down and releases its handle. Waits out
// any in-flight call. No-op for InvalidHandle.
func LLMDestroy(h Handle) {
	if c, ok := drop[*component.LLM](h); ok {
		c.Destroy()
	}
}

func LLMLoadModel(h Handle, path, id string, name *string) error {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return err
	}
	return c.LoadModel(path, id, name)
}

func LLMUnload(h Handle) error {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return err
	}
	return c.Unload()
}

// LLMIsLoaded reports whether the component holds a loaded model,
// counting one that is mid-inference.
func LLMIsLoaded(h Handle) (bool, error) {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return false, err
	}
	return c.IsLoaded(), nil
}

func LLMState(h Handle) (component.State, error) {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return 0, err
	}
	return c.State(), nil
}

func LLMGenerate(h Handle, prompt string, opts types.GenerationOptions) (*types.LLMResult, error) {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return nil, err
	}
	return c.Generate(context.Background(), prompt, opts)
}

func LLMGenerateStream(h Handle, prompt string, opts types.GenerationOptions, sink TokenSink) (*types.LLMResult, error) {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return nil, err
	}
	return c.GenerateStream(prompt, opts, sink)
}

// LLMCancel requests that the in-flight call stop. Always succeeds on a
// live handle, even when nothing is running.
func LLMCancel(h Handle) error {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return err
	}
	c.Cancel()
	return nil
}

func LLMContextSize(h Handle) (int, error) {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return 0, err
	}
	return c.ContextSize()
}

func LLMTokenize(h Handle, text string) (int, error) {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return 0, err
	}
	return c.Tokenize(text)
}

func LLMLoadLora(h Handle, path string, scale float32) error {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return err
	}
	return c.LoadLora(path, scale)
}

func LLMRemoveLora(h Handle, path string) error {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return err
	}
	return c.RemoveLora(path)
}

func LLMClearLora(h Handle) error {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return err
	}
	return c.ClearLora()
}

func LLMLoraInfo(h Handle) ([]types.LoraInfo, error) {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return nil, err
	}
	return c.LoraInfo()
}

func LLMMetrics(h Handle) (types.LifecycleMetrics, error) {
	c, err := lookup[*component.LLM](h)
	if err != nil {
		return types.LifecycleMetrics{}, err
	}
	return c.Metrics(), nil
}

// NewSTT creates an STT component over engine and returns its handle.
func NewSTT(engine component.STTEngine) (Handle, error) {
	c, err := component.NewSTT(engine)
	if err != nil {
		return InvalidHandle, err
	}
	return put(c), nil
}

func STTDestroy(h Handle) {
	if c, ok := drop[*component.STT](h); ok {
		c.Destroy()
	}
}

func STTLoadModel(h Handle, path, id string, name *string) error {
	c, err := lookup[*component.STT](h)
	if err != nil {
		return err
	}
	return c.LoadModel(path, id, name)
}

func STTUnload(h Handle) error {
	c, err := lookup[*component.STT](h)
	if err != nil {
		return err
	}
	return c.Unload()
}

func STTIsLoaded(h Handle) (bool, error) {
	c, err := lookup[*component.STT](h)
	if err != nil {
		return false, err
	}
	return c.IsLoaded(), nil
}

func STTTranscribe(h Handle, audio []byte, opts types.STTOptions) (*types.STTResult, error) {
	c, err := lookup[*component.STT](h)
	if err != nil {
		return nil, err
	}
	return c.Transcribe(context.Background(), audio, opts)
}

// STTTranscribeFile reads the audio through the platform adapter, then
// transcribes it.
func STTTranscribeFile(h Handle, path string, opts types.STTOptions) (*types.STTResult, error) {
	c, err := lookup[*component.STT](h)
	if err != nil {
		return nil, err
	}
	return c.TranscribeFile(context.Background(), path, opts)
}

func STTCancel(h Handle) error {
	c, err := lookup[*component.STT](h)
	if err != nil {
		return err
	}
	c.Cancel()
	return nil
}

func STTMetrics(h Handle) (types.LifecycleMetrics, error) {
	c, err := lookup[*component.STT](h)
	if err != nil {
		return types.LifecycleMetrics{}, err
	}
	return c.Metrics(), nil
}

// NewTTS creates a TTS component over engine and returns its handle.
func NewTTS(engine component.TTSEngine) (Handle, error) {
	c, err := component.NewTTS(engine)
	if err != nil {
		return InvalidHandle, err
	}
	return put(c), nil
}

func TTSDestroy(h Handle) {
	if c, ok := drop[*component.TTS](h); ok {
		c.Destroy()
	}
}

func TTSLoadModel(h Handle, path, id string, name *string) error {
	c, err := lookup[*component.TTS](h)
	if err != nil {
		return err
	}
	return c.LoadModel(path, id, name)
}

func TTSUnload(h Handle) error {
	c, err := lookup[*component.TTS](h)
	if err != nil {
		return err
	}
	return c.Unload()
}

func TTSIsLoaded(h Handle) (bool, error) {
	c, err := lookup[*component.TTS](h)
	if err != nil {
		return false, err
	}
	return c.IsLoaded(), nil
}

func TTSSynthesize(h Handle, text string, opts types.TTSOptions) (*types.TTSResult, error) {
	c, err := lookup[*component.TTS](h)
	if err != nil {
		return nil, err
	}
	return c.Synthesize(context.Background(), text, opts)
}

// TTSSynthesizeToFile synthesizes text and writes the result through the
// platform adapter as a WAV document.
func TTSSynthesizeToFile(h Handle, text, path string, opts types.TTSOptions) (*types.TTSResult, error) {
	c, err := lookup[*component.TTS](h)
	if err != nil {
		return nil, err
	}
	return c.SynthesizeToFile(context.Background(), text, path, opts)
}

func TTSMetrics(h Handle) (types.LifecycleMetrics, error) {
	c, err := lookup[*component.TTS](h)
	if err != nil {
		return types.LifecycleMetrics{}, err
	}
	return c.Metrics(), nil
}

// NewVAD creates a VAD component over engine and returns its handle.
func NewVAD(engine component.VADEngine) (Handle, error) {
	c, err := component.NewVAD(engine)
	if err != nil {
		return InvalidHandle, err
	}
	return put(c), nil
}

func VADDestroy(h Handle) {
	if c, ok := drop[*component.VAD](h); ok {
		c.Destroy()
	}
}

func VADLoadModel(h Handle, path, id string, name *string) error {
	c, err := lookup[*component.VAD](h)
	if err != nil {
		return err
	}
	return c.LoadModel(path, id, name)
}

func VADUnload(h Handle) error {
	c, err := lookup[*component.VAD](h)
	if err != nil {
		return err
	}
	return c.Unload()
}

func VADProcess(h Handle, frame []float32, sampleRate int) (*types.VADResult, error) {
	c, err := lookup[*component.VAD](h)
	if err != nil {
		return nil, err
	}
	return c.Process(frame, sampleRate)
}

func VADIsLoaded(h Handle) (bool, error) {
	c, err := lookup[*component.VAD](h)
	if err != nil {
		return false, err
	}
	return c.IsLoaded(), nil
}

// VADReset clears the detector's accumulated state between utterances.
func VADReset(h Handle) error {
	c, err := lookup[*component.VAD](h)
	if err != nil {
		return err
	}
	return c.Reset()
}

// VADMinFrameSize returns the smallest frame, in samples, the detector
// accepts.
func VADMinFrameSize() int { return component.MinVADFrameSamples }

// VADSupportedSampleRates returns the sample rates the detector accepts.
func VADSupportedSampleRates() []int { return component.SupportedVADRates() }

// NewVLM creates a VLM component over engine and returns its handle.
func NewVLM(engine component.VLMEngine) (Handle, error) {
	c, err := component.NewVLM(engine)
	if err != nil {
		return InvalidHandle, err
	}
	return put(c), nil
}

func VLMDestroy(h Handle) {
	if c, ok := drop[*component.VLM](h); ok {
		c.Destroy()
	}
}

func VLMLoadModel(h Handle, path, id string, name, mmprojPath *string) error {
	c, err := lookup[*component.VLM](h)
	if err != nil {
		return err
	}
	return c.LoadModel(path, id, name, mmprojPath)
}

func VLMUnload(h Handle) error {
	c, err := lookup[*component.VLM](h)
	if err != nil {
		return err
	}
	return c.Unload()
}

func VLMProcess(h Handle, prompt string, image []byte, opts types.GenerationOptions) (*types.VLMResult, error) {
	c, err := lookup[*component.VLM](h)
	if err != nil {
		return nil, err
	}
	return c.Process(context.Background(), prompt, image, opts)
}

func VLMProcessStream(h Handle, prompt string, image []byte, opts types.GenerationOptions, sink TokenSink) (*types.VLMResult, error) {
	c, err := lookup[*component.VLM](h)
	if err != nil {
		return nil, err
	}
	return c.ProcessStream(prompt, image, opts, sink)
}

func VLMCancel(h Handle) error {
	c, err := lookup[*component.VLM](h)
	if err != nil {
		return err
	}
	c.Cancel()
	return nil
}

func VLMIsLoaded(h Handle) (bool, error) {
	c, err := lookup[*component.VLM](h)
	if err != nil {
		return false, err
	}
	return c.IsLoaded(), nil
}

func VLMSupportsStreaming(h Handle) (bool, error) {
	c, err := lookup[*component.VLM](h)
	if err != nil {
		return false, err
	}
	return c.SupportsStreaming()
}

func VLMMetrics(h Handle) (types.LifecycleMetrics, error) {
	c, err := lookup[*component.VLM](h)
	if err != nil {
		return types.LifecycleMetrics{}, err
	}
	return c.Metrics(), nil
}
