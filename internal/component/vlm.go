package component

import (
	"context"

	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// VLM wraps a VLMEngine with the shared lifecycle.
type VLM struct {
	*core
	engine VLMEngine
	sess   VLMSession
}

func NewVLM(engine VLMEngine) (*VLM, error) {
	if engine == nil {
		return nil, status.InvalidArgument
	}
	return &VLM{core: newCore("vlm"), engine: engine}, nil
}

// LoadModel opens a session; mmprojPath carries a separate multimodal
// projector file when the model format needs one.
func (v *VLM) LoadModel(path, id string, name, mmprojPath *string) error {
	finish, err := v.beginLoad(path, id, name)
	if err != nil {
		return err
	}
	sess, err := v.engine.Start(path, mmprojPath)
	if err != nil {
		finish(err)
		return err
	}
	v.sess = sess
	finish(nil)
	return nil
}

func (v *VLM) Unload() error {
	commit, err := v.beginUnload()
	if err != nil {
		return err
	}
	if v.sess != nil {
		_ = v.sess.Close()
		v.sess = nil
	}
	commit()
	return nil
}

func (v *VLM) Destroy() {
	v.Cancel()
	v.destroy()
	if v.sess != nil {
		_ = v.sess.Close()
		v.sess = nil
	}
}

// SupportsStreaming reports whether the loaded session streams tokens.
func (v *VLM) SupportsStreaming() (bool, error) {
	release, err := v.beginVerb()
	if err != nil {
		return false, err
	}
	defer release()
	return v.sess.SupportsStreaming(), nil
}

// Process runs a blocking image+text generation.
func (v *VLM) Process(ctx context.Context, prompt string, image []byte, opts types.GenerationOptions) (*types.VLMResult, error) {
	return v.process(ctx, prompt, image, opts, nil)
}

// ProcessStream is Process with token delivery through sink.
func (v *VLM) ProcessStream(prompt string, image []byte, opts types.GenerationOptions, sink TokenSink) (*types.VLMResult, error) {
	if sink == nil {
		return nil, status.InvalidArgument
	}
	return v.process(context.Background(), prompt, image, opts, sink)
}

func (v *VLM) process(ctx context.Context, prompt string, image []byte, opts types.GenerationOptions, sink TokenSink) (*types.VLMResult, error) {
	if err := checkGenerationArgs(prompt, opts); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, status.InvalidArgument
	}
	release, err := v.beginVerb()
	if err != nil {
		return nil, err
	}

	// The VLM engine produces a richer result; capture it on the side and
	// reuse the LLM stream machinery for token plumbing.
	var vres *types.VLMResult
	run := func(onToken func(string) error) (*types.LLMResult, error) {
		r, err := v.sess.Process(ctx, prompt, image, opts, onToken)
		if err != nil {
			return nil, err
		}
		vres = r
		return &types.LLMResult{
			Text:            r.Text,
			TokensGenerated: r.CompletionTokens,
			TotalTimeMS:     r.TotalTimeMS,
			TokensPerSecond: r.TokensPerSecond,
		}, nil
	}

	var agg *types.LLMResult
	if sink != nil {
		agg, err = v.runStream(sink, run)
	} else {
		agg, err = v.runBlocking(run)
	}
	if !IsStreamTimeout(err) {
		release()
	}
	if err != nil {
		verbsTotal.WithLabelValues(v.kind, "error").Inc()
		return nil, err
	}
	verbsTotal.WithLabelValues(v.kind, "ok").Inc()
	return mergeVLMResult(vres, agg), nil
}

// mergeVLMResult reconciles the engine's result with the aggregate built
// from streamed tokens. Completion tokens fall back to the streamed count.
func mergeVLMResult(vres *types.VLMResult, agg *types.LLMResult) *types.VLMResult {
	out := &types.VLMResult{}
	if vres != nil {
		*out = *vres
	}
	if out.Text == "" {
		out.Text = agg.Text
	}
	if out.CompletionTokens == 0 {
		out.CompletionTokens = agg.TokensGenerated
	}
	if out.TotalTokens == 0 {
		out.TotalTokens = out.PromptTokens + out.ImageTokens + out.CompletionTokens
	}
	if out.TotalTimeMS == 0 {
		out.TotalTimeMS = agg.TotalTimeMS
	}
	if out.TokensPerSecond == 0 && out.TotalTimeMS > 0 {
		out.TokensPerSecond = float64(out.CompletionTokens) / (float64(out.TotalTimeMS) / 1000.0)
	}
	return out
}
