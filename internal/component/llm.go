package component

import (
	"context"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// Default answers for sessions that cannot report real values.
const (
	defaultContextSize = 4096
	// Rough chars-per-token estimate used when no tokenizer is loaded.
	tokenizeCharsPerToken = 4
)

// LLM wraps an LLMEngine with the shared lifecycle.
type LLM struct {
	*core
	engine LLMEngine
	sess   LLMSession
}

func NewLLM(engine LLMEngine) (*LLM, error) {
	if engine == nil {
		return nil, status.InvalidArgument
	}
	return &LLM{core: newCore("llm"), engine: engine}, nil
}

// LoadModel opens a session for the model at path. name defaults to id.
func (l *LLM) LoadModel(path, id string, name *string) error {
	finish, err := l.beginLoad(path, id, name)
	if err != nil {
		return err
	}
	sess, err := l.engine.Start(path)
	if err != nil {
		finish(err)
		return err
	}
	l.sess = sess
	finish(nil)
	return nil
}

// Unload closes the session and returns the component to its created
// state. Rejected while a verb is running.
func (l *LLM) Unload() error {
	commit, err := l.beginUnload()
	if err != nil {
		return err
	}
	if l.sess != nil {
		_ = l.sess.Close()
		l.sess = nil
	}
	commit()
	return nil
}

// Destroy tears the component down, waiting out any in-flight verb.
func (l *LLM) Destroy() {
	l.Cancel()
	l.destroy()
	if l.sess != nil {
		_ = l.sess.Close()
		l.sess = nil
	}
}

// Generate runs a blocking generation and returns the aggregated result.
func (l *LLM) Generate(ctx context.Context, prompt string, opts types.GenerationOptions) (*types.LLMResult, error) {
	return l.generate(ctx, prompt, opts, nil)
}

// GenerateStream runs a generation delivering tokens to sink as they are
// produced. The aggregated result is returned once the engine completes.
func (l *LLM) GenerateStream(prompt string, opts types.GenerationOptions, sink TokenSink) (*types.LLMResult, error) {
	if sink == nil {
		return nil, status.InvalidArgument
	}
	return l.generate(context.Background(), prompt, opts, sink)
}

func (l *LLM) generate(ctx context.Context, prompt string, opts types.GenerationOptions, sink TokenSink) (*types.LLMResult, error) {
	if err := checkGenerationArgs(prompt, opts); err != nil {
		return nil, err
	}
	release, err := l.beginVerb()
	if err != nil {
		return nil, err
	}

	run := func(onToken func(string) error) (*types.LLMResult, error) {
		return l.sess.Generate(ctx, prompt, opts, onToken)
	}
	var res *types.LLMResult
	if sink != nil {
		res, err = l.runStream(sink, run)
	} else {
		res, err = l.runBlocking(run)
	}
	// After a timeout the stream reaper owns the slot; releasing here
	// would let Unload close the session under a still-running engine.
	if !IsStreamTimeout(err) {
		release()
	}
	if err != nil {
		verbsTotal.WithLabelValues(l.kind, "error").Inc()
		return nil, err
	}
	verbsTotal.WithLabelValues(l.kind, "ok").Inc()
	return res, nil
}

// runBlocking is the non-streaming path: tokens accumulate internally and
// only the aggregate is returned. Cancel still works through the hook.
func (c *core) runBlocking(run func(onToken func(string) error) (*types.LLMResult, error)) (*types.LLMResult, error) {
	var sb []byte
	tokenCount := 0
	startMS := platform.NowMS()
	onToken := func(tok string) error {
		if c.isCancelled() {
			return stopGenerationError{}
		}
		sb = append(sb, tok...)
		tokenCount++
		return nil
	}
	res, err := run(onToken)
	elapsed := platform.NowMS() - startMS
	if err != nil {
		if c.isCancelled() || isStopGeneration(err) {
			return aggregateResult(nil, string(sb), tokenCount, elapsed, types.StopReasonCancelled), nil
		}
		return nil, err
	}
	stop := types.StopReasonNormal
	if c.isCancelled() {
		stop = types.StopReasonCancelled
	}
	return aggregateResult(res, string(sb), tokenCount, elapsed, stop), nil
}

// ContextSize reports the loaded model's context window, or a default
// when the session cannot say.
func (l *LLM) ContextSize() (int, error) {
	release, err := l.beginVerb()
	if err != nil {
		return 0, err
	}
	defer release()
	if n := l.sess.ContextSize(); n > 0 {
		return n, nil
	}
	return defaultContextSize, nil
}

// Tokenize estimates the token count of text. Sessions without a real
// tokenizer fall back to a character-based estimate.
func (l *LLM) Tokenize(text string) (int, error) {
	release, err := l.beginVerb()
	if err != nil {
		return 0, err
	}
	defer release()
	if n, err := l.sess.Tokenize(text); err == nil && n >= 0 {
		return n, nil
	}
	return len(text) / tokenizeCharsPerToken, nil
}

// LoadLora applies the adapter at path with the given scale.
func (l *LLM) LoadLora(path string, scale float32) error {
	if path == "" {
		return status.InvalidArgument
	}
	release, err := l.beginVerb()
	if err != nil {
		return err
	}
	defer release()
	return l.sess.LoadLora(path, scale)
}

// RemoveLora detaches one adapter.
func (l *LLM) RemoveLora(path string) error {
	if path == "" {
		return status.InvalidArgument
	}
	release, err := l.beginVerb()
	if err != nil {
		return err
	}
	defer release()
	return l.sess.RemoveLora(path)
}

// ClearLora detaches all adapters.
func (l *LLM) ClearLora() error {
	release, err := l.beginVerb()
	if err != nil {
		return err
	}
	defer release()
	return l.sess.ClearLora()
}

// LoraInfo lists the adapters currently applied.
func (l *LLM) LoraInfo() ([]types.LoraInfo, error) {
	release, err := l.beginVerb()
	if err != nil {
		return nil, err
	}
	defer release()
	return l.sess.Loras(), nil
}
