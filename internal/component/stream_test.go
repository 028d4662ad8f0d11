package component

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

func TestStreamDeliversTokensInOrder(t *testing.T) {
	e := &fakeLLMEngine{script: []string{"a", "b", "c"}}
	l := loadedLLM(t, e)
	defer l.Destroy()

	var got []string
	res, err := l.GenerateStream("hi", types.GenerationOptions{}, TokenSinkFunc(func(tok []byte) bool {
		got = append(got, string(tok))
		return true
	}))
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if strings.Join(got, "") != "abc" {
		t.Fatalf("tokens = %v", got)
	}
	if res.Text != "abc" || res.TokensGenerated != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.StopReason != types.StopReasonNormal {
		t.Fatalf("StopReason = %d", res.StopReason)
	}
}

func TestStreamSinkStopEndsInCompletion(t *testing.T) {
	e := &fakeLLMEngine{script: []string{"a", "b", "c", "d", "e"}}
	l := loadedLLM(t, e)
	defer l.Destroy()

	count := 0
	res, err := l.GenerateStream("hi", types.GenerationOptions{}, TokenSinkFunc(func([]byte) bool {
		count++
		return count < 2
	}))
	if err != nil {
		t.Fatalf("sink stop must end in completion, got %v", err)
	}
	if res.StopReason != types.StopReasonCancelled {
		t.Fatalf("StopReason = %d, want cancelled", res.StopReason)
	}
	if res.TokensGenerated >= 5 {
		t.Fatalf("generation did not stop early: %d tokens", res.TokensGenerated)
	}
}

func TestStreamCancelEndsInCompletion(t *testing.T) {
	e := &fakeLLMEngine{script: []string{"a", "b", "c", "d", "e", "f"}, tokenDelay: 15 * time.Millisecond}
	l := loadedLLM(t, e)
	defer l.Destroy()

	res, err := l.GenerateStream("hi", types.GenerationOptions{}, TokenSinkFunc(func([]byte) bool {
		l.Cancel()
		return true
	}))
	if err != nil {
		t.Fatalf("cancel must end in completion, got %v", err)
	}
	if res.StopReason != types.StopReasonCancelled {
		t.Fatalf("StopReason = %d, want cancelled", res.StopReason)
	}
}

func TestStreamPanickingSinkContained(t *testing.T) {
	e := &fakeLLMEngine{script: []string{"a", "b", "c"}}
	l := loadedLLM(t, e)
	defer l.Destroy()

	res, err := l.GenerateStream("hi", types.GenerationOptions{}, TokenSinkFunc(func([]byte) bool {
		panic("host callback bug")
	}))
	if err != nil {
		t.Fatalf("panicking sink must not fail the call: %v", err)
	}
	if res.StopReason != types.StopReasonCancelled {
		t.Fatalf("StopReason = %d, want cancelled", res.StopReason)
	}
	// Component still usable afterwards.
	if _, err := l.Generate(context.Background(), "hi", types.GenerationOptions{}); err != nil {
		t.Fatalf("Generate after panic: %v", err)
	}
}

func TestStreamEngineErrorPropagates(t *testing.T) {
	e := &fakeLLMEngine{script: []string{"a"}, genErr: errors.New("engine exploded")}
	l := loadedLLM(t, e)
	defer l.Destroy()
	_, err := l.GenerateStream("hi", types.GenerationOptions{}, TokenSinkFunc(func([]byte) bool { return true }))
	if err == nil || err.Error() != "engine exploded" {
		t.Fatalf("err = %v", err)
	}
}

func TestStreamMergesEngineResult(t *testing.T) {
	e := &fakeLLMEngine{
		script: []string{"x", "y"},
		result: &types.LLMResult{TokensEvaluated: 7, TotalTimeMS: 120},
	}
	l := loadedLLM(t, e)
	defer l.Destroy()
	res, err := l.GenerateStream("hi", types.GenerationOptions{}, TokenSinkFunc(func([]byte) bool { return true }))
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if res.Text != "xy" {
		t.Fatalf("Text = %q, want accumulated text filling engine gap", res.Text)
	}
	if res.TokensGenerated != 2 {
		t.Fatalf("TokensGenerated = %d, want streamed count fallback", res.TokensGenerated)
	}
	if res.TokensEvaluated != 7 || res.TotalTimeMS != 120 {
		t.Fatalf("engine fields lost: %+v", res)
	}
	if res.TokensPerSecond == 0 {
		t.Fatalf("TokensPerSecond not derived")
	}
}

func TestAggregateResultDerivations(t *testing.T) {
	res := aggregateResult(nil, "hello", 5, 2000, types.StopReasonNormal)
	if res.Text != "hello" || res.TokensGenerated != 5 {
		t.Fatalf("aggregate: %+v", res)
	}
	if res.TokensPerSecond != 2.5 {
		t.Fatalf("TokensPerSecond = %v, want 2.5", res.TokensPerSecond)
	}
}

// stuckLLMEngine ignores cancellation and blocks inside Generate until
// its gate opens, simulating an engine call that outlives the stream
// timeout.
type stuckLLMEngine struct{ gate chan struct{} }

func (e *stuckLLMEngine) Start(string) (LLMSession, error) { return &stuckLLMSession{e: e}, nil }

type stuckLLMSession struct{ e *stuckLLMEngine }

func (s *stuckLLMSession) Generate(ctx context.Context, prompt string, opts types.GenerationOptions, onToken func(string) error) (*types.LLMResult, error) {
	_ = onToken("x")
	<-s.e.gate
	return nil, nil
}
func (s *stuckLLMSession) ContextSize() int               { return 0 }
func (s *stuckLLMSession) Tokenize(string) (int, error)   { return 0, errors.New("no tokenizer") }
func (s *stuckLLMSession) LoadLora(string, float32) error { return nil }
func (s *stuckLLMSession) RemoveLora(string) error        { return nil }
func (s *stuckLLMSession) ClearLora() error               { return nil }
func (s *stuckLLMSession) Loras() []types.LoraInfo        { return nil }
func (s *stuckLLMSession) Close() error                   { return nil }

func TestStreamTimeoutHoldsSlotUntilEngineReturns(t *testing.T) {
	old := streamWaitTimeout
	streamWaitTimeout = 50 * time.Millisecond
	defer func() { streamWaitTimeout = old }()

	e := &stuckLLMEngine{gate: make(chan struct{})}
	l, err := NewLLM(e)
	if err != nil {
		t.Fatalf("NewLLM: %v", err)
	}
	if err := l.LoadModel("/models/m.gguf", "m1", nil); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	_, err = l.GenerateStream("hi", types.GenerationOptions{}, TokenSinkFunc(func([]byte) bool { return true }))
	if !IsStreamTimeout(err) {
		t.Fatalf("err = %v, want stream timeout", err)
	}
	// The engine call is still in flight: the session must not be
	// closable underneath it.
	if err := l.Unload(); !status.IsInvalidState(err) {
		t.Fatalf("Unload with engine in flight = %v, want invalid state", err)
	}
	close(e.gate)
	// Once the engine returns, the slot frees and the component recovers.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := l.Unload(); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("slot never released after engine returned")
		}
		time.Sleep(5 * time.Millisecond)
	}
	l.Destroy()
}

func TestIsStreamTimeout(t *testing.T) {
	if !IsStreamTimeout(streamTimeoutError{}) {
		t.Fatalf("IsStreamTimeout(streamTimeoutError) = false")
	}
	if IsStreamTimeout(errors.New("other")) {
		t.Fatalf("IsStreamTimeout(other) = true")
	}
}
