package component

import (
	"strings"
	"time"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// streamWaitTimeout bounds how long a streaming call waits for the engine
// to report completion after the last event. Variable so tests can shrink
// the window.
var streamWaitTimeout = 10 * time.Minute

// streamBuffer is the token channel capacity. The drain loop normally
// keeps up; the buffer only absorbs bursts while a sink call is running.
const streamBuffer = 64

// TokenSink receives streamed tokens. Returning false requests that
// generation stop; remaining tokens are dropped and the call completes
// with a cancelled stop reason.
type TokenSink interface {
	OnToken(token []byte) bool
}

// TokenSinkFunc adapts a function to TokenSink.
type TokenSinkFunc func(token []byte) bool

func (f TokenSinkFunc) OnToken(token []byte) bool { return f(token) }

type streamEvent struct {
	token string
	done  bool
	res   *types.LLMResult
	err   error
}

// runStream drives one streaming generation: a worker goroutine runs the
// engine and forwards tokens through a bounded channel; the calling
// goroutine delivers them to the sink and waits for the terminal event.
// Exactly one of result or error is produced.
func (c *core) runStream(sink TokenSink,
	run func(onToken func(string) error) (*types.LLMResult, error)) (*types.LLMResult, error) {

	events := make(chan streamEvent, streamBuffer)
	quit := make(chan struct{})
	defer close(quit)

	onToken := func(tok string) error {
		if c.isCancelled() {
			return stopGenerationError{}
		}
		select {
		case events <- streamEvent{token: tok}:
			return nil
		case <-quit:
			return stopGenerationError{}
		}
	}

	startMS := platform.NowMS()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		res, err := run(onToken)
		select {
		case events <- streamEvent{done: true, res: res, err: err}:
		case <-quit:
		}
	}()

	var text strings.Builder
	tokenCount := 0
	timer := time.NewTimer(streamWaitTimeout)
	defer timer.Stop()

	for {
		select {
		case ev := <-events:
			if !ev.done {
				// Tokens already queued when a stop was requested are
				// dropped, not delivered.
				if c.isCancelled() {
					continue
				}
				text.WriteString(ev.token)
				tokenCount++
				streamTokensTotal.WithLabelValues(c.kind).Inc()
				if !c.deliver(sink, ev.token) {
					c.Cancel()
				}
				continue
			}
			return c.finishStream(ev, text.String(), tokenCount, startMS)
		case <-timer.C:
			c.Cancel()
			c.logf(platform.LevelError, "stream timed out waiting for completion")
			// The worker may still be inside the engine. Keep the verb
			// slot held so Unload cannot close the session under it; a
			// reaper frees the slot once the worker actually returns.
			go func() {
				<-workerDone
				c.endVerb()
			}()
			return nil, streamTimeoutError{}
		}
	}
}

// deliver invokes the sink, containing panics. A panicking sink counts as
// a stop request.
func (c *core) deliver(sink TokenSink, token string) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logf(platform.LevelError, "token sink panicked; stopping generation")
			keep = false
		}
	}()
	return sink.OnToken([]byte(token))
}

// finishStream merges the engine's final result with what the drain loop
// accumulated. A stop requested by Cancel or the sink ends in completion,
// not error.
func (c *core) finishStream(ev streamEvent, text string, tokenCount int, startMS int64) (*types.LLMResult, error) {
	elapsed := platform.NowMS() - startMS
	if ev.err != nil {
		if c.isCancelled() || isStopGeneration(ev.err) {
			return aggregateResult(nil, text, tokenCount, elapsed, types.StopReasonCancelled), nil
		}
		return nil, ev.err
	}
	stop := types.StopReasonNormal
	if c.isCancelled() {
		stop = types.StopReasonCancelled
	}
	return aggregateResult(ev.res, text, tokenCount, elapsed, stop), nil
}

// aggregateResult fills gaps the engine left: accumulated text when the
// engine returned none, the observed token count, and derived timing.
func aggregateResult(res *types.LLMResult, text string, tokenCount int, elapsedMS int64, stop int) *types.LLMResult {
	out := &types.LLMResult{}
	if res != nil {
		*out = *res
	}
	if out.Text == "" {
		out.Text = text
	}
	if out.TokensGenerated == 0 {
		out.TokensGenerated = tokenCount
	}
	if out.TotalTimeMS == 0 {
		out.TotalTimeMS = elapsedMS
	}
	if out.TokensPerSecond == 0 && out.TotalTimeMS > 0 {
		out.TokensPerSecond = float64(out.TokensGenerated) / (float64(out.TotalTimeMS) / 1000.0)
	}
	if stop != types.StopReasonNormal || out.StopReason == 0 {
		out.StopReason = stop
	}
	return out
}

// validate options once, shared by streaming and blocking generation.
func checkGenerationArgs(prompt string, opts types.GenerationOptions) error {
	if prompt == "" {
		return status.InvalidArgument
	}
	if opts.MaxTokens < 0 || opts.Temperature < 0 || opts.TopP < 0 || opts.TopP > 1 {
		return status.InvalidArgument
	}
	return nil
}
