package component

import (
	"context"

	"mlbridge/internal/audio"
	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// TTS wraps a TTSEngine with the shared lifecycle.
type TTS struct {
	*core
	engine TTSEngine
	sess   TTSSession
}

func NewTTS(engine TTSEngine) (*TTS, error) {
	if engine == nil {
		return nil, status.InvalidArgument
	}
	return &TTS{core: newCore("tts"), engine: engine}, nil
}

func (t *TTS) LoadModel(path, id string, name *string) error {
	finish, err := t.beginLoad(path, id, name)
	if err != nil {
		return err
	}
	sess, err := t.engine.Start(path)
	if err != nil {
		finish(err)
		return err
	}
	t.sess = sess
	finish(nil)
	return nil
}

func (t *TTS) Unload() error {
	commit, err := t.beginUnload()
	if err != nil {
		return err
	}
	if t.sess != nil {
		_ = t.sess.Close()
		t.sess = nil
	}
	commit()
	return nil
}

func (t *TTS) Destroy() {
	t.Cancel()
	t.destroy()
	if t.sess != nil {
		_ = t.sess.Close()
		t.sess = nil
	}
}

// Synthesize renders text to audio.
func (t *TTS) Synthesize(ctx context.Context, text string, opts types.TTSOptions) (*types.TTSResult, error) {
	if text == "" {
		return nil, status.InvalidArgument
	}
	release, err := t.beginVerb()
	if err != nil {
		return nil, err
	}
	defer release()
	res, err := t.sess.Synthesize(ctx, text, opts)
	if err != nil {
		verbsTotal.WithLabelValues(t.kind, "error").Inc()
		return nil, err
	}
	verbsTotal.WithLabelValues(t.kind, "ok").Inc()
	return res, nil
}

// SynthesizeToFile renders text and writes the audio as a WAV container
// through the platform adapter. The result metadata is returned with the
// raw audio left in place.
func (t *TTS) SynthesizeToFile(ctx context.Context, text, path string, opts types.TTSOptions) (*types.TTSResult, error) {
	if path == "" {
		return nil, status.InvalidArgument
	}
	res, err := t.Synthesize(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	var wav []byte
	switch res.BitDepth {
	case 16:
		wav, err = audio.Int16ToWAV(res.Audio, res.SampleRate)
	case 32:
		wav, err = audio.Float32ToWAV(res.Audio, res.SampleRate)
	default:
		return nil, status.InvalidArgument
	}
	if err != nil {
		return nil, err
	}
	if err := platform.FileWrite(path, wav); err != nil {
		return nil, err
	}
	return res, nil
}
