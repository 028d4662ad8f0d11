package component

import (
	"context"

	"mlbridge/internal/platform"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// STT wraps an STTEngine with the shared lifecycle.
type STT struct {
	*core
	engine STTEngine
	sess   STTSession
}

func NewSTT(engine STTEngine) (*STT, error) {
	if engine == nil {
		return nil, status.InvalidArgument
	}
	return &STT{core: newCore("stt"), engine: engine}, nil
}

func (s *STT) LoadModel(path, id string, name *string) error {
	finish, err := s.beginLoad(path, id, name)
	if err != nil {
		return err
	}
	sess, err := s.engine.Start(path)
	if err != nil {
		finish(err)
		return err
	}
	s.sess = sess
	finish(nil)
	return nil
}

func (s *STT) Unload() error {
	commit, err := s.beginUnload()
	if err != nil {
		return err
	}
	if s.sess != nil {
		_ = s.sess.Close()
		s.sess = nil
	}
	commit()
	return nil
}

func (s *STT) Destroy() {
	s.Cancel()
	s.destroy()
	if s.sess != nil {
		_ = s.sess.Close()
		s.sess = nil
	}
}

// Transcribe converts audio to text. Empty audio is rejected.
func (s *STT) Transcribe(ctx context.Context, audio []byte, opts types.STTOptions) (*types.STTResult, error) {
	if len(audio) == 0 {
		return nil, status.InvalidArgument
	}
	release, err := s.beginVerb()
	if err != nil {
		return nil, err
	}
	defer release()
	res, err := s.sess.Transcribe(ctx, audio, opts)
	if err != nil {
		verbsTotal.WithLabelValues(s.kind, "error").Inc()
		return nil, err
	}
	verbsTotal.WithLabelValues(s.kind, "ok").Inc()
	return res, nil
}

// TranscribeFile reads an audio file through the platform adapter and
// transcribes its contents.
func (s *STT) TranscribeFile(ctx context.Context, path string, opts types.STTOptions) (*types.STTResult, error) {
	if path == "" {
		return nil, status.InvalidArgument
	}
	audio, err := platform.FileRead(path)
	if err != nil {
		return nil, err
	}
	return s.Transcribe(ctx, audio, opts)
}
