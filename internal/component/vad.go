package component

import (
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

// MinVADFrameSamples is the smallest frame the detector accepts.
const MinVADFrameSamples = 512

// supportedVADRates lists accepted sample rates.
var supportedVADRates = []int{16000}

// SupportedVADRates returns a copy of the accepted sample rates.
func SupportedVADRates() []int {
	out := make([]int, len(supportedVADRates))
	copy(out, supportedVADRates)
	return out
}

// VAD wraps a VADEngine with the shared lifecycle.
type VAD struct {
	*core
	engine VADEngine
	sess   VADSession
}

func NewVAD(engine VADEngine) (*VAD, error) {
	if engine == nil {
		return nil, status.InvalidArgument
	}
	return &VAD{core: newCore("vad"), engine: engine}, nil
}

func (v *VAD) LoadModel(path, id string, name *string) error {
	finish, err := v.beginLoad(path, id, name)
	if err != nil {
		return err
	}
	sess, err := v.engine.Start(path)
	if err != nil {
		finish(err)
		return err
	}
	v.sess = sess
	finish(nil)
	return nil
}

func (v *VAD) Unload() error {
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

func (v *VAD) Destroy() {
	v.Cancel()
	v.destroy()
	if v.sess != nil {
		_ = v.sess.Close()
		v.sess = nil
	}
}

// Process classifies one audio frame. Frames shorter than
// MinVADFrameSamples or at an unsupported rate are rejected.
func (v *VAD) Process(frame []float32, sampleRate int) (*types.VADResult, error) {
	if len(frame) < MinVADFrameSamples {
		return nil, status.InvalidArgument
	}
	if !rateSupported(sampleRate) {
		return nil, status.InvalidArgument
	}
	release, err := v.beginVerb()
	if err != nil {
		return nil, err
	}
	defer release()
	res, err := v.sess.Process(frame, sampleRate)
	if err != nil {
		verbsTotal.WithLabelValues(v.kind, "error").Inc()
		return nil, err
	}
	verbsTotal.WithLabelValues(v.kind, "ok").Inc()
	return res, nil
}

// Reset clears the detector's accumulated state, e.g. between
// utterances of the same stream.
func (v *VAD) Reset() error {
	release, err := v.beginVerb()
	if err != nil {
		return err
	}
	defer release()
	return v.sess.Reset()
}

func rateSupported(rate int) bool {
	for _, r := range supportedVADRates {
		if r == rate {
			return true
		}
	}
	return false
}
