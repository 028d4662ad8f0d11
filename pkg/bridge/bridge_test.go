package bridge

import (
	"context"
	"testing"

	"mlbridge/internal/component"
	"mlbridge/internal/platform"
	"mlbridge/internal/sdkcfg"
	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

type scriptEngine struct{ script []string }

func (e scriptEngine) Start(string) (component.LLMSession, error) {
	return scriptSession{script: e.script}, nil
}

type scriptSession struct{ script []string }

func (s scriptSession) Generate(ctx context.Context, prompt string, opts types.GenerationOptions, onToken func(string) error) (*types.LLMResult, error) {
	for _, tok := range s.script {
		if err := onToken(tok); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
func (s scriptSession) ContextSize() int                  { return 0 }
func (s scriptSession) Tokenize(string) (int, error)      { return 0, status.NotFound }
func (s scriptSession) LoadLora(string, float32) error    { return nil }
func (s scriptSession) RemoveLora(string) error           { return nil }
func (s scriptSession) ClearLora() error                  { return nil }
func (s scriptSession) Loras() []types.LoraInfo           { return nil }
func (s scriptSession) Close() error                      { return nil }

func TestInvalidHandleRejectedWithoutSideEffects(t *testing.T) {
	if err := LLMLoadModel(InvalidHandle, "/m.gguf", "m1", nil); !status.IsInvalidHandle(err) {
		t.Fatalf("load on invalid handle = %v", err)
	}
	if _, err := LLMGenerate(InvalidHandle, "hi", types.GenerationOptions{}); !status.IsInvalidHandle(err) {
		t.Fatalf("generate on invalid handle = %v", err)
	}
	if _, err := ModelRegistryGetAll(Handle(999999)); !status.IsInvalidHandle(err) {
		t.Fatalf("unknown handle = %v", err)
	}
	// Destroy of the invalid handle is a no-op, not a crash.
	LLMDestroy(InvalidHandle)
	ModelRegistryDestroy(InvalidHandle)
	TelemetryDestroy(InvalidHandle)
}

func TestHandleKindMismatchIsInvalidHandle(t *testing.T) {
	h := NewModelRegistry()
	defer ModelRegistryDestroy(h)
	// A registry handle is not an LLM handle.
	if err := LLMLoadModel(h, "/m.gguf", "m1", nil); !status.IsInvalidHandle(err) {
		t.Fatalf("cross-kind use = %v", err)
	}
}

func TestLLMRoundTripThroughHandles(t *testing.T) {
	h, err := NewLLM(scriptEngine{script: []string{"hi", " there"}})
	if err != nil {
		t.Fatalf("NewLLM: %v", err)
	}
	defer LLMDestroy(h)
	if err := LLMLoadModel(h, "/models/m.gguf", "m1", nil); err != nil {
		t.Fatalf("LLMLoadModel: %v", err)
	}
	st, err := LLMState(h)
	if err != nil || st != component.StateLoaded {
		t.Fatalf("state = %v, %v", st, err)
	}
	var streamed string
	res, err := LLMGenerateStream(h, "hello", types.GenerationOptions{}, TokenSinkFunc(func(tok []byte) bool {
		streamed += string(tok)
		return true
	}))
	if err != nil {
		t.Fatalf("LLMGenerateStream: %v", err)
	}
	if streamed != "hi there" || res.Text != "hi there" {
		t.Fatalf("streamed %q, result %q", streamed, res.Text)
	}
	m, err := LLMMetrics(h)
	if err != nil || m.SuccessfulLoads != 1 {
		t.Fatalf("metrics = %+v, %v", m, err)
	}
	if err := LLMUnload(h); err != nil {
		t.Fatalf("LLMUnload: %v", err)
	}
}

func TestDestroyReleasesHandle(t *testing.T) {
	before := liveHandles()
	h, err := NewLLM(scriptEngine{})
	if err != nil {
		t.Fatalf("NewLLM: %v", err)
	}
	if liveHandles() != before+1 {
		t.Fatalf("handle not added")
	}
	LLMDestroy(h)
	if liveHandles() != before {
		t.Fatalf("handle not released")
	}
	if err := LLMLoadModel(h, "/m.gguf", "m1", nil); !status.IsInvalidHandle(err) {
		t.Fatalf("use after destroy = %v", err)
	}
	// Double destroy is a no-op.
	LLMDestroy(h)
}

func TestRegistryThroughHandles(t *testing.T) {
	h := NewModelRegistry()
	defer ModelRegistryDestroy(h)
	entry := &types.ModelEntry{ModelID: "m1", Name: "Model One", Format: "gguf"}
	if err := ModelRegistryRegister(h, entry); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := ModelRegistryGet(h, "m1")
	if err != nil || got.Name != "Model One" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if err := ModelRegistryUpdateDownloadStatus(h, "m1", "/models/m1.gguf"); err != nil {
		t.Fatalf("UpdateDownloadStatus: %v", err)
	}
	dl, err := ModelRegistryGetDownloaded(h)
	if err != nil || len(dl) != 1 {
		t.Fatalf("GetDownloaded = %v, %v", dl, err)
	}

	lh := NewLoraRegistry()
	defer LoraRegistryDestroy(lh)
	if err := LoraRegistryRegister(lh, &types.LoraEntry{ID: "l1", CompatibleModelIDs: []string{"m1"}}); err != nil {
		t.Fatalf("LoraRegister: %v", err)
	}
	matches, err := LoraRegistryGetForModel(lh, "m1")
	if err != nil || len(matches) != 1 {
		t.Fatalf("GetForModel = %v, %v", matches, err)
	}
}

func TestTelemetryBindAndDestroyUnbinds(t *testing.T) {
	h, err := NewTelemetry("production", "d1", "android", "1.0.0")
	if err != nil {
		t.Fatalf("NewTelemetry: %v", err)
	}
	if err := AnalyticsBindTelemetry(h); err != nil {
		t.Fatalf("AnalyticsBindTelemetry: %v", err)
	}
	if err := TelemetryTrack(h, TelemetryEvent{Type: "x"}); err != nil {
		t.Fatalf("TelemetryTrack: %v", err)
	}
	delivered := 0
	if err := TelemetrySetHTTPCallback(h, func(string, string, bool) error {
		delivered++
		return nil
	}); err != nil {
		t.Fatalf("SetHTTPCallback: %v", err)
	}
	TelemetryDestroy(h)
	if delivered != 1 {
		t.Fatalf("destroy did not flush: %d", delivered)
	}
	if err := TelemetryTrack(h, TelemetryEvent{Type: "y"}); !status.IsInvalidHandle(err) {
		t.Fatalf("track after destroy = %v", err)
	}
	// Binding to the invalid handle unregisters; must not error.
	if err := AnalyticsBindTelemetry(InvalidHandle); err != nil {
		t.Fatalf("unbind: %v", err)
	}
}

func TestIsLoadedThroughHandles(t *testing.T) {
	h, err := NewLLM(scriptEngine{script: []string{"x"}})
	if err != nil {
		t.Fatalf("NewLLM: %v", err)
	}
	if loaded, err := LLMIsLoaded(h); err != nil || loaded {
		t.Fatalf("IsLoaded before load = %v, %v", loaded, err)
	}
	if err := LLMLoadModel(h, "/models/m.gguf", "m1", nil); err != nil {
		t.Fatalf("LLMLoadModel: %v", err)
	}
	if loaded, err := LLMIsLoaded(h); err != nil || !loaded {
		t.Fatalf("IsLoaded after load = %v, %v", loaded, err)
	}
	if err := LLMUnload(h); err != nil {
		t.Fatalf("LLMUnload: %v", err)
	}
	if loaded, err := LLMIsLoaded(h); err != nil || loaded {
		t.Fatalf("IsLoaded after unload = %v, %v", loaded, err)
	}
	LLMDestroy(h)
	if _, err := LLMIsLoaded(h); !status.IsInvalidHandle(err) {
		t.Fatalf("IsLoaded after destroy = %v", err)
	}
}

func withBridgeAdapter(t *testing.T) {
	t.Helper()
	a, err := platform.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalAdapter: %v", err)
	}
	if err := platform.Set(a); err != nil {
		t.Fatalf("platform.Set: %v", err)
	}
	t.Cleanup(platform.Reset)
}

func TestRegistryPersistThroughHandles(t *testing.T) {
	withBridgeAdapter(t)
	h := NewModelRegistry()
	defer ModelRegistryDestroy(h)
	if err := ModelRegistryRegister(h, &types.ModelEntry{ModelID: "m1", Name: "Model One", Format: "gguf"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := ModelRegistrySave(h, "models.json"); err != nil {
		t.Fatalf("ModelRegistrySave: %v", err)
	}

	h2 := NewModelRegistry()
	defer ModelRegistryDestroy(h2)
	n, err := ModelRegistryLoad(h2, "models.json")
	if err != nil || n != 1 {
		t.Fatalf("ModelRegistryLoad = %d, %v", n, err)
	}
	got, err := ModelRegistryGet(h2, "m1")
	if err != nil || got.Name != "Model One" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if err := ModelRegistrySave(InvalidHandle, "x.json"); !status.IsInvalidHandle(err) {
		t.Fatalf("save on invalid handle = %v", err)
	}
}

type stubVADEngine struct{ resets int }

func (e *stubVADEngine) Start(string) (component.VADSession, error) {
	return &stubVADSession{e: e}, nil
}

type stubVADSession struct{ e *stubVADEngine }

func (s *stubVADSession) Process([]float32, int) (*types.VADResult, error) {
	return &types.VADResult{}, nil
}
func (s *stubVADSession) Reset() error { s.e.resets++; return nil }
func (s *stubVADSession) Close() error { return nil }

func TestVADThroughHandles(t *testing.T) {
	if VADMinFrameSize() != component.MinVADFrameSamples {
		t.Fatalf("VADMinFrameSize = %d", VADMinFrameSize())
	}
	rates := VADSupportedSampleRates()
	if len(rates) == 0 || rates[0] != 16000 {
		t.Fatalf("rates = %v", rates)
	}
	e := &stubVADEngine{}
	h, err := NewVAD(e)
	if err != nil {
		t.Fatalf("NewVAD: %v", err)
	}
	defer VADDestroy(h)
	if err := VADLoadModel(h, "/models/vad.bin", "vad1", nil); err != nil {
		t.Fatalf("VADLoadModel: %v", err)
	}
	if err := VADReset(h); err != nil {
		t.Fatalf("VADReset: %v", err)
	}
	if e.resets != 1 {
		t.Fatalf("resets = %d", e.resets)
	}
	if err := VADReset(InvalidHandle); !status.IsInvalidHandle(err) {
		t.Fatalf("reset on invalid handle = %v", err)
	}
}

func TestSDKShutdownAllowsReinit(t *testing.T) {
	sdkcfg.ResetForTest()
	t.Cleanup(sdkcfg.ResetForTest)

	if err := SDKShutdown(); !status.IsNotInitialized(err) {
		t.Fatalf("shutdown before init = %v", err)
	}
	cfg := SDKConfig{Environment: "production", DeviceID: "d1", SDKVersion: "1.0.0"}
	if err := SDKInit(cfg); err != nil {
		t.Fatalf("SDKInit: %v", err)
	}
	if err := SDKShutdown(); err != nil {
		t.Fatalf("SDKShutdown: %v", err)
	}
	if SDKInitialized() {
		t.Fatalf("still initialized after shutdown")
	}
	if err := SDKInit(cfg); err != nil {
		t.Fatalf("re-init after shutdown: %v", err)
	}
}

type stubAssignmentHost struct{ body string }

func (s stubAssignmentHost) HTTPGet(endpoint string, requiresAuth bool) string { return s.body }

func TestAssignmentThroughBridge(t *testing.T) {
	host := stubAssignmentHost{body: `[{"id":"m1","name":"Model One","category":"llm"}]`}
	if err := AssignmentSetCallbacks(host, false); err != nil {
		t.Fatalf("AssignmentSetCallbacks: %v", err)
	}
	models, err := AssignmentFetch(false)
	if err != nil || len(models) != 1 || models[0].ModelID != "m1" {
		t.Fatalf("AssignmentFetch = %v, %v", models, err)
	}
	if err := AssignmentSetCallbacks(nil, false); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := AssignmentFetch(false); !status.IsNotInitialized(err) {
		t.Fatalf("fetch after clear = %v", err)
	}
}

func TestStatusOf(t *testing.T) {
	if StatusOf(nil) != status.OK {
		t.Fatalf("StatusOf(nil)")
	}
	if StatusOf(status.InvalidHandle) != status.InvalidHandle {
		t.Fatalf("StatusOf passthrough")
	}
}
