package platform

import (
	"testing"

	"mlbridge/pkg/status"
)

func TestSetNilRejected(t *testing.T) {
	if err := Set(nil); !status.IsInvalidArgument(err) {
		t.Fatalf("Set(nil) = %v, want invalid argument", err)
	}
}

func TestFallbacksWithoutAdapter(t *testing.T) {
	Reset()
	if Installed() {
		t.Fatalf("adapter installed after Reset")
	}
	if now := NowMS(); now <= 0 {
		t.Fatalf("NowMS fallback = %d", now)
	}
	if _, err := FileRead("x"); !status.IsAdapterNotSet(err) {
		t.Fatalf("FileRead without adapter = %v, want adapter not set", err)
	}
	if err := SecureSet("k", "v"); !status.IsAdapterNotSet(err) {
		t.Fatalf("SecureSet without adapter = %v, want adapter not set", err)
	}
	// Must not panic.
	Log(LevelInfo, "test", "no adapter installed")
}

type panicAdapter struct{ LocalAdapter }

func (p *panicAdapter) FileRead(string) ([]byte, error) { panic("host bug") }
func (p *panicAdapter) Log(LogLevel, string, string)    { panic("host bug") }

func TestAdapterPanicContained(t *testing.T) {
	t.Cleanup(Reset)
	if err := Set(&panicAdapter{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := FileRead("x"); status.From(err) != status.StorageError {
		t.Fatalf("panicking FileRead = %v, want storage error", err)
	}
	// Panicking logger must not unwind through Log.
	Log(LevelError, "test", "contained")
}

func TestLocalAdapterFileRoundTrip(t *testing.T) {
	t.Cleanup(Reset)
	la, err := NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalAdapter: %v", err)
	}
	if err := Set(la); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if FileExists("a/b.txt") {
		t.Fatalf("file exists before write")
	}
	if err := FileWrite("a/b.txt", []byte("hello")); err != nil {
		t.Fatalf("FileWrite: %v", err)
	}
	got, err := FileRead("a/b.txt")
	if err != nil || string(got) != "hello" {
		t.Fatalf("FileRead = %q, %v", got, err)
	}
	if err := FileDelete("a/b.txt"); err != nil {
		t.Fatalf("FileDelete: %v", err)
	}
	if _, err := FileRead("a/b.txt"); status.From(err) != status.FileNotFound {
		t.Fatalf("read after delete = %v, want file not found", err)
	}
}

func TestLocalAdapterSecureStore(t *testing.T) {
	la, err := NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalAdapter: %v", err)
	}
	if _, err := la.SecureGet("tok"); !status.IsNotFound(err) {
		t.Fatalf("SecureGet on empty = %v", err)
	}
	if err := la.SecureSet("tok", "abc"); err != nil {
		t.Fatalf("SecureSet: %v", err)
	}
	if v, err := la.SecureGet("tok"); err != nil || v != "abc" {
		t.Fatalf("SecureGet = %q, %v", v, err)
	}
	if err := la.SecureDelete("tok"); err != nil {
		t.Fatalf("SecureDelete: %v", err)
	}
	if err := la.SecureDelete("tok"); !status.IsNotFound(err) {
		t.Fatalf("double delete = %v, want not found", err)
	}
}
