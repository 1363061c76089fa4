package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	Info("hidden", "k", "v")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at WARN, got %q", buf.String())
	}

	Warn("unknown place", "title", "Konsert", "location", "Nowhere")
	out := buf.String()
	for _, want := range []string{"unknown place", "title=Konsert", "location=Nowhere", "level=warning"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	buf.Reset()
	Error("load failed", errors.New("boom"), "source", "events")
	if !strings.Contains(buf.String(), "err=boom") {
		t.Errorf("error field missing: %q", buf.String())
	}
}

func TestFieldsOddArgs(t *testing.T) {
	f := fields("a", 1, "dangling")
	if len(f) != 1 || f["a"] != 1 {
		t.Fatalf("unexpected fields %v", f)
	}
}
