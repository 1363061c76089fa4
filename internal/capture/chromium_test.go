package capture

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestOptionsDefaults(t *testing.T) {
	o, err := Options{URL: "http://127.0.0.1:8080/", OutputPath: "out.png"}.withDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != 30*time.Second {
		t.Errorf("defaults = %+v", o)
	}

	o, _ = Options{URL: "u", OutputPath: "p", Width: 800, Height: 600, Timeout: time.Second}.withDefaults()
	if o.Width != 800 || o.Height != 600 || o.Timeout != time.Second {
		t.Errorf("explicit values overwritten: %+v", o)
	}
}

func TestSnapshotRequiresTarget(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{Options{OutputPath: "out.png"}, "URL is required"},
		{Options{URL: "http://127.0.0.1:8080/"}, "OutputPath is required"},
	}
	for _, tt := range tests {
		err := SnapshotPNG(context.Background(), tt.opts)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("err = %v, want %q", err, tt.want)
		}
	}
}
