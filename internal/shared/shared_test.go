package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestHelpers(t *testing.T) {
	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b {
			t.Error("expected distinct ids")
		}
		if _, err := uuid.Parse(a); err != nil {
			t.Errorf("expected a uuid, got %q", a)
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		compact, err := MarshalJSON(map[string]int{"n": 1}, false)
		if err != nil || string(compact) != `{"n":1}` {
			t.Errorf("unexpected compact output %q (%v)", compact, err)
		}

		pretty, err := MarshalJSON(map[string]int{"n": 1}, true)
		if err != nil || !strings.Contains(string(pretty), "\n  \"n\": 1") {
			t.Errorf("unexpected pretty output %q (%v)", pretty, err)
		}
	})

	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		WithLogger(logger, "component", "test").Info("hello")
		if out := buf.String(); !strings.Contains(out, "hello") || !strings.Contains(out, "component=test") {
			t.Errorf("unexpected log output %q", out)
		}
	})
}

func TestBrowserCommand(t *testing.T) {
	original := getRuntime
	t.Cleanup(func() { getRuntime = original })

	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "rundll32"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			getRuntime = func() string { return tt.goos }
			cmd, err := browserCommand("http://localhost:5000")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.HasSuffix(cmd.Path, tt.want) && cmd.Args[0] != tt.want {
				t.Errorf("expected %s, got %v", tt.want, cmd.Args)
			}
			if last := cmd.Args[len(cmd.Args)-1]; last != "http://localhost:5000" {
				t.Errorf("expected url as last argument, got %q", last)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if _, err := browserCommand("http://localhost"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
