package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	src := `name: stroop
entry: tasks/stroop.pbl
mode: recursive
limits:
  max_steps: 5000
window:
  title: Stroop
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	want := Defaults()
	want.Path = path
	want.Name = "stroop"
	want.Entry = "tasks/stroop.pbl"
	want.Mode = ModeRecursive
	want.Limits.MaxSteps = 5000
	want.Window.Title = "Stroop"
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
	if got := m.EntryPath(); got != filepath.Join(dir, "tasks", "stroop.pbl") {
		t.Fatalf("EntryPath = %s", got)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"entri: main.pbl\n", "field entri not found"},
		{"mode: fast\n", `mode must be "recursive" or "iterative"`},
		{"entry: \"\"\n", "missing entry"},
		{"limits:\n  max_steps: -1\n", "limits must not be negative"},
		{"steps_per_frame: 0\n", "steps_per_frame must be positive"},
		{"log_level: loud\n", "log_level"},
	}
	for _, tt := range tests {
		_, err := Decode(strings.NewReader(tt.src))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("Decode(%q) = %v, want error containing %q", tt.src, err, tt.want)
		}
	}
}

func TestEmptyManifestIsDefaults(t *testing.T) {
	m, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(Defaults(), m); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	m := Defaults()
	m.Name = "demo"
	b, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Decode: %v\n%s", err, b)
	}
	if diff := cmp.Diff(m, back); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLogger(t *testing.T) {
	m := Defaults()
	m.LogLevel = "info"
	var buf bytes.Buffer
	log := m.Logger(&buf)
	log.Debug().Msg("hidden")
	log.Info().Str("file", "a.pbl").Msg("loaded")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "loaded") || !strings.Contains(out, "file=a.pbl") {
		t.Fatalf("unexpected log output: %q", out)
	}
}
