package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pebl/internal/spectest"
)

func TestIsTestFile(t *testing.T) {
	sep := string(os.PathSeparator)
	tests := []struct {
		path string
		want bool
	}{
		{"stroop.test.pbl", true},
		{"stroop.pbl", false},
		{"tests" + sep + "flanker.pbl", true},
		{"x" + sep + "tests" + sep + "fixtures" + sep + "data.pbl", false},
		{"tests" + sep + "notes.txt", false},
	}
	for _, tt := range tests {
		if got := isTestFile(tt.path); got != tt.want {
			t.Fatalf("isTestFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestCollectTestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a.test.pbl",
		"main.pbl",
		filepath.Join("fixtures", "b.test.pbl"),
		filepath.Join("sub", "c.test.pbl"),
	} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("define Start(p)\n{\n}\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files, err := collectTestFiles([]string{dir, filepath.Join(dir, "a.test.pbl")})
	if err != nil {
		t.Fatalf("collectTestFiles: %v", err)
	}
	want := []string{filepath.Join(dir, "a.test.pbl"), filepath.Join(dir, "sub", "c.test.pbl")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTestFile(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden.txt")
	if err := os.WriteFile(golden, []byte("1\n2\n3\n"), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}

	tests := []struct {
		name   string
		src    string
		passes bool
	}{
		{"exact", "# expect: stdout \"hi\\n\"\ndefine Start(p)\n{\n  Print(\"hi\")\n}\n", true},
		{"file", "# expect: stdout file \"golden.txt\"\ndefine Start(p)\n{\n  loop(i, 3) {\n    Print(i)\n  }\n}\n", true},
		{"wrong stdout", "# expect: stdout \"bye\\n\"\ndefine Start(p)\n{\n  Print(\"hi\")\n}\n", false},
		{"error", "# expect: error contains \"Division by zero\"\ndefine Start(p)\n{\n  x <- 1 / 0\n}\n", true},
		{"unexpected error", "define Start(p)\n{\n  x <- 1 / 0\n}\n", false},
		{"expected error", "# expect: error\ndefine Start(p)\n{\n}\n", false},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".test.pbl")
		if err := os.WriteFile(path, []byte(tt.src), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		for _, mode := range []spectest.Mode{spectest.ModeRecursive, spectest.ModeIterative} {
			ok, reason := runTestFile(path, spectest.Options{Mode: mode})
			if ok != tt.passes {
				t.Fatalf("%s (%s): ok=%v reason=%q", tt.name, mode, ok, reason)
			}
		}
	}
}
