package validate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeScripts(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, src := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestFiles(t *testing.T) {
	paths := writeScripts(t, map[string]string{
		"a_ok.pbl":      "define Start(p)\n{\n  Print(1)\n}\n",
		"b_fatal.pbl":   "define Start(p)\n{\n  x <- 1\n  SignalFatalError(\"broken\")\n  return x\n}\n",
		"c_parse.pbl":   "define Start(p)\n{\n  x <- \n}\n",
		"d_nostart.pbl": "define Other()\n{\n}\n",
		"e_waits.pbl":   "define Start(p)\n{\n  WaitForKeyDown(\"space\")\n}\n",
	})
	results, err := Files(context.Background(), paths, Options{Limit: 2, Run: true, MaxSteps: 5000})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	type summary struct {
		Name   string
		Errors bool
		Fatal  string
	}
	var got []summary
	for _, r := range results {
		s := summary{Name: filepath.Base(r.Path), Errors: r.HasErrors()}
		if r.Fatal != nil {
			s.Fatal = r.Fatal.Message
		}
		got = append(got, s)
	}
	want := []summary{
		{"a_ok.pbl", false, ""},
		{"b_fatal.pbl", true, "broken"},
		{"c_parse.pbl", true, ""},
		{"d_nostart.pbl", true, ""},
		{"e_waits.pbl", false, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	fatal := results[1].Diagnostics
	if len(fatal) != 1 || fatal[0].Code != "PB0100" || fatal[0].Range.Line != 4 {
		t.Fatalf("fatal diagnostics = %+v", fatal)
	}
}

func TestLintFindings(t *testing.T) {
	res := Source(context.Background(), "lint.pbl", "define Start(p)\n{\n  Nope()\n}\n", Options{Lint: true})
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != "PL0005" {
		t.Fatalf("diagnostics = %+v", res.Diagnostics)
	}
	if res.HasErrors() {
		t.Fatalf("lint warnings should not count as errors")
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Files(context.Background(), []string{filepath.Join(t.TempDir(), "gone.pbl")}, Options{})
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
