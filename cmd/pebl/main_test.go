package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pebl/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveRunTargetDirectory(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, config.ManifestName), "entry: task.pbl\nmode: recursive\nlimits:\n  max_steps: 50\n")

	man, err := resolveRunTarget(project)
	if err != nil {
		t.Fatalf("resolveRunTarget: %v", err)
	}
	if got := man.EntryPath(); got != filepath.Join(project, "task.pbl") {
		t.Fatalf("entry = %s", got)
	}
	if man.Mode != config.ModeRecursive || man.Limits.MaxSteps != 50 {
		t.Fatalf("manifest not applied: %+v", man)
	}
}

func TestResolveRunTargetScript(t *testing.T) {
	project := t.TempDir()
	script := filepath.Join(project, "other.pbl")
	writeFile(t, script, "define Start(p)\n{\n}\n")

	man, err := resolveRunTarget(script)
	if err != nil {
		t.Fatalf("resolveRunTarget: %v", err)
	}
	if man.EntryPath() != script || man.Mode != config.ModeIterative {
		t.Fatalf("unexpected manifest %+v", man)
	}

	writeFile(t, filepath.Join(project, config.ManifestName), "entry: main.pbl\nlog_level: debug\n")
	man, err = resolveRunTarget(script)
	if err != nil {
		t.Fatalf("resolveRunTarget: %v", err)
	}
	if man.EntryPath() != script || man.LogLevel != "debug" {
		t.Fatalf("sibling manifest not applied: %+v", man)
	}
}

func TestResolveRunTargetErrors(t *testing.T) {
	project := t.TempDir()
	if _, err := resolveRunTarget(filepath.Join(project, "missing.pbl")); err == nil || !strings.Contains(err.Error(), "path not found") {
		t.Fatalf("expected path not found, got %v", err)
	}
	if _, err := resolveRunTarget(project); err == nil {
		t.Fatalf("expected an error for a directory without %s", config.ManifestName)
	}
	writeFile(t, filepath.Join(project, config.ManifestName), "entry: main.pbl\nmode: fast\n")
	if _, err := resolveRunTarget(project); err == nil || !strings.Contains(err.Error(), "mode must be") {
		t.Fatalf("expected mode error, got %v", err)
	}
}

func TestLintFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task.pbl")
	writeFile(t, path, "define Start(p)\n{\n  x <- 1\n}\n")
	diags, err := lintFile(path)
	if err != nil {
		t.Fatalf("lintFile: %v", err)
	}
	if len(diags) != 1 || diags[0].Code != "PL0001" {
		t.Fatalf("unexpected diagnostics %+v", diags)
	}

	writeFile(t, path, "define Start(p)\n{\n  x <- \n}\n")
	diags, err = lintFile(path)
	if err != nil {
		t.Fatalf("lintFile: %v", err)
	}
	if len(diags) == 0 || diags[0].Code != "PB0001" {
		t.Fatalf("expected a parse error, got %+v", diags)
	}
}

func TestCollectScriptFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "a.pbl"), "")
	writeFile(t, filepath.Join(dir, "b.txt"), "")
	writeFile(t, filepath.Join(dir, ".git", "c.pbl"), "")

	files, err := collectScriptFiles([]string{dir})
	if err != nil {
		t.Fatalf("collectScriptFiles: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "a.pbl" {
		t.Fatalf("files = %v", files)
	}
}

func TestStartParams(t *testing.T) {
	if got := startParams([]string{"-s", "12"}).Inspect(); got != "[-s, 12]" {
		t.Fatalf("got %s", got)
	}
	if got := startParams(nil).Inspect(); got != "[]" {
		t.Fatalf("got %s", got)
	}
}
