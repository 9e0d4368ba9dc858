package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pebl/internal/spectest"
)

func runTest(args []string) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	recursive := fs.Bool("recursive", false, "run tests on the recursive evaluator")
	maxSteps := fs.Int64("max-steps", 0, "step cap per test on the iterative evaluator")
	if err := fs.Parse(args); err != nil {
		fmt.Println("usage: pebl test [--recursive] [--max-steps <n>] [path|dir]...")
		os.Exit(1)
	}

	targets := fs.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	files, err := collectTestFiles(targets)
	if err != nil {
		fmt.Println("test error:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("no tests found")
		return
	}
	sort.Strings(files)

	opts := spectest.Options{Mode: spectest.ModeIterative, MaxSteps: *maxSteps}
	if *recursive {
		opts.Mode = spectest.ModeRecursive
	}

	passed := 0
	failed := 0
	for _, path := range files {
		ok, reason := runTestFile(path, opts)
		if ok {
			passed++
			continue
		}
		failed++
		fmt.Printf("FAIL %s: %s\n", path, reason)
	}
	fmt.Printf("passed %d, failed %d\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func runTestFile(path string, opts spectest.Options) (bool, string) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, err.Error()
	}
	src := string(b)
	exp, err := spectest.ParseExpectation(strings.NewReader(src), path)
	if err != nil {
		return false, err.Error()
	}
	res := spectest.RunSource(path, src, opts)
	ok, reason, err := exp.Check(res, filepath.Dir(path))
	if err != nil {
		return false, err.Error()
	}
	return ok, reason
}

func collectTestFiles(targets []string) ([]string, error) {
	var files []string
	seen := map[string]bool{}
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
		return nil
	}
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if isTestFile(target) {
				if err := add(target); err != nil {
					return nil, err
				}
			}
			continue
		}

		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				base := filepath.Base(path)
				if base == ".git" || base == "node_modules" || base == "fixtures" {
					return filepath.SkipDir
				}
				return nil
			}
			if isTestFile(path) {
				return add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// isTestFile accepts *.test.pbl anywhere and any script under a tests
// directory, except tests/fixtures.
func isTestFile(path string) bool {
	if strings.HasSuffix(path, ".test"+scriptExt) {
		return true
	}
	if !strings.HasSuffix(path, scriptExt) {
		return false
	}
	sep := string(os.PathSeparator)
	if strings.Contains(path, sep+"tests"+sep+"fixtures"+sep) {
		return false
	}
	return strings.Contains(path, sep+"tests"+sep) || strings.HasPrefix(path, "tests"+sep)
}
