// Package tools builds the pebl binaries into a bin directory.
package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"

	"golang.org/x/sync/errgroup"
)

// Commands are the packages Install builds, keyed by binary name.
var Commands = map[string]string{
	"pebl":     "./cmd/pebl",
	"pebl-lsp": "./cmd/pebl-lsp",
}

type InstallOptions struct {
	BinDir string

	// Build compiles pkg to out; go build when nil.
	Build func(ctx context.Context, pkg, out string) error
}

// Install builds every command concurrently and stops at the first failure.
func Install(ctx context.Context, opts InstallOptions) error {
	if opts.BinDir == "" {
		opts.BinDir = "bin"
	}
	if opts.Build == nil {
		opts.Build = goBuild
	}

	if err := os.MkdirAll(opts.BinDir, 0o755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for name, pkg := range Commands {
		out := filepath.Join(opts.BinDir, binaryName(name))
		g.Go(func() error {
			if err := opts.Build(ctx, pkg, out); err != nil {
				return fmt.Errorf("build %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func binaryName(name string) string {
	if goruntime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func goBuild(ctx context.Context, pkg, out string) error {
	cmd := exec.CommandContext(ctx, "go", "build", "-o", out, pkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
