package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInstallBuildsEveryCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bin")
	var mu sync.Mutex
	var built []string
	err := Install(context.Background(), InstallOptions{
		BinDir: dir,
		Build: func(_ context.Context, pkg, out string) error {
			mu.Lock()
			defer mu.Unlock()
			built = append(built, pkg+" -> "+strings.TrimSuffix(filepath.Base(out), ".exe"))
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	sort.Strings(built)
	want := []string{"./cmd/pebl -> pebl", "./cmd/pebl-lsp -> pebl-lsp"}
	if diff := cmp.Diff(want, built); diff != "" {
		t.Fatalf("builds mismatch (-want +got):\n%s", diff)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("bin dir not created: %v", err)
	}
}

func TestInstallReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	err := Install(context.Background(), InstallOptions{
		BinDir: t.TempDir(),
		Build: func(_ context.Context, pkg, _ string) error {
			if pkg == "./cmd/pebl-lsp" {
				return boom
			}
			return nil
		},
	})
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "build pebl-lsp") {
		t.Fatalf("got %v", err)
	}
}
