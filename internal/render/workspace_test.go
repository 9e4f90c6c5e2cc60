package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWorkspaceLifecycle(t *testing.T) {
	staging := filepath.Join(t.TempDir(), "staging")

	ws, err := OpenWorkspace(context.Background(), staging, "short-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir), "export-short-123-") {
		t.Fatalf("scratch dir %q missing short prefix", ws.Dir)
	}

	scratch := ws.ScratchPath("short.mp4")
	if err := os.WriteFile(scratch, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatalf("scratch dir survived close: %v", err)
	}

	// Lock is released, a new workspace can open immediately.
	next, err := OpenWorkspace(context.Background(), staging, "short-456")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := next.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWorkspaceLocksPerShort(t *testing.T) {
	staging := filepath.Join(t.TempDir(), "staging")

	first, err := OpenWorkspace(context.Background(), staging, "short-a")
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	defer first.Close()

	// An unrelated short shares the staging root without contending.
	other, err := OpenWorkspace(context.Background(), staging, "short-b")
	if err != nil {
		t.Fatalf("independent short blocked: %v", err)
	}
	if err := other.Close(); err != nil {
		t.Fatal(err)
	}

	// A second export of the same short waits on the lock.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := OpenWorkspace(ctx, staging, "short-a"); err == nil {
		t.Fatal("same short acquired a held lock")
	}
}

func TestWorkspaceSanitizesID(t *testing.T) {
	ws, err := OpenWorkspace(context.Background(), t.TempDir(), "../../etc/passwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ws.Close()
	if strings.Contains(filepath.Base(ws.Dir), "/") || strings.Contains(filepath.Base(ws.Dir), "..") {
		t.Fatalf("scratch dir %q not sanitized", ws.Dir)
	}
}
