package render

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"clipforge/internal/services"
)

// Workspace is a per-export scratch directory under the staging root. A
// file lock keyed on the short id serializes concurrent exports of the same
// short while unrelated exports proceed in parallel; Close releases the lock
// and removes the scratch tree even when the render failed.
type Workspace struct {
	Dir  string
	lock *flock.Flock
}

// OpenWorkspace acquires the short's staging lock and creates a fresh
// scratch directory for one export.
func OpenWorkspace(ctx context.Context, stagingDir, shortID string) (*Workspace, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "render", "workspace", "create staging dir", err)
	}

	lock := flock.New(filepath.Join(stagingDir, "."+sanitizeID(shortID)+".lock"))
	acquired, err := lock.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "render", "workspace", "acquire staging lock", err)
	}
	if !acquired {
		return nil, services.Wrap(services.ErrPersistence, "render", "workspace", "staging dir busy", nil)
	}

	dir, err := os.MkdirTemp(stagingDir, "export-"+sanitizeID(shortID)+"-")
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrPersistence, "render", "workspace", "create scratch dir", err)
	}
	return &Workspace{Dir: dir, lock: lock}, nil
}

// ScratchPath returns an absolute path for a scratch file inside the
// workspace.
func (w *Workspace) ScratchPath(name string) string {
	return filepath.Join(w.Dir, name)
}

// Close removes the scratch directory and releases the staging lock.
func (w *Workspace) Close() error {
	if w == nil {
		return nil
	}
	removeErr := os.RemoveAll(w.Dir)
	unlockErr := w.lock.Unlock()
	if removeErr != nil {
		return removeErr
	}
	return unlockErr
}

func sanitizeID(id string) string {
	if id == "" {
		return "short"
	}
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "short"
	}
	return string(out)
}
