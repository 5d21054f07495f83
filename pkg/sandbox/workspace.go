package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// workspace is a per-run scratch directory containing only the generated
// source file (spec.md §4.4): no cross-iteration cleanup race, since each
// workspace is unique and removed on return.
type workspace struct {
	dir        string
	sourcePath string
}

func newWorkspace(baseDir, filename, source string) (*workspace, error) {
	dir := filepath.Join(baseDir, "run-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create scratch dir: %v", ErrWorkspaceSetup, err)
	}

	sourcePath := filepath.Join(dir, filename)
	if err := os.WriteFile(sourcePath, []byte(source), 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: write source file: %v", ErrWorkspaceSetup, err)
	}

	return &workspace{dir: dir, sourcePath: sourcePath}, nil
}

func (w *workspace) cleanup() {
	os.RemoveAll(w.dir)
}
