package archive

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// Dir archives payloads in a local directory. It backs development and test
// deployments that have no bucket.
type Dir struct {
	root string
}

var _ Archive = (*Dir)(nil)

// NewDir creates a directory archive rooted at root
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, goerr.New("archive directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create archive directory", goerr.V("root", root))
	}
	return &Dir{root: root}, nil
}

// Put writes the payload under key, creating intermediate directories
func (x *Dir) Put(ctx context.Context, key string, data []byte) error {
	target := x.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create archive subdirectory", goerr.V("key", key))
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write archive file", goerr.V("key", key))
	}
	return nil
}

// Fetch reads the payload stored under key
func (x *Dir) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(x.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrNotFound, "no archived payload", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to read archive file", goerr.V("key", key))
	}
	return data, nil
}

// path maps a key onto the root directory. Keys are cleaned so they cannot
// escape the root.
func (x *Dir) path(key string) string {
	return filepath.Join(x.root, filepath.FromSlash(path.Clean("/"+key)))
}
