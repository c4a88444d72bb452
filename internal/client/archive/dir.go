package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes objects under a local directory, one file per key.
type DirSink struct {
	root string
}

// NewDirSink creates root if needed. A relative root is resolved against
// the working directory.
func NewDirSink(root string) (*DirSink, error) {
	dir, err := ensureDir(root)
	if err != nil {
		return nil, err
	}
	return &DirSink{root: dir}, nil
}

func (d *DirSink) Root() string { return d.root }

func (d *DirSink) Put(ctx context.Context, key string, body []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(d.root, filepath.FromSlash(key))
	if _, err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func ensureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
