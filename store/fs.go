package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
)

const fileExt = ".vf.xml"

// Dir stores each index as a file below a root directory. Keys are
// path escaped into file names.
type Dir struct {
	root   string
	umask  int
	logger *slog.Logger
}

var _ Store = (*Dir)(nil)

// OpenDir opens or creates a directory store. umask is applied to the
// permissions of created files and directories. If logger is nil,
// slog.Default() is used.
func OpenDir(root string, umask int, logger *slog.Logger) (*Dir, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dir{root: root, umask: umask, logger: logger}
	if err := os.MkdirAll(root, fs.FileMode(0755)&^fs.FileMode(umask)); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", root, err)
	}
	return d, nil
}

// Root returns the store directory.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) path(key string) string {
	return filepath.Join(d.root, url.PathEscape(key)+fileExt)
}

func (d *Dir) Has(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

// Put writes to a temporary file first and then renames it over the
// target.
func (d *Dir) Put(_ context.Context, key string, data []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	p := d.path(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, fs.FileMode(0644)&^fs.FileMode(d.umask)); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	d.logger.Debug("index stored", "key", key, "path", p, "bytes", len(data))
	return nil
}

func (d *Dir) Close() error {
	return nil
}
