package datastore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type (
	DiskDataStore struct {
		rootPath string
	}
)

func NewDiskDataStore(rootPath string) (*DiskDataStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	dds := &DiskDataStore{
		rootPath: rootPath,
	}

	return dds, nil
}

func (dds *DiskDataStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key escapes data store root: %s", key)
	}
	return filepath.Join(dds.rootPath, clean), nil
}

func (dds *DiskDataStore) WriteFile(_ context.Context, key string, r io.Reader) (int64, error) {
	p, err := dds.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return 0, fmt.Errorf("error in os.Create: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("error in io.Copy: %w", err)
	}
	logger.Debug().Str("path", p).Int64("bytes", n).Msg("wrote file to disk")
	return n, f.Close()
}

func (dds *DiskDataStore) ReadFile(_ context.Context, key string) ([]byte, error) {
	p, err := dds.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	return b, nil
}

// Path is the filesystem path a key is stored at.
func (dds *DiskDataStore) Path(key string) (string, error) {
	return dds.path(key)
}

func (dds *DiskDataStore) Shutdown(context.Context) error {
	return nil
}
