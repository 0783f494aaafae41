package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// localStore serves published files straight from the uploads
// directory. Since uploads are staged there already, Publish is a
// rename at most.
type localStore struct {
	root string
}

// NewLocalStore creates a FileStore rooted at dir, creating it if needed.
func NewLocalStore(dir string) (FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &localStore{root: abs}, nil
}

func (s *localStore) Publish(ctx context.Context, key, localPath, contentType string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	src, err := filepath.Abs(localPath)
	if err != nil {
		return err
	}
	if src == dst {
		return nil
	}
	return os.Rename(src, dst)
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *localStore) DownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "", ErrNoDirectURL
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// resolve confines keys to the store root.
func (s *localStore) resolve(key string) (string, error) {
	path := filepath.Join(s.root, filepath.Clean("/"+key))
	if !strings.HasPrefix(path, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return path, nil
}
