// Package file stores each daily digest as a plain-text file named
// YYYY-MM-DD.txt under a base directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/final0920/mcp-worklog/internal/digest"
	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/storage"
)

const fileExtension = ".txt"

// Store implements worklog.Storage on the local file system.
type Store struct {
	baseDir string
}

// New returns a Store rooted at baseDir, creating the directory if needed.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage path must not be empty")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Path returns the file that holds the digest for date.
func (s *Store) Path(date time.Time) string {
	return filepath.Join(s.baseDir, date.Format(model.DateLayout)+fileExtension)
}

// Save renders d and replaces the digest file atomically: the text goes to a
// temporary file in the same directory which is then renamed over the target.
func (s *Store) Save(ctx context.Context, d *model.Digest) (_ string, err error) {
	defer func() { storage.ObserveSave("file", err) }()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := s.Path(d.Date)

	tmp, err := os.CreateTemp(s.baseDir, ".digest-*"+fileExtension)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(digest.Format(d)); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write digest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("sync digest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close digest: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod digest: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return "", fmt.Errorf("replace digest: %w", err)
	}
	return target, nil
}

// Load parses the digest file for date. It returns model.ErrNotFound when the
// file does not exist.
func (s *Store) Load(ctx context.Context, date time.Time) (*model.Digest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path(date))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read digest: %w", err)
	}
	return digest.Parse(string(b), date), nil
}

// Exists reports whether a digest file exists for date.
func (s *Store) Exists(ctx context.Context, date time.Time) (bool, error) {
	_, err := os.Stat(s.Path(date))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HealthPing checks that the base directory is still present.
func (s *Store) HealthPing(ctx context.Context) error {
	info, err := os.Stat(s.baseDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.baseDir)
	}
	return nil
}

// Close is a no-op; it lets Store share the io.Closer shape of other drivers.
func (s *Store) Close() error { return nil }
