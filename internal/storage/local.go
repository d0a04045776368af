package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrArchiveNotConfigured is returned when archive operations are attempted
// without an archive backend.
var ErrArchiveNotConfigured = errors.New("archive storage is not configured")

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// Dirs holds the directory layout for local working files.
type Dirs struct {
	// Uploads receives per-job input copies.
	Uploads string
	// Videos receives finished renders.
	Videos string
	// Temp holds per-render scratch files.
	Temp string
}

// defaults fills empty fields with a layout under the given root.
func (d Dirs) defaults(root string) Dirs {
	if d.Uploads == "" {
		d.Uploads = filepath.Join(root, "uploads")
	}
	if d.Videos == "" {
		d.Videos = filepath.Join(root, "videos")
	}
	if d.Temp == "" {
		d.Temp = filepath.Join(root, "temp")
	}
	return d
}

// LocalStorage implements Storage on local disk. Archive operations are not
// supported unless wrapped with S3Storage.
type LocalStorage struct {
	dirs Dirs
}

// NewLocalStorage creates a LocalStorage with the given directory layout,
// creating any missing directory. Empty fields default to uploads/, videos/,
// and temp/ under a "typebeat" root in os.TempDir().
func NewLocalStorage(dirs Dirs) (*LocalStorage, error) {
	dirs = dirs.defaults(filepath.Join(os.TempDir(), "typebeat"))
	for _, dir := range []string{dirs.Uploads, dirs.Videos, dirs.Temp} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &LocalStorage{dirs: dirs}, nil
}

// UploadsDir returns the uploads directory path.
func (s *LocalStorage) UploadsDir() string {
	return s.dirs.Uploads
}

// TempDir returns the scratch directory path.
func (s *LocalStorage) TempDir() string {
	return s.dirs.Temp
}

// VideoPath returns the output path for a finished video filename.
func (s *LocalStorage) VideoPath(filename string) string {
	return filepath.Join(s.dirs.Videos, filename)
}

// SaveUpload writes an uploaded blob to the uploads directory.
// The name is used as a base for the filename with a unique suffix.
func (s *LocalStorage) SaveUpload(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.dirs.Uploads, name+"_*")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return fileName, nil
}

// Cleanup removes the specified files.
// It continues past individual failures, returning the first error.
func (s *LocalStorage) Cleanup(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// Archive is not supported by LocalStorage and returns ErrArchiveNotConfigured.
func (s *LocalStorage) Archive(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrArchiveNotConfigured
}
