// Package storage provides the working-file layout for the service: uploaded
// inputs, finished videos, and render scratch space. It defines the Storage
// port plus implementations for local disk and an optional S3 archive.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for working-file storage.
// Implementations must handle uploaded input files and finished videos on
// local disk, and may additionally support archiving finished videos to S3.
type Storage interface {
	// SaveUpload writes an uploaded input blob to the uploads directory and
	// returns the file path. The name parameter is used as a filename hint.
	SaveUpload(ctx context.Context, name string, data io.Reader) (path string, err error)

	// VideoPath returns the output path for a finished video filename.
	VideoPath(filename string) string

	// TempDir returns the scratch directory for per-render temporaries.
	TempDir() string

	// Cleanup removes the specified files, continuing past individual
	// failures and returning the first error encountered.
	Cleanup(ctx context.Context, paths []string) error

	// Archive uploads a finished video to the archive backend and returns
	// its URL. Returns ErrArchiveNotConfigured when no backend is set up.
	Archive(ctx context.Context, key string, data io.Reader) (url string, err error)
}
