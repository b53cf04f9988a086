package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// FilesystemStore implements Store on a local directory
type FilesystemStore struct {
	basePath string
}

// NewFilesystemStore creates the base directory if needed
func NewFilesystemStore(basePath string) (*FilesystemStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &FilesystemStore{basePath: absPath}, nil
}

// Store writes an upload atomically under a generated name
func (s *FilesystemStore) Store(ctx context.Context, r io.Reader, originalName string) (StoredFile, error) {
	name := NewOriginalName(originalName)
	n, err := s.writeAtomic(ctx, name, r)
	if err != nil {
		return StoredFile{}, err
	}
	return StoredFile{Name: name, Size: n}, nil
}

// WriteDerived writes a derived artifact atomically under a generated name
func (s *FilesystemStore) WriteDerived(ctx context.Context, r io.Reader, ext string) (string, error) {
	name := NewDerivedName(ext)
	if _, err := s.writeAtomic(ctx, name, r); err != nil {
		return "", err
	}
	return name, nil
}

func (s *FilesystemStore) writeAtomic(ctx context.Context, name string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pending, err := renameio.NewPendingFile(s.Path(name), renameio.WithPermissions(0644))
	if err != nil {
		return 0, fmt.Errorf("failed to create pending file: %w", err)
	}
	// No-op once the file has been committed
	defer pending.Cleanup()

	n, err := io.Copy(pending, r)
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return n, nil
}

// Open opens a stored file for reading; the returned *os.File supports seeking
func (s *FilesystemStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	file, err := os.Open(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return file, nil
}

// Path returns the absolute path of a stored file
func (s *FilesystemStore) Path(name string) string {
	return filepath.Join(s.basePath, filepath.Base(name))
}

// Delete removes a stored file
func (s *FilesystemStore) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if err := os.Remove(s.Path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}
