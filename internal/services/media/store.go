package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrFileNotFound is returned when a stored file does not exist
	ErrFileNotFound = errors.New("media file not found")
	// ErrInvalidFilename is returned for names that could escape the media root
	ErrInvalidFilename = errors.New("invalid media filename")
)

const (
	originalPrefix = "video-"
	derivedPrefix  = "depth-"
)

// StoredFile describes a file written by Store
type StoredFile struct {
	Name string
	Size int64
}

// Store owns placement of original uploads and derived depth videos
type Store interface {
	// Store persists an upload under a new collision-resistant name keeping the original extension
	Store(ctx context.Context, r io.Reader, originalName string) (StoredFile, error)

	// Open returns a reader for a stored file
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Path returns the location of a stored file (absolute path or object URL)
	Path(name string) string

	// Delete removes a stored file, returning ErrFileNotFound if it is missing
	Delete(ctx context.Context, name string) error

	// WriteDerived persists a derived artifact; the file is either complete or absent
	WriteDerived(ctx context.Context, r io.Reader, ext string) (string, error)
}

// NewOriginalName returns a unique name for an uploaded file
func NewOriginalName(originalName string) string {
	return originalPrefix + uuid.NewString() + sanitizeExt(filepath.Ext(originalName))
}

// NewDerivedName returns a unique name for a derived artifact
func NewDerivedName(ext string) string {
	return derivedPrefix + uuid.NewString() + sanitizeExt(ext)
}

// sanitizeExt lowercases ext and drops it unless it is a short alphanumeric suffix
func sanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if len(ext) == 1 {
		return ""
	}
	return ext
}

// validateName rejects empty names and anything that is not a bare file name
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}
