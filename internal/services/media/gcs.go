package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOptions selects the bucket used by GCSStore
type GCSOptions struct {
	Bucket string
	Prefix string
	// Endpoint points the client at a storage emulator; credentials are skipped when set
	Endpoint string
}

// GCSStore implements Store on a Cloud Storage bucket
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a storage client for the configured bucket
func NewGCSStore(ctx context.Context, opts GCSOptions) (*GCSStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	client, err := storage.NewClient(ctx, clientOptions(opts.Endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

// clientOptions points the client at an emulator when endpoint is set
func clientOptions(endpoint string) []option.ClientOption {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	}
	return []option.ClientOption{
		option.WithEndpoint(endpoint + "/storage/v1/"),
		option.WithoutAuthentication(),
		storage.WithJSONReads(),
	}
}

// Close releases the storage client
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *GCSStore) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.key(name))
}

// Store uploads a file under a generated name
func (s *GCSStore) Store(ctx context.Context, r io.Reader, originalName string) (StoredFile, error) {
	name := NewOriginalName(originalName)
	n, err := s.write(ctx, name, r)
	if err != nil {
		return StoredFile{}, err
	}
	return StoredFile{Name: name, Size: n}, nil
}

// WriteDerived uploads a derived artifact. GCS objects only become visible once the writer closes.
func (s *GCSStore) WriteDerived(ctx context.Context, r io.Reader, ext string) (string, error) {
	name := NewDerivedName(ext)
	if _, err := s.write(ctx, name, r); err != nil {
		return "", err
	}
	return name, nil
}

func (s *GCSStore) write(ctx context.Context, name string, r io.Reader) (int64, error) {
	// Cancelling the context aborts the upload so no partial object is committed
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.object(name).NewWriter(ctx)
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.ContentType = ct
	}

	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("failed to write %s to gcs: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize %s in gcs: %w", name, err)
	}
	return n, nil
}

// Open returns a reader for an object
func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	rc, err := s.object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("failed to open %s in gcs: %w", name, err)
	}
	return rc, nil
}

// Path returns the gs:// URL of an object
func (s *GCSStore) Path(name string) string {
	return "gs://" + s.bucket + "/" + s.key(name)
}

// Delete removes an object
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if err := s.object(name).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return fmt.Errorf("failed to delete %s in gcs: %w", name, err)
	}
	return nil
}
