package archive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"github.com/doctriage-lab/grammateus/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/googleapi"
)

// GCS archives payloads in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ Archive = (*GCS)(nil)

// GCSOption is a functional option for GCS configuration
type GCSOption func(*GCS)

// WithObjectPrefix prepends a prefix to every object name
func WithObjectPrefix(prefix string) GCSOption {
	return func(x *GCS) {
		x.prefix = prefix
	}
}

// NewGCS creates a Cloud Storage archive over the given bucket
func NewGCS(ctx context.Context, bucket string, opts ...GCSOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	x := &GCS{
		client: client,
		bucket: bucket,
	}
	for _, opt := range opts {
		opt(x)
	}

	return x, nil
}

// Put writes the payload only when the object does not already exist.
// Archive keys are derived from the document ID, so a duplicate write is a
// replay and counts as success.
func (x *GCS) Put(ctx context.Context, key string, data []byte) error {
	object := x.client.Bucket(x.bucket).Object(x.objectName(key))
	writer := object.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			return nil
		}
		return goerr.Wrap(err, "failed to write archive object", goerr.V("key", key))
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			return nil
		}
		return goerr.Wrap(err, "failed to finalize archive object", goerr.V("key", key))
	}

	return nil
}

// Fetch reads the payload stored under key
func (x *GCS) Fetch(ctx context.Context, key string) ([]byte, error) {
	reader, err := x.client.Bucket(x.bucket).Object(x.objectName(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrNotFound, "no archived payload", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to open archive object", goerr.V("key", key))
	}
	defer safe.Close(ctx, reader)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read archive object", goerr.V("key", key))
	}

	return data, nil
}

// Close releases the underlying storage client
func (x *GCS) Close() error {
	return x.client.Close()
}

func (x *GCS) objectName(key string) string {
	if x.prefix == "" {
		return key
	}
	return path.Join(x.prefix, key)
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
