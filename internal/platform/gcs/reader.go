package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type Reader struct {
	client *storage.Client
	log    *logger.Logger
}

// NewReader creates a Cloud Storage reader. credentialsFile may be empty to use ADC.
func NewReader(ctx context.Context, log *logger.Logger, credentialsFile string) (*Reader, error) {
	if log == nil {
		return nil, fmt.Errorf("gcs: logger required")
	}
	var opts []option.ClientOption
	if cf := strings.TrimSpace(credentialsFile); cf != "" {
		opts = append(opts, option.WithCredentialsFile(cf))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}
	return &Reader{client: client, log: log.With("client", "GCSReader")}, nil
}

// ParseURI splits "gs://bucket/path/to/object" into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "gs://")
	if !ok {
		return "", "", fmt.Errorf("gcs: not a gs:// uri: %q", uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("gcs: uri must name bucket and object: %q", uri)
	}
	return bucket, object, nil
}

func (r *Reader) ReadAll(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	rc, err := r.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: open %s: %w", uri, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("gcs: read %s: %w", uri, err)
	}
	r.log.Debug("object read", "bucket", bucket, "object", object, "bytes", len(b))
	return b, nil
}

func (r *Reader) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
