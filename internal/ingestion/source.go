package ingestion

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ObjectReader reads gs:// objects; *gcs.Reader satisfies it.
type ObjectReader interface {
	ReadAll(ctx context.Context, uri string) ([]byte, error)
}

func IsRemote(path string) bool {
	return strings.HasPrefix(strings.TrimSpace(path), "gs://")
}

// ReadSource loads a local file or a gs:// object. objects may be nil when only local
// paths are used.
func ReadSource(ctx context.Context, objects ObjectReader, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("source path required")
	}
	if IsRemote(path) {
		if objects == nil {
			return nil, fmt.Errorf("source %s: cloud storage is not configured", path)
		}
		return objects.ReadAll(ctx, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return b, nil
}
