package upload

import (
	"context"
	"io"
)

// ObjectStore stores uploaded bytes under a name.
type ObjectStore interface {
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
}
