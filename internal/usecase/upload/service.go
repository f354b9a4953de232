// Package upload stores user images for image search and returns their public URLs.
package upload

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vibesearch/internal/domain"
)

const (
	// DefaultMaxBytes is the largest accepted image.
	DefaultMaxBytes = 10 << 20

	nameRandLen     = 13
	nameAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	uploadFanOut    = 4
	defaultImageExt = "jpg"
)

// File is one image to upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Options configures the Service.
type Options struct {
	PublicBaseURL string
	Bucket        string
	MaxBytes      int64
	Logger        *zap.Logger
}

// Service validates and stores images.
type Service struct {
	store      ObjectStore
	publicBase string
	maxBytes   int64
	logger     *zap.Logger
	now        func() time.Time
	random     func(n int) string
}

// New creates an upload Service. A nil store disables uploads.
func New(store ObjectStore, opts Options) *Service {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	base := strings.TrimRight(opts.PublicBaseURL, "/")
	if opts.Bucket != "" {
		base += "/" + opts.Bucket
	}
	return &Service{
		store:      store,
		publicBase: base,
		maxBytes:   opts.MaxBytes,
		logger:     opts.Logger,
		now:        time.Now,
		random:     randomString,
	}
}

// Enabled reports whether an object store is configured.
func (s *Service) Enabled() bool { return s.store != nil }

// Upload stores one image and returns its public URL. Only image/* content
// up to the size limit is accepted.
func (s *Service) Upload(
	ctx context.Context, name, contentType string, size int64, body io.Reader,
) (string, error) {
	if s.store == nil {
		return "", domain.ErrUploadsDisabled
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", domain.InvalidInput("%s: only image uploads are accepted, got %q", name, contentType)
	}
	if size <= 0 {
		return "", domain.InvalidInput("%s: empty file", name)
	}
	if size > s.maxBytes {
		return "", domain.InvalidInput("%s: file too large (%d bytes, max %d)", name, size, s.maxBytes)
	}

	object := s.objectName(name, mediaType)
	if err := s.store.Put(ctx, object, io.LimitReader(body, size), size, mediaType); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return s.publicBase + "/" + object, nil
}

// UploadMany uploads files concurrently and returns the URLs of those that
// succeeded, in input order. Failed files are logged and dropped.
func (s *Service) UploadMany(ctx context.Context, files []File) []string {
	urls := make([]string, len(files))

	var g errgroup.Group
	g.SetLimit(uploadFanOut)
	for i, f := range files {
		g.Go(func() error {
			u, err := s.Upload(ctx, f.Name, f.ContentType, f.Size, f.Body)
			if err != nil {
				s.logger.Warn("Image upload failed", zap.String("file", f.Name), zap.Error(err))
				return nil
			}
			urls[i] = u
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// objectName is {random}_{unix millis}.{ext}.
func (s *Service) objectName(name, mediaType string) string {
	return fmt.Sprintf("%s_%d.%s", s.random(nameRandLen), s.now().UnixMilli(), extension(name, mediaType))
}

func extension(name, mediaType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), "."); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return defaultImageExt
}

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = nameAlphabet[rand.IntN(len(nameAlphabet))] //nolint:gosec // object names, not secrets
	}
	return string(b)
}
