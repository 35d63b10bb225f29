// Package storage uploads post images to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"goyfeed/internal/config"
	"goyfeed/internal/middleware"
	"goyfeed/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore turns the image argument of createPost into the stored reference.
type ImageStore interface {
	Resolve(ctx context.Context, image string) (string, error)
}

// PassthroughStore keeps image references as sent by the client.
type PassthroughStore struct{}

func (PassthroughStore) Resolve(_ context.Context, image string) (string, error) {
	return strings.TrimSpace(image), nil
}

// S3Store uploads data: URL images and returns their public URL. Other
// references (plain URLs) are returned unchanged.
type S3Store struct {
	client   ObjectPutter
	bucket   string
	baseURL  string
	maxBytes int64
}

// NewS3Store wires a store around an existing client.
func NewS3Store(client ObjectPutter, bucket, publicBaseURL string, maxBytes int64) *S3Store {
	return &S3Store{
		client:   client,
		bucket:   bucket,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		maxBytes: maxBytes,
	}
}

// NewImageStore returns an S3Store when a bucket is configured and a
// PassthroughStore otherwise.
func NewImageStore(cfg *config.Config) ImageStore {
	if !cfg.ImageStorageEnabled() {
		return PassthroughStore{}
	}
	opts := s3.Options{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		Region:      cfg.S3Region,
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}
	baseURL := cfg.S3PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
	middleware.Logger.Info("Image storage enabled", slog.String("bucket", cfg.S3Bucket))
	return NewS3Store(s3.New(opts), cfg.S3Bucket, baseURL, cfg.MaxImageBytes)
}

func (s *S3Store) Resolve(ctx context.Context, image string) (string, error) {
	image = strings.TrimSpace(image)
	if !IsDataURL(image) {
		return image, nil
	}

	contentType, data, err := DecodeDataURL(image, s.maxBytes)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("posts/%s.%s", uuid.NewString(), imageExtensions[contentType])
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload image %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

// IsDataURL reports whether s is an inline data: URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURL parses a base64 image data: URL. Unsupported types, bad
// payloads, oversized images and bytes that do not match the declared type
// are INVALID_ARGUMENT errors.
func DecodeDataURL(raw string, maxBytes int64) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, models.NewValidationError("image must be a base64 data URL")
	}
	contentType := strings.ToLower(strings.TrimSuffix(header, ";base64"))
	if _, ok := imageExtensions[contentType]; !ok {
		return "", nil, models.NewValidationError(fmt.Sprintf("unsupported image type %q", contentType))
	}

	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return "", nil, models.NewValidationError("image is too large")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, models.NewValidationError("image payload is not valid base64")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", nil, models.NewValidationError("image is too large")
	}
	if len(data) == 0 {
		return "", nil, models.NewValidationError("image is empty")
	}
	if sniffed := http.DetectContentType(data); sniffed != contentType {
		return "", nil, models.NewValidationError(fmt.Sprintf("image content is %s, not %s", sniffed, contentType))
	}
	return contentType, data, nil
}
