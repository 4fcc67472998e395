package filestore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/config"
)

const (
	// MaxImageSize is the largest accepted upload, 4MB
	MaxImageSize int64 = 4 << 20
	presignExpiry      = 15 * time.Minute
)

var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrFileTooLarge           = errors.New("file too large")
)

var imageContentTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
	"image/avif":    true,
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Presigner is the part of s3.PresignClient used to hand out upload URLs
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store hands out presigned PUT urls for a single bucket
type Store struct {
	presigner     Presigner
	bucket        string
	region        string
	publicBaseURL string
}

// PresignedUpload is what a client needs to PUT a file and register it afterwards
type PresignedUpload struct {
	UploadURL string    `json:"uploadUrl"`
	Method    string    `json:"method"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func New(presigner Presigner, bucket, region, publicBaseURL string) *Store {
	return &Store{
		presigner:     presigner,
		bucket:        bucket,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// NewFromConfig builds a Store from S3_BUCKET, S3_REGION and S3_PUBLIC_BASE_URL.
// It returns nil when no bucket is configured.
func NewFromConfig(ctx context.Context, c map[string]string) (*Store, error) {
	bucket := config.GetString(c, "S3_BUCKET", "")
	if bucket == "" {
		return nil, nil
	}
	region := config.GetString(c, "S3_REGION", config.GetString(c, "AWS_REGION", "us-east-1"))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	presigner := s3.NewPresignClient(s3.NewFromConfig(awsCfg))
	return New(presigner, bucket, region, config.GetString(c, "S3_PUBLIC_BASE_URL", "")), nil
}

// ValidateImage accepts common image types up to MaxImageSize
func ValidateImage(contentType string, size int64) error {
	if !imageContentTypes[strings.ToLower(strings.TrimSpace(contentType))] {
		return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	if size <= 0 || size > MaxImageSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, size, MaxImageSize)
	}
	return nil
}

// ObjectKey places a file under uploads/ with a random prefix so names never collide
func ObjectKey(filename string) string {
	name := unsafeNameChars.ReplaceAllString(path.Base(filename), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("uploads/%s/%s", uuid.NewString(), name)
}

// PublicURL returns the address the stored object is served from
func (s *Store) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// PresignUpload validates the file and signs a PUT request for it
func (s *Store) PresignUpload(ctx context.Context, filename, contentType string, size int64) (*PresignedUpload, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return nil, err
	}

	key := ObjectKey(filename)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		Method:    req.Method,
		Key:       key,
		URL:       s.PublicURL(key),
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}
