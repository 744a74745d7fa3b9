package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// S3Scheme prefixes handles served from S3
const S3Scheme = "s3://"

// GetObjectAPI is the subset of the S3 client used for fetching
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3 connection settings
type S3Config struct {
	Region    string
	Endpoint  string // optional; set for MinIO and other S3-compatible stores
	PathStyle bool
}

// S3Fetcher reads dataset documents addressed as s3://bucket/key
type S3Fetcher struct {
	client GetObjectAPI
	logger *slog.Logger
}

// NewS3Fetcher creates a fetcher from the default AWS credential chain
func NewS3Fetcher(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Fetcher, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewS3FetcherWithClient(client, logger), nil
}

// NewS3FetcherWithClient wraps an existing client
func NewS3FetcherWithClient(client GetObjectAPI, logger *slog.Logger) *S3Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Fetcher{client: client, logger: logger}
}

// Fetch downloads the object addressed by an s3:// handle
func (f *S3Fetcher) Fetch(ctx context.Context, handle string) ([]byte, error) {
	bucket, key, err := ParseS3Handle(handle)
	if err != nil {
		return nil, err
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, apperrors.SourceUnavailable(handle, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperrors.SourceUnavailable(handle, err)
	}

	f.logger.Debug("dataset source downloaded",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int("size", len(data)))

	return data, nil
}

// IsS3Handle reports whether handle uses the s3:// scheme
func IsS3Handle(handle string) bool {
	return strings.HasPrefix(handle, S3Scheme)
}

// ParseS3Handle splits s3://bucket/key into bucket and key
func ParseS3Handle(handle string) (bucket, key string, err error) {
	if !IsS3Handle(handle) {
		return "", "", apperrors.BadRequest(fmt.Sprintf("not an s3 handle: %q", handle))
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(handle, S3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", apperrors.BadRequest(fmt.Sprintf("s3 handle needs bucket and key: %q", handle))
	}
	return bucket, key, nil
}
