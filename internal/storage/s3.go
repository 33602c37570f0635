package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Options configures the S3 backend. Endpoint is set for S3 compatible
// servers such as MinIO and switches to path style addressing.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Storage implements Storage on an S3 bucket
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	logger   *zap.Logger
}

// NewS3Storage creates an S3 client. Static credentials are used when both
// keys are set, otherwise the default credential chain.
func NewS3Storage(ctx context.Context, opts S3Options, logger *zap.Logger) (*S3Storage, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	} else {
		logger.Info("S3 storage using default credential chain")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 storage initialized",
		zap.String("bucket", opts.Bucket),
		zap.String("region", opts.Region),
	)

	return &S3Storage{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   opts.Bucket,
		logger:   logger,
	}, nil
}

// Upload streams data to the object named key
func (s *S3Storage) Upload(ctx context.Context, key string, contentType string, data io.Reader) (int64, error) {
	reader := &countingReader{r: data}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Info("File uploaded to S3",
		zap.String("key", key),
		zap.String("bucket", s.bucket),
		zap.Int64("size", reader.count),
	)
	return reader.count, nil
}

// Download returns the object body. The caller closes it.
func (s *S3Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("file not found: %s", key)
		}
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	return out.Body, nil
}

// Delete removes the object. Deleting a missing key succeeds.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
