package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used for downloads.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config selects a bucket and optionally overrides how it is reached.
// Credentials come from the default AWS chain (env, shared config, IMDS).
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// S3 fetches objects from one bucket.
type S3 struct {
	client S3API
	bucket string
}

// NewS3 builds a client from the default AWS configuration.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 source requires a bucket")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
	})
	return NewS3FromClient(client, cfg.Bucket), nil
}

// NewS3FromClient wraps an existing client.
func NewS3FromClient(client S3API, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

func (f *S3) Fetch(ctx context.Context, key, dst string) error {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return fmt.Errorf("s3://%s/%s: %w", f.bucket, key, ErrNotFound)
		}
		return fmt.Errorf("getting s3://%s/%s: %w", f.bucket, key, err)
	}
	defer out.Body.Close()

	n, err := writeFile(ctx, dst, out.Body)
	if err != nil {
		return err
	}
	if out.ContentLength != nil && *out.ContentLength > 0 && n != *out.ContentLength {
		return fmt.Errorf("s3://%s/%s truncated: got %d of %d bytes", f.bucket, key, n, *out.ContentLength)
	}
	return nil
}
