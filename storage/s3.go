package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"mygallery/config"
	"mygallery/errs"
)

// objectPutter is the part of the s3 client S3 needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores photos in an S3-compatible bucket (AWS, MinIO).
type S3 struct {
	client objectPutter
	cfg    config.S3Config
	log    *zap.Logger
}

// NewS3 connects to the bucket in cfg and creates it if missing.
func NewS3(ctx context.Context, cfg config.S3Config, log *zap.Logger) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	if err := ensureBucket(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", cfg.Bucket, err)
	}
	log.Info("s3 storage configured", zap.String("bucket", cfg.Bucket), zap.String("region", cfg.Region))

	return &S3{client: client, cfg: cfg, log: log}, nil
}

func ensureBucket(ctx context.Context, client *s3.Client, cfg config.S3Config) error {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &cfg.Bucket}); err == nil {
		return nil
	}

	in := &s3.CreateBucketInput{Bucket: &cfg.Bucket}
	if cfg.Region != "" && cfg.Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(cfg.Region),
		}
	}
	_, err := client.CreateBucket(ctx, in)
	if err == nil {
		return nil
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return nil
		}
	}
	return err
}

func (b *S3) Name() string { return "s3" }

func (b *S3) Store(ctx context.Context, file File) (string, error) {
	if file.Empty() {
		return "", errEmpty()
	}

	key := "photos/" + objectName(file.Name)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(b.cfg.Bucket),
		Key:           aws.String(key),
		Body:          file.Body,
		ContentLength: aws.Int64(file.Size),
	}
	if file.ContentType != "" {
		in.ContentType = aws.String(file.ContentType)
	}

	if _, err := b.client.PutObject(ctx, in); err != nil {
		b.log.Error("s3 put failed", zap.String("key", key), zap.Error(err))
		return "", errs.Wrap(errs.KindStorage, err, "Failed to store image in bucket")
	}
	return b.objectURL(key), nil
}

// objectURL prefers the configured public URL, then a path-style URL on the
// custom endpoint, then the AWS virtual-hosted URL.
func (b *S3) objectURL(key string) string {
	switch {
	case b.cfg.PublicURL != "":
		return strings.TrimSuffix(b.cfg.PublicURL, "/") + "/" + key
	case b.cfg.Endpoint != "":
		return strings.TrimSuffix(b.cfg.Endpoint, "/") + "/" + b.cfg.Bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.cfg.Bucket, b.cfg.Region, key)
	}
}
