package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config describes an S3-compatible object store. Both S3Storage and
// MinioStorage are configured from it.
type S3Config struct {
	Endpoint       string // e.g. http://localhost:9000
	Region         string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	ForcePathStyle bool
}

// baseURL returns the endpoint with a scheme. A bare host gets https when
// UseSSL is set and http otherwise; an empty endpoint stays empty.
func (c S3Config) baseURL() string {
	endpoint := strings.TrimRight(c.Endpoint, "/")
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if c.UseSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// objectURL renders the public URL of key. Without an endpoint the AWS
// regional URL is used.
func (c S3Config) objectURL(key string) string {
	base := c.baseURL()
	if base != "" {
		return base + "/" + c.Bucket + "/" + key
	}
	region := c.Region
	if region == "" {
		region = "us-east-1"
	}
	if c.ForcePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", region, c.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.Bucket, region, key)
}

// S3Storage implements the Store interface on top of the AWS SDK
type S3Storage struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Storage builds the client and makes sure the bucket exists
func NewS3Storage(ctx context.Context, c S3Config) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if base := c.baseURL(); base != "" {
			o.BaseEndpoint = aws.String(base)
		}
		o.UsePathStyle = c.ForcePathStyle
	})

	store := &S3Storage{client: client, cfg: c}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket '%s': %w", c.Bucket, err)
	}
	log.Printf("media.store: Initialized S3Storage (bucket: %s, endpoint: %s)", c.Bucket, c.Endpoint)
	return store, nil
}

// EnsureBucket creates the configured bucket unless it already exists
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	bucket := s.cfg.Bucket
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &bucket}); err == nil {
		return nil
	}

	in := &s3.CreateBucketInput{Bucket: &bucket}
	if s.cfg.Region != "" && s.cfg.Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		}
	}

	_, err := s.client.CreateBucket(ctx, in)
	if err == nil {
		return nil
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		code := ae.ErrorCode()
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
	}
	return err
}

// Put uploads an object under a new key
func (s *S3Storage) Put(ctx context.Context, data io.Reader, originalFilename string) (string, string, error) {
	key := NewObjectKey(originalFilename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(ContentType(originalFilename)),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to put object '%s': %w", key, err)
	}
	log.Printf("media.store: Uploaded %s to s3://%s/%s", originalFilename, s.cfg.Bucket, key)
	return key, s.cfg.objectURL(key), nil
}

// Get streams an object
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object '%s': %w", key, err)
	}
	return out.Body, nil
}

// Delete removes an object. S3 reports success for missing keys.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object '%s': %w", key, err)
	}
	return nil
}
