package data

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/conf"
)

// maxObjectSize caps a single payload download.
const maxObjectSize = 10 << 20

type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type objectStore struct {
	client s3API
	bucket string
	log    *log.Helper
}

// NewObjectStore creates the S3-backed object store. A custom endpoint
// switches to path-style addressing.
func NewObjectStore(cfg aws.Config, c *conf.Ingest, logger log.Logger) biz.ObjectStore {
	endpoint := endpointOverride(c)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = endpoint
		o.UsePathStyle = endpoint != nil
	})
	bucket := ""
	if c != nil {
		bucket = c.Bucket
	}
	return newObjectStore(client, bucket, logger)
}

func newObjectStore(client s3API, bucket string, logger log.Logger) *objectStore {
	return &objectStore{
		client: client,
		bucket: bucket,
		log:    log.NewHelper(logger),
	}
}

func (s *objectStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	if len(body) > maxObjectSize {
		return nil, fmt.Errorf("s3://%s/%s exceeds %d bytes", bucket, key, maxObjectSize)
	}
	return body, nil
}

// Ping checks the configured bucket. Without one there is nothing to check.
func (s *objectStore) Ping(ctx context.Context) error {
	if s.bucket == "" {
		return nil
	}
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}
