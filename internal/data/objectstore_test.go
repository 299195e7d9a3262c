package data

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-kratos/kratos/v2/log"
)

type fakeS3 struct {
	objects map[string]string
	headErr error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestObjectStoreGetObject(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"uploads-bucket/uploads/imdb/a.json": `{"id":"a"}`}}
	s := newObjectStore(fake, "uploads-bucket", log.NewStdLogger(io.Discard))
	ctx := context.Background()

	body, err := s.GetObject(ctx, "uploads-bucket", "uploads/imdb/a.json")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if string(body) != `{"id":"a"}` {
		t.Errorf("unexpected body %q", body)
	}

	if _, err := s.GetObject(ctx, "uploads-bucket", "missing.json"); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestObjectStoreRejectsOversizedObjects(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"b/big.json": strings.Repeat("x", maxObjectSize+1)}}
	s := newObjectStore(fake, "b", log.NewStdLogger(io.Discard))

	if _, err := s.GetObject(context.Background(), "b", "big.json"); err == nil {
		t.Error("expected oversized object to be rejected")
	}
}

func TestObjectStorePing(t *testing.T) {
	ctx := context.Background()

	if err := newObjectStore(&fakeS3{headErr: errors.New("forbidden")}, "", log.NewStdLogger(io.Discard)).Ping(ctx); err != nil {
		t.Errorf("expected no check without a bucket, got %v", err)
	}
	if err := newObjectStore(&fakeS3{headErr: errors.New("forbidden")}, "b", log.NewStdLogger(io.Discard)).Ping(ctx); err == nil {
		t.Error("expected head bucket failure")
	}
	if err := newObjectStore(&fakeS3{}, "b", log.NewStdLogger(io.Discard)).Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
