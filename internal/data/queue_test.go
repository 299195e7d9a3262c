package data

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/conf"
)

type fakeSQS struct {
	receiveIn *sqs.ReceiveMessageInput
	deleted   []string
	messages  []types.Message
	err       error
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receiveIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) GetQueueAttributes(_ context.Context, _ *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.GetQueueAttributesOutput{}, nil
}

const testQueueURL = "http://localhost:4566/000000000000/movie-ingest"

func TestNotificationQueueReceive(t *testing.T) {
	fake := &fakeSQS{messages: []types.Message{
		{MessageId: aws.String("m1"), ReceiptHandle: aws.String("r1"), Body: aws.String(`{"Records":[]}`)},
		{MessageId: aws.String("m2"), ReceiptHandle: aws.String("r2"), Body: aws.String(`{}`)},
	}}
	q := newNotificationQueue(fake, testQueueURL, log.NewStdLogger(io.Discard))

	got, err := q.Receive(context.Background(), 10, 20*time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].ID != "m1" || got[0].ReceiptHandle != "r1" || string(got[0].Body) != `{"Records":[]}` {
		t.Errorf("unexpected notification %+v", got[0])
	}
	if aws.ToString(fake.receiveIn.QueueUrl) != testQueueURL {
		t.Errorf("unexpected queue url %q", aws.ToString(fake.receiveIn.QueueUrl))
	}
	if fake.receiveIn.MaxNumberOfMessages != 10 || fake.receiveIn.WaitTimeSeconds != 20 {
		t.Errorf("unexpected poll parameters %d/%d", fake.receiveIn.MaxNumberOfMessages, fake.receiveIn.WaitTimeSeconds)
	}
}

func TestNotificationQueueReceiveClamps(t *testing.T) {
	fake := &fakeSQS{}
	q := newNotificationQueue(fake, testQueueURL, log.NewStdLogger(io.Discard))

	if _, err := q.Receive(context.Background(), 50, time.Minute); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if fake.receiveIn.MaxNumberOfMessages != maxReceiveBatch || fake.receiveIn.WaitTimeSeconds != maxWaitSeconds {
		t.Errorf("expected clamped parameters, got %d/%d", fake.receiveIn.MaxNumberOfMessages, fake.receiveIn.WaitTimeSeconds)
	}

	if _, err := q.Receive(context.Background(), 0, 0); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if fake.receiveIn.MaxNumberOfMessages != 1 || fake.receiveIn.WaitTimeSeconds != 0 {
		t.Errorf("expected lower bounds, got %d/%d", fake.receiveIn.MaxNumberOfMessages, fake.receiveIn.WaitTimeSeconds)
	}
}

func TestNotificationQueueAck(t *testing.T) {
	fake := &fakeSQS{}
	q := newNotificationQueue(fake, testQueueURL, log.NewStdLogger(io.Discard))

	if err := q.Ack(context.Background(), &biz.Notification{ID: "m1", ReceiptHandle: "r1"}); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "r1" {
		t.Errorf("expected receipt r1 deleted, got %v", fake.deleted)
	}
}

func TestNotificationQueueErrors(t *testing.T) {
	boom := errors.New("boom")
	q := newNotificationQueue(&fakeSQS{err: boom}, testQueueURL, log.NewStdLogger(io.Discard))
	ctx := context.Background()

	if _, err := q.Receive(ctx, 10, time.Second); !errors.Is(err, boom) {
		t.Errorf("Receive: expected wrapped error, got %v", err)
	}
	if err := q.Ack(ctx, &biz.Notification{ID: "m1"}); !errors.Is(err, boom) {
		t.Errorf("Ack: expected wrapped error, got %v", err)
	}
	if err := q.Ping(ctx); !errors.Is(err, boom) {
		t.Errorf("Ping: expected wrapped error, got %v", err)
	}
}

func TestNewNotificationQueueRequiresURL(t *testing.T) {
	if _, err := NewNotificationQueue(aws.Config{}, &conf.Ingest{}, log.NewStdLogger(io.Discard)); err == nil {
		t.Error("expected error without queue url")
	}
}
