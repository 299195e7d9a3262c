package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/conf"
)

const (
	maxReceiveBatch = 10
	maxWaitSeconds  = 20
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	GetQueueAttributes(ctx context.Context, in *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

type notificationQueue struct {
	client   sqsAPI
	queueURL string
	log      *log.Helper
}

// NewNotificationQueue creates the SQS-backed notification queue.
func NewNotificationQueue(cfg aws.Config, c *conf.Ingest, logger log.Logger) (biz.NotificationQueue, error) {
	if c == nil || c.QueueUrl == "" {
		return nil, errors.New("ingest.queue_url is not configured")
	}
	client := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		o.BaseEndpoint = endpointOverride(c)
	})
	return newNotificationQueue(client, c.QueueUrl, logger), nil
}

func newNotificationQueue(client sqsAPI, queueURL string, logger log.Logger) *notificationQueue {
	return &notificationQueue{
		client:   client,
		queueURL: queueURL,
		log:      log.NewHelper(logger),
	}
}

// Receive long-polls for up to max messages.
func (q *notificationQueue) Receive(ctx context.Context, max int32, wait time.Duration) ([]*biz.Notification, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: clamp(max, 1, maxReceiveBatch),
		WaitTimeSeconds:     clamp(int32(wait/time.Second), 0, maxWaitSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w", err)
	}

	notifications := make([]*biz.Notification, 0, len(out.Messages))
	for _, m := range out.Messages {
		notifications = append(notifications, &biz.Notification{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          []byte(aws.ToString(m.Body)),
		})
	}
	return notifications, nil
}

// Ack deletes the message so it is not redelivered.
func (q *notificationQueue) Ack(ctx context.Context, n *biz.Notification) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(n.ReceiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message %s: %w", n.ID, err)
	}
	return nil
}

func (q *notificationQueue) Ping(ctx context.Context) error {
	_, err := q.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(q.queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
	})
	if err != nil {
		return fmt.Errorf("queue attributes: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
