package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"golang.org/x/sync/errgroup"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/conf"
	"github.com/yixianOu/moviestore/internal/pkg/metrics"
)

var _ transport.Server = (*Consumer)(nil)

const (
	defaultMaxMessages  = 10
	defaultWaitTime     = 20 * time.Second
	defaultIdleBackoff  = time.Second
	defaultErrorBackoff = 5 * time.Second
)

// Consumer long-polls the notification queue and processes each received
// batch concurrently, one goroutine per message. A message is acknowledged
// only when every record of interest in it was ingested; otherwise it stays
// on the queue for redelivery.
type Consumer struct {
	uc    *biz.IngestUseCase
	queue biz.NotificationQueue
	stats *biz.IngestStats
	log   *log.Helper

	maxMessages  int32
	waitTime     time.Duration
	idleBackoff  time.Duration
	errorBackoff time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewConsumer creates the queue consumer.
func NewConsumer(c *conf.Ingest, uc *biz.IngestUseCase, queue biz.NotificationQueue, stats *biz.IngestStats, logger log.Logger) *Consumer {
	cs := &Consumer{
		uc:           uc,
		queue:        queue,
		stats:        stats,
		log:          log.NewHelper(logger),
		maxMessages:  defaultMaxMessages,
		waitTime:     defaultWaitTime,
		idleBackoff:  defaultIdleBackoff,
		errorBackoff: defaultErrorBackoff,
	}
	if c == nil {
		return cs
	}
	if c.MaxMessages > 0 {
		cs.maxMessages = c.MaxMessages
	}
	if c.WaitTime != nil {
		cs.waitTime = c.WaitTime.AsDuration()
	}
	if d := c.IdleBackoff.AsDuration(); d > 0 {
		cs.idleBackoff = d
	}
	if d := c.ErrorBackoff.AsDuration(); d > 0 {
		cs.errorBackoff = d
	}
	return cs
}

// Start runs the poll loop until ctx is cancelled or Stop is called. A batch
// that has started always runs to completion.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		cancel()
		return errors.New("consumer already started")
	}
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	defer close(done)
	c.stats.SetRunning(true)
	defer c.stats.SetRunning(false)

	c.log.Infof("consumer started: max_messages=%d wait_time=%s", c.maxMessages, c.waitTime)
	for ctx.Err() == nil {
		batch, err := c.queue.Receive(ctx, c.maxMessages, c.waitTime)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.log.Errorf("failed to receive messages: %v", err)
			c.stats.AddErrors(1)
			sleep(ctx, c.errorBackoff)
			continue
		}
		if len(batch) == 0 {
			sleep(ctx, c.idleBackoff)
			continue
		}

		c.log.Infof("received %d messages", len(batch))
		c.ProcessBatch(context.WithoutCancel(ctx), batch)
	}

	c.log.Infof("consumer stopped: processed=%d errors=%d", c.stats.Processed(), c.stats.Errors())
	return nil
}

// Stop cancels the poll loop and waits for the in-flight batch.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}

	c.log.Info("stopping consumer")
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessBatch handles every message of a batch concurrently and returns
// once all of them are done. Totals are added to the stats after the join.
func (c *Consumer) ProcessBatch(ctx context.Context, batch []*biz.Notification) {
	start := time.Now()
	var (
		processed atomic.Int64
		failed    atomic.Int64
		acked     atomic.Int64
		g         errgroup.Group
	)
	for _, n := range batch {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					c.log.Errorf("panic processing message %s: %v", n.ID, r)
					failed.Add(1)
				}
			}()
			p, f, ok := c.handle(ctx, n)
			processed.Add(p)
			failed.Add(f)
			if ok {
				acked.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	c.stats.AddProcessed(processed.Load())
	c.stats.AddErrors(failed.Load())
	metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())
	c.log.Infof("batch processed: %d acknowledged, %d retained", acked.Load(), int64(len(batch))-acked.Load())
}

// handle ingests one message and acknowledges it when complete. It returns
// the records to add to the processed and error totals.
func (c *Consumer) handle(ctx context.Context, n *biz.Notification) (processed, failed int64, ok bool) {
	res := c.uc.ProcessNotification(ctx, n)
	switch {
	case res.Err != nil:
		c.log.Errorf("failed to process message %s: %v", n.ID, res.Err)
		metrics.IngestMessages.WithLabelValues("retained").Inc()
		return 0, 1, false
	case !res.Complete():
		c.log.Errorf("failed to process message %s: %d/%d records successful", n.ID, res.Succeeded, res.Records)
		metrics.IngestMessages.WithLabelValues("retained").Inc()
		return 0, int64(res.Unsuccessful()), false
	}

	if err := c.queue.Ack(ctx, n); err != nil {
		c.log.Errorf("failed to acknowledge message %s: %v", n.ID, err)
		metrics.IngestMessages.WithLabelValues("retained").Inc()
		return 0, 1, false
	}
	metrics.IngestMessages.WithLabelValues("acked").Inc()
	c.log.Infof("processed message %s: %d/%d records", n.ID, res.Succeeded, res.Records)
	return int64(res.Succeeded), 0, true
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
