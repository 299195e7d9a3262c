package biz

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/goccy/go-json"

	"github.com/yixianOu/moviestore/internal/conf"
	"github.com/yixianOu/moviestore/internal/pkg/metrics"
)

const (
	// DefaultEventSource is the eventSource of S3 change records.
	DefaultEventSource = "aws:s3"

	unknownProvider = "unknown"
	providerKey     = "provider"
)

// StorageRecord is one change record extracted from a notification.
type StorageRecord struct {
	EventSource string
	Bucket      string
	Key         string
}

type eventEnvelope struct {
	Records json.RawMessage `json:"Records"`
	Message *string         `json:"Message"`
}

type eventRecord struct {
	EventSource string `json:"eventSource"`
	S3          struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// ParseNotification extracts change records from a queue message body. The
// body is either a storage event ({"Records": [...]}) or a pub/sub envelope
// whose "Message" field holds such an event as a JSON string.
func ParseNotification(body []byte) ([]StorageRecord, error) {
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid notification body: %w", err)
	}

	raw := env.Records
	if absent(raw) {
		if env.Message == nil {
			return nil, ErrUnknownEnvelope
		}
		var inner eventEnvelope
		if err := json.Unmarshal([]byte(*env.Message), &inner); err != nil {
			return nil, fmt.Errorf("invalid wrapped notification: %w", err)
		}
		raw = inner.Records
	}
	if absent(raw) {
		return []StorageRecord{}, nil
	}

	var events []eventRecord
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("invalid notification records: %w", err)
	}
	records := make([]StorageRecord, 0, len(events))
	for _, e := range events {
		records = append(records, StorageRecord{
			EventSource: e.EventSource,
			Bucket:      e.S3.Bucket.Name,
			Key:         e.S3.Object.Key,
		})
	}
	return records, nil
}

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// ProviderFromKey returns the second path segment of an object key, which
// names the data provider (uploads/<provider>/<file>.json).
func ProviderFromKey(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) < 2 {
		return unknownProvider
	}
	return parts[1]
}

// DecodeMovie parses and validates an ingested payload. System timestamps in
// the payload are discarded.
func DecodeMovie(payload []byte) (*Movie, error) {
	var movie Movie
	if err := json.Unmarshal(payload, &movie); err != nil {
		return nil, fmt.Errorf("invalid movie JSON: %w", err)
	}
	if err := ValidateMovie(&movie); err != nil {
		return nil, err
	}
	movie.CreatedAt = nil
	movie.UpdatedAt = nil
	return &movie, nil
}

// IngestResult summarises one notification. Records counts every record in
// the body; Skipped counts those from another event source, which are never
// ingested. Err is set when the body itself could not be understood.
type IngestResult struct {
	Records   int
	Succeeded int
	Failed    int
	Skipped   int
	Err       error
}

// Complete reports whether the notification may be acknowledged: every
// record in it was ingested.
func (r IngestResult) Complete() bool {
	return r.Err == nil && r.Succeeded == r.Records
}

// Unsuccessful is the number of records that were not ingested.
func (r IngestResult) Unsuccessful() int {
	return r.Records - r.Succeeded
}

// IngestHealth reports reachability of the processor's backends.
type IngestHealth struct {
	Database bool
	Queue    bool
	Storage  bool
}

// IngestStats are the processor's running totals, shared between the
// consumer loop and the admin health endpoint.
type IngestStats struct {
	running   atomic.Bool
	processed atomic.Int64
	errors    atomic.Int64
}

func NewIngestStats() *IngestStats {
	return &IngestStats{}
}

func (s *IngestStats) SetRunning(running bool) { s.running.Store(running) }
func (s *IngestStats) Running() bool           { return s.running.Load() }
func (s *IngestStats) AddProcessed(n int64)    { s.processed.Add(n) }
func (s *IngestStats) AddErrors(n int64)       { s.errors.Add(n) }
func (s *IngestStats) Processed() int64        { return s.processed.Load() }
func (s *IngestStats) Errors() int64           { return s.errors.Load() }

// IngestUseCase turns storage notifications into upserts. It writes straight
// to the repository; cached reads go stale until their TTL expires.
type IngestUseCase struct {
	repo        MovieRepo
	objects     ObjectStore
	queue       NotificationQueue
	eventSource string
	log         *log.Helper
}

// NewIngestUseCase creates a new IngestUseCase instance
func NewIngestUseCase(repo MovieRepo, objects ObjectStore, queue NotificationQueue, c *conf.Ingest, logger log.Logger) *IngestUseCase {
	source := DefaultEventSource
	if c != nil && c.EventSource != "" {
		source = c.EventSource
	}
	return &IngestUseCase{
		repo:        repo,
		objects:     objects,
		queue:       queue,
		eventSource: source,
		log:         log.NewHelper(logger),
	}
}

// ProcessNotification ingests every record of interest in n. A failing or
// skipped record does not stop the others but keeps n from being complete.
func (uc *IngestUseCase) ProcessNotification(ctx context.Context, n *Notification) IngestResult {
	records, err := ParseNotification(n.Body)
	if err != nil {
		return IngestResult{Err: err}
	}

	res := IngestResult{Records: len(records)}
	for _, rec := range records {
		if rec.EventSource != uc.eventSource {
			uc.log.Warnf("skipping record from event source %q", rec.EventSource)
			metrics.IngestRecords.WithLabelValues("skipped").Inc()
			res.Skipped++
			continue
		}

		if err := uc.ingestObject(ctx, rec); err != nil {
			uc.log.Errorf("failed to ingest s3://%s/%s: %v", rec.Bucket, rec.Key, err)
			metrics.IngestRecords.WithLabelValues("failed").Inc()
			res.Failed++
			continue
		}
		res.Succeeded++
	}
	return res
}

func (uc *IngestUseCase) ingestObject(ctx context.Context, rec StorageRecord) error {
	key, err := url.QueryUnescape(rec.Key)
	if err != nil {
		return fmt.Errorf("invalid object key: %w", err)
	}

	uc.log.Debugf("downloading s3://%s/%s", rec.Bucket, key)
	payload, err := uc.objects.GetObject(ctx, rec.Bucket, key)
	if err != nil {
		return err
	}

	movie, err := DecodeMovie(payload)
	if err != nil {
		return err
	}

	created, err := uc.UpsertMovie(ctx, movie, ProviderFromKey(key))
	if err != nil {
		return err
	}
	if created {
		metrics.IngestRecords.WithLabelValues("created").Inc()
		uc.log.Infof("created movie: %s from %s", movie.Title, key)
	} else {
		metrics.IngestRecords.WithLabelValues("updated").Inc()
		uc.log.Infof("updated movie: %s from %s", movie.Title, key)
	}
	return nil
}

// UpsertMovie creates the movie or, when its id already exists, overwrites
// it. Replaying the same payload always converges on the same row.
func (uc *IngestUseCase) UpsertMovie(ctx context.Context, movie *Movie, provider string) (bool, error) {
	if movie.ProviderMetadata == nil {
		movie.ProviderMetadata = map[string]interface{}{}
	}
	if _, ok := movie.ProviderMetadata[providerKey]; !ok {
		movie.ProviderMetadata[providerKey] = provider
	}

	_, err := uc.repo.GetMovieByID(ctx, movie.ID)
	switch {
	case err == nil:
		if _, err := uc.repo.UpdateMovie(ctx, movie); err != nil {
			return false, fmt.Errorf("failed to update movie %s: %w", movie.ID, err)
		}
		return false, nil
	case !errors.Is(err, ErrMovieNotFound):
		return false, fmt.Errorf("failed to look up movie %s: %w", movie.ID, err)
	}

	_, err = uc.repo.CreateMovie(ctx, movie)
	if errors.Is(err, ErrMovieAlreadyExists) {
		// Lost a race with a sibling message in the same batch.
		if _, err := uc.repo.UpdateMovie(ctx, movie); err != nil {
			return false, fmt.Errorf("failed to update movie %s: %w", movie.ID, err)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create movie %s: %w", movie.ID, err)
	}
	return true, nil
}

// CheckHealth pings the store, the queue and the object store.
func (uc *IngestUseCase) CheckHealth(ctx context.Context) IngestHealth {
	var h IngestHealth
	if err := uc.repo.Ping(ctx); err != nil {
		uc.log.Errorf("database health check failed: %v", err)
	} else {
		h.Database = true
	}
	if err := uc.queue.Ping(ctx); err != nil {
		uc.log.Errorf("queue health check failed: %v", err)
	} else {
		h.Queue = true
	}
	if err := uc.objects.Ping(ctx); err != nil {
		uc.log.Errorf("storage health check failed: %v", err)
	} else {
		h.Storage = true
	}
	return h
}
