package service

import (
	"context"
	"time"

	"github.com/yixianOu/moviestore/internal/biz"
)

// ProcessorService implements the processor's admin API
type ProcessorService struct {
	ingestUC *biz.IngestUseCase
	stats    *biz.IngestStats
}

// NewProcessorService creates a new ProcessorService
func NewProcessorService(ingestUC *biz.IngestUseCase, stats *biz.IngestStats) *ProcessorService {
	return &ProcessorService{
		ingestUC: ingestUC,
		stats:    stats,
	}
}

// Health reports whether the consumer loop is running, its totals and the
// reachability of each backend.
func (s *ProcessorService) Health(ctx context.Context) (*ProcessorHealthReply, error) {
	h := s.ingestUC.CheckHealth(ctx)
	status := statusStopped
	if s.stats.Running() {
		status = statusHealthy
	}
	return &ProcessorHealthReply{
		Status:         status,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ProcessedCount: s.stats.Processed(),
		ErrorCount:     s.stats.Errors(),
		Services: map[string]string{
			"database": healthString(h.Database),
			"queue":    healthString(h.Queue),
			"storage":  healthString(h.Storage),
			"search":   statusHealthy,
		},
	}, nil
}
