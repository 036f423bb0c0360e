package usecase

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/metrics"
	"github.com/V4T54L/hubformat/internal/domain"
)

// ProcessEventsUseCase orchestrates reading events from a source,
// converting them, and writing the records to a sink.
type ProcessEventsUseCase struct {
	source       domain.EventSource
	sink         domain.RecordSink
	converter    *ConvertEventUseCase
	metrics      *metrics.ConvertMetrics
	logger       *zap.Logger
	batchSize    int
	retryCount   int
	retryBackoff time.Duration
}

// NewProcessEventsUseCase creates a new use case for processing events.
func NewProcessEventsUseCase(
	source domain.EventSource,
	sink domain.RecordSink,
	converter *ConvertEventUseCase,
	m *metrics.ConvertMetrics,
	logger *zap.Logger,
	batchSize, retryCount int,
	retryBackoff time.Duration,
) *ProcessEventsUseCase {
	if retryCount < 1 {
		retryCount = 1
	}
	return &ProcessEventsUseCase{
		source:       source,
		sink:         sink,
		converter:    converter,
		metrics:      m,
		logger:       logger,
		batchSize:    batchSize,
		retryCount:   retryCount,
		retryBackoff: retryBackoff,
	}
}

// ProcessBatch reads a batch of events, converts them and writes the
// converted records to the sink. Events that fail conversion are skipped;
// their errors are returned only when no event in the batch converted.
func (uc *ProcessEventsUseCase) ProcessBatch(ctx context.Context) (int, error) {
	events, err := uc.source.ReadEventBatch(ctx, uc.batchSize)
	if err != nil {
		uc.logger.Error("failed to read event batch from source", zap.Error(err))
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil
	}

	uc.logger.Debug("read batch of events from source", zap.Int("count", len(events)))

	var convErr error
	records := make([]*domain.Record, 0, len(events))
	for _, event := range events {
		record, err := uc.converter.Convert(ctx, event)
		if err != nil {
			uc.logger.Warn("skipping event that could not be converted", zap.Error(err))
			convErr = multierr.Append(convErr, err)
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return 0, convErr
	}

	if err := uc.writeWithRetry(ctx, records); err != nil {
		uc.logger.Error("failed to write record batch to sink after retries", zap.Error(err))
		return 0, err
	}

	uc.metrics.RecordsWritten.Add(float64(len(records)))
	uc.logger.Debug("wrote record batch", zap.Int("count", len(records)))
	return len(records), nil
}

func (uc *ProcessEventsUseCase) writeWithRetry(ctx context.Context, records []*domain.Record) error {
	var lastErr error
	for i := 0; i < uc.retryCount; i++ {
		err := uc.sink.WriteRecordBatch(ctx, records)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == uc.retryCount-1 {
			break
		}
		uc.metrics.SinkRetriesTotal.Inc()
		uc.logger.Warn("failed to write batch to sink, retrying", zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-time.After(uc.retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
