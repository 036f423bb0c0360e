package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/metrics"
	"github.com/V4T54L/hubformat/internal/domain"
)

// MapperFactory builds the record mapper for one event.
type MapperFactory func(*domain.ParsedEvent) domain.RecordMapper

// ConvertEventUseCase turns a parsed event into a fully materialized record.
type ConvertEventUseCase struct {
	newMapper MapperFactory
	metrics   *metrics.ConvertMetrics
	logger    *zap.Logger
}

// NewConvertEventUseCase creates a new ConvertEventUseCase.
func NewConvertEventUseCase(newMapper MapperFactory, m *metrics.ConvertMetrics, logger *zap.Logger) *ConvertEventUseCase {
	return &ConvertEventUseCase{
		newMapper: newMapper,
		metrics:   m,
		logger:    logger,
	}
}

// Convert reads every facet of the event. The first failing facet aborts
// the conversion and is returned wrapped; it still matches
// domain.ErrMissingOrInvalidField.
func (uc *ConvertEventUseCase) Convert(ctx context.Context, event *domain.ParsedEvent) (*domain.Record, error) {
	record, err := uc.convert(event)
	if err != nil {
		uc.recordFailure(err)
		uc.logger.Debug("event conversion failed",
			zap.String("msg_id", event.SystemProperties().Lookup("SequenceNumber")),
			zap.Error(err))
		return nil, err
	}

	uc.metrics.EventsTotal.WithLabelValues(metrics.StatusConverted).Inc()
	return record, nil
}

func (uc *ConvertEventUseCase) convert(event *domain.ParsedEvent) (*domain.Record, error) {
	m := uc.newMapper(event)

	appName, err := m.AppName()
	if err != nil {
		return nil, fmt.Errorf("failed to derive app name: %w", err)
	}
	hostname, err := m.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to derive hostname: %w", err)
	}
	timestamp, err := m.Timestamp()
	if err != nil {
		return nil, fmt.Errorf("failed to derive timestamp: %w", err)
	}
	elements, err := m.SDElements()
	if err != nil {
		return nil, fmt.Errorf("failed to derive structured data: %w", err)
	}

	return &domain.Record{
		AppName:    appName,
		Facility:   m.Facility(),
		Hostname:   hostname,
		Message:    m.Msg(),
		MsgID:      m.MsgID(),
		Severity:   m.Severity(),
		Timestamp:  timestamp,
		SDElements: elements,
	}, nil
}

func (uc *ConvertEventUseCase) recordFailure(err error) {
	uc.metrics.EventsTotal.WithLabelValues(metrics.StatusErrorField).Inc()

	var fieldErr *domain.MissingOrInvalidFieldError
	if errors.As(err, &fieldErr) {
		uc.metrics.FieldFailuresTotal.WithLabelValues(fieldErr.Field).Inc()
	}
}
