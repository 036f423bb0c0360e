package eventhub

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/domain"
)

// PartitionReceiver is the part of *azeventhubs.PartitionClient used to read events.
type PartitionReceiver interface {
	ReceiveEvents(ctx context.Context, count int, options *azeventhubs.ReceiveEventsOptions) ([]*azeventhubs.ReceivedEventData, error)
}

// PartitionSource is a domain.EventSource over a single event hub partition.
type PartitionSource struct {
	receiver  PartitionReceiver
	partition PartitionContext
	wait      time.Duration
	logger    *zap.Logger
}

var _ domain.EventSource = (*PartitionSource)(nil)

// NewPartitionSource returns a source that waits at most wait for each batch.
func NewPartitionSource(receiver PartitionReceiver, partition PartitionContext, wait time.Duration, logger *zap.Logger) *PartitionSource {
	return &PartitionSource{
		receiver:  receiver,
		partition: partition,
		wait:      wait,
		logger:    logger.With(zap.String("partition_id", partition.PartitionID)),
	}
}

// ReadEventBatch receives up to count events. Running out of wait time is
// not an error; whatever arrived is returned. Events whose body is not JSON
// are logged and skipped.
func (s *PartitionSource) ReadEventBatch(ctx context.Context, count int) ([]*domain.ParsedEvent, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	received, err := s.receiver.ReceiveEvents(waitCtx, count, nil)
	if err != nil && !(errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
		return nil, err
	}

	events := make([]*domain.ParsedEvent, 0, len(received))
	for _, ev := range received {
		parsed, err := ParsedEventFrom(ev, s.partition)
		if err != nil {
			s.logger.Warn("Skipping event with undecodable body",
				zap.Int64("sequence_number", ev.SequenceNumber),
				zap.Error(err))
			continue
		}
		events = append(events, parsed)
	}
	return events, nil
}
