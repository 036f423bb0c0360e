package eventhub

import (
	"maps"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"

	"github.com/V4T54L/hubformat/internal/domain"
)

// PartitionContext identifies the partition an event was received from.
type PartitionContext struct {
	FullyQualifiedNamespace string
	EventHubName            string
	PartitionID             string
	ConsumerGroup           string
}

// Bag returns the partition context as metadata keyed the way the mapper
// reads it.
func (pc PartitionContext) Bag() domain.PropertyBag {
	return domain.NewPropertyBag(
		domain.Prop("FullyQualifiedNamespace", pc.FullyQualifiedNamespace),
		domain.Prop("EventHubName", pc.EventHubName),
		domain.Prop("PartitionId", pc.PartitionID),
		domain.Prop("ConsumerGroup", pc.ConsumerGroup),
	)
}

// ParsedEventFrom converts an event received by the SDK. The SDK's own
// system properties are kept and the typed fields are added under the
// names SequenceNumber, Offset, PartitionKey and EnqueuedTime.
func ParsedEventFrom(ev *azeventhubs.ReceivedEventData, pc PartitionContext) (*domain.ParsedEvent, error) {
	sys := make(map[string]any, len(ev.SystemProperties)+4)
	maps.Copy(sys, ev.SystemProperties)
	sys["SequenceNumber"] = ev.SequenceNumber
	sys["Offset"] = ev.Offset
	if ev.PartitionKey != nil {
		sys["PartitionKey"] = *ev.PartitionKey
	}

	enqueued := domain.StubEnqueuedTime()
	if ev.EnqueuedTime != nil {
		enqueued = domain.NewEnqueuedTime(*ev.EnqueuedTime)
		sys["EnqueuedTime"] = ev.EnqueuedTime.UTC().Format(time.RFC3339Nano)
	}

	return domain.NewParsedEvent(
		ev.Body,
		pc.Bag(),
		domain.PropertyBagFromMap(ev.Properties),
		domain.PropertyBagFromMap(sys),
		enqueued,
		domain.NewOffset(domain.Stringify(ev.Offset)),
	)
}
