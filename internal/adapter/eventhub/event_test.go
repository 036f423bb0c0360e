package eventhub

import (
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPartition = PartitionContext{
	FullyQualifiedNamespace: "ns.servicebus.windows.net",
	EventHubName:            "logs",
	PartitionID:             "3",
	ConsumerGroup:           "$Default",
}

func TestParsedEventFrom(t *testing.T) {
	enqueued := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	ev := &azeventhubs.ReceivedEventData{
		EventData: azeventhubs.EventData{
			Body:       []byte(`{"TimeGenerated":"2020-01-01T00:00:00Z"}`),
			Properties: map[string]any{"b": "2", "a": int64(1)},
		},
		EnqueuedTime:     &enqueued,
		PartitionKey:     to.Ptr("456"),
		Offset:           4096,
		SequenceNumber:   12345678900,
		SystemProperties: map[string]any{"x-opt-custom": "v"},
	}

	event, err := ParsedEventFrom(ev, testPartition)
	require.NoError(t, err)

	assert.Equal(t, "3", event.PartitionContext().Lookup("PartitionId"))
	assert.Equal(t, "logs", event.PartitionContext().Lookup("EventHubName"))
	assert.Equal(t, "$Default", event.PartitionContext().Lookup("ConsumerGroup"))
	assert.Equal(t, "ns.servicebus.windows.net", event.PartitionContext().Lookup("FullyQualifiedNamespace"))

	sys := event.SystemProperties()
	assert.Equal(t, "12345678900", sys.Lookup("SequenceNumber"))
	assert.Equal(t, "4096", sys.Lookup("Offset"))
	assert.Equal(t, "456", sys.Lookup("PartitionKey"))
	assert.Equal(t, "2010-01-01T00:00:00Z", sys.Lookup("EnqueuedTime"))
	assert.Equal(t, "v", sys.Lookup("x-opt-custom"))

	assert.Equal(t, "1", event.Properties().Lookup("a"))
	assert.False(t, event.EnqueuedTime().IsStub())
	assert.True(t, enqueued.Equal(event.EnqueuedTime().Time()))
	assert.Equal(t, "4096", event.Offset().Value())
}

func TestParsedEventFrom_OptionalFieldsUnset(t *testing.T) {
	ev := &azeventhubs.ReceivedEventData{
		EventData: azeventhubs.EventData{Body: []byte(`{}`)},
	}

	event, err := ParsedEventFrom(ev, testPartition)
	require.NoError(t, err)

	assert.True(t, event.EnqueuedTime().IsStub())
	assert.Equal(t, "", event.SystemProperties().Lookup("PartitionKey"))
	assert.Equal(t, "0", event.Offset().Value())
	assert.False(t, event.Properties().IsStub())
	assert.Empty(t, event.Properties().Entries())
}

func TestParsedEventFrom_InvalidBody(t *testing.T) {
	ev := &azeventhubs.ReceivedEventData{
		EventData: azeventhubs.EventData{Body: []byte("plain text")},
	}

	_, err := ParsedEventFrom(ev, testPartition)
	assert.Error(t, err)
}
