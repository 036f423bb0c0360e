package domain

import "context"

// RecordMapper derives the facets of a structured record from one event.
// Every accessor is independent of the others and may be called in any
// order, any number of times.
type RecordMapper interface {
	AppName() (string, error)
	Facility() Facility
	Hostname() (string, error)
	Msg() string
	MsgID() string
	Severity() Severity
	Timestamp() (int64, error)
	SDElements() ([]SDElement, error)
}

// EventSource yields batches of parsed events, e.g. from one event hub partition.
type EventSource interface {
	// ReadEventBatch returns up to count events. An empty batch is not an error.
	ReadEventBatch(ctx context.Context, count int) ([]*ParsedEvent, error)
}

// RecordSink receives converted records.
type RecordSink interface {
	WriteRecordBatch(ctx context.Context, records []*Record) error
}
