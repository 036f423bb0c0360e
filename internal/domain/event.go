package domain

import (
	"fmt"

	"github.com/valyala/fastjson"
)

// ParsedEvent is a single event hub message: the container-log JSON body
// together with the transport metadata captured when it was received.
// It is never mutated after construction.
type ParsedEvent struct {
	body             *fastjson.Value
	compactBody      string
	partitionContext PropertyBag
	properties       PropertyBag
	systemProperties PropertyBag
	enqueuedTime     EnqueuedTime
	offset           Offset
}

// NewParsedEvent parses body and wraps it with the given metadata.
// A nil bag is treated as a stub.
func NewParsedEvent(
	body []byte,
	partitionContext PropertyBag,
	properties PropertyBag,
	systemProperties PropertyBag,
	enqueuedTime EnqueuedTime,
	offset Offset,
) (*ParsedEvent, error) {
	// string(body) copies, so the parsed tree does not alias the caller's buffer.
	v, err := fastjson.Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse event body: %w", err)
	}

	return &ParsedEvent{
		body:             v,
		compactBody:      string(v.MarshalTo(nil)),
		partitionContext: orStub(partitionContext),
		properties:       orStub(properties),
		systemProperties: orStub(systemProperties),
		enqueuedTime:     enqueuedTime,
		offset:           offset,
	}, nil
}

// Body returns the parsed JSON body. Callers must treat it as read-only.
func (e *ParsedEvent) Body() *fastjson.Value { return e.body }

// CompactBody returns the body as compact JSON in received key order with
// string escapes as received. It is captured before any lookup can
// normalize the parsed tree.
func (e *ParsedEvent) CompactBody() string { return e.compactBody }

func (e *ParsedEvent) PartitionContext() PropertyBag { return e.partitionContext }

func (e *ParsedEvent) Properties() PropertyBag { return e.properties }

func (e *ParsedEvent) SystemProperties() PropertyBag { return e.systemProperties }

func (e *ParsedEvent) EnqueuedTime() EnqueuedTime { return e.enqueuedTime }

func (e *ParsedEvent) Offset() Offset { return e.offset }

func orStub(bag PropertyBag) PropertyBag {
	if bag == nil {
		return StubPropertyBag()
	}
	return bag
}
