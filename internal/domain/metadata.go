package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/relvacode/iso8601"
)

// Property is one entry of a PropertyBag. A nil Key or a nil Value means
// the key or the value was absent in the source metadata.
type Property struct {
	Key   *string
	Value any
}

// Prop builds a property with a present key.
func Prop(key string, value any) Property {
	return Property{Key: &key, Value: value}
}

// PropertyBag is an ordered key/value metadata category of an event.
// A stub bag marks a category that was unavailable at ingestion; every
// lookup on it yields an empty string.
type PropertyBag interface {
	IsStub() bool
	// Entries returns the entries in insertion order. Stubs have none.
	Entries() []Property
	// Lookup returns the stringified value stored under key, or "" when the
	// bag is a stub, the key is absent or the value is null.
	Lookup(key string) string
}

type populatedBag struct {
	entries []Property
}

// NewPropertyBag returns a populated bag holding entries in the given order.
func NewPropertyBag(entries ...Property) PropertyBag {
	return &populatedBag{entries: append([]Property(nil), entries...)}
}

// PropertyBagFromMap returns a populated bag with the map's entries sorted
// by key, so that rendering is deterministic.
func PropertyBagFromMap(m map[string]any) PropertyBag {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Property, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Prop(k, m[k]))
	}
	return &populatedBag{entries: entries}
}

func (b *populatedBag) IsStub() bool { return false }

func (b *populatedBag) Entries() []Property { return b.entries }

func (b *populatedBag) Lookup(key string) string {
	value := ""
	for _, p := range b.entries {
		if p.Key == nil || *p.Key != key {
			continue
		}
		if p.Value == nil {
			value = ""
			continue
		}
		value = Stringify(p.Value)
	}
	return value
}

type stubBag struct{}

// StubPropertyBag returns the absence marker for a metadata category.
func StubPropertyBag() PropertyBag { return stubBag{} }

func (stubBag) IsStub() bool { return true }

func (stubBag) Entries() []Property { return nil }

func (stubBag) Lookup(string) string { return "" }

// Stringify renders a metadata value by its natural string form.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// EnqueuedTime is the time an event entered the event hub. The zero value
// is the stub.
type EnqueuedTime struct {
	t         time.Time
	populated bool
}

func NewEnqueuedTime(t time.Time) EnqueuedTime {
	return EnqueuedTime{t: t, populated: true}
}

func StubEnqueuedTime() EnqueuedTime { return EnqueuedTime{} }

// ParseEnqueuedTime parses an ISO-8601 value. Values without a zone are UTC.
func ParseEnqueuedTime(s string) (EnqueuedTime, error) {
	t, err := iso8601.ParseString(s)
	if err != nil {
		return EnqueuedTime{}, fmt.Errorf("invalid enqueued time %q: %w", s, err)
	}
	return NewEnqueuedTime(t), nil
}

func (e EnqueuedTime) IsStub() bool { return !e.populated }

func (e EnqueuedTime) Time() time.Time { return e.t }

// Offset is the event's position in its partition. The zero value is the stub.
type Offset struct {
	value     string
	populated bool
}

func NewOffset(value string) Offset {
	return Offset{value: value, populated: true}
}

func StubOffset() Offset { return Offset{} }

func (o Offset) IsStub() bool { return !o.populated }

// Value returns the offset, or "" for a stub.
func (o Offset) Value() string { return o.value }
