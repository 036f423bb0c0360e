package handler

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/V4T54L/hubformat/internal/domain"
)

// DecodeError marks a request envelope that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "failed to decode envelope: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErrorf(format string, args ...any) error {
	return &DecodeError{Err: fmt.Errorf(format, args...)}
}

var envelopeParsers fastjson.ParserPool

// DecodeEnvelope turns one envelope into a parsed event:
//
//	{"body": {...}, "partition_context": {...}, "properties": {...},
//	 "system_properties": {...}, "enqueued_time": "...", "offset": "..."}
//
// Every member but body is optional; absent or null metadata becomes a stub.
func DecodeEnvelope(data []byte) (*domain.ParsedEvent, error) {
	p := envelopeParsers.Get()
	defer envelopeParsers.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if v.Type() != fastjson.TypeObject {
		return nil, decodeErrorf("envelope must be an object, got %s", v.Type())
	}

	body := v.Get("body")
	if body == nil {
		return nil, &DecodeError{Err: errors.New(`"body" is required`)}
	}

	partitionContext, err := bagAt(v, "partition_context")
	if err != nil {
		return nil, err
	}
	properties, err := bagAt(v, "properties")
	if err != nil {
		return nil, err
	}
	systemProperties, err := bagAt(v, "system_properties")
	if err != nil {
		return nil, err
	}

	enqueued := domain.StubEnqueuedTime()
	if et := v.Get("enqueued_time"); et != nil && et.Type() != fastjson.TypeNull {
		raw, err := et.StringBytes()
		if err != nil {
			return nil, decodeErrorf(`"enqueued_time" must be a string`)
		}
		if enqueued, err = domain.ParseEnqueuedTime(string(raw)); err != nil {
			return nil, &DecodeError{Err: err}
		}
	}

	offset := domain.StubOffset()
	if o := v.Get("offset"); o != nil {
		switch o.Type() {
		case fastjson.TypeNull:
		case fastjson.TypeString:
			offset = domain.NewOffset(string(o.GetStringBytes()))
		case fastjson.TypeNumber:
			offset = domain.NewOffset(o.String())
		default:
			return nil, decodeErrorf(`"offset" must be a string or a number, got %s`, o.Type())
		}
	}

	event, err := domain.NewParsedEvent(body.MarshalTo(nil), partitionContext, properties, systemProperties, enqueued, offset)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return event, nil
}

// bagAt reads the object at key into a populated bag in document order.
// Strings are taken verbatim, null stays absent and any other value keeps
// its JSON text.
func bagAt(v *fastjson.Value, key string) (domain.PropertyBag, error) {
	member := v.Get(key)
	if member == nil || member.Type() == fastjson.TypeNull {
		return domain.StubPropertyBag(), nil
	}

	obj, err := member.Object()
	if err != nil {
		return nil, decodeErrorf("%q must be an object, got %s", key, member.Type())
	}

	var entries []domain.Property
	obj.Visit(func(k []byte, val *fastjson.Value) {
		switch val.Type() {
		case fastjson.TypeNull:
			entries = append(entries, domain.Prop(string(k), nil))
		case fastjson.TypeString:
			entries = append(entries, domain.Prop(string(k), string(val.GetStringBytes())))
		default:
			entries = append(entries, domain.Prop(string(k), val.String()))
		}
	})
	return domain.NewPropertyBag(entries...), nil
}
