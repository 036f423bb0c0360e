package logformat

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/V4T54L/hubformat/internal/domain"
)

// nullKey stands in for an absent property key.
const nullKey = "null"

var propertiesAPI = jsoniter.Config{EscapeHTML: false}.Froze()

type propertyField struct {
	key   string
	value string
	null  bool
}

// PropertiesJSON renders the application properties of an event as a JSON
// object. Absent keys are written as "null" and absent values as JSON null.
// A stub bag renders as {}.
func PropertiesJSON(bag domain.PropertyBag) string {
	if bag == nil || bag.IsStub() {
		return "{}"
	}

	fields := propertyFields(bag.Entries())

	stream := propertiesAPI.BorrowStream(nil)
	defer propertiesAPI.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, f := range fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.key)
		if f.null {
			stream.WriteNil()
		} else {
			stream.WriteString(f.value)
		}
	}
	stream.WriteObjectEnd()

	return string(stream.Buffer())
}

// propertyFields resolves entries into unique keys. A repeated key keeps
// the position of its first occurrence and the value of its last.
func propertyFields(entries []domain.Property) []propertyField {
	fields := make([]propertyField, 0, len(entries))
	index := make(map[string]int, len(entries))

	for _, p := range entries {
		f := propertyField{key: nullKey, null: p.Value == nil}
		if p.Key != nil {
			f.key = *p.Key
		}
		if !f.null {
			f.value = domain.Stringify(p.Value)
		}

		if i, ok := index[f.key]; ok {
			fields[i] = f
			continue
		}
		index[f.key] = len(fields)
		fields = append(fields, f)
	}
	return fields
}
