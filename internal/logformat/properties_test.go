package logformat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/V4T54L/hubformat/internal/domain"
)

func TestPropertiesJSON(t *testing.T) {
	tests := []struct {
		name string
		bag  domain.PropertyBag
		want string
	}{
		{
			name: "stub",
			bag:  domain.StubPropertyBag(),
			want: `{}`,
		},
		{
			name: "nil bag",
			bag:  nil,
			want: `{}`,
		},
		{
			name: "empty populated bag",
			bag:  domain.NewPropertyBag(),
			want: `{}`,
		},
		{
			name: "absent key and absent value",
			bag: domain.NewPropertyBag(
				domain.Property{Value: "important-null-value"},
				domain.Prop("prop-key", "prop-value"),
				domain.Prop("important-key", nil),
			),
			want: `{"null":"important-null-value","prop-key":"prop-value","important-key":null}`,
		},
		{
			name: "both absent",
			bag:  domain.NewPropertyBag(domain.Property{}),
			want: `{"null":null}`,
		},
		{
			name: "non-string values are stringified",
			bag: domain.NewPropertyBag(
				domain.Prop("int", 42),
				domain.Prop("bool", true),
				domain.Prop("bytes", []byte("raw")),
			),
			want: `{"int":"42","bool":"true","bytes":"raw"}`,
		},
		{
			name: "repeated key keeps first position and last value",
			bag: domain.NewPropertyBag(
				domain.Prop("a", "1"),
				domain.Prop("b", "2"),
				domain.Prop("a", nil),
			),
			want: `{"a":null,"b":"2"}`,
		},
		{
			name: "escaping",
			bag: domain.NewPropertyBag(
				domain.Prop(`k"ey`, "line\nbreak\t<tag>&"),
			),
			want: `{"k\"ey":"line\nbreak\t<tag>&"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PropertiesJSON(tt.bag))
		})
	}
}
