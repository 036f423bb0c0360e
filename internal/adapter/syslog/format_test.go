package syslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leodido/go-syslog/v4/rfc5424"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/hubformat/internal/domain"
	"github.com/V4T54L/hubformat/internal/logformat"
)

func testRecord() *domain.Record {
	return &domain.Record{
		AppName:  "APP-NAME.o",
		Facility: domain.FacilityAudit,
		Hostname: "HOST-NAME",
		Message:  `{"LogLevel":"info"}`,
		MsgID:    "12345678900",
		Severity: domain.SeverityNotice,
		// 2020-01-01T01:23:34.567Z
		Timestamp: 1577841814567,
		SDElements: []domain.SDElement{
			domain.NewSDElement("aer_02", domain.SDParam{Name: "timestamp_source", Value: "timeEnqueued"}),
			domain.NewSDElement("nlf_01", domain.SDParam{Name: "eventType", Value: "ContainerType"}),
		},
	}
}

func TestFormat_Header(t *testing.T) {
	line, err := Format(testRecord())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(line, "<109>1 2020-01-01T01:23:34.567Z HOST-NAME APP-NAME.o - 12345678900 "), line)
	assert.True(t, strings.HasSuffix(line, `{"LogLevel":"info"}`), line)
	assert.NotContains(t, line, "\n")
}

func TestFormat_RoundTrip(t *testing.T) {
	line, err := Format(testRecord())
	require.NoError(t, err)

	parsed, err := rfc5424.NewMachine().Parse([]byte(line))
	require.NoError(t, err)

	msg, ok := parsed.(*rfc5424.SyslogMessage)
	require.True(t, ok)

	require.NotNil(t, msg.Priority)
	assert.Equal(t, uint8(109), *msg.Priority)
	assert.Equal(t, uint16(1), msg.Version)

	require.NotNil(t, msg.Timestamp)
	assert.True(t, time.UnixMilli(1577841814567).Equal(*msg.Timestamp))

	require.NotNil(t, msg.Hostname)
	assert.Equal(t, "HOST-NAME", *msg.Hostname)
	require.NotNil(t, msg.Appname)
	assert.Equal(t, "APP-NAME.o", *msg.Appname)
	require.NotNil(t, msg.MsgID)
	assert.Equal(t, "12345678900", *msg.MsgID)
	require.NotNil(t, msg.Message)
	assert.Equal(t, `{"LogLevel":"info"}`, *msg.Message)

	require.NotNil(t, msg.StructuredData)
	sd := *msg.StructuredData
	assert.Equal(t, "timeEnqueued", sd["aer_02@48577"]["timestamp_source"])
	assert.Equal(t, "ContainerType", sd["nlf_01@48577"]["eventType"])
}

func TestFormat_EmptyFieldsRenderAsNil(t *testing.T) {
	r := testRecord()
	r.Hostname = ""
	r.MsgID = ""

	line, err := Format(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "<109>1 2020-01-01T01:23:34.567Z - APP-NAME.o - - "), line)
}

func TestFormat_ParamValuesRoundTrip(t *testing.T) {
	r := testRecord()
	properties := `{"null":"v","prop-key":"prop-value","path":"C:\\tmp]","important-key":null}`
	r.SDElements = append(r.SDElements, domain.NewSDElement("aer_02_event",
		domain.SDParam{Name: "properties", Value: properties},
		domain.SDParam{Name: "offset", Value: ""},
	))

	line, err := Format(r)
	require.NoError(t, err)

	parsed, err := rfc5424.NewMachine().Parse([]byte(line))
	require.NoError(t, err)
	msg := parsed.(*rfc5424.SyslogMessage)
	require.NotNil(t, msg.StructuredData)

	event := (*msg.StructuredData)["aer_02_event@48577"]
	assert.Equal(t, properties, event["properties"])
	assert.Equal(t, "", event["offset"])
}

func TestFormat_ContainerRecordRoundTrip(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("..", "..", "logformat", "testdata", "container.json"))
	require.NoError(t, err)

	event, err := domain.NewParsedEvent(body,
		nil,
		domain.NewPropertyBag(domain.Prop("prop-key", "prop-value")),
		domain.NewPropertyBag(domain.Prop("SequenceNumber", "12345678900")),
		domain.StubEnqueuedTime(),
		domain.NewOffset("0"),
	)
	require.NoError(t, err)

	m := logformat.NewContainerType(event, "hostname-annotation", "appname-annotation", "localhost")
	elements, err := m.SDElements()
	require.NoError(t, err)
	appName, err := m.AppName()
	require.NoError(t, err)
	hostname, err := m.Hostname()
	require.NoError(t, err)
	ts, err := m.Timestamp()
	require.NoError(t, err)

	line, err := Format(&domain.Record{
		AppName: appName, Facility: m.Facility(), Hostname: hostname, Message: m.Msg(),
		MsgID: m.MsgID(), Severity: m.Severity(), Timestamp: ts, SDElements: elements,
	})
	require.NoError(t, err)

	parsed, err := rfc5424.NewMachine().Parse([]byte(line))
	require.NoError(t, err)
	msg := parsed.(*rfc5424.SyslogMessage)
	require.NotNil(t, msg.StructuredData)
	assert.Equal(t, `{"prop-key":"prop-value"}`, (*msg.StructuredData)["aer_02_event@48577"]["properties"])
	assert.Equal(t, "{resourceName}", (*msg.StructuredData)["origin@48577"]["clusterName"])
	require.NotNil(t, msg.Message)
	assert.Equal(t, m.Msg(), *msg.Message)
}

func TestFormat_RejectsInvalidHeaderFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Record)
	}{
		{name: "app name too long", mutate: func(r *domain.Record) { r.AppName = strings.Repeat("a", 60) + ".o" }},
		{name: "hostname with space", mutate: func(r *domain.Record) { r.Hostname = "host name" }},
		{name: "hostname non-ascii", mutate: func(r *domain.Record) { r.Hostname = "hôst" }},
		{name: "msgid too long", mutate: func(r *domain.Record) { r.MsgID = strings.Repeat("1", 33) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRecord()
			tt.mutate(r)

			line, err := Format(r)
			assert.Error(t, err)
			assert.Empty(t, line)
		})
	}
}
