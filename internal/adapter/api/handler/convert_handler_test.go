package handler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/metrics"
	"github.com/V4T54L/hubformat/internal/domain"
	"github.com/V4T54L/hubformat/internal/logformat"
	"github.com/V4T54L/hubformat/internal/usecase"
)

const containerBody = `{"TimeGenerated":"2020-01-01T01:23:34.5678999Z","ContainerId":"cid","PodName":"pod","PodNamespace":"ns",` +
	`"KubernetesMetadata":{"podAnnotations":{"app":"APP","host":"HOST"}},` +
	`"_ResourceId":"/subscriptions/sub/resourceGroups/rg/providers/p/t/cluster"}`

func envelope(body string) string {
	return `{"body":` + body + `,"partition_context":{"PartitionId":"3"},"properties":{"k":"v"},` +
		`"system_properties":{"SequenceNumber":42},"enqueued_time":"2010-01-01T00:00:00Z","offset":"0"}`
}

// MockConverter is a mock implementation of the Converter.
type MockConverter struct {
	ConvertFunc func(ctx context.Context, event *domain.ParsedEvent) (*domain.Record, error)
}

func (m *MockConverter) Convert(ctx context.Context, event *domain.ParsedEvent) (*domain.Record, error) {
	return m.ConvertFunc(ctx, event)
}

func newHandler(t *testing.T, maxSize int64) (*ConvertHandler, *metrics.ConvertMetrics) {
	t.Helper()
	m := metrics.NewConvertMetrics(prometheus.NewRegistry())
	uc := usecase.NewConvertEventUseCase(logformat.NewContainerMapperFactory("host", "app", "localhost"), m, zap.NewNop())
	return NewConvertHandler(uc, zap.NewNop(), maxSize, m), m
}

func TestConvertHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		contentType    string
		body           string
		maxSize        int64
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Valid Single JSON",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           envelope(containerBody),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Content-Type With Charset",
			method:         http.MethodPost,
			contentType:    "application/json; charset=utf-8",
			body:           envelope(containerBody),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid Method",
			method:         http.MethodGet,
			contentType:    "application/json",
			body:           `{}`,
			expectedStatus: http.StatusMethodNotAllowed,
			expectedBody:   "Method Not Allowed\n",
		},
		{
			name:           "Unsupported Content-Type",
			method:         http.MethodPost,
			contentType:    "text/plain",
			body:           `hello`,
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedBody:   "Unsupported Media Type: text/plain\n",
		},
		{
			name:           "Bad JSON",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"body": {"a":1}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Bad Request: Failed to decode JSON\n",
		},
		{
			name:           "Missing Body Member",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"offset":"1"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Bad Request: Failed to decode JSON\n",
		},
		{
			name:           "Bad NDJSON line",
			method:         http.MethodPost,
			contentType:    "application/x-ndjson",
			body:           envelope(containerBody) + "\n" + `{"body": "bad`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Bad Request: Failed to decode NDJSON line\n",
		},
		{
			name:           "Payload Too Large",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           envelope(containerBody),
			maxSize:        50,
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   "http: request body too large\n",
		},
		{
			name:           "Missing Field",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           envelope(`{"KubernetesMetadata":{}}`),
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = 1 << 20
			}
			h, _ := newHandler(t, maxSize)

			req := httptest.NewRequest(tt.method, "/convert", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestConvertHandler_SingleJSONResponse(t *testing.T) {
	h, m := newHandler(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(envelope(containerBody)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var res ConvertResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.NotNil(t, res.Record)
	assert.Equal(t, "APP.o", res.Record.AppName)
	assert.Equal(t, "42", res.Record.MsgID)
	assert.Equal(t, containerBody, res.Record.Message)
	assert.True(t, strings.HasPrefix(res.RFC5424, "<109>1 2020-01-01T01:23:34.567Z HOST APP.o - 42 "), res.RFC5424)

	event, ok := res.Record.Element("aer_02_event@48577")
	require.True(t, ok)
	props, _ := event.Param("properties")
	assert.Equal(t, `{"k":"v"}`, props)
	enqueued, _ := event.Param("enqueued_time")
	assert.Equal(t, "2010-01-01T00:00Z", enqueued)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues(metrics.StatusConverted)))
}

func TestConvertHandler_MissingFieldResponse(t *testing.T) {
	h, m := newHandler(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(envelope(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var res ConvertResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Nil(t, res.Record)
	assert.Equal(t, "KubernetesMetadata.podAnnotations.app", res.Field)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues(metrics.StatusErrorField)))
}

func TestConvertHandler_NDJSON(t *testing.T) {
	h, _ := newHandler(t, 1<<20)

	body := envelope(containerBody) + "\n\n" + envelope(`{}`) + "\n"
	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-ndjson")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/x-ndjson", rr.Header().Get("Content-Type"))

	var results []ConvertResult
	scanner := bufio.NewScanner(rr.Body)
	for scanner.Scan() {
		var res ConvertResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &res))
		results = append(results, res)
	}
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].RFC5424)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "KubernetesMetadata.podAnnotations.app", results[1].Field)
}

func TestConvertHandler_ConverterError(t *testing.T) {
	m := metrics.NewConvertMetrics(prometheus.NewRegistry())
	mock := &MockConverter{ConvertFunc: func(context.Context, *domain.ParsedEvent) (*domain.Record, error) {
		return nil, errors.New("boom")
	}}
	h := NewConvertHandler(mock, zap.NewNop(), 1<<20, m)

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(envelope(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
