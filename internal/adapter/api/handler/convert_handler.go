package handler

import (
	"bufio"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/metrics"
	"github.com/V4T54L/hubformat/internal/adapter/syslog"
	"github.com/V4T54L/hubformat/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Converter is the conversion use case the handler depends on.
type Converter interface {
	Convert(ctx context.Context, event *domain.ParsedEvent) (*domain.Record, error)
}

// ConvertResult is the response for one envelope.
type ConvertResult struct {
	Record  *domain.Record `json:"record,omitempty"`
	RFC5424 string         `json:"rfc5424,omitempty"`
	Error   string         `json:"error,omitempty"`
	Field   string         `json:"field,omitempty"`
}

// ConvertHandler handles HTTP requests for event conversion.
type ConvertHandler struct {
	converter    Converter
	logger       *zap.Logger
	maxEventSize int64
	metrics      *metrics.ConvertMetrics
}

// NewConvertHandler creates a new ConvertHandler.
func NewConvertHandler(c Converter, logger *zap.Logger, maxEventSize int64, m *metrics.ConvertMetrics) *ConvertHandler {
	return &ConvertHandler{
		converter:    c,
		logger:       logger,
		maxEventSize: maxEventSize,
		metrics:      m,
	}
}

// ServeHTTP converts one envelope (application/json) or one envelope per
// line (application/x-ndjson).
func (h *ConvertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxEventSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		h.handleSingleJSON(w, r)
	case "application/x-ndjson":
		h.handleNDJSON(w, r)
	default:
		h.metrics.EventsTotal.WithLabelValues(metrics.StatusErrorMedia).Inc()
		http.Error(w, "Unsupported Media Type: "+r.Header.Get("Content-Type"), http.StatusUnsupportedMediaType)
	}
}

func (h *ConvertHandler) handleSingleJSON(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	h.metrics.BytesTotal.Add(float64(len(data)))

	event, err := DecodeEnvelope(data)
	if err != nil {
		h.metrics.EventsTotal.WithLabelValues(metrics.StatusErrorDecode).Inc()
		h.logger.Debug("failed to decode envelope", zap.Error(err))
		http.Error(w, "Bad Request: Failed to decode JSON", http.StatusBadRequest)
		return
	}

	result := h.convert(r.Context(), event)
	switch {
	case result.Field != "":
		h.respondWithJSON(w, http.StatusUnprocessableEntity, result)
	case result.Error != "":
		h.respondWithJSON(w, http.StatusInternalServerError, result)
	default:
		h.respondWithJSON(w, http.StatusOK, result)
	}
}

func (h *ConvertHandler) handleNDJSON(w http.ResponseWriter, r *http.Request) {
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), int(h.maxEventSize))

	var results []ConvertResult
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		h.metrics.BytesTotal.Add(float64(len(line)))

		event, err := DecodeEnvelope(line)
		if err != nil {
			h.metrics.EventsTotal.WithLabelValues(metrics.StatusErrorDecode).Inc()
			h.logger.Debug("failed to decode ndjson line", zap.Int("line", len(results)+1), zap.Error(err))
			http.Error(w, "Bad Request: Failed to decode NDJSON line", http.StatusBadRequest)
			return
		}
		results = append(results, h.convert(r.Context(), event))
	}
	if err := scanner.Err(); err != nil {
		h.writeReadError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			h.logger.Warn("failed to write ndjson result", zap.Error(err))
			return
		}
	}
}

func (h *ConvertHandler) convert(ctx context.Context, event *domain.ParsedEvent) ConvertResult {
	record, err := h.converter.Convert(ctx, event)
	if err != nil {
		var fieldErr *domain.MissingOrInvalidFieldError
		if errors.As(err, &fieldErr) {
			return ConvertResult{Error: err.Error(), Field: fieldErr.Field}
		}
		h.logger.Error("failed to convert event", zap.Error(err))
		return ConvertResult{Error: err.Error()}
	}

	line, err := syslog.Format(record)
	if err != nil {
		h.metrics.EventsTotal.WithLabelValues(metrics.StatusErrorRender).Inc()
		h.logger.Error("failed to render record", zap.Error(err))
		return ConvertResult{Record: record, Error: err.Error()}
	}
	return ConvertResult{Record: record, RFC5424: line}
}

func (h *ConvertHandler) writeReadError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || errors.Is(err, bufio.ErrTooLong) {
		h.metrics.EventsTotal.WithLabelValues(metrics.StatusErrorSize).Inc()
		http.Error(w, "http: request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	h.logger.Error("failed to read request body", zap.Error(err))
	http.Error(w, "Bad Request", http.StatusBadRequest)
}

func (h *ConvertHandler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
