package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/V4T54L/hubformat/internal/adapter/metrics"
	"github.com/V4T54L/hubformat/internal/adapter/syslog"
	"github.com/V4T54L/hubformat/internal/domain"
)

// WriterSink implements domain.RecordSink by writing one RFC5424 line per
// record to an io.Writer.
type WriterSink struct {
	logger  *zap.Logger
	metrics *metrics.ConvertMetrics

	mu  sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

var _ domain.RecordSink = (*WriterSink)(nil)

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer, m *metrics.ConvertMetrics, logger *zap.Logger) *WriterSink {
	return &WriterSink{
		logger:  logger.With(zap.String("component", "writer_sink")),
		metrics: m,
		out:     w,
	}
}

// WriteRecordBatch renders the whole batch in memory and hands it to the
// writer in a single Write. Nothing reaches the writer unless every record
// was rendered or dropped, so a failed batch can be retried without
// duplicating lines. Records that cannot be rendered are logged and
// dropped; only cancellation and write failures are returned.
func (s *WriterSink) WriteRecordBatch(ctx context.Context, records []*domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Reset()
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := syslog.Format(r)
		if err != nil {
			s.metrics.EventsTotal.WithLabelValues(metrics.StatusErrorRender).Inc()
			s.logger.Warn("Dropping record that could not be rendered", zap.String("msg_id", r.MsgID), zap.Error(err))
			continue
		}

		s.buf.WriteString(line)
		s.buf.WriteByte('\n')
	}

	if s.buf.Len() == 0 {
		return nil
	}
	if _, err := s.out.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}
