package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event status label values.
const (
	StatusConverted    = "converted"
	StatusErrorField   = "error_field"
	StatusErrorDecode  = "error_decode"
	StatusErrorSize    = "error_size"
	StatusErrorMedia   = "error_media_type"
	StatusErrorRender  = "error_render"
	StatusErrorLimited = "error_rate_limited"
)

// ConvertMetrics holds the Prometheus metrics shared by the conversion
// service and the consumer.
type ConvertMetrics struct {
	EventsTotal        *prometheus.CounterVec
	FieldFailuresTotal *prometheus.CounterVec
	BytesTotal         prometheus.Counter
	RecordsWritten     prometheus.Counter
	SinkRetriesTotal   prometheus.Counter
}

// NewConvertMetrics creates the metrics and registers them with reg.
func NewConvertMetrics(reg prometheus.Registerer) *ConvertMetrics {
	factory := promauto.With(reg)
	return &ConvertMetrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hubformat",
			Subsystem: "convert",
			Name:      "events_total",
			Help:      "Total number of events handled by status.",
		}, []string{"status"}),
		FieldFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hubformat",
			Subsystem: "convert",
			Name:      "field_failures_total",
			Help:      "Total number of conversions that failed on a missing or invalid field.",
		}, []string{"field"}),
		BytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hubformat",
			Subsystem: "convert",
			Name:      "bytes_total",
			Help:      "Total number of request bytes accepted for conversion.",
		}),
		RecordsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hubformat",
			Subsystem: "sink",
			Name:      "records_written_total",
			Help:      "Total number of records written to the sink.",
		}),
		SinkRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hubformat",
			Subsystem: "sink",
			Name:      "retries_total",
			Help:      "Total number of failed sink writes that were retried.",
		}),
	}
}
