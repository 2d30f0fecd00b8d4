package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	chunksDelivered  prometheus.Counter
	bytesExported    prometheus.Counter
	fetchDuration    prometheus.Histogram
	deliverDuration  prometheus.Histogram
	offsetSaves      prometheus.Counter
	exportOffset     *prometheus.GaugeVec
	connectionStatus *prometheus.GaugeVec
	exportsCompleted prometheus.Counter
	exportsFailed    prometheus.Counter
}

func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		chunksDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "blobstream_chunks_delivered_total",
			Help: "Total number of chunks delivered to the sink",
		}),
		bytesExported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "blobstream_bytes_exported_total",
			Help: "Total number of column bytes delivered to the sink",
		}),
		fetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "blobstream_fetch_duration_seconds",
			Help:    "Duration of chunk range fetches in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		deliverDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "blobstream_deliver_duration_seconds",
			Help:    "Duration of sink deliveries in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		offsetSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "blobstream_offset_saves_total",
			Help: "Total number of manifest offset saves",
		}),
		exportOffset: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blobstream_export_offset",
			Help: "Next unread byte offset persisted for a column export",
		}, []string{"table", "column"}),
		connectionStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blobstream_connection_status",
			Help: "Source connection status (1 = connected, 0 = disconnected)",
		}, []string{"backend"}),
		exportsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "blobstream_exports_completed_total",
			Help: "Total number of exports that reached end of stream",
		}),
		exportsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "blobstream_exports_failed_total",
			Help: "Total number of exports that ended in an error",
		}),
	}
}

func (m *PrometheusMetrics) IncChunksDelivered() {
	m.chunksDelivered.Inc()
}

func (m *PrometheusMetrics) AddBytesExported(n int) {
	m.bytesExported.Add(float64(n))
}

func (m *PrometheusMetrics) ObserveFetchDuration(duration time.Duration) {
	m.fetchDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) ObserveDeliverDuration(duration time.Duration) {
	m.deliverDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) IncOffsetSaves() {
	m.offsetSaves.Inc()
}

func (m *PrometheusMetrics) SetExportOffset(table, column string, offset int64) {
	m.exportOffset.WithLabelValues(table, column).Set(float64(offset))
}

func (m *PrometheusMetrics) SetConnectionStatus(backend string, connected bool) {
	status := 0.0
	if connected {
		status = 1.0
	}
	m.connectionStatus.WithLabelValues(backend).Set(status)
}

func (m *PrometheusMetrics) IncExportsCompleted() {
	m.exportsCompleted.Inc()
}

func (m *PrometheusMetrics) IncExportsFailed() {
	m.exportsFailed.Inc()
}
