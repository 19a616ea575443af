// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meeting_relay"

// Metrics holds all Prometheus metrics for the relay server and the agent
// channel manager. Both sides share the one registry; each process only
// moves the series it owns.
type Metrics struct {
	// Connection metrics (relay side)
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge

	// Frame metrics (relay side)
	FramesTotal   prometheus.Counter
	FramesInvalid prometheus.Counter
	DispatchTotal *prometheus.CounterVec

	// Audio metrics
	AudioBytesReceived prometheus.Counter
	ChunksPersisted    prometheus.Counter
	PersistErrors      prometheus.Counter

	// Transcript metrics
	TranscriptsEmitted prometheus.Counter
	TranscribeErrors   prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Channel manager metrics (agent side)
	SendsQueued      prometheus.Counter
	SendsTransmitted prometheus.Counter
	QueueDepth       prometheus.Gauge
	ReconnectsTotal  prometheus.Counter
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of agent connections accepted",
		}),
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently connected agents",
		}),

		FramesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of inbound frames read",
		}),
		FramesInvalid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_invalid_total",
			Help:      "Total number of frames dropped as invalid JSON or missing type",
		}),
		DispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of dispatched envelopes by type",
		}, []string{"type"}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio payload bytes received",
		}),
		ChunksPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_persisted_total",
			Help:      "Total number of audio chunks written to storage",
		}),
		PersistErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Total number of audio chunk writes that failed",
		}),

		TranscriptsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_emitted_total",
			Help:      "Total number of transcript events pushed back to agents",
		}),
		TranscribeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcribe_errors_total",
			Help:      "Total number of transcriber failures",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		SendsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_queued_total",
			Help:      "Total number of envelopes accepted by Send",
		}),
		SendsTransmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_transmitted_total",
			Help:      "Total number of envelopes handed to the transport",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbound_queue_depth",
			Help:      "Number of envelopes waiting in the outbound queue",
		}),
		ReconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Total number of channel reconnection attempts",
		}),
	}
}

// RecordKafkaPublish records the outcome of one Kafka publish.
func (m *Metrics) RecordKafkaPublish(topic string, err error, durationSeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(durationSeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}

// RecordConnectionOpen records a newly accepted agent connection.
func (m *Metrics) RecordConnectionOpen() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

// RecordConnectionClose records an agent connection going away.
func (m *Metrics) RecordConnectionClose() {
	m.ConnectionsActive.Dec()
}
