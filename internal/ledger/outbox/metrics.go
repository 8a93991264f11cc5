package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets run 1ms to 1s; anything past that is a broker problem,
// not a relay one.
var latencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}

// Metrics instruments the relay. All series carry the doceo_outbox_ prefix.
type Metrics struct {
	pending     prometheus.Gauge
	published   prometheus.Counter
	failures    prometheus.Counter
	publishTime prometheus.Histogram
	batchSize   prometheus.Histogram
	roundTime   prometheus.Histogram
}

// NewMetrics registers the relay metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		pending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "doceo_outbox_pending_total",
			Help: "Current number of ledger events not yet published to Kafka",
		}),
		published: newCounter("doceo_outbox_published_total",
			"Total number of ledger events published to Kafka"),
		failures: newCounter("doceo_outbox_publish_failures_total",
			"Total number of failed publish attempts"),
		publishTime: newHistogram("doceo_outbox_publish_duration_seconds",
			"Time taken to publish one event to Kafka", latencyBuckets),
		batchSize: newHistogram("doceo_outbox_batch_size",
			"Number of events relayed per round", []float64{1, 5, 10, 25, 50, 100, 250, 500}),
		roundTime: newHistogram("doceo_outbox_round_duration_seconds",
			"Time taken for each relay round", latencyBuckets),
	}
}

func newCounter(name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

func newHistogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
}

// SetQueueDepth records how many events currently wait for the relay.
func (m *Metrics) SetQueueDepth(count int) { m.pending.Set(float64(count)) }

func (m *Metrics) IncPublished()       { m.published.Inc() }
func (m *Metrics) IncPublishFailures() { m.failures.Inc() }

func (m *Metrics) ObservePublishDuration(seconds float64) { m.publishTime.Observe(seconds) }
func (m *Metrics) ObserveBatchSize(size int)              { m.batchSize.Observe(float64(size)) }
func (m *Metrics) ObserveRoundDuration(seconds float64)   { m.roundTime.Observe(seconds) }
