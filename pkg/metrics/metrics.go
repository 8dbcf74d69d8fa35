package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters collected during a single batch run.
// The runs are one-shot jobs, so metrics live on a private registry and are
// flushed to a node_exporter textfile instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry

	PagesTotal     *prometheus.CounterVec
	ImagesTotal    *prometheus.CounterVec
	BytesTotal     *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	EncodesTotal   *prometheus.CounterVec
	RunDuration    *prometheus.GaugeVec
	SavingsPercent prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "migrator_pages_total",
			Help: "Pages fetched by the crawl run.",
		}, []string{"status"}), // success, failure
		ImagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "migrator_images_total",
			Help: "Images handled, by run stage and outcome.",
		}, []string{"stage", "outcome"}), // stage: download, optimize
		BytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "migrator_bytes_total",
			Help: "Bytes written or read, by kind.",
		}, []string{"kind"}), // downloaded, original, optimized
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "migrator_errors_total",
			Help: "Non-fatal errors encountered during a run.",
		}, []string{"type"}), // page_fetch, image_fetch, decode, write, encode, sink
		EncodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "migrator_encodes_total",
			Help: "External encoder invocations.",
		}, []string{"format", "status"}),
		RunDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "migrator_run_duration_seconds",
			Help: "Wall time of the last run.",
		}, []string{"command"}),
		SavingsPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "migrator_savings_percent",
			Help: "Overall savings of the last optimize run.",
		}),
	}
}

func (m *Metrics) IncPage(status string) {
	m.PagesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncImage(stage, outcome string) {
	m.ImagesTotal.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) AddBytes(kind string, n int64) {
	if n > 0 {
		m.BytesTotal.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *Metrics) IncErrors(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) IncEncode(format string, ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	m.EncodesTotal.WithLabelValues(format, status).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
