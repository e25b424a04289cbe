// Package metrics exports pipeline events as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const metricsNamespace = "rowstream"

// Collector is a prometheus.Collector fed by the core pipelines through the
// core.Observer interface.
type Collector struct {
	openCursors    prometheus.Gauge
	rows           prometheus.Counter
	batches        prometheus.Counter
	pages          prometheus.Counter
	skippedRecords *prometheus.CounterVec
	sourceErrors   *prometheus.CounterVec
}

// NewCollector returns a new Collector. Register it before use.
func NewCollector() *Collector {
	return &Collector{
		openCursors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "open_cursors",
				Help:      "The number of cursors currently held open.",
			},
		),
		rows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rows_total",
				Help:      "The number of rows read from cursors.",
			},
		),
		batches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "batches_total",
				Help:      "The number of batches emitted.",
			},
		),
		pages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "pages_total",
				Help:      "The number of non-failed page fetches.",
			},
		),
		skippedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "skipped_records_total",
				Help:      "The number of records skipped by filters and aggregations.",
			}, []string{"reason"},
		),
		sourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "source_errors_total",
				Help:      "The number of fatal row source errors by kind.",
			}, []string{"kind"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.openCursors.Describe(ch)
	c.rows.Describe(ch)
	c.batches.Describe(ch)
	c.pages.Describe(ch)
	c.skippedRecords.Describe(ch)
	c.sourceErrors.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.openCursors.Collect(ch)
	c.rows.Collect(ch)
	c.batches.Collect(ch)
	c.pages.Collect(ch)
	c.skippedRecords.Collect(ch)
	c.sourceErrors.Collect(ch)
}

func (c *Collector) CursorOpened() { c.openCursors.Inc() }
func (c *Collector) CursorClosed() { c.openCursors.Dec() }
func (c *Collector) RowRead()      { c.rows.Inc() }
func (c *Collector) BatchEmitted() { c.batches.Inc() }
func (c *Collector) PageFetched()  { c.pages.Inc() }

func (c *Collector) RecordSkipped(reason string) {
	c.skippedRecords.WithLabelValues(reason).Inc()
}

func (c *Collector) SourceError(kind string) {
	c.sourceErrors.WithLabelValues(kind).Inc()
}

// WriteText writes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
