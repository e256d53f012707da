// Package metrics counts what a batch did and exports it in the Prometheus
// text format, for node_exporter's textfile collector or CI artifacts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "imgvariants"

// Recorder is what the pipeline reports into.
type Recorder interface {
	StartInput() func(success bool)
	Fetch() func()
	Encode() func()

	BytesRead(n int)
	VariantWritten(bytes int)
	TargetFailed(stage string)
}

type Options struct {
	Labels prometheus.Labels
}

func copyLabels(p prometheus.Labels) prometheus.Labels {
	x := prometheus.Labels{}
	for k, v := range p {
		x[k] = v
	}
	return x
}

// Instance is a Recorder backed by Prometheus collectors.
type Instance struct {
	inputsSucceeded prometheus.Counter
	inputsFailed    prometheus.Counter
	currentInputs   prometheus.Gauge

	inputDurationSeconds  prometheus.Histogram
	fetchDurationSeconds  prometheus.Histogram
	encodeDurationSeconds prometheus.Histogram

	bytesRead       prometheus.Counter
	bytesWritten    prometheus.Counter
	variantsWritten prometheus.Counter
	targetFailures  *prometheus.CounterVec
}

func New(o Options) *Instance {
	succeeded := copyLabels(o.Labels)
	failed := copyLabels(o.Labels)
	read := copyLabels(o.Labels)
	written := copyLabels(o.Labels)

	succeeded["state"] = "successful"
	failed["state"] = "failed"
	read["direction"] = "read"
	written["direction"] = "written"

	return &Instance{
		inputsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "inputs_total",
			Help:        "The total number of processed inputs",
			ConstLabels: succeeded,
		}),
		inputsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "inputs_total",
			Help:        "The total number of processed inputs",
			ConstLabels: failed,
		}),
		currentInputs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "current_inputs",
			Help:        "The number of inputs being processed",
			ConstLabels: o.Labels,
		}),
		inputDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "input_duration_seconds",
			Help:        "The seconds spent on one input, all variants included",
			ConstLabels: o.Labels,
		}),
		fetchDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "resolve_duration_seconds",
			Help:        "The seconds spent reading or downloading sources",
			ConstLabels: o.Labels,
		}),
		encodeDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "encode_duration_seconds",
			Help:        "The seconds spent producing one variant",
			ConstLabels: o.Labels,
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "bytes_total",
			Help:        "The total number of source and variant bytes",
			ConstLabels: read,
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "bytes_total",
			Help:        "The total number of source and variant bytes",
			ConstLabels: written,
		}),
		variantsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "variants_written_total",
			Help:        "The total number of variant files written",
			ConstLabels: o.Labels,
		}),
		targetFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "failures_total",
			Help:        "The total number of failures by stage",
			ConstLabels: o.Labels,
		}, []string{"stage"}),
	}
}

func (m *Instance) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.inputsSucceeded,
		m.inputsFailed,
		m.currentInputs,

		m.inputDurationSeconds,
		m.fetchDurationSeconds,
		m.encodeDurationSeconds,

		m.bytesRead,
		m.bytesWritten,
		m.variantsWritten,
		m.targetFailures,
	)
}

func (m *Instance) StartInput() func(success bool) {
	start := time.Now()
	m.currentInputs.Inc()

	return func(success bool) {
		if success {
			m.inputsSucceeded.Inc()
		} else {
			m.inputsFailed.Inc()
		}
		m.currentInputs.Dec()
		m.inputDurationSeconds.Observe(time.Since(start).Seconds())
	}
}

func (m *Instance) Fetch() func() {
	start := time.Now()

	return func() {
		m.fetchDurationSeconds.Observe(time.Since(start).Seconds())
	}
}

func (m *Instance) Encode() func() {
	start := time.Now()

	return func() {
		m.encodeDurationSeconds.Observe(time.Since(start).Seconds())
	}
}

func (m *Instance) BytesRead(n int) {
	m.bytesRead.Add(float64(n))
}

func (m *Instance) VariantWritten(bytes int) {
	m.variantsWritten.Inc()
	m.bytesWritten.Add(float64(bytes))
}

func (m *Instance) TargetFailed(stage string) {
	m.targetFailures.WithLabelValues(stage).Inc()
}

// WriteTextfile registers m on a fresh registry and writes it to path
// atomically.
func (m *Instance) WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	m.Register(reg)
	return prometheus.WriteToTextfile(path, reg)
}

// Nop discards everything.
type Nop struct{}

func (Nop) StartInput() func(bool) { return func(bool) {} }
func (Nop) Fetch() func()          { return func() {} }
func (Nop) Encode() func()         { return func() {} }
func (Nop) BytesRead(int)          {}
func (Nop) VariantWritten(int)     {}
func (Nop) TargetFailed(string)    {}
