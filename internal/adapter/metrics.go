package adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "rainmeter"

// metrics counts lifecycle activity of one Adapter
type metrics struct {
	registry *prometheus.Registry

	initialized     prometheus.Counter
	finalized       prometheus.Counter
	live            prometheus.Gauge
	panics          *prometheus.CounterVec
	stringsRetained prometheus.Counter
	bytesRetained   prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		initialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_initialized_total",
			Help:      "Measures successfully initialized.",
		}),
		finalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_finalized_total",
			Help:      "Measures finalized and released.",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instances_live",
			Help:      "Measures initialized and not yet finalized.",
		}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_recovered_total",
			Help:      "Panics recovered at an entry point.",
		}, []string{"transition"}),
		stringsRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "string_buffers_retained_total",
			Help:      "GetString buffers handed to Rainmeter and never freed.",
		}),
		bytesRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "string_bytes_retained_total",
			Help:      "Bytes held by retained GetString buffers.",
		}),
	}
	m.registry.MustRegister(
		m.initialized,
		m.finalized,
		m.live,
		m.panics,
		m.stringsRetained,
		m.bytesRetained,
	)
	return m
}

// counterValue reads the current value of c
func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// summary renders every gathered sample as "name{label="v"}=value",
// space separated and ordered by name.
func (m *metrics) summary() string {
	families, err := m.registry.Gather()
	if err != nil {
		return "metrics unavailable: " + err.Error()
	}

	var samples []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var value float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				value = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				value = metric.GetGauge().GetValue()
			default:
				continue
			}
			samples = append(samples, fmt.Sprintf("%s%s=%g", mf.GetName(), labels(metric), value))
		}
	}
	sort.Strings(samples)
	return strings.Join(samples, " ")
}

func labels(metric *dto.Metric) string {
	pairs := metric.GetLabel()
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, lp := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
