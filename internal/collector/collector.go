// Package collector turns decoded capability values into Prometheus gauges.
package collector

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/airmonitor/airmonitor/internal/capability"
	"github.com/airmonitor/airmonitor/internal/model"
)

// Namespace prefixes every exported metric name
const Namespace = "amazon_air_monitor"

// Omission records a known capability left out because its value had an
// unexpected shape
type Omission struct {
	Instance string
	Err      error
}

// Translate maps capabilities to metrics in table order. Unknown ids and
// malformed values produce nothing.
func Translate(caps model.CapabilityMap) []model.Metric {
	metrics, _ := TranslateWithOmissions(caps)
	return metrics
}

// TranslateWithOmissions is Translate that also reports which known
// capabilities were dropped and why
func TranslateWithOmissions(caps model.CapabilityMap) ([]model.Metric, []Omission) {
	var (
		metrics   []model.Metric
		omissions []Omission
	)

	for _, c := range capability.All() {
		raw, ok := caps[c.Instance]
		if !ok {
			continue
		}

		reading, err := c.Decode(raw)
		if err != nil {
			omissions = append(omissions, Omission{Instance: c.Instance, Err: err})
			continue
		}

		metrics = append(metrics, model.Metric{
			Name:  prometheus.BuildFQName(Namespace, "", reading.Suffix),
			Help:  c.Help,
			Value: reading.Value,
		})
	}

	return metrics, omissions
}

// Collector exposes a fixed set of metrics collected for one scrape. Metric
// names depend on the reading (temperature scale), so it registers as an
// unchecked collector.
type Collector struct {
	metrics []model.Metric
}

// New creates a collector for one scrape
func New(metrics []model.Metric) *Collector {
	return &Collector{metrics: metrics}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.metrics {
		desc := prometheus.NewDesc(m.Name, m.Help, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, m.Value)
	}
}

// NewRegistry returns a fresh registry holding only the given metrics
func NewRegistry(metrics []model.Metric) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(New(metrics)); err != nil {
		return nil, err
	}
	return reg, nil
}
