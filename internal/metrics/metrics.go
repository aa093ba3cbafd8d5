package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess   = "success"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

// Metrics holds the service counters on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	savesTotal   *prometheus.CounterVec
	fetchesTotal *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		savesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotdog",
			Name:      "saves_total",
			Help:      "Attempts to save a favorite dog image, by result.",
		}, []string{"result"}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotdog",
			Name:      "random_fetches_total",
			Help:      "Random dog image fetches from the image source, by result.",
		}, []string{"result"}),
	}
	registry.MustRegister(
		m.savesTotal,
		m.fetchesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveSave(result string) {
	if m == nil {
		return
	}
	m.savesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFetch(result string) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
