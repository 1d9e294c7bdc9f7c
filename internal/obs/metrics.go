package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector distsat registers, grounded on
// learn-grpc/server/main.go's promhttp.Handler-on-a-side-port pattern plus
// go-grpc-prometheus's own server/client interceptor collectors (registered
// separately against the gRPC server/ClientConn that uses them).
type Metrics struct {
	Registry *prometheus.Registry

	ClausesExported *prometheus.CounterVec // by producer
	ClausesFiltered *prometheus.CounterVec // by producer, reason
	ClausesImported *prometheus.CounterVec // by producer
	SelectionSize   prometheus.Histogram
	LBDLimit        *prometheus.GaugeVec // by producer
}

// NewMetrics constructs and registers every collector against a fresh
// registry (not the global default, so tests can spin up multiple Metrics
// instances without collector-already-registered panics).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ClausesExported: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distsat",
			Name:      "clauses_exported_total",
			Help:      "Learned clauses exported by a producer into the sharing fabric.",
		}, []string{"producer"}),
		ClausesFiltered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distsat",
			Name:      "clauses_filtered_total",
			Help:      "Learned clauses dropped before admission, by reason.",
		}, []string{"producer", "reason"}),
		ClausesImported: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "distsat",
			Name:      "clauses_imported_total",
			Help:      "Learned clauses delivered to a consuming engine.",
		}, []string{"producer"}),
		SelectionSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "distsat",
			Name:      "selection_literals",
			Help:      "Total literal count of clause selections handed to GiveSelection callers.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 12),
		}),
		LBDLimit: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "distsat",
			Name:      "lbd_limit",
			Help:      "Current adaptive LBD admission limit, by producer.",
		}, []string{"producer"}),
	}
}

// Handler returns the promhttp handler exposing this registry. No server in
// this module mounts it.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
