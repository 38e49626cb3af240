// Package metrics exposes Prometheus metrics for the ledger service on a
// standalone listener, separate from the API listener so that scrapes are not
// affected by API drain state.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LedgerOps counts ledger entry-point invocations by operation and outcome
// ("ok" or "rejected").
var LedgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "flightsurety_ledger_operations_total",
	Help: "Ledger entry-point invocations by operation and outcome.",
}, []string{"operation", "outcome"})

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service name listening on addr.
func New(name, addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}, nil
}

// ListenAndServe blocks serving scrape requests until Shutdown is called.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
