// Package metrics holds the Prometheus collectors of the auction engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const pre = "auction_"

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Measures groups every collector of the service.
var Measures = struct {
	Bids            *prometheus.CounterVec
	BidLatency      prometheus.Histogram
	Extensions      prometheus.Counter
	AuctionsEnded   *prometheus.CounterVec
	Offers          *prometheus.CounterVec
	Settlements     *prometheus.CounterVec
	ActivityDropped prometheus.Counter
	SweepErrors     *prometheus.CounterVec
}{
	Bids: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: pre + "bids_total",
		Help: "Bid attempts by result.",
	}, []string{"result"}),
	BidLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    pre + "bid_latency_seconds",
		Help:    "Time spent admitting one bid, lock to commit.",
		Buckets: latencyBuckets,
	}),
	Extensions: prometheus.NewCounter(prometheus.CounterOpts{
		Name: pre + "extensions_total",
		Help: "Anti-snipe extensions applied.",
	}),
	AuctionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: pre + "ended_total",
		Help: "Auctions ended, by outcome.",
	}, []string{"outcome"}),
	Offers: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: pre + "offers_total",
		Help: "Waterfall offers by final status.",
	}, []string{"status"}),
	Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: pre + "settlements_total",
		Help: "Settled auctions by completion status.",
	}, []string{"status"}),
	ActivityDropped: prometheus.NewCounter(prometheus.CounterOpts{
		Name: pre + "activity_dropped_total",
		Help: "Activity entries a sink failed to store.",
	}),
	SweepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: pre + "sweep_errors_total",
		Help: "Per-item failures during scheduled sweeps.",
	}, []string{"sweep"}),
}

func init() {
	prometheus.MustRegister(
		Measures.Bids,
		Measures.BidLatency,
		Measures.Extensions,
		Measures.AuctionsEnded,
		Measures.Offers,
		Measures.Settlements,
		Measures.ActivityDropped,
		Measures.SweepErrors,
	)
}

// Handler serves the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
