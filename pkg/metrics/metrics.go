// Package metrics exposes the pipeline's packet counters and the
// impairment subsystem's currently-effective samples as Prometheus
// metrics, served over /metrics on an optional HTTP endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PacketsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netimpair_packets_received_total",
		Help: "Total datagrams read off the listen socket.",
	})
	PacketsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netimpair_packets_sent_total",
		Help: "Total datagrams forwarded to the peer endpoint.",
	})
	PacketsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netimpair_packets_dropped_total",
		Help: "Total datagrams dropped, by the loss draw or by degenerate peer routing.",
	})
	PacketsCorrupted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netimpair_packets_corrupted_total",
		Help: "Total datagrams that received at least one bit flip before send.",
	})
	BitsFlipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netimpair_bits_flipped_total",
		Help: "Total individual bit flips applied across all corrupted packets.",
	})

	currentBandwidth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netimpair_bandwidth_bytes_per_second",
		Help: "Currently effective bandwidth sample.",
	})
	currentLatency = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netimpair_latency_seconds",
		Help: "Currently effective one-way latency sample.",
	})
	currentLoss = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netimpair_loss_rate",
		Help: "Currently effective packet loss probability, clamped to [0,1].",
	})
	currentCorruption = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netimpair_corruption_rate",
		Help: "Currently effective per-packet corruption probability, clamped to [0,1].",
	})
)

func init() {
	prometheus.MustRegister(
		PacketsReceived, PacketsSent, PacketsDropped, PacketsCorrupted, BitsFlipped,
		currentBandwidth, currentLatency, currentLoss, currentCorruption,
	)
}

// SetGauges updates the currently-effective-sample gauges. Called from
// the pipeline's own loop after every refresh check, whether or not
// that check resampled.
func SetGauges(bandwidth, latency, loss, corruption float64) {
	currentBandwidth.Set(bandwidth)
	currentLatency.Set(latency)
	currentLoss.Set(loss)
	currentCorruption.Set(corruption)
}

// Serve exposes /metrics on addr in a background goroutine. It returns
// the *http.Server so the caller can Shutdown it on exit.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
	return server
}
