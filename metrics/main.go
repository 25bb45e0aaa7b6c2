// Package metrics exposes the simulation's prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveTrains prometheus.Gauge

	Couplings    prometheus.Counter
	Uncouplings  prometheus.Counter
	SwitchThrows prometheus.Counter

	TickDuration prometheus.Histogram
	ClockSeconds prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveTrains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "unten_active_trains",
			Help: "Number of trains in the active train set.",
		}),
		Couplings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unten_couplings_total",
			Help: "Total coupling events.",
		}),
		Uncouplings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unten_uncouplings_total",
			Help: "Total uncoupling events.",
		}),
		SwitchThrows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unten_switch_throws_total",
			Help: "Total switch state changes, from any aligner.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "unten_tick_duration_seconds",
			Help:    "Duration of simulation tick computations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		ClockSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "unten_clock_seconds",
			Help: "Simulated clock time in seconds.",
		}),
	}

	reg.MustRegister(
		c.ActiveTrains,
		c.Couplings, c.Uncouplings, c.SwitchThrows,
		c.TickDuration, c.ClockSeconds,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Errorw("metrics server error", "err", err)
		}
	}()
	zap.S().Infow("metrics listening", "addr", addr)
	return srv
}
