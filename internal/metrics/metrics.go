package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes transportd's process metrics behind a private
// registry, mirroring the teacher's Collector shape.
type Collector struct {
	reg *prometheus.Registry

	ActiveCarriers    prometheus.Gauge
	DwellingCarriers  prometheus.Gauge

	HandoffsTotal        prometheus.Counter
	TeleportFailuresTotal prometheus.Counter
	BoardsTotal          prometheus.Counter
	UnboardsTotal        prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	DBSwitches *prometheus.CounterVec // reason label: update|ping_failure

	TickDuration            prometheus.Histogram
	PassengerRefreshDuration prometheus.Histogram

	SpeedMultiplier      prometheus.Gauge
	TickInterval         prometheus.Gauge // seconds
	RealmRefreshInterval prometheus.Gauge // seconds
}

// NewCollector builds and registers every metric, seeding the static
// config-derived gauges.
func NewCollector(speedMultiplier float64, tickInterval, realmRefreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveCarriers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transportd_active_carriers",
			Help: "Number of currently ticking carrier goroutines.",
		}),
		DwellingCarriers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transportd_dwelling_carriers",
			Help: "Number of carriers currently in StateDwelling.",
		}),
		HandoffsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportd_handoffs_total",
			Help: "Total cross-map carrier handoffs performed.",
		}),
		TeleportFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportd_teleport_failures_total",
			Help: "Total passenger teleports refused during a handoff.",
		}),
		BoardsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportd_boards_total",
			Help: "Total successful passenger boards.",
		}),
		UnboardsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportd_unboards_total",
			Help: "Total passenger unboards.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportd_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportd_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transportd_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		DBSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transportd_db_switches_total",
			Help: "Number of realm database switches.",
		}, []string{"reason"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transportd_tick_duration_seconds",
			Help:    "Duration of one per-map tick pass over its carriers.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		PassengerRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transportd_passenger_refresh_duration_seconds",
			Help:    "Duration of a passenger frame relocation refresh.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 15),
		}),
		SpeedMultiplier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transportd_speed_multiplier",
			Help: "Current global speed multiplier.",
		}),
		TickInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transportd_tick_interval_seconds",
			Help: "Configured per-map tick interval in seconds.",
		}),
		RealmRefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transportd_realm_refresh_interval_seconds",
			Help: "Realm database re-resolution interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.ActiveCarriers, c.DwellingCarriers,
		c.HandoffsTotal, c.TeleportFailuresTotal, c.BoardsTotal, c.UnboardsTotal,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.DBSwitches, c.TickDuration, c.PassengerRefreshDuration,
		c.SpeedMultiplier, c.TickInterval, c.RealmRefreshInterval,
	)

	c.SpeedMultiplier.Set(speedMultiplier)
	c.TickInterval.Set(tickInterval.Seconds())
	c.RealmRefreshInterval.Set(realmRefreshInterval.Seconds())

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
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
