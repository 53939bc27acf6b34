package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"transportcore/internal/config"
	"transportcore/internal/db"
	"transportcore/internal/metrics"
	"transportcore/internal/publisher"
	"transportcore/internal/sim"
	"transportcore/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var sqlDB *sql.DB
	var currentDBName string
	{
		baseDSN := cfg.DatabaseURL
		rootDSN, err := db.WithDBName(baseDSN, "postgres")
		if err != nil {
			log.Fatalf("invalid base DSN: %v", err)
		}
		metaDB, err := db.Open(rootDSN)
		if err != nil {
			log.Fatalf("db open (meta) error: %v", err)
		}
		defer metaDB.Close()
		if err := db.Ping(ctx, metaDB); err != nil {
			log.Fatalf("db ping (meta) error: %v", err)
		}
		finalDSN := baseDSN
		if cfg.Realm != "" {
			name, err := db.ResolveLatestRealmDBName(ctx, metaDB, cfg.Realm)
			if err != nil {
				log.Fatalf("resolve latest realm db for %q: %v", cfg.Realm, err)
			}
			currentDBName = name
			finalDSN, err = db.WithDBName(baseDSN, name)
			if err != nil {
				log.Fatalf("compose DSN: %v", err)
			}
			log.Printf("using database %q for realm %q", name, cfg.Realm)
		}
		sqlDB, err = db.Open(finalDSN)
		if err != nil {
			log.Fatalf("db open (realm) error: %v", err)
		}
		defer sqlDB.Close()
		if err := db.Ping(ctx, sqlDB); err != nil {
			log.Fatalf("db ping (realm) error: %v", err)
		}
	}

	var mcol *metrics.Collector
	var metricsSrvCancel context.CancelFunc
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SpeedMultiplier, cfg.TickInterval, cfg.RealmRefreshInterval)
		mctx, mcancel := context.WithCancel(ctx)
		metricsSrvCancel = mcancel
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-mctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	defer pub.Close()

	// A real deployment wires in whatever owns the map/grid lifecycle;
	// this in-memory implementation stands in for it so the binary is
	// runnable standalone.
	mapManager := transport.MapManager(transport.NewMemMapManager())

	mgr := startManager(ctx, sqlDB, pub, cfg, mcol, mapManager)
	mgr.StartRefresher(ctx)

	var done chan struct{}
	if cfg.Realm != "" {
		done = make(chan struct{})
		go func() {
			ticker := time.NewTicker(cfg.RealmRefreshInterval)
			defer ticker.Stop()
			baseDSN := cfg.DatabaseURL
			for {
				select {
				case <-ctx.Done():
					close(done)
					return
				case <-ticker.C:
				}

				needSwitch := false
				if err := db.Ping(ctx, sqlDB); err != nil {
					log.Printf("db ping failed: %v — re-resolving realm db", err)
					if mcol != nil {
						mcol.DBSwitches.WithLabelValues("ping_failure").Inc()
					}
					needSwitch = true
				}

				rootDSN, _ := db.WithDBName(baseDSN, "postgres")
				metaDB, err := db.Open(rootDSN)
				if err != nil {
					log.Printf("meta db open error: %v", err)
					continue
				}
				newName, err := db.ResolveLatestRealmDBName(ctx, metaDB, cfg.Realm)
				metaDB.Close()
				if err != nil {
					log.Printf("resolve latest realm db error: %v", err)
					continue
				}
				if newName != "" && newName != currentDBName {
					log.Printf("detected updated db for realm %q: %q -> %q", cfg.Realm, currentDBName, newName)
					if mcol != nil {
						mcol.DBSwitches.WithLabelValues("update").Inc()
					}
					needSwitch = true
				}
				if !needSwitch {
					continue
				}

				targetName := currentDBName
				if newName != "" {
					targetName = newName
				}
				newDSN, err := db.WithDBName(baseDSN, targetName)
				if err != nil {
					log.Printf("compose DSN error: %v", err)
					continue
				}
				newDB, err := db.Open(newDSN)
				if err != nil {
					log.Printf("open new db error: %v", err)
					continue
				}
				if err := db.Ping(ctx, newDB); err != nil {
					log.Printf("ping new db error: %v", err)
					newDB.Close()
					continue
				}

				mgr.Stop()
				sqlDB.Close()
				sqlDB = newDB
				currentDBName = targetName
				log.Printf("switched to db %q for realm %q", currentDBName, cfg.Realm)

				mgr = startManager(ctx, sqlDB, pub, cfg, mcol, mapManager)
				mgr.StartRefresher(ctx)
			}
		}()
	}

	<-ctx.Done()
	mgr.Stop()
	if done != nil {
		<-done
	}
	if metricsSrvCancel != nil {
		metricsSrvCancel()
	}
	log.Println("shutdown complete")
}

func startManager(ctx context.Context, sqlDB *sql.DB, pub *publisher.NATSPublisher, cfg *config.Config, mcol *metrics.Collector, mapManager transport.MapManager) *sim.Manager {
	mgr := sim.NewManager(sqlDB, pub, cfg.TickInterval, cfg.SpeedMultiplier, cfg.RealmRefreshInterval, cfg.Realm, mcol, mapManager, nil, nil)
	if err := mgr.Start(ctx); err != nil {
		log.Fatalf("start manager: %v", err)
	}
	return mgr
}

// wrapPublisherMetrics adapts our Collector to the publisher's minimal
// metrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()  { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc() { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
