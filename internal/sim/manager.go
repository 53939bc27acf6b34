package sim

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"transportcore/internal/db"
	mmetrics "transportcore/internal/metrics"
	"transportcore/internal/publisher"
	"transportcore/internal/transport"
)

// Manager owns the static registry of compiled routes and a goroutine
// per currently-occupied map, each running a fixed-rate tick loop over
// the carriers live on that map (spec.md §5: single-threaded-per-map
// cooperative model, adapted from the teacher's one-goroutine-per-trip
// shape).
type Manager struct {
	db              *sql.DB
	pub             *publisher.NATSPublisher
	tickInterval    time.Duration
	speedMultiplier float64
	realmRefresh    time.Duration
	realm           string
	metrics         *mmetrics.Collector

	staticReg  *transport.StaticRegistry
	dynReg     *transport.DynamicRegistry
	mapManager transport.MapManager
	notifier   transport.HandoffNotifier
	migrator   transport.CreatureMigrator

	mu      sync.Mutex
	running map[uint32]context.CancelFunc // mapID -> cancel
	wg      sync.WaitGroup

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

// NewManager wires a Manager against an already-open database
// connection, publisher, metrics collector, and map capability.
func NewManager(dbConn *sql.DB, pub *publisher.NATSPublisher, tickInterval time.Duration, speedMultiplier float64, realmRefresh time.Duration, realm string, metrics *mmetrics.Collector, mapManager transport.MapManager, notifier transport.HandoffNotifier, migrator transport.CreatureMigrator) *Manager {
	return &Manager{
		db:              dbConn,
		pub:             pub,
		tickInterval:    tickInterval,
		speedMultiplier: speedMultiplier,
		realmRefresh:    realmRefresh,
		realm:           realm,
		metrics:         metrics,
		staticReg:       transport.NewStaticRegistry(),
		dynReg:          transport.NewDynamicRegistry(),
		mapManager:      mapManager,
		notifier:        notifier,
		migrator:        migrator,
		running:         make(map[uint32]context.CancelFunc),
	}
}

// Start loads the catalog from the database, compiles every route, and
// spawns each transport's initial carrier on its starting map.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.reloadCatalog(ctx); err != nil {
		return err
	}

	for _, entry := range m.staticReg.Entries() {
		route, tmpl, ok := m.staticReg.Get(entry)
		if !ok {
			continue
		}
		c := &transport.CarrierInstance{Entry: entry, Route: route, Template: tmpl}
		c.ResetForSegment(0)
		c.Frame = transport.NewPassengerFrame(c)
		m.dynReg.Set(c)
		m.ensureMapLoop(ctx, c.CurrentMapID)
	}
	if m.metrics != nil {
		m.metrics.ActiveCarriers.Set(float64(len(m.staticReg.Entries())))
	}
	return nil
}

// reloadCatalog fetches every transport template and its path nodes
// and rebuilds the static registry, mirroring
// TransportMgr::LoadTransports's per-row load-and-skip-on-error loop.
func (m *Manager) reloadCatalog(ctx context.Context) error {
	templates, err := db.FetchTransportTemplates(ctx, m.db)
	if err != nil {
		return err
	}

	reg := transport.NewStaticRegistry()
	for _, tmpl := range templates {
		nodes, err := db.FetchTaxiPathNodes(ctx, m.db, tmpl.TaxiPathID)
		if err != nil {
			log.Printf("transport entry %d: load path nodes: %v", tmpl.Entry, err)
			continue
		}
		if err := reg.Load(tmpl, nodes); err != nil {
			log.Printf("transport entry %d: %v", tmpl.Entry, err)
			continue
		}
	}

	spawned, err := db.FetchSpawnTableEntries(ctx, m.db)
	if err == nil {
		if bad := reg.CheckSpawnTableIntegrity(spawned); len(bad) > 0 {
			log.Printf("integrity check: %d transport entries found in the generic spawn table: %v", len(bad), bad)
		}
	}

	m.staticReg = reg
	return nil
}

// ensureMapLoop starts a per-map tick goroutine for mapID if one is
// not already running.
func (m *Manager) ensureMapLoop(parent context.Context, mapID uint32) {
	m.mu.Lock()
	if _, exists := m.running[mapID]; exists {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.running[mapID] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	log.Printf("starting tick loop for map %d", mapID)
	go func() {
		defer m.wg.Done()
		m.runMapLoop(ctx, mapID)
		m.mu.Lock()
		delete(m.running, mapID)
		m.mu.Unlock()
	}()
}

func (m *Manager) runMapLoop(ctx context.Context, mapID uint32) {
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			diff := now.Sub(last)
			last = now
			m.tickMap(mapID, diff)
		}
	}
}

// tickMap advances every carrier currently live on mapID by one tick,
// performing a handoff for any carrier that reaches the end of its
// MapSegment and publishing its new pose or handoff outcome.
func (m *Manager) tickMap(mapID uint32, diff time.Duration) {
	start := time.Now()
	mapObj, err := m.mapManager.GetOrCreateMap(mapID)
	if err != nil {
		log.Printf("map %d unavailable: %v", mapID, err)
		return
	}

	diffMs := uint32(float64(diff.Milliseconds()) * m.speedMultiplier)
	dwelling := 0

	for _, entry := range m.staticReg.Entries() {
		carrier, ok := m.dynReg.Get(entry)
		if !ok || carrier.CurrentMapID != mapID {
			continue
		}

		reachedEnd := carrier.Tick(diffMs, mapObj, m)
		if carrier.State == transport.StateDwelling {
			dwelling++
		}

		if !reachedEnd {
			m.dynReg.Set(carrier)
			m.publishRelocation(carrier)
			continue
		}

		next, hr, err := transport.Handoff(carrier, mapObj, m.mapManager, m.notifier, m.migrator)
		if err != nil {
			log.Printf("handoff failed for entry %d: %v", entry, err)
			continue
		}
		m.dynReg.Set(next)
		if m.metrics != nil {
			m.metrics.HandoffsTotal.Inc()
			m.metrics.TeleportFailuresTotal.Add(float64(hr.DroppedNonPlayers))
		}
		m.publishHandoff(entry, mapID, next, hr)
		if next.CurrentMapID != mapID {
			m.ensureMapLoop(context.Background(), next.CurrentMapID)
		}
	}

	if m.metrics != nil {
		m.metrics.DwellingCarriers.Set(float64(dwelling))
		m.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Manager) publishRelocation(c *transport.CarrierInstance) {
	if m.pub == nil {
		return
	}
	if err := m.pub.PublishRelocation(publisher.RelocationMessage{
		Entry:       c.Entry,
		MapID:       c.CurrentMapID,
		Timestamp:   time.Now(),
		X:           c.Position.X,
		Y:           c.Position.Y,
		Z:           c.Position.Z,
		Orientation: c.Orientation,
		State:       c.State.String(),
	}); err != nil {
		log.Printf("publish relocation for entry %d: %v", c.Entry, err)
	}
}

func (m *Manager) publishHandoff(entry, fromMap uint32, next *transport.CarrierInstance, hr *transport.HandoffResult) {
	if m.pub == nil {
		return
	}
	if err := m.pub.PublishHandoff(publisher.HandoffMessage{
		Entry:             entry,
		FromMapID:         fromMap,
		ToMapID:           next.CurrentMapID,
		DroppedNonPlayers: hr.DroppedNonPlayers,
		Timestamp:         time.Now(),
	}); err != nil {
		log.Printf("publish handoff for entry %d: %v", entry, err)
	}
}

// DispatchArrival implements transport.EventDispatcher, broadcasting a
// scripted arrival event over NATS.
func (m *Manager) DispatchArrival(entry, eventID uint32) {
	m.dispatchEvent(entry, eventID, true)
}

// DispatchDeparture implements transport.EventDispatcher, broadcasting
// a scripted departure event over NATS.
func (m *Manager) DispatchDeparture(entry, eventID uint32) {
	m.dispatchEvent(entry, eventID, false)
}

func (m *Manager) dispatchEvent(entry, eventID uint32, arrival bool) {
	if m.pub == nil {
		return
	}
	mapID, _ := m.dynReg.MapFor(entry)
	if err := m.pub.PublishEvent(mapID, publisher.EventMessage{
		Entry:     entry,
		EventID:   eventID,
		Arrival:   arrival,
		Timestamp: time.Now(),
	}); err != nil {
		log.Printf("publish event for entry %d: %v", entry, err)
	}
}

// Stop cancels every per-map tick loop and the realm refresher, and
// waits for them to exit.
func (m *Manager) Stop() {
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()

	m.mu.Lock()
	for _, cancel := range m.running {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// StartRefresher launches a background loop that periodically reloads
// the transport catalog, picking up taxi-path or template edits
// without a restart.
func (m *Manager) StartRefresher(parent context.Context) {
	if m.realmRefresh <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		ticker := time.NewTicker(m.realmRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.reloadCatalog(ctx); err != nil {
					log.Printf("reload transport catalog: %v", err)
				}
			}
		}
	}()
}
