package transport

import (
	"fmt"
	"sync"
)

// StaticRegistry is C3: the read-only table of compiled routes, built
// once at startup from the game-object catalog and taxi-path node
// table and never mutated afterwards (spec.md §9 replaces the
// original's global sTransportMgr singleton with an explicit,
// dependency-injected instance).
type StaticRegistry struct {
	mu        sync.RWMutex
	routes    map[uint32]*CompiledRoute
	templates map[uint32]TransportTemplate
}

// NewStaticRegistry returns an empty registry ready for Load calls.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		routes:    make(map[uint32]*CompiledRoute),
		templates: make(map[uint32]TransportTemplate),
	}
}

// Load compiles one catalog entry's path and stores it, mirroring
// TransportMgr::LoadTransports's per-row loop: a bad entry is reported
// to the caller but never aborts the whole load.
func (r *StaticRegistry) Load(tmpl TransportTemplate, nodes []TaxiPathNode) error {
	route, err := CompileRoute(nodes, float64(tmpl.MoveSpeed))
	if err != nil {
		return fmt.Errorf("transport entry %d: %w", tmpl.Entry, err)
	}
	tmpl.Period = route.PeriodMs

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[tmpl.Entry] = route
	r.templates[tmpl.Entry] = tmpl
	return nil
}

// Get returns the compiled route and template for entry, if loaded.
func (r *StaticRegistry) Get(entry uint32) (*CompiledRoute, TransportTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.routes[entry]
	if !ok {
		return nil, TransportTemplate{}, false
	}
	return route, r.templates[entry], true
}

// Entries returns every loaded transport entry id, in no particular
// order.
func (r *StaticRegistry) Entries() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]uint32, 0, len(r.routes))
	for e := range r.routes {
		entries = append(entries, e)
	}
	return entries
}

// CheckSpawnTableIntegrity reports every transport entry that also
// appears in the generic game-object spawn table: a transport is
// spawned exclusively through its CarrierInstance lifecycle, so any
// row in the ordinary spawn table is a data bug, not a valid spawn
// (spec.md SPEC_FULL supplement, grounded on TransportMgr::LoadTransports's
// trailing integrity query over gameobject/transports).
func (r *StaticRegistry) CheckSpawnTableIntegrity(spawnTableEntries []uint32) []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var bad []uint32
	for _, e := range spawnTableEntries {
		if _, ok := r.routes[e]; ok {
			bad = append(bad, e)
		}
	}
	return bad
}

// liveCarrier is one DynamicRegistry row: which CarrierInstance
// currently represents a transport entry, and which map it lives on.
type liveCarrier struct {
	carrier *CarrierInstance
	mapID   uint32
}

// DynamicRegistry is C7: the live, mutable table mapping a transport
// entry to whichever CarrierInstance currently represents it. Unlike
// the static registry this is written continuously as carriers tick
// and hand off across maps.
type DynamicRegistry struct {
	mu   sync.Mutex
	live map[uint32]liveCarrier
}

// NewDynamicRegistry returns an empty dynamic registry.
func NewDynamicRegistry() *DynamicRegistry {
	return &DynamicRegistry{live: make(map[uint32]liveCarrier)}
}

// Set records carrier as the current live instance for its entry.
func (d *DynamicRegistry) Set(c *CarrierInstance) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.live[c.Entry] = liveCarrier{carrier: c, mapID: c.CurrentMapID}
}

// Get returns the live carrier instance for entry, if any.
func (d *DynamicRegistry) Get(entry uint32) (*CarrierInstance, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	lc, ok := d.live[entry]
	if !ok {
		return nil, false
	}
	return lc.carrier, true
}

// MapFor returns the map id the entry's live carrier currently
// occupies.
func (d *DynamicRegistry) MapFor(entry uint32) (uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	lc, ok := d.live[entry]
	if !ok {
		return 0, false
	}
	return lc.mapID, true
}

// Remove drops the entry's live carrier, for a carrier torn down
// without a replacement.
func (d *DynamicRegistry) Remove(entry uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.live, entry)
}
