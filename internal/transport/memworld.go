package transport

import "sync"

// MemMap is a minimal in-memory Map used by tests and the demo binary.
// It keeps just enough state (which game objects and players are
// "on" it) to exercise board/unboard and handoff without a real grid.
type MemMap struct {
	id           uint32
	instanceable bool

	mu      sync.Mutex
	objects map[uint32]bool
	players []Player
}

// NewMemMap returns an empty map with the given id.
func NewMemMap(id uint32) *MemMap {
	return &MemMap{id: id, objects: make(map[uint32]bool)}
}

func (m *MemMap) ID() uint32            { return m.id }
func (m *MemMap) IsInstanceable() bool  { return m.instanceable }
func (m *MemMap) SetInstanceable(v bool) { m.instanceable = v }

func (m *MemMap) AddGameObject(entry uint32, pos Vec3, orient float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[entry] = true
	return nil
}

func (m *MemMap) RemoveGameObject(entry uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, entry)
}

func (m *MemMap) RelocatePlayer(p Passenger, pos Vec3, orient float64) {
	if mp, ok := p.(*MemPlayer); ok {
		mp.pos, mp.orient = pos, orient
	}
}

func (m *MemMap) RelocateCreature(p Passenger, pos Vec3, orient float64) {
	if mc, ok := p.(*MemCreature); ok {
		mc.pos, mc.orient = pos, orient
	}
}

func (m *MemMap) RelocateGameObject(p Passenger, pos Vec3, orient float64) {}

// AddPlayer registers a player as present on this map, which is the
// state Handoff's notifier split reads through Players.
func (m *MemMap) AddPlayer(p Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = append(m.players, p)
}

func (m *MemMap) Players() []Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Player, len(m.players))
	copy(out, m.players)
	return out
}

// MemMapManager lazily creates and caches MemMaps by id.
type MemMapManager struct {
	mu   sync.Mutex
	maps map[uint32]*MemMap
}

// NewMemMapManager returns an empty map manager.
func NewMemMapManager() *MemMapManager {
	return &MemMapManager{maps: make(map[uint32]*MemMap)}
}

func (mm *MemMapManager) GetOrCreateMap(mapID uint32) (Map, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if m, ok := mm.maps[mapID]; ok {
		return m, nil
	}
	m := NewMemMap(mapID)
	mm.maps[mapID] = m
	return m, nil
}

// MemPlayer is a minimal Player for tests: a passenger with the
// alive/ghost/position state a handoff migration reads and mutates.
type MemPlayer struct {
	ID     uint64
	alive  bool
	ghost  bool
	pos    Vec3
	orient float64
	mapID  uint32

	teleportFails bool
	repopped      bool

	frame *PassengerFrame
}

// NewMemPlayer returns a live (non-ghost) player.
func NewMemPlayer(id uint64) *MemPlayer {
	return &MemPlayer{ID: id, alive: true}
}

func (p *MemPlayer) Kind() PassengerKind               { return PassengerPlayer }
func (p *MemPlayer) AsCarrier() *PassengerFrame        { return nil }
func (p *MemPlayer) CurrentFrame() *PassengerFrame     { return p.frame }
func (p *MemPlayer) SetCurrentFrame(f *PassengerFrame) { p.frame = f }
func (p *MemPlayer) IsAlive() bool                     { return p.alive }
func (p *MemPlayer) IsGhost() bool                     { return p.ghost }

func (p *MemPlayer) Resurrect() {
	p.alive = true
	p.ghost = false
}

func (p *MemPlayer) RepopAtGraveyard() {
	p.repopped = true
	p.ghost = true
}

// SetTeleportFails makes every TeleportTo call return
// ErrTeleportRefused while set, used by tests to exercise the graveyard
// fallback path.
func (p *MemPlayer) SetTeleportFails(v bool) { p.teleportFails = v }

func (p *MemPlayer) TeleportTo(mapID uint32, pos Vec3, orient float64) error {
	if p.teleportFails {
		return ErrTeleportRefused
	}
	p.mapID, p.pos, p.orient = mapID, pos, orient
	return nil
}

// MemCreature is a minimal non-player Passenger for tests, used to
// exercise the dropped-on-handoff path and the optional
// CreatureMigrator hook.
type MemCreature struct {
	ID     uint64
	pos    Vec3
	orient float64

	frame *PassengerFrame
}

func (c *MemCreature) Kind() PassengerKind               { return PassengerCreature }
func (c *MemCreature) AsCarrier() *PassengerFrame        { return nil }
func (c *MemCreature) CurrentFrame() *PassengerFrame     { return c.frame }
func (c *MemCreature) SetCurrentFrame(f *PassengerFrame) { c.frame = f }

// NoopDispatcher discards every arrival/departure event; useful in
// tests that only care about position/state, not event wiring.
type NoopDispatcher struct{}

func (NoopDispatcher) DispatchArrival(entry, eventID uint32)   {}
func (NoopDispatcher) DispatchDeparture(entry, eventID uint32) {}
