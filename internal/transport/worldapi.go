package transport

// Map is the capability surface the core needs from whatever owns a
// map's entity lists: enough to add/remove a carrier and relocate a
// passenger by kind. The concrete map/grid implementation lives
// outside this package (spec.md §1).
type Map interface {
	ID() uint32
	IsInstanceable() bool

	AddGameObject(entry uint32, pos Vec3, orient float64) error
	RemoveGameObject(entry uint32)

	RelocatePlayer(p Passenger, pos Vec3, orient float64)
	RelocateCreature(p Passenger, pos Vec3, orient float64)
	RelocateGameObject(p Passenger, pos Vec3, orient float64)

	// Players returns every player currently on this map; used by the
	// handoff procedure to notify observers of create/out-of-range
	// transitions (spec.md's UpdateForMap equivalent).
	Players() []Player
}

// MapManager materialises maps on demand, mirroring sMapMgr.CreateMap /
// sMapMgr.FindMap in original_source.
type MapManager interface {
	GetOrCreateMap(mapID uint32) (Map, error)
}

// Player is the subset of player capability the handoff procedure
// needs to migrate a boarded passenger across a map swap (spec.md
// §4.6, mirrors the resurrect/rotate/teleport/graveyard sequence in
// GOTransportBase::TeleportTransport).
type Player interface {
	Passenger
	IsAlive() bool
	IsGhost() bool
	Resurrect()
	RepopAtGraveyard()
	TeleportTo(mapID uint32, pos Vec3, orient float64) error
}

// HandoffNotifier lets an observer distinguish, per spec's supplemented
// feature, between a player receiving a full create block (it is
// already on the destination map, where the new carrier appears) and
// an out-of-range block (it is on the origin map the old carrier
// leaves), mirroring Transport::UpdateForMap's two cases.
type HandoffNotifier interface {
	NotifyCreate(p Player, carrier *CarrierInstance)
	NotifyOutOfRange(p Player, carrier *CarrierInstance)
}

// CreatureMigrator is an optional hook a caller can supply to carry
// non-player passengers across a handoff. Without one, non-player
// passengers are dropped at the old map (spec.md §9 open question;
// original_source leaves this case as a ToDo).
type CreatureMigrator interface {
	Migrate(p Passenger, fromMap, toMap Map, pos Vec3, orient float64) error
}
