// Package transport implements the moving-object transport subsystem: a
// path-compilation engine (spline evaluator + compiler), a per-carrier
// motion controller, a passenger attachment frame, and the cross-map
// handoff protocol that rebuilds a carrier on its next map and migrates
// its player passengers.
package transport

import "math"

// Vec3 is a world-space or local-frame point.
type Vec3 struct {
	X, Y, Z float64
}

// ActionFlag values for a TaxiPathNode (spec.md §3).
const (
	ActionNormal   uint8 = 0
	ActionTeleport uint8 = 1
	ActionStop     uint8 = 2
)

// TaxiPathNode is one external, immutable waypoint in a taxi path. The
// node table itself is supplied by the game-object catalog / DBC loader;
// the core only ever consumes an already-loaded, ordered slice of these.
type TaxiPathNode struct {
	MapID            uint32
	X, Y, Z          float32
	Delay            uint32 // seconds
	ActionFlag       uint8
	ArrivalEventID   uint32
	DepartureEventID uint32
}

// TransportTemplate is the catalog entry describing one transport entity.
type TransportTemplate struct {
	Entry        uint32
	DisplayName  string
	MoveSpeed    float32 // world units / second
	TaxiPathID   uint32
	Size         float32
	FactionFlags uint32

	// Period is filled in by the registry after C2 compiles the
	// template's path: the route's full-loop duration in ms
	// (CompiledRoute.PeriodMs), mirroring the GAMEOBJECT_LEVEL/period
	// bookkeeping TransportMgr::LoadTransports does on load.
	Period uint32
}

// nodeMeta is the per-node side table C2 builds so C4 can dispatch
// arrival/departure events and apply dwell delays without re-walking the
// raw node list on every tick.
type nodeMeta struct {
	segmentIdx   int
	localNodeIdx int
	delayMs      uint32
	arrivalEvent uint32
	departEvent  uint32
}

// MapSegment is the contiguous, single-map portion of a compiled route.
type MapSegment struct {
	MapID            uint32
	Controls         []Vec3
	Spline           *Spline
	SegmentLengthsMs []int32 // prefix times: ms from spline start to end of segment i
	TotalLengthMs    int32
}

// CompiledRoute is the output of the path compiler (C2), owned by the
// static registry (C3) for the process lifetime.
type CompiledRoute struct {
	Segments []MapSegment
	PeriodMs uint32
	IsCyclic bool

	// nodes is indexed in raw-path order; used for arrival/departure
	// dispatch and dwell lookups during tick().
	nodes []nodeMeta
}

// mapIDs returns the ordered, deduplicated-by-adjacency list of map ids
// this route visits (spec.md §4.3, C3.get_map_ids).
func (r *CompiledRoute) mapIDs() []uint32 {
	ids := make([]uint32, 0, len(r.Segments))
	for _, seg := range r.Segments {
		ids = append(ids, seg.MapID)
	}
	return ids
}

// CarrierState is C4's state machine (spec.md §4.4).
type CarrierState int

const (
	StateMoving CarrierState = iota
	StateDwelling
	StateArrived
)

func (s CarrierState) String() string {
	switch s {
	case StateMoving:
		return "moving"
	case StateDwelling:
		return "dwelling"
	case StateArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// PassengerID identifies a boarded passenger within one carrier's frame.
type PassengerID uint64

// PassengerKind tags the polymorphism spec.md §9 collapses into a tagged
// variant instead of virtual dispatch: the only thing that differs by
// kind is which Map relocation method gets called.
type PassengerKind int

const (
	PassengerPlayer PassengerKind = iota
	PassengerCreature
	PassengerGameObject
	PassengerVehicle // a passenger that is itself a carrier of passengers
)

// LocalPosition is a passenger's position in the carrier's local frame.
type LocalPosition struct {
	X, Y, Z, O float64
}

// PassengerSlot is the carrier-owned record of one boarded passenger.
type PassengerSlot struct {
	ID    PassengerID
	Local LocalPosition
	Seat  uint8 // 255 = none / MOT
	Owner Passenger
}

// Passenger is the capability surface the core needs from a boarded
// entity: enough to relocate it and to recurse into nested carriers.
// The concrete game-object/player/creature hierarchy lives outside this
// package (spec.md §1, "deliberately out of scope").
type Passenger interface {
	Kind() PassengerKind
	// AsCarrier returns the nested carrier frame if this passenger is
	// itself a vehicle (PassengerVehicle), or nil otherwise.
	AsCarrier() *PassengerFrame
	// CurrentFrame returns the PassengerFrame this passenger is
	// currently boarded on, or nil if it isn't boarded anywhere.
	// Implementations must persist this back-reference across
	// Board/Unboard (spec.md §3, §4.5) so Board can reject a passenger
	// already attached to any carrier, not just this one.
	CurrentFrame() *PassengerFrame
	SetCurrentFrame(f *PassengerFrame)
}

// CarrierInstance is a live, per-map transport (spec.md §3). Exactly one
// exists per currently-active map for a multi-map transport; exactly one
// total for a single-map transport.
type CarrierInstance struct {
	Entry         uint32
	CurrentMapID  uint32
	Position      Vec3
	Orientation   float64
	Route         *CompiledRoute
	Template      TransportTemplate

	// PeriodMs mirrors Route.PeriodMs, surfaced on the instance itself
	// so a consumer (e.g. a network snapshot builder) doesn't need to
	// reach through Route, matching TransportTemplate.Period.
	PeriodMs uint32

	ActiveSegmentIdx int
	TimePassedMs     uint32
	PathPointIdx     int
	CurrentNode      int
	DwellRemainingMs uint32
	State            CarrierState

	Frame *PassengerFrame

	updatePositionsTimerMs uint32
}

// invariantsOK is a best-effort self-check; it mirrors
// spec.md §8 invariant 2 and the CarrierInstance invariants in §3.
func (c *CarrierInstance) invariantsOK() bool {
	if c.ActiveSegmentIdx < 0 || c.ActiveSegmentIdx >= len(c.Route.Segments) {
		return false
	}
	seg := c.Route.Segments[c.ActiveSegmentIdx]
	if seg.MapID != c.CurrentMapID {
		return false
	}
	return c.TimePassedMs <= uint32(seg.Spline.TotalLengthMs())
}

// normalizeAngle wraps an angle into (-pi, pi], matching
// MapManager::NormalizeOrientation in original_source.
func normalizeAngle(o float64) float64 {
	for o > math.Pi {
		o -= 2 * math.Pi
	}
	for o <= -math.Pi {
		o += 2 * math.Pi
	}
	return o
}
