package transport

import "math"

// boundsLimit is the maximum local-frame distance (in any axis) a
// passenger may occupy before Board rejects it as out of bounds
// (spec.md §4.5, mirrors TransportBase's +-50 check).
const boundsLimit = 50.0

// refreshIntervalMs is the periodic relocation cadence; a frame also
// refreshes early if the carrier has moved or turned past the
// thresholds below (spec.md §4.5).
const (
	refreshIntervalMs  = 500
	moveThreshold      = 1.0
	rotationThresholdR = 0.01
)

// PassengerFrame is C5: the rigid-body transform that keeps every
// boarded passenger's global position in lockstep with its owning
// carrier, refreshed on a timer or a movement/rotation threshold
// (spec.md §4.5, grounded on TransportBase in original_source).
type PassengerFrame struct {
	owner *CarrierInstance
	slots map[PassengerID]*PassengerSlot
	nextID PassengerID

	sinO, cosO float64
	lastPos    Vec3
	lastOrient float64
	timerMs    uint32
}

// NewPassengerFrame returns a frame bound to a carrier, with its
// rotation cache primed from the carrier's current orientation.
func NewPassengerFrame(owner *CarrierInstance) *PassengerFrame {
	f := &PassengerFrame{
		owner: owner,
		slots: make(map[PassengerID]*PassengerSlot),
	}
	f.refreshCache()
	return f
}

func (f *PassengerFrame) refreshCache() {
	f.sinO = math.Sin(f.owner.Orientation)
	f.cosO = math.Cos(f.owner.Orientation)
	f.lastPos = f.owner.Position
	f.lastOrient = f.owner.Orientation
}

// RotateLocalPosition rotates a local offset into the carrier's current
// world orientation, without translating it (spec.md §4.5).
func (f *PassengerFrame) RotateLocalPosition(local LocalPosition) Vec3 {
	return Vec3{
		X: local.X*f.cosO - local.Y*f.sinO,
		Y: local.X*f.sinO + local.Y*f.cosO,
		Z: local.Z,
	}
}

// CalculateGlobalPositionOf returns the world position and orientation
// for a passenger's local offset, given the carrier's current pose.
func (f *PassengerFrame) CalculateGlobalPositionOf(local LocalPosition) (Vec3, float64) {
	rotated := f.RotateLocalPosition(local)
	global := Vec3{
		X: f.owner.Position.X + rotated.X,
		Y: f.owner.Position.Y + rotated.Y,
		Z: f.owner.Position.Z + rotated.Z,
	}
	orient := normalizeAngle(f.owner.Orientation + local.O)
	return global, orient
}

func withinBounds(local LocalPosition) bool {
	return math.Abs(local.X) <= boundsLimit &&
		math.Abs(local.Y) <= boundsLimit &&
		math.Abs(local.Z) <= boundsLimit
}

// Board attaches a passenger at a local offset. Returns ErrOutOfBounds
// if the offset exceeds the carrier's bounds, or ErrAlreadyBoarded if
// the passenger is already attached to any carrier, this frame or
// another one (spec.md §4.5, mirrors GOTransportBase::Board).
func (f *PassengerFrame) Board(owner Passenger, local LocalPosition, seat uint8) (*PassengerSlot, error) {
	if !withinBounds(local) {
		return nil, ErrOutOfBounds
	}
	if owner.CurrentFrame() != nil {
		return nil, ErrAlreadyBoarded
	}
	f.nextID++
	slot := &PassengerSlot{
		ID:    f.nextID,
		Local: local,
		Seat:  seat,
		Owner: owner,
	}
	f.slots[slot.ID] = slot
	owner.SetCurrentFrame(f)
	return slot, nil
}

// Unboard detaches a passenger. It is a no-op if the passenger was not
// boarded (mirrors UnBoardPassenger's tolerance of double-unboard).
func (f *PassengerFrame) Unboard(id PassengerID) {
	if slot, ok := f.slots[id]; ok {
		slot.Owner.SetCurrentFrame(nil)
	}
	delete(f.slots, id)
}

// HasOnBoard walks the nested-vehicle chain looking for target,
// mirroring TransportBase::HasOnBoard's ancestor walk: a passenger
// counts as "on board" if it sits in this frame directly, or in the
// frame of any vehicle passenger nested inside it.
func (f *PassengerFrame) HasOnBoard(target Passenger) bool {
	for _, s := range f.slots {
		if s.Owner == target {
			return true
		}
		if nested := s.Owner.AsCarrier(); nested != nil {
			if nested.HasOnBoard(target) {
				return true
			}
		}
	}
	return false
}

// IsEmpty reports whether no passenger (at any nesting depth) remains
// attached; the handoff procedure asserts this after migration.
func (f *PassengerFrame) IsEmpty() bool {
	return len(f.slots) == 0
}

// Slots returns the currently boarded passenger slots. Callers must not
// retain the returned map past the current tick.
func (f *PassengerFrame) Slots() map[PassengerID]*PassengerSlot {
	return f.slots
}

// needsRefresh reports whether the timer elapsed or the carrier moved
// or turned past the thresholds that force an out-of-cadence refresh.
func (f *PassengerFrame) needsRefresh(diffMs uint32) bool {
	f.timerMs += diffMs
	if f.timerMs >= refreshIntervalMs {
		return true
	}
	if distance(f.owner.Position, f.lastPos) > moveThreshold {
		return true
	}
	delta := normalizeAngle(f.owner.Orientation - f.lastOrient)
	return math.Abs(delta) > rotationThresholdR
}

// Update relocates every boarded passenger to its current global
// position if the refresh cadence or movement/rotation thresholds were
// crossed, then resets the timer and pose cache (spec.md §4.5, mirrors
// TransportBase::Update + UpdateGlobalPositions).
func (f *PassengerFrame) Update(diffMs uint32, m Map) {
	if !f.needsRefresh(diffMs) {
		return
	}
	f.timerMs = 0
	f.refreshCache()

	for _, slot := range f.slots {
		global, orient := f.CalculateGlobalPositionOf(slot.Local)
		relocatePassenger(m, slot.Owner, global, orient)
		if nested := slot.Owner.AsCarrier(); nested != nil {
			nested.Update(diffMs, m)
		}
	}
}

// relocatePassenger dispatches to the Map capability matching the
// passenger's kind (spec.md §9: a tagged dispatch replacing the
// original's virtual RelocateToPoint hierarchy).
func relocatePassenger(m Map, p Passenger, pos Vec3, orient float64) {
	switch p.Kind() {
	case PassengerPlayer:
		m.RelocatePlayer(p, pos, orient)
	case PassengerCreature:
		m.RelocateCreature(p, pos, orient)
	case PassengerGameObject, PassengerVehicle:
		m.RelocateGameObject(p, pos, orient)
	}
}
