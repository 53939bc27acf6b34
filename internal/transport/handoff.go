package transport

// HandoffResult reports what happened to boarded passengers during a
// cross-map handoff; DroppedNonPlayers documents the supplemented gap
// left open by original_source (non-player passengers have no
// teleport path unless a CreatureMigrator is supplied).
type HandoffResult struct {
	DroppedNonPlayers int
}

// NextSegmentIndex returns the segment a carrier moves to once it
// finishes its current one, wrapping back to segment 0 at the end of
// the route (a transport's period is one full loop, spec.md §3).
func NextSegmentIndex(route *CompiledRoute, current int) int {
	return (current + 1) % len(route.Segments)
}

// Handoff moves a carrier from the end of its current MapSegment to
// the start of the next one. If the next segment stays on the same
// map (the common single-map-loop case) it is a pure local reset: no
// map is destroyed or created. Otherwise it destroys the old carrier,
// materialises a new one on the next map at the spline start, and
// migrates player passengers across; non-player passengers are
// dropped unless migrator is supplied (spec.md §4.6, grounded on
// GOTransportBase::TeleportTransport / Transport::UpdateForMap).
func Handoff(old *CarrierInstance, oldMap Map, mm MapManager, notifier HandoffNotifier, migrator CreatureMigrator) (*CarrierInstance, *HandoffResult, error) {
	nextIdx := NextSegmentIndex(old.Route, old.ActiveSegmentIdx)
	nextSeg := old.Route.Segments[nextIdx]

	if nextSeg.MapID == old.CurrentMapID {
		old.ResetForSegment(nextIdx)
		return old, &HandoffResult{}, nil
	}

	if oldMap != nil && oldMap.IsInstanceable() {
		return nil, nil, ErrInstancedMultiMap
	}

	newMap, err := mm.GetOrCreateMap(nextSeg.MapID)
	if err != nil {
		return nil, nil, ErrMapUnavailable
	}

	newCarrier := &CarrierInstance{
		Entry:    old.Entry,
		Route:    old.Route,
		Template: old.Template,
	}
	newCarrier.ResetForSegment(nextIdx)
	newCarrier.Frame = NewPassengerFrame(newCarrier)

	if err := newMap.AddGameObject(newCarrier.Entry, newCarrier.Position, newCarrier.Orientation); err != nil {
		return nil, nil, err
	}

	result := &HandoffResult{}
	if old.Frame != nil {
		migratePassengers(old, newCarrier, oldMap, newMap, migrator, result)
		if !old.Frame.IsEmpty() {
			panic("transport: old carrier still has passengers after handoff")
		}
	}

	if oldMap != nil {
		oldMap.RemoveGameObject(old.Entry)
	}

	notifyHandoff(notifier, oldMap, newMap, old, newCarrier)

	return newCarrier, result, nil
}

// migratePassengers walks every slot on the old carrier's frame,
// teleporting player passengers onto the new carrier's frame and
// dropping everything else (optionally via migrator). It mutates old
// and newCarrier's frames in place.
func migratePassengers(old, newCarrier *CarrierInstance, oldMap, newMap Map, migrator CreatureMigrator, result *HandoffResult) {
	for id, slot := range old.Frame.Slots() {
		player, isPlayer := slot.Owner.(Player)
		if !isPlayer {
			global, orient := old.Frame.CalculateGlobalPositionOf(slot.Local)
			if migrator != nil && migrator.Migrate(slot.Owner, oldMap, newMap, global, orient) == nil {
				old.Frame.Unboard(id)
				continue
			}
			result.DroppedNonPlayers++
			old.Frame.Unboard(id)
			continue
		}

		if !player.IsAlive() && !player.IsGhost() {
			player.Resurrect()
		}

		rotated := newCarrier.Frame.RotateLocalPosition(slot.Local)
		destPos := Vec3{
			X: newCarrier.Position.X + rotated.X,
			Y: newCarrier.Position.Y + rotated.Y,
			Z: newCarrier.Position.Z + rotated.Z,
		}
		destOrient := normalizeAngle(newCarrier.Orientation + slot.Local.O)

		if err := player.TeleportTo(newCarrier.CurrentMapID, destPos, destOrient); err != nil {
			player.RepopAtGraveyard()
			old.Frame.Unboard(id)
			continue
		}

		old.Frame.Unboard(id)
		newCarrier.Frame.Board(player, slot.Local, slot.Seat)
	}
}

// notifyHandoff tells observers already on the destination map that
// the carrier just appeared (create block) and observers left behind
// on the origin map that it is now out of range, mirroring
// Transport::UpdateForMap's two-way split.
func notifyHandoff(notifier HandoffNotifier, oldMap, newMap Map, old, newCarrier *CarrierInstance) {
	if notifier == nil {
		return
	}
	if newMap != nil {
		for _, p := range newMap.Players() {
			notifier.NotifyCreate(p, newCarrier)
		}
	}
	if oldMap != nil {
		for _, p := range oldMap.Players() {
			notifier.NotifyOutOfRange(p, old)
		}
	}
}
