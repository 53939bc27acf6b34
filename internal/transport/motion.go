package transport

import "math"

// EventDispatcher fires the scripted arrival/departure events attached
// to a taxi-path node. The concrete event/script engine lives outside
// this package.
type EventDispatcher interface {
	DispatchArrival(entry, eventID uint32)
	DispatchDeparture(entry, eventID uint32)
}

// Tick advances the carrier by diffMs and returns true once it has
// consumed the whole of its current MapSegment, signalling to the
// caller that a cross-map handoff (C6) is due. It mirrors
// GOTransportBase::Update: a dwell countdown, then a knot-crossing
// loop over the spline's timing table that fires arrival/departure
// events in order and clamps the final position to the segment's end
// (spec.md §4.4).
func (c *CarrierInstance) Tick(diffMs uint32, m Map, disp EventDispatcher) bool {
	if c.Frame != nil && m != nil {
		c.Frame.Update(diffMs, m)
	}

	switch c.State {
	case StateArrived:
		return true
	case StateDwelling:
		if diffMs < c.DwellRemainingMs {
			c.DwellRemainingMs -= diffMs
			return false
		}
		diffMs -= c.DwellRemainingMs
		c.DwellRemainingMs = 0
		c.State = StateMoving
		if meta, ok := c.Route.nodeMetaFor(c.ActiveSegmentIdx, c.CurrentNode); ok && meta.departEvent != 0 {
			disp.DispatchDeparture(c.Entry, meta.departEvent)
		}
	}

	return c.advanceSpline(diffMs, disp)
}

// advanceSpline walks diffMs worth of time forward along the active
// segment's timing table, crossing zero or more knots and firing their
// arrival events in order. It stops early (without consuming the rest
// of diffMs) the moment it enters a dwell, matching the original's
// one-event-per-update granularity for delayed nodes.
func (c *CarrierInstance) advanceSpline(diffMs uint32, disp EventDispatcher) bool {
	seg := &c.Route.Segments[c.ActiveSegmentIdx]
	total := uint32(seg.TotalLengthMs)

	c.TimePassedMs += diffMs
	if c.TimePassedMs > total {
		c.TimePassedMs = total
	}

	knotCount := len(seg.SegmentLengthsMs)
	for c.PathPointIdx < knotCount && c.TimePassedMs >= uint32(seg.SegmentLengthsMs[c.PathPointIdx]) {
		localNode := c.CurrentNode + 1
		if meta, ok := c.Route.nodeMetaFor(c.ActiveSegmentIdx, localNode); ok {
			if meta.arrivalEvent != 0 {
				disp.DispatchArrival(c.Entry, meta.arrivalEvent)
			}
			if meta.delayMs > 0 {
				c.CurrentNode = localNode
				c.PathPointIdx++
				c.State = StateDwelling
				c.DwellRemainingMs = meta.delayMs
				// Freeze at the node just reached rather than the
				// fully-advanced tick time, which would otherwise
				// land updatePose partway into the next interval.
				c.TimePassedMs = uint32(seg.SegmentLengthsMs[c.PathPointIdx-1])
				c.updatePose(seg)
				return false
			}
		}
		c.CurrentNode = localNode
		c.PathPointIdx++
	}

	c.updatePose(seg)

	if c.TimePassedMs >= total {
		c.State = StateArrived
		return true
	}
	return false
}

// updatePose evaluates the spline at the carrier's current time and
// writes Position/Orientation from it.
func (c *CarrierInstance) updatePose(seg *MapSegment) {
	splineSeg := seg.Spline.First() + c.PathPointIdx
	if splineSeg > seg.Spline.Last()-1 {
		splineSeg = seg.Spline.Last() - 1
	}

	var u float64
	if c.PathPointIdx >= len(seg.SegmentLengthsMs) {
		// Every knot in the segment has been crossed: force the last
		// raw waypoint rather than falling through to the degenerate
		// prevMs==nextMs==TotalLengthMs case below, which would
		// otherwise default u to 0 and freeze one waypoint short.
		u = 1
	} else {
		var prevMs uint32
		if c.PathPointIdx > 0 {
			prevMs = uint32(seg.SegmentLengthsMs[c.PathPointIdx-1])
		}
		nextMs := uint32(seg.SegmentLengthsMs[c.PathPointIdx])

		if nextMs > prevMs {
			u = float64(c.TimePassedMs-prevMs) / float64(nextMs-prevMs)
		}
		if u < 0 {
			u = 0
		} else if u > 1 {
			u = 1
		}
	}

	c.Position = seg.Spline.EvaluatePercent(splineSeg, u)
	deriv := seg.Spline.EvaluateDerivative(splineSeg, u)
	if deriv.X != 0 || deriv.Y != 0 {
		c.Orientation = normalizeAngle(math.Atan2(deriv.Y, deriv.X))
	}
}

// ResetForSegment rewinds the carrier's progress to the start of
// segIdx, used both by first spawn and by the handoff procedure when
// materialising a carrier on its next map (spec.md §4.6).
func (c *CarrierInstance) ResetForSegment(segIdx int) {
	seg := c.Route.Segments[segIdx]
	c.ActiveSegmentIdx = segIdx
	c.CurrentMapID = seg.MapID
	c.PeriodMs = c.Route.PeriodMs
	c.TimePassedMs = 0
	c.PathPointIdx = 0
	c.CurrentNode = 0
	c.DwellRemainingMs = 0
	c.State = StateMoving
	c.Position = seg.Controls[0]
	if len(seg.Controls) > 1 {
		dx := seg.Controls[1].X - seg.Controls[0].X
		dy := seg.Controls[1].Y - seg.Controls[0].Y
		if dx != 0 || dy != 0 {
			c.Orientation = normalizeAngle(math.Atan2(dy, dx))
		}
	}
}
