package transport

// CompileRoute transforms a raw taxi-path node sequence into a
// CompiledRoute: one spline per contiguous same-map run, a timing table,
// and the total route period (spec.md §4.2).
func CompileRoute(nodes []TaxiPathNode, moveSpeed float64) (*CompiledRoute, error) {
	if len(nodes) < 2 {
		return nil, ErrEmptyPath
	}
	if moveSpeed <= 0 {
		return nil, ErrEmptyPath
	}

	runs := splitByMap(nodes)

	route := &CompiledRoute{}
	var periodMs uint32
	var delaySumMs uint32

	for _, run := range runs {
		if len(run.nodes) < 2 {
			return nil, ErrEmptyPath
		}

		controls := make([]Vec3, len(run.nodes))
		for i, n := range run.nodes {
			controls[i] = Vec3{X: float64(n.X), Y: float64(n.Y), Z: float64(n.Z)}
		}

		spl, err := newSplineUntimed(controls)
		if err != nil {
			return nil, err
		}
		if spl.totalWorldLength() <= 1.0 {
			return nil, ErrDegenerateSegment
		}
		spl.initTiming(moveSpeed)

		segIdx := len(route.Segments)
		seg := MapSegment{
			MapID:            run.mapID,
			Controls:         controls,
			Spline:           spl,
			SegmentLengthsMs: append([]int32(nil), spl.cumMs[1:]...),
			TotalLengthMs:    spl.TotalLengthMs(),
		}
		route.Segments = append(route.Segments, seg)
		periodMs += uint32(seg.TotalLengthMs)

		for local, n := range run.nodes {
			route.nodes = append(route.nodes, nodeMeta{
				segmentIdx:   segIdx,
				localNodeIdx: local,
				delayMs:      n.Delay * 1000,
				arrivalEvent: n.ArrivalEventID,
				departEvent:  n.DepartureEventID,
			})
			delaySumMs += n.Delay * 1000
		}
	}

	route.PeriodMs = periodMs + delaySumMs
	route.IsCyclic = len(route.Segments) == 1

	if route.PeriodMs < 1 {
		route.PeriodMs = 1
	}
	return route, nil
}

type mapRun struct {
	mapID uint32
	nodes []TaxiPathNode
}

// splitByMap partitions an ordered node list into contiguous runs sharing
// the same mapId, preserving input order (spec.md §4.2 step 1).
func splitByMap(nodes []TaxiPathNode) []mapRun {
	var runs []mapRun
	for _, n := range nodes {
		if len(runs) == 0 || runs[len(runs)-1].mapID != n.MapID {
			runs = append(runs, mapRun{mapID: n.MapID})
		}
		last := &runs[len(runs)-1]
		last.nodes = append(last.nodes, n)
	}
	return runs
}

// nodeMetaFor returns the delay and event ids for node localNodeIdx
// within segment segIdx, used by the motion controller to dispatch
// arrival/departure events and dwell delays (spec.md §4.4).
func (r *CompiledRoute) nodeMetaFor(segIdx, localNodeIdx int) (nodeMeta, bool) {
	for _, m := range r.nodes {
		if m.segmentIdx == segIdx && m.localNodeIdx == localNodeIdx {
			return m, true
		}
	}
	return nodeMeta{}, false
}
