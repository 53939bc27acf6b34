package transport

import "testing"

func straightNodes(mapID uint32, n int, delays map[int]uint32) []TaxiPathNode {
	nodes := make([]TaxiPathNode, n)
	for i := range nodes {
		nodes[i] = TaxiPathNode{
			MapID: mapID,
			X:     float32(i) * 10,
		}
		if d, ok := delays[i]; ok {
			nodes[i].Delay = d
		}
	}
	return nodes
}

func TestCompileRouteSplitsByMap(t *testing.T) {
	nodes := append(straightNodes(0, 3, nil), straightNodes(1, 3, nil)...)
	route, err := CompileRoute(nodes, 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}
	if len(route.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(route.Segments))
	}
	if route.Segments[0].MapID != 0 || route.Segments[1].MapID != 1 {
		t.Errorf("segment map ids = %d, %d", route.Segments[0].MapID, route.Segments[1].MapID)
	}
	if route.IsCyclic {
		t.Error("IsCyclic = true for a multi-map route")
	}
}

func TestCompileRouteSingleSegmentIsCyclic(t *testing.T) {
	nodes := straightNodes(0, 4, nil)
	route, err := CompileRoute(nodes, 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}
	if !route.IsCyclic {
		t.Error("IsCyclic = false for a single-map route")
	}
}

func TestCompileRouteRejectsTooFewNodes(t *testing.T) {
	if _, err := CompileRoute([]TaxiPathNode{{MapID: 0}}, 10.0); err != ErrEmptyPath {
		t.Fatalf("err = %v, want ErrEmptyPath", err)
	}
}

func TestCompileRouteRejectsDegenerateSegment(t *testing.T) {
	nodes := []TaxiPathNode{
		{MapID: 0, X: 0, Y: 0, Z: 0},
		{MapID: 0, X: 0.1, Y: 0, Z: 0},
	}
	if _, err := CompileRoute(nodes, 10.0); err != ErrDegenerateSegment {
		t.Fatalf("err = %v, want ErrDegenerateSegment", err)
	}
}

// TestPeriodMatchesKeyframeTotal cross-checks the spline compiler's
// period against the straight-line distance-over-speed total a
// keyframe-style compiler would have produced for the same collinear
// path, confirming the new compiler's timing table is not a regression
// on the simple case the legacy compiler also handled (spec.md §9: the
// legacy keyframe compiler itself is not reimplemented).
func TestPeriodMatchesKeyframeTotal(t *testing.T) {
	delayMap := map[int]uint32{1: 5}
	nodes := straightNodes(0, 3, delayMap) // two 10-unit legs + 5s dwell
	route, err := CompileRoute(nodes, 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}

	wantTravelMs := uint32(2000) // 20 units total / 10 units-per-sec
	wantDelayMs := uint32(5000)
	got := route.PeriodMs

	const tolerance = 20
	low, high := wantTravelMs+wantDelayMs-tolerance, wantTravelMs+wantDelayMs+tolerance
	if got < low || got > high {
		t.Errorf("PeriodMs = %d, want in [%d,%d]", got, low, high)
	}
}
