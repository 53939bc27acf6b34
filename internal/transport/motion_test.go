package transport

import (
	"math"
	"testing"
)

func newCarrier(t *testing.T, route *CompiledRoute) *CarrierInstance {
	t.Helper()
	c := &CarrierInstance{Entry: 1, Route: route}
	c.ResetForSegment(0)
	c.Frame = NewPassengerFrame(c)
	return c
}

func TestTickReachesEndOfSegment(t *testing.T) {
	route, err := CompileRoute(straightNodes(0, 3, nil), 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}
	c := newCarrier(t, route)

	reached := false
	for i := 0; i < 500 && !reached; i++ {
		reached = c.Tick(10, nil, NoopDispatcher{})
	}
	if !reached {
		t.Fatal("carrier never reached the end of its segment")
	}
	if c.State != StateArrived {
		t.Errorf("State = %v, want StateArrived", c.State)
	}
	if math.Abs(c.Position.X-20) > 0.5 {
		t.Errorf("Position.X = %v, want ~20", c.Position.X)
	}
}

func TestTickHonoursDwellDelay(t *testing.T) {
	route, err := CompileRoute(straightNodes(0, 3, map[int]uint32{1: 2}), 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}
	c := newCarrier(t, route)

	sawDwelling := false
	for i := 0; i < 1000; i++ {
		if c.Tick(10, nil, NoopDispatcher{}) {
			break
		}
		if c.State == StateDwelling {
			sawDwelling = true
		}
	}
	if !sawDwelling {
		t.Error("carrier never entered StateDwelling despite a delayed node")
	}
}

func TestTickFreezesAtDwellNodeInsteadOfOvershooting(t *testing.T) {
	route, err := CompileRoute(straightNodes(0, 3, map[int]uint32{1: 5}), 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}
	c := newCarrier(t, route)

	if reached := c.Tick(1500, nil, NoopDispatcher{}); reached {
		t.Fatal("Tick should not report end-of-segment while dwelling")
	}
	if c.State != StateDwelling {
		t.Fatalf("State = %v, want StateDwelling", c.State)
	}
	if math.Abs(c.Position.X-10) > 0.01 {
		t.Errorf("Position.X = %v, want frozen at 10", c.Position.X)
	}
}

func TestTickDispatchesArrivalEvent(t *testing.T) {
	nodes := straightNodes(0, 3, nil)
	nodes[1].ArrivalEventID = 42
	route, err := CompileRoute(nodes, 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}
	c := newCarrier(t, route)

	rec := &recordingDispatcher{}
	for i := 0; i < 500; i++ {
		if c.Tick(10, nil, rec) {
			break
		}
	}
	if !rec.sawArrival(42) {
		t.Error("arrival event 42 was never dispatched")
	}
}

type recordingDispatcher struct {
	arrivals []uint32
}

func (r *recordingDispatcher) DispatchArrival(entry, eventID uint32) {
	r.arrivals = append(r.arrivals, eventID)
}
func (r *recordingDispatcher) DispatchDeparture(entry, eventID uint32) {}

func (r *recordingDispatcher) sawArrival(id uint32) bool {
	for _, a := range r.arrivals {
		if a == id {
			return true
		}
	}
	return false
}
