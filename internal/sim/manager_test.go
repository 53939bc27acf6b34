package sim

import (
	"context"
	"testing"
	"time"

	"transportcore/internal/transport"
)

func straightNodes(mapID uint32, n int) []transport.TaxiPathNode {
	nodes := make([]transport.TaxiPathNode, n)
	for i := range nodes {
		nodes[i] = transport.TaxiPathNode{MapID: mapID, X: float32(i) * 10}
	}
	return nodes
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	reg := transport.NewStaticRegistry()
	nodes := append(straightNodes(0, 3), straightNodes(1, 3)...)
	if err := reg.Load(transport.TransportTemplate{Entry: 1, MoveSpeed: 10}, nodes); err != nil {
		t.Fatalf("Load: %v", err)
	}

	m := &Manager{
		tickInterval:    100 * time.Millisecond,
		speedMultiplier: 1.0,
		staticReg:       reg,
		dynReg:          transport.NewDynamicRegistry(),
		mapManager:      transport.NewMemMapManager(),
		running:         make(map[uint32]context.CancelFunc),
	}

	route, tmpl, _ := reg.Get(1)
	c := &transport.CarrierInstance{Entry: 1, Route: route, Template: tmpl}
	c.ResetForSegment(0)
	c.Frame = transport.NewPassengerFrame(c)
	m.dynReg.Set(c)

	return m
}

func TestTickMapAdvancesCarrier(t *testing.T) {
	m := newTestManager(t)

	m.tickMap(0, 500*time.Millisecond)

	c, ok := m.dynReg.Get(1)
	if !ok {
		t.Fatal("carrier missing from dynamic registry after tick")
	}
	if c.Position.X <= 0 {
		t.Errorf("Position.X = %v, want > 0 after advancing", c.Position.X)
	}
}

func TestTickMapPerformsHandoffAcrossMaps(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 500; i++ {
		c, _ := m.dynReg.Get(1)
		if c.CurrentMapID != 0 {
			break
		}
		m.tickMap(c.CurrentMapID, 100*time.Millisecond)
	}

	c, ok := m.dynReg.Get(1)
	if !ok {
		t.Fatal("carrier missing from dynamic registry")
	}
	if c.CurrentMapID != 1 {
		t.Errorf("CurrentMapID = %d, want 1 after handoff", c.CurrentMapID)
	}
}

func TestDispatchArrivalIsNoopWithoutPublisher(t *testing.T) {
	m := newTestManager(t)
	m.DispatchArrival(1, 99) // must not panic with a nil publisher
}
