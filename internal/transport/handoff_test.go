package transport

import "testing"

func twoMapRoute(t *testing.T) *CompiledRoute {
	t.Helper()
	nodes := append(straightNodes(0, 3, nil), straightNodes(1, 3, nil)...)
	route, err := CompileRoute(nodes, 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}
	return route
}

func TestHandoffSameMapIsLocalReset(t *testing.T) {
	route, err := CompileRoute(straightNodes(0, 4, nil), 10.0)
	if err != nil {
		t.Fatalf("CompileRoute: %v", err)
	}
	c := newCarrier(t, route)
	c.State = StateArrived

	mm := NewMemMapManager()
	mapA, _ := mm.GetOrCreateMap(0)

	result, hr, err := Handoff(c, mapA.(*MemMap), mm, nil, nil)
	if err != nil {
		t.Fatalf("Handoff: %v", err)
	}
	if result != c {
		t.Error("same-map handoff should reuse the existing CarrierInstance")
	}
	if hr.DroppedNonPlayers != 0 {
		t.Errorf("DroppedNonPlayers = %d, want 0", hr.DroppedNonPlayers)
	}
}

func TestHandoffMigratesPlayerAcrossMaps(t *testing.T) {
	route := twoMapRoute(t)
	old := newCarrier(t, route)
	old.State = StateArrived

	mm := NewMemMapManager()
	mapA, _ := mm.GetOrCreateMap(0)

	player := NewMemPlayer(1)
	old.Frame.Board(player, LocalPosition{X: 1}, 0)

	next, hr, err := Handoff(old, mapA.(*MemMap), mm, nil, nil)
	if err != nil {
		t.Fatalf("Handoff: %v", err)
	}
	if next == old {
		t.Fatal("cross-map handoff must return a new CarrierInstance")
	}
	if next.CurrentMapID != 1 {
		t.Errorf("next.CurrentMapID = %d, want 1", next.CurrentMapID)
	}
	if hr.DroppedNonPlayers != 0 {
		t.Errorf("DroppedNonPlayers = %d, want 0", hr.DroppedNonPlayers)
	}
	if !old.Frame.IsEmpty() {
		t.Error("old carrier frame should be empty after migration")
	}
	if player.mapID != 1 {
		t.Errorf("player.mapID = %d, want 1", player.mapID)
	}
	if !next.Frame.HasOnBoard(player) {
		t.Error("player should be boarded on the new carrier's frame")
	}
}

func TestHandoffDropsNonPlayerWithoutMigrator(t *testing.T) {
	route := twoMapRoute(t)
	old := newCarrier(t, route)
	old.State = StateArrived

	mm := NewMemMapManager()
	mapA, _ := mm.GetOrCreateMap(0)

	creature := &MemCreature{ID: 7}
	old.Frame.Board(creature, LocalPosition{X: 1}, 0)

	_, hr, err := Handoff(old, mapA.(*MemMap), mm, nil, nil)
	if err != nil {
		t.Fatalf("Handoff: %v", err)
	}
	if hr.DroppedNonPlayers != 1 {
		t.Errorf("DroppedNonPlayers = %d, want 1", hr.DroppedNonPlayers)
	}
}

func TestHandoffFallsBackToGraveyardOnTeleportFailure(t *testing.T) {
	route := twoMapRoute(t)
	old := newCarrier(t, route)
	old.State = StateArrived

	mm := NewMemMapManager()
	mapA, _ := mm.GetOrCreateMap(0)

	player := NewMemPlayer(1)
	player.SetTeleportFails(true)
	old.Frame.Board(player, LocalPosition{X: 1}, 0)

	next, _, err := Handoff(old, mapA.(*MemMap), mm, nil, nil)
	if err != nil {
		t.Fatalf("Handoff: %v", err)
	}
	if !player.repopped {
		t.Error("player should have been repopped at graveyard after a refused teleport")
	}
	if next.Frame.HasOnBoard(player) {
		t.Error("player whose teleport failed must not end up boarded on the new carrier")
	}
}

func TestHandoffRejectsInstanceableMultiMap(t *testing.T) {
	route := twoMapRoute(t)
	old := newCarrier(t, route)
	old.State = StateArrived

	mm := NewMemMapManager()
	mapA := NewMemMap(0)
	mapA.SetInstanceable(true)

	_, _, err := Handoff(old, mapA, mm, nil, nil)
	if err != ErrInstancedMultiMap {
		t.Fatalf("err = %v, want ErrInstancedMultiMap", err)
	}
}
