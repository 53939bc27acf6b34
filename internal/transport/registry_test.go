package transport

import "testing"

func TestStaticRegistryLoadAndGet(t *testing.T) {
	reg := NewStaticRegistry()
	tmpl := TransportTemplate{Entry: 1, MoveSpeed: 10}
	if err := reg.Load(tmpl, straightNodes(0, 3, nil)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	route, gotTmpl, ok := reg.Get(1)
	if !ok {
		t.Fatal("Get: entry not found")
	}
	if route == nil {
		t.Fatal("Get: route is nil")
	}
	if gotTmpl.Entry != 1 {
		t.Errorf("gotTmpl.Entry = %d, want 1", gotTmpl.Entry)
	}
}

func TestStaticRegistryLoadSkipsBadEntryWithoutAbortingOthers(t *testing.T) {
	reg := NewStaticRegistry()

	bad := TransportTemplate{Entry: 1, MoveSpeed: 10}
	if err := reg.Load(bad, []TaxiPathNode{{MapID: 0}}); err == nil {
		t.Fatal("expected an error loading a single-node path")
	}

	good := TransportTemplate{Entry: 2, MoveSpeed: 10}
	if err := reg.Load(good, straightNodes(0, 3, nil)); err != nil {
		t.Fatalf("Load(good): %v", err)
	}

	if _, _, ok := reg.Get(1); ok {
		t.Error("Get(1) should not find the entry that failed to load")
	}
	if _, _, ok := reg.Get(2); !ok {
		t.Error("Get(2) should find the entry that loaded successfully")
	}
}

func TestCheckSpawnTableIntegrityFindsTransportEntries(t *testing.T) {
	reg := NewStaticRegistry()
	reg.Load(TransportTemplate{Entry: 5, MoveSpeed: 10}, straightNodes(0, 3, nil))

	bad := reg.CheckSpawnTableIntegrity([]uint32{5, 6, 7})
	if len(bad) != 1 || bad[0] != 5 {
		t.Errorf("CheckSpawnTableIntegrity = %v, want [5]", bad)
	}
}

func TestDynamicRegistrySetGetRemove(t *testing.T) {
	dyn := NewDynamicRegistry()
	c := &CarrierInstance{Entry: 9, CurrentMapID: 3}
	dyn.Set(c)

	got, ok := dyn.Get(9)
	if !ok || got != c {
		t.Fatal("Get did not return the carrier just Set")
	}
	mapID, ok := dyn.MapFor(9)
	if !ok || mapID != 3 {
		t.Errorf("MapFor = %d, want 3", mapID)
	}

	dyn.Remove(9)
	if _, ok := dyn.Get(9); ok {
		t.Error("Get should fail after Remove")
	}
}
