package blockdata_test

import (
	"sync"
	"testing"

	"github.com/cammyparakeet/blockview/blockdata"
)

func TestInternStability(t *testing.T) {
	r := blockdata.NewRegistry()
	a := blockdata.Vanilla("minecraft:stone")
	b := blockdata.Vanilla("minecraft:stone")

	idA, err := r.Intern(a)
	if err != nil {
		t.Fatal(err)
	}
	idB, err := r.Intern(b)
	if err != nil {
		t.Fatal(err)
	}
	if idA != idB {
		t.Fatalf("equal serialisations got different ids: %d vs %d", idA, idB)
	}
}

func TestInternAirIsReserved(t *testing.T) {
	r := blockdata.NewRegistry()
	id, err := r.Intern(blockdata.AirBlock())
	if err != nil {
		t.Fatal(err)
	}
	if id != blockdata.AirID {
		t.Fatalf("Intern(air) = %d, want AirID (%d)", id, blockdata.AirID)
	}
	if r.Len() != 0 {
		t.Fatalf("interning air should not consume a slot, Len() = %d", r.Len())
	}
}

func TestLookupRoundTrip(t *testing.T) {
	r := blockdata.NewRegistry()
	stone := blockdata.Vanilla("minecraft:stone")
	id, err := r.Intern(stone)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := r.Lookup(id)
	if !ok {
		t.Fatal("Lookup reported missing id just interned")
	}
	if got.Serialize() != stone.Serialize() {
		t.Fatalf("Lookup returned %q, want %q", got.Serialize(), stone.Serialize())
	}
}

func TestLookupUnassignedID(t *testing.T) {
	r := blockdata.NewRegistry()
	if _, ok := r.Lookup(5); ok {
		t.Fatal("Lookup succeeded for an id never interned")
	}
}

func TestClearResetsCounterAndRebindsAir(t *testing.T) {
	r := blockdata.NewRegistry()
	id1, _ := r.Intern(blockdata.Vanilla("minecraft:stone"))
	r.Clear()
	id2, _ := r.Intern(blockdata.Vanilla("minecraft:dirt"))
	if id1 != id2 {
		t.Fatalf("expected id counter to reset to 0 after Clear, got %d then %d", id1, id2)
	}
	airID, err := r.Intern(blockdata.AirBlock())
	if err != nil || airID != blockdata.AirID {
		t.Fatalf("air binding lost after Clear: id=%d err=%v", airID, err)
	}
}

func TestInternCapacityExhausted(t *testing.T) {
	r := blockdata.NewRegistry()
	for i := 0; i < blockdata.MaxID; i++ {
		if _, err := r.Intern(blockdata.Vanilla(string(rune(i)) + "-x")); err != nil {
			t.Fatalf("unexpected error interning entry %d: %v", i, err)
		}
	}
	if r.Len() != blockdata.MaxID {
		t.Fatalf("expected exactly %d distinct ids interned, got %d", blockdata.MaxID, r.Len())
	}
	if _, err := r.Intern(blockdata.Vanilla("one-too-many")); err != blockdata.ErrCapacityExhausted {
		t.Fatalf("Intern of the %dth distinct serialisation = %v, want ErrCapacityExhausted", blockdata.MaxID+1, err)
	}
}

func TestInternConcurrentSafety(t *testing.T) {
	r := blockdata.NewRegistry()
	var wg sync.WaitGroup
	ids := make([]int16, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.Intern(blockdata.Vanilla("minecraft:stone"))
			if err != nil {
				t.Error(err)
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent interns of the same value produced different ids")
		}
	}
}
