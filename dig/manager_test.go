package dig_test

import (
	"testing"
	"time"

	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/dig"
	"github.com/cammyparakeet/blockview/host"
	"github.com/google/uuid"
)

// fakeView is a minimal dig.View double that stores overrides in a plain
// map and records break/stage calls for assertions.
type fakeView struct {
	overrides map[coord.BlockPosition]blockdata.ViewBlockData
	broken    []coord.BlockPosition
	stages    []stageCall
	spawned   []int32
	removed   []int32
	viewers   []host.PlayerID
	breakErr  error
}

type stageCall struct {
	entityID int32
	pos      coord.BlockPosition
	player   host.PlayerID
	stage    int8
}

func newFakeView() *fakeView {
	return &fakeView{overrides: map[coord.BlockPosition]blockdata.ViewBlockData{}}
}

func (f *fakeView) Get(pos coord.BlockPosition) (blockdata.ViewBlockData, bool) {
	d, ok := f.overrides[pos]
	return d, ok
}

func (f *fakeView) BreakViaDig(_ host.PlayerID, pos coord.BlockPosition, _, _ bool) error {
	if f.breakErr != nil {
		return f.breakErr
	}
	f.broken = append(f.broken, pos)
	delete(f.overrides, pos)
	return nil
}

func (f *fakeView) SetBlockProgress(entityID int32, pos coord.BlockPosition, player host.PlayerID, stage int8) {
	f.stages = append(f.stages, stageCall{entityID, pos, player, stage})
}

func (f *fakeView) SpawnDigEntity(entityID int32, _ coord.BlockPosition) {
	f.spawned = append(f.spawned, entityID)
}

func (f *fakeView) RemoveDigEntity(entityID int32, _ coord.BlockPosition) {
	f.removed = append(f.removed, entityID)
}

func (f *fakeView) Viewers() []host.PlayerID { return f.viewers }

func newPlayer() host.PlayerID { return host.PlayerID(uuid.New()) }

func pos(x, y, z int32) coord.BlockPosition {
	return coord.BlockPosition{World: "w1", X: x, Y: y, Z: z}
}

func TestStartRequiresOverride(t *testing.T) {
	v := newFakeView()
	m := dig.NewManager(v)
	p := newPlayer()

	_, err := m.Start(p, pos(1, 1, 1), 1000, 1.0)
	if err != dig.ErrNoSuchBlock {
		t.Fatalf("expected ErrNoSuchBlock, got %v", err)
	}
}

func TestStartTwiceReturnsFalseWhileActive(t *testing.T) {
	v := newFakeView()
	p1 := pos(1, 1, 1)
	v.overrides[p1] = blockdata.Vanilla("minecraft:stone")
	m := dig.NewManager(v)
	player := newPlayer()

	started, err := m.Start(player, p1, 1000, 1.0)
	if err != nil || !started {
		t.Fatalf("first Start failed: started=%v err=%v", started, err)
	}
	started, err = m.Start(player, p1, 1000, 1.0)
	if err != nil || started {
		t.Fatalf("second Start should report already running: started=%v err=%v", started, err)
	}
}

func TestDigStageMonotonicityAndCompletion(t *testing.T) {
	v := newFakeView()
	p1 := pos(1, 1, 1)
	v.overrides[p1] = blockdata.Vanilla("minecraft:stone")
	m := dig.NewManager(v)
	player := newPlayer()

	base := time.Now()
	restore := dig.SetClock(func() time.Time { return base })
	defer restore()

	if _, err := m.Start(player, p1, 1500, 1.0); err != nil {
		t.Fatal(err)
	}

	var lastStage int8 = -1
	for elapsed := 0; elapsed <= 1500; elapsed += 150 {
		base = time.Now().Add(time.Duration(elapsed) * time.Millisecond)
		dig.SetClock(func() time.Time { return base })
		m.Tick()
	}

	if len(v.broken) != 1 || v.broken[0] != p1 {
		t.Fatalf("expected exactly one break at %v, got %v", p1, v.broken)
	}
	for _, sc := range v.stages {
		if sc.stage < lastStage {
			t.Fatalf("stage regressed: %d after %d", sc.stage, lastStage)
		}
		lastStage = sc.stage
	}
	if lastStage < 8 {
		t.Fatalf("expected stages to climb close to 9 before completion, last seen %d", lastStage)
	}
	for _, sc := range v.stages {
		if sc.player != player {
			t.Fatalf("stage call attributed to %v, want triggering player %v", sc.player, player)
		}
	}
}

func TestDigEntityLifecycleSpawnsOnStartAndRemovesOnEviction(t *testing.T) {
	v := newFakeView()
	p1 := pos(7, 7, 7)
	v.overrides[p1] = blockdata.Vanilla("minecraft:stone")
	m := dig.NewManager(v)
	player := newPlayer()

	if _, err := m.Start(player, p1, 1000, 1.0); err != nil {
		t.Fatal(err)
	}
	if len(v.spawned) != 1 {
		t.Fatalf("expected SpawnDigEntity to fire exactly once on record creation, got %d", len(v.spawned))
	}
	rec, ok := m.RecordAt(p1)
	if !ok {
		t.Fatal("expected record to exist after Start")
	}
	if v.spawned[0] != rec.EntityID {
		t.Fatalf("SpawnDigEntity called with entityID %d, want %d", v.spawned[0], rec.EntityID)
	}

	if err := m.Complete(p1, player); err != nil {
		t.Fatal(err)
	}
	if len(v.removed) != 1 || v.removed[0] != rec.EntityID {
		t.Fatalf("expected RemoveDigEntity(%d) on eviction after Complete, got %v", rec.EntityID, v.removed)
	}
}

func TestCancelResumableRetainsProgress(t *testing.T) {
	v := newFakeView()
	p1 := pos(2, 2, 2)
	v.overrides[p1] = blockdata.Custom("mymod:reinforced", 1.0, true, nil)
	m := dig.NewManager(v)
	player := newPlayer()

	base := time.Now()
	restore := dig.SetClock(func() time.Time { return base })
	defer restore()

	m.Start(player, p1, 1000, 1.0)
	base = base.Add(400 * time.Millisecond)
	dig.SetClock(func() time.Time { return base })
	m.Tick()

	if err := m.Cancel(p1, player); err != nil {
		t.Fatal(err)
	}
	rec, ok := m.RecordAt(p1)
	if !ok {
		t.Fatal("expected record to be retained after resumable cancel")
	}
	if rec.AccumulatedMS < 400 {
		t.Fatalf("expected accumulated_ms >= 400, got %d", rec.AccumulatedMS)
	}

	// Resume: starting again should add on top of the retained progress.
	m.Start(player, p1, 1000, 1.0)
	base = base.Add(700 * time.Millisecond)
	dig.SetClock(func() time.Time { return base })
	m.Tick()

	if len(v.broken) != 1 {
		t.Fatalf("expected completion after resuming past full_break_ms, got %d breaks", len(v.broken))
	}
}

func TestCancelNonResumableResetsProgress(t *testing.T) {
	v := newFakeView()
	p1 := pos(3, 3, 3)
	v.overrides[p1] = blockdata.Vanilla("minecraft:stone")
	m := dig.NewManager(v)
	player := newPlayer()

	base := time.Now()
	restore := dig.SetClock(func() time.Time { return base })
	defer restore()

	m.Start(player, p1, 1000, 1.0)
	base = base.Add(400 * time.Millisecond)
	dig.SetClock(func() time.Time { return base })
	m.Tick()
	m.Cancel(p1, player)

	if _, ok := m.RecordAt(p1); ok {
		t.Fatal("expected non-resumable cancel to evict the record entirely")
	}
}

func TestCompleteCrossPlayerAuthorization(t *testing.T) {
	v := newFakeView()
	p1 := pos(4, 4, 4)
	v.overrides[p1] = blockdata.Vanilla("minecraft:stone")
	m := dig.NewManager(v)
	owner := newPlayer()
	intruder := newPlayer()

	m.Start(owner, p1, 1000, 1.0)
	if err := m.Complete(p1, intruder); err != dig.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(v.broken) != 0 {
		t.Fatal("unauthorized complete must not break the block")
	}
}

func TestSimulatePartialBreakIdempotent(t *testing.T) {
	v := newFakeView()
	p1 := pos(5, 5, 5)
	v.overrides[p1] = blockdata.Vanilla("minecraft:stone")
	m := dig.NewManager(v)

	m.SimulatePartialBreak(p1, 0.5, 1000)
	first, _ := m.RecordAt(p1)
	m.SimulatePartialBreak(p1, 0.5, 1000)
	second, _ := m.RecordAt(p1)

	if first.AccumulatedMS != second.AccumulatedMS || first.LastStage != second.LastStage {
		t.Fatalf("simulate_partial_break not idempotent: %+v vs %+v", first, second)
	}
}

func TestStopEndsSessionsForPlayer(t *testing.T) {
	v := newFakeView()
	p1 := pos(6, 6, 6)
	v.overrides[p1] = blockdata.Vanilla("minecraft:stone")
	m := dig.NewManager(v)
	player := newPlayer()

	m.Start(player, p1, 1000, 1.0)
	m.Stop(player)

	rec, ok := m.RecordAt(p1)
	if ok && rec.Session != nil {
		t.Fatal("expected Stop to terminate the active session")
	}
	if len(v.broken) != 0 {
		t.Fatal("Stop must not trigger a break callback")
	}
}
