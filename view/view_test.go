package view_test

import (
	"testing"
	"time"

	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/dig"
	"github.com/cammyparakeet/blockview/host"
	"github.com/cammyparakeet/blockview/view"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type fakeWorldHost struct {
	loaded map[coord.ChunkKey]bool
}

func (f *fakeWorldHost) ChunkLoaded(key coord.ChunkKey) bool {
	if f.loaded == nil {
		return true
	}
	return f.loaded[key]
}
func (f *fakeWorldHost) WorldID(any) coord.WorldID { return "w1" }
func (f *fakeWorldHost) AuthoritativeState(coord.BlockPosition) blockdata.ViewBlockData {
	return blockdata.Vanilla("minecraft:dirt")
}

type fakePlayerHost struct {
	online map[host.PlayerID]bool
}

func newFakePlayerHost(players ...host.PlayerID) *fakePlayerHost {
	f := &fakePlayerHost{online: make(map[host.PlayerID]bool)}
	for _, p := range players {
		f.online[p] = true
	}
	return f
}

func (f *fakePlayerHost) Online() []host.PlayerID {
	var out []host.PlayerID
	for p := range f.online {
		out = append(out, p)
	}
	return out
}
func (f *fakePlayerHost) Connected(id host.PlayerID) bool            { return f.online[id] }
func (f *fakePlayerHost) Connection(id host.PlayerID) (host.Connection, bool) { return nil, f.online[id] }
func (f *fakePlayerHost) World(host.PlayerID) any                    { return nil }
func (f *fakePlayerHost) MainHand(host.PlayerID) blockdata.ToolKind   { return blockdata.ToolHand }

type fakePacket struct {
	kind string
	pos  coord.BlockPosition
}

type fakeSink struct{}

func (fakeSink) Send(host.Connection, host.Packet)        {}
func (fakeSink) SendBundle(host.Connection, []host.Packet) {}
func (fakeSink) BlockChange(pos coord.BlockPosition, _ blockdata.ViewBlockData) host.Packet {
	return fakePacket{kind: "block_change", pos: pos}
}
func (fakeSink) BlockChangeMulti(chunk coord.ChunkKey, changes map[coord.BlockPosition]blockdata.ViewBlockData) host.Packet {
	return fakePacket{kind: "section"}
}
func (fakeSink) SpawnFakeBlockEntity(_ int32, pos coord.BlockPosition) host.Packet {
	return fakePacket{kind: "spawn", pos: pos}
}
func (fakeSink) RemoveFakeBlockEntity(_ int32) host.Packet { return fakePacket{kind: "remove"} }
func (fakeSink) BlockDestructionStage(_ int32, pos coord.BlockPosition, _ int8) host.Packet {
	return fakePacket{kind: "dig_stage", pos: pos}
}

type enqueued struct {
	player host.PlayerID
	pos    coord.BlockPosition
	kind   string
}

type fakeDispatcher struct {
	calls []enqueued
}

func (d *fakeDispatcher) Enqueue(player host.PlayerID, pos coord.BlockPosition, kind string, _ host.Packet) {
	d.calls = append(d.calls, enqueued{player, pos, kind})
}

func newPlayer() host.PlayerID { return host.PlayerID(uuid.New()) }

func newTestView(opts view.Options, ph host.PlayerHost, disp *fakeDispatcher) *view.BlockView {
	registry := blockdata.NewRegistry()
	return view.New(
		"w1",
		coord.BlockPosition{World: "w1", X: 100, Y: 64, Z: 200},
		coord.Dimensions{W: 3, H: 3, D: 3},
		view.Transient,
		opts,
		registry,
		&fakeWorldHost{},
		ph,
		fakeSink{},
		disp,
		nil,
		nil,
		nil,
		nil,
	)
}

func TestSetGetRoundTrip(t *testing.T) {
	disp := &fakeDispatcher{}
	v := newTestView(view.DefaultOptions(), newFakePlayerHost(), disp)
	pos := coord.BlockPosition{World: "w1", X: 101, Y: 64, Z: 201}
	data := blockdata.Vanilla("minecraft:stone")

	if err := v.Set(pos, data, false); err != nil {
		t.Fatal(err)
	}
	got, ok := v.Get(pos)
	if !ok || got.Serialize() != data.Serialize() {
		t.Fatalf("round-trip failed: got %+v, ok=%v", got, ok)
	}
}

func TestSetOutOfBoundsRejected(t *testing.T) {
	disp := &fakeDispatcher{}
	v := newTestView(view.DefaultOptions(), newFakePlayerHost(), disp)
	pos := coord.BlockPosition{World: "w1", X: 999, Y: 64, Z: 999}

	if err := v.Set(pos, blockdata.Vanilla("minecraft:stone"), false); err != view.ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestSetEmitsBlockChangeToViewer(t *testing.T) {
	p1 := newPlayer()
	disp := &fakeDispatcher{}
	v := newTestView(view.DefaultOptions(), newFakePlayerHost(p1), disp)
	v.AddAudience(host.SinglePlayer(p1), false)

	pos := coord.BlockPosition{World: "w1", X: 101, Y: 64, Z: 201}
	if err := v.Set(pos, blockdata.Vanilla("minecraft:stone"), true); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, c := range disp.calls {
		if c.player == p1 && c.pos == pos && c.kind == "block_change" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a block_change enqueue to %v at %v, got %+v", p1, pos, disp.calls)
	}
}

func TestAddThenRemoveAudienceIsSymmetric(t *testing.T) {
	p1 := newPlayer()
	disp := &fakeDispatcher{}
	v := newTestView(view.DefaultOptions(), newFakePlayerHost(p1), disp)

	pos := coord.BlockPosition{World: "w1", X: 101, Y: 64, Z: 201}
	if err := v.Set(pos, blockdata.Vanilla("minecraft:stone"), false); err != nil {
		t.Fatal(err)
	}

	v.AddAudience(host.SinglePlayer(p1), true)
	applyCount := len(disp.calls)
	disp.calls = nil

	v.RemoveAudience(host.SinglePlayer(p1), true)
	resetCount := len(disp.calls)

	if applyCount == 0 || resetCount == 0 {
		t.Fatalf("expected both apply and reset to enqueue packets: apply=%d reset=%d", applyCount, resetCount)
	}
	if applyCount != resetCount {
		t.Fatalf("expected symmetric packet counts, got apply=%d reset=%d", applyCount, resetCount)
	}
}

func TestBreakBlockClearsOverrideToAir(t *testing.T) {
	p1 := newPlayer()
	disp := &fakeDispatcher{}
	v := newTestView(view.DefaultOptions(), newFakePlayerHost(p1), disp)
	v.AddAudience(host.SinglePlayer(p1), false)

	pos := coord.BlockPosition{World: "w1", X: 101, Y: 64, Z: 201}
	v.Set(pos, blockdata.Vanilla("minecraft:stone"), false)

	// No event bus wired (nil), so BreakBlock can never observe a
	// cancellation here; this exercises the non-cancelled path instead and
	// checks the override is cleared to air.
	if err := v.BreakBlock(p1, pos, false, true, 0); err != nil {
		t.Fatal(err)
	}
	if v.IsManaged(pos) {
		t.Fatal("expected break to clear the override")
	}
}

func TestBreakModeDisabledRejectsStartDig(t *testing.T) {
	disp := &fakeDispatcher{}
	opts := view.DefaultOptions()
	opts.BreakMode = view.BreakDisabled
	v := newTestView(opts, newFakePlayerHost(), disp)

	pos := coord.BlockPosition{World: "w1", X: 101, Y: 64, Z: 201}
	v.Set(pos, blockdata.Vanilla("minecraft:stone"), false)

	_, err := v.StartDig(newPlayer(), pos, blockdata.BreakContext{Tool: blockdata.ToolHand})
	if err != view.ErrBreakDisabled {
		t.Fatalf("expected ErrBreakDisabled, got %v", err)
	}
}

func TestCenterReturnsBoundingBoxMidpoint(t *testing.T) {
	disp := &fakeDispatcher{}
	v := newTestView(view.DefaultOptions(), newFakePlayerHost(), disp)

	// newTestView anchors the box at (100, 64, 200) with dims (3, 3, 3).
	got := v.Center()
	want := mgl64.Vec3{101.5, 65.5, 201.5}
	if got != want {
		t.Fatalf("Center() = %v, want %v", got, want)
	}
}

func TestCopyPreservesOverridesAtNewOrigin(t *testing.T) {
	disp := &fakeDispatcher{}
	v := newTestView(view.DefaultOptions(), newFakePlayerHost(), disp)
	pos := coord.BlockPosition{World: "w1", X: 101, Y: 64, Z: 201}
	v.Set(pos, blockdata.Vanilla("minecraft:stone"), false)

	newOrigin := coord.BlockPosition{World: "w1", X: 500, Y: 0, Z: 500}
	copied := v.Copy(newOrigin, view.Transient)

	if copied.ViewID() == v.ViewID() {
		t.Fatal("expected copy to have a fresh id")
	}
	newPos := coord.BlockPosition{World: "w1", X: 501, Y: 0, Z: 501}
	got, ok := copied.Get(newPos)
	if !ok || got.Serialize() != blockdata.Vanilla("minecraft:stone").Serialize() {
		t.Fatalf("expected copied override at relative position, got %+v ok=%v", got, ok)
	}
}

func TestSetAutoCancelsActiveDigAtPosition(t *testing.T) {
	p1 := newPlayer()
	disp := &fakeDispatcher{}
	v := newTestView(view.DefaultOptions(), newFakePlayerHost(p1), disp)
	pos := coord.BlockPosition{World: "w1", X: 101, Y: 64, Z: 201}
	v.Set(pos, blockdata.Custom("mymod:reinforced", 1.0, true, nil), false)

	started, err := v.StartDig(p1, pos, blockdata.BreakContext{Tool: blockdata.ToolHand})
	if err != nil || !started {
		t.Fatalf("expected dig to start, got started=%v err=%v", started, err)
	}

	// Re-Set the cell mid-dig: the in-flight session must not survive.
	v.Set(pos, blockdata.Vanilla("minecraft:stone"), false)

	if _, ok := v.Dig().RecordAt(pos); ok {
		t.Fatal("expected Set to clear the dig record for the overwritten cell")
	}
}

func TestStartDigDerivesFullBreakFromHardnessAndModifierChain(t *testing.T) {
	table := blockdata.HardnessTableFunc(func(m blockdata.Material) float64 {
		if m == "minecraft:stone" {
			return 1.5
		}
		return 0
	})
	diamondPick := func(_ blockdata.ViewBlockData, ctx blockdata.BreakContext, multiplier float64) float64 {
		if ctx.Tool == blockdata.ToolDiamond {
			return multiplier * 8
		}
		return multiplier
	}
	chain := blockdata.NewModifierChain(diamondPick)
	pos := coord.BlockPosition{World: "w1", X: 101, Y: 64, Z: 201}

	newHardnessAwareView := func() *view.BlockView {
		return view.New(
			"w1",
			coord.BlockPosition{World: "w1", X: 100, Y: 64, Z: 200},
			coord.Dimensions{W: 3, H: 3, D: 3},
			view.Transient,
			view.DefaultOptions(),
			blockdata.NewRegistry(),
			&fakeWorldHost{},
			newFakePlayerHost(),
			fakeSink{},
			&fakeDispatcher{},
			nil,
			nil,
			table,
			chain,
		)
	}

	base := time.Now()
	restore := dig.SetClock(func() time.Time { return base })
	defer restore()

	diamondView := newHardnessAwareView()
	diamondView.Set(pos, blockdata.Vanilla("minecraft:stone"), false)
	if _, err := diamondView.StartDig(newPlayer(), pos, blockdata.BreakContext{Tool: blockdata.ToolDiamond}); err != nil {
		t.Fatal(err)
	}

	handView := newHardnessAwareView()
	handView.Set(pos, blockdata.Vanilla("minecraft:stone"), false)
	if _, err := handView.StartDig(newPlayer(), pos, blockdata.BreakContext{Tool: blockdata.ToolHand}); err != nil {
		t.Fatal(err)
	}

	base = base.Add(100 * time.Millisecond)
	dig.SetClock(func() time.Time { return base })
	diamondView.TickDig()
	handView.TickDig()

	diamondRec, _ := diamondView.Dig().RecordAt(pos)
	handRec, _ := handView.Dig().RecordAt(pos)
	if diamondRec.LastStage <= handRec.LastStage {
		t.Fatalf("expected the diamond-pick modifier to advance faster than bare hands at the same elapsed time: diamond stage=%d hand stage=%d", diamondRec.LastStage, handRec.LastStage)
	}
}
