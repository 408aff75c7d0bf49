package view

import (
	"sync"
	"sync/atomic"

	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/dig"
	"github.com/cammyparakeet/blockview/event"
	"github.com/cammyparakeet/blockview/host"
	"github.com/go-gl/mathgl/mgl64"
)

// Packet kinds used as the third component of the dispatcher's
// (viewer, pos, kind) dedupe key (spec §4.7).
const (
	kindBlockChange   = "block_change"
	kindSectionUpdate = "section_update"
	kindDigStage      = "dig_stage"
	kindBreakAnim     = "break_anim"
	kindDigEntity     = "dig_entity"
)

// Dispatcher is the minimal seam BlockView enqueues outbound packets
// through. It is satisfied by dispatch.Dispatcher without this package
// importing dispatch, which would otherwise create a view<->dispatch
// import cycle (dispatch resolves connections via the same host.PlayerHost
// the view already holds).
type Dispatcher interface {
	// Enqueue records a (viewer, pos, kind, packet) pending send. Only the
	// most recent call for a given (viewer, pos, kind) within a tick is
	// delivered (spec §4.7 "latest wins").
	Enqueue(player host.PlayerID, pos coord.BlockPosition, kind string, pk host.Packet)
}

var nextViewID atomic.Uint64

// BlockView is the rectangular, world-anchored volume of client-visible
// block overrides described in spec §3/§4.2. It owns a per-cell override
// store backed by a shared BlockDataRegistry, an audience membership set,
// and a child dig.Manager whose lifetime is tied to the view (spec §9
// "Per-view child lifetime").
type BlockView struct {
	id    uint64
	world coord.WorldID
	box   coord.Box
	typ   Type
	opts  Options
	owner *host.PlayerID

	registry  *blockdata.Registry
	hardness  blockdata.HardnessTable
	modifiers *blockdata.ModifierChain

	mu          sync.RWMutex
	overrides   map[coord.BlockPosition]int16
	newlyPlaced map[coord.BlockPosition]struct{}

	audiences *audienceSet

	worldHost  host.WorldHost
	playerHost host.PlayerHost
	sink       host.PacketSink
	dispatcher Dispatcher
	bus        *event.Bus

	dig *dig.Manager
}

// New constructs a BlockView with a process-unique id. registry, wh, ph,
// sink, dispatcher, and bus may all be reused across many views; bus may
// be nil to run without event dispatch (e.g. in unit tests focused on
// override bookkeeping). hardness and modifiers feed StartDig's full_break
// computation (spec §4.5); either may be nil, in which case hardness
// resolves to 0 and the modifier chain applies no speed adjustment.
func New(
	world coord.WorldID,
	origin coord.BlockPosition,
	dims coord.Dimensions,
	typ Type,
	opts Options,
	registry *blockdata.Registry,
	wh host.WorldHost,
	ph host.PlayerHost,
	sink host.PacketSink,
	dispatcher Dispatcher,
	bus *event.Bus,
	owner *host.PlayerID,
	hardness blockdata.HardnessTable,
	modifiers *blockdata.ModifierChain,
) *BlockView {
	v := &BlockView{
		id:          nextViewID.Add(1),
		world:       world,
		box:         coord.Box{Origin: origin, Dims: dims},
		typ:         typ,
		opts:        opts,
		owner:       owner,
		registry:    registry,
		hardness:    hardness,
		modifiers:   modifiers,
		overrides:   make(map[coord.BlockPosition]int16),
		newlyPlaced: make(map[coord.BlockPosition]struct{}),
		audiences:   newAudienceSet(),
		worldHost:   wh,
		playerHost:  ph,
		sink:        sink,
		dispatcher:  dispatcher,
		bus:         bus,
	}
	v.dig = dig.NewManager(v)
	return v
}

// ViewID satisfies event.View.
func (v *BlockView) ViewID() uint64 { return v.id }

// World returns the world this view is anchored to.
func (v *BlockView) World() coord.WorldID { return v.world }

// Origin returns the minimum-coordinate corner of the view's box.
func (v *BlockView) Origin() coord.BlockPosition { return v.box.Origin }

// Dimensions returns the view's (w, h, d) size in blocks.
func (v *BlockView) Dimensions() coord.Dimensions { return v.box.Dims }

// Box returns the view's world-anchored bounding box, used by the manager
// to compute overlapping chunk keys.
func (v *BlockView) Box() coord.Box { return v.box }

// Center returns the floating-point centre of the view's bounding box, for
// hosts that place an area-wide visual cue (e.g. a particle ring, a boss
// bar anchor) around the whole view rather than per cell.
func (v *BlockView) Center() mgl64.Vec3 {
	return mgl64.Vec3{
		float64(v.box.Origin.X) + float64(v.box.Dims.W)/2,
		float64(v.box.Origin.Y) + float64(v.box.Dims.H)/2,
		float64(v.box.Origin.Z) + float64(v.box.Dims.D)/2,
	}
}

// Type returns the view's lifecycle category.
func (v *BlockView) Type() Type { return v.typ }

// Options returns the view's behavioural switches.
func (v *BlockView) Options() Options { return v.opts }

// Owner returns the informational owning player, if any.
func (v *BlockView) Owner() (host.PlayerID, bool) {
	if v.owner == nil {
		return host.PlayerID{}, false
	}
	return *v.owner, true
}

// Dig returns the view's child dig manager, for callers (such as the root
// engine facade) that need direct access beyond the StartDig/CancelDig
// wrappers below.
func (v *BlockView) Dig() *dig.Manager { return v.dig }

// Get returns the override at pos, or false if the cell is unmanaged
// (spec §4.2, testable property 1).
func (v *BlockView) Get(pos coord.BlockPosition) (blockdata.ViewBlockData, bool) {
	v.mu.RLock()
	id, ok := v.overrides[pos]
	v.mu.RUnlock()
	if !ok {
		return blockdata.ViewBlockData{}, false
	}
	return v.registry.Lookup(id)
}

// IsManaged reports whether an override exists at pos.
func (v *BlockView) IsManaged(pos coord.BlockPosition) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.overrides[pos]
	return ok
}

// IsOriginalContent reports whether pos is inside the view's bounds and
// unmanaged (spec §4.2).
func (v *BlockView) IsOriginalContent(pos coord.BlockPosition) bool {
	return v.box.Contains(pos) && !v.IsManaged(pos)
}

// Set writes an override at pos, interning data into the shared registry.
// Any dig progress at pos is discarded first, per the Open Question
// decision recorded in DESIGN.md (a cleared/replaced override auto-cancels
// an in-flight dig). On emitEvent, a non-cancellable SetEvent fires after
// the write commits.
func (v *BlockView) Set(pos coord.BlockPosition, data blockdata.ViewBlockData, emitEvent bool) error {
	if !v.box.Contains(pos) {
		return ErrOutOfBounds
	}
	id, err := v.registry.Intern(data)
	if err != nil {
		return err
	}

	v.dig.ForceReset(pos)

	v.mu.Lock()
	if _, had := v.overrides[pos]; !had {
		v.newlyPlaced[pos] = struct{}{}
	}
	v.overrides[pos] = id
	v.mu.Unlock()

	if emitEvent && v.bus != nil {
		v.bus.DispatchSet(&event.SetEvent{View: v, Pos: pos, Data: data})
	}
	v.enqueueBlockChange(pos, data)
	return nil
}

// SetMany batch-writes changes, coalescing the outbound packets into one
// multi-block-change packet per affected chunk (spec §4.2 "set_many").
func (v *BlockView) SetMany(changes map[coord.BlockPosition]blockdata.ViewBlockData, emitEvents bool) error {
	byChunk := make(map[coord.ChunkKey]map[coord.BlockPosition]blockdata.ViewBlockData)

	for pos, data := range changes {
		if !v.box.Contains(pos) {
			return ErrOutOfBounds
		}
		id, err := v.registry.Intern(data)
		if err != nil {
			return err
		}
		v.dig.ForceReset(pos)

		v.mu.Lock()
		if _, had := v.overrides[pos]; !had {
			v.newlyPlaced[pos] = struct{}{}
		}
		v.overrides[pos] = id
		v.mu.Unlock()

		if emitEvents && v.bus != nil {
			v.bus.DispatchSet(&event.SetEvent{View: v, Pos: pos, Data: data})
		}

		chunk := pos.Chunk()
		section, ok := byChunk[chunk]
		if !ok {
			section = make(map[coord.BlockPosition]blockdata.ViewBlockData)
			byChunk[chunk] = section
		}
		section[pos] = data
	}

	if v.sink == nil || v.dispatcher == nil {
		return nil
	}
	for chunk, section := range byChunk {
		if v.worldHost != nil && !v.worldHost.ChunkLoaded(chunk) {
			continue
		}
		pk := v.sink.BlockChangeMulti(chunk, section)
		for _, player := range v.Viewers() {
			for pos := range section {
				v.dispatcher.Enqueue(player, pos, kindSectionUpdate, pk)
			}
		}
	}
	return nil
}

// checkBreakAllowed enforces BreakMode (spec §3 "options.break_mode")
// against a single cell.
func (v *BlockView) checkBreakAllowed(pos coord.BlockPosition) error {
	switch v.opts.BreakMode {
	case BreakDisabled:
		return ErrBreakDisabled
	case BreakNewOnly:
		v.mu.RLock()
		_, isNew := v.newlyPlaced[pos]
		v.mu.RUnlock()
		if !isNew {
			return ErrBreakDisabled
		}
	}
	return nil
}

// BreakBlock commits a break at pos, firing a cancellable BreakEvent first
// (spec §4.2). original is whatever override currently occupies pos;
// output defaults to air and may be rewritten by a subscriber. Cells with
// no override are rejected with dig.ErrNoSuchBlock when the view's
// UnmanagedBlockBehavior is CANCEL (the Open Question decision recorded in
// DESIGN.md), otherwise silently accepted as a no-op.
func (v *BlockView) BreakBlock(player host.PlayerID, pos coord.BlockPosition, playAnimation, emitEvent bool, trigger event.TriggerSource) error {
	if !v.box.Contains(pos) {
		return ErrOutOfBounds
	}
	if err := v.checkBreakAllowed(pos); err != nil {
		return err
	}

	original, managed := v.Get(pos)
	if !managed {
		if v.opts.UnmanagedMode == UnmanagedCancel {
			return dig.ErrNoSuchBlock
		}
		return nil
	}

	output := blockdata.AirBlock()
	if emitEvent && v.bus != nil {
		e := &event.BreakEvent{View: v, Player: player, Pos: pos, Original: original, Output: output, Trigger: trigger}
		v.bus.DispatchBreak(e)
		if e.Cancelled() {
			v.RefreshBlock(host.SinglePlayer(player), pos)
			return ErrCancelled
		}
		output = e.Output
	}

	v.mu.Lock()
	delete(v.newlyPlaced, pos)
	if output.Serialize() == blockdata.AirBlock().Serialize() {
		delete(v.overrides, pos)
	} else {
		id, err := v.registry.Intern(output)
		if err != nil {
			v.mu.Unlock()
			return err
		}
		v.overrides[pos] = id
	}
	v.mu.Unlock()

	v.dig.ForceReset(pos)
	if playAnimation {
		v.playBreakAnimation(pos)
	}
	v.enqueueBlockChange(pos, output)
	return nil
}

// BreakViaDig satisfies dig.View: it commits a break attributed to a
// completed dig session, always trigger-sourced as TriggerPlayer.
func (v *BlockView) BreakViaDig(player host.PlayerID, pos coord.BlockPosition, playAnimation, emitEvent bool) error {
	return v.BreakBlock(player, pos, playAnimation, emitEvent, event.TriggerPlayer)
}

// PlaceBlock writes data at pos on behalf of player, firing a cancellable
// PlaceEvent first. placedAgainst is the adjacent cell the placement was
// anchored to, carried through for subscribers only.
func (v *BlockView) PlaceBlock(player host.PlayerID, pos coord.BlockPosition, data blockdata.ViewBlockData, placedAgainst coord.BlockPosition, emitEvent bool) error {
	if v.opts.PlaceMode == PlaceDisabled {
		return ErrPlaceDisabled
	}
	if !v.box.Contains(pos) {
		return ErrOutOfBounds
	}
	if emitEvent && v.bus != nil {
		e := &event.PlaceEvent{View: v, Player: player, Pos: pos, Data: data, PlacedAgainst: placedAgainst}
		v.bus.DispatchPlace(e)
		if e.Cancelled() {
			v.RefreshBlock(host.SinglePlayer(player), pos)
			return ErrCancelled
		}
	}
	return v.Set(pos, data, false)
}

// RefreshBlock re-sends the current state at pos (override, or the
// authoritative world state if unmanaged) to audience only (spec §4.2).
func (v *BlockView) RefreshBlock(a host.Audience, pos coord.BlockPosition) {
	if v.sink == nil || v.dispatcher == nil || a == nil {
		return
	}
	data, managed := v.Get(pos)
	if !managed {
		data = v.authoritativeOrAir(pos)
	}
	pk := v.sink.BlockChange(pos, data)
	for _, player := range a.Players(v.playerHost) {
		v.dispatcher.Enqueue(player, pos, kindBlockChange, pk)
	}
}

// Apply bulk-sends every override in the view to audience, one section
// packet per occupied chunk (spec §4.2, §6 wire behaviour, testable
// property 8).
func (v *BlockView) Apply(a host.Audience) {
	for _, chunk := range v.box.Chunks() {
		v.ApplyChunk(a, chunk.CX, chunk.CZ)
	}
}

// ApplyChunk bulk-sends the overrides within a single chunk to audience. In
// UnmanagedCancel views, cells inside the box with no override are included
// as explicit clears so a joining audience never glimpses authoritative
// world content within the view's bounds (spec §4.2 "Algorithmic notes").
func (v *BlockView) ApplyChunk(a host.Audience, cx, cz int32) {
	if v.sink == nil || v.dispatcher == nil || a == nil {
		return
	}
	chunk := coord.ChunkKey{World: v.world, CX: cx, CZ: cz}
	section := v.sectionForApply(chunk)
	if len(section) == 0 {
		return
	}
	pk := v.sink.BlockChangeMulti(chunk, section)
	for _, player := range a.Players(v.playerHost) {
		for pos := range section {
			v.dispatcher.Enqueue(player, pos, kindSectionUpdate, pk)
		}
	}
}

// sectionForApply computes the section packet payload for Apply/ApplyChunk.
// Under UnmanagedAllow, unmanaged cells are simply omitted ("no change").
// Under UnmanagedCancel, every cell of the box within chunk is included,
// with unmanaged cells sent as explicit air.
func (v *BlockView) sectionForApply(chunk coord.ChunkKey) map[coord.BlockPosition]blockdata.ViewBlockData {
	if v.opts.UnmanagedMode != UnmanagedCancel {
		return v.overridesInChunk(chunk)
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[coord.BlockPosition]blockdata.ViewBlockData)
	for _, pos := range v.cellsInChunk(chunk) {
		if id, ok := v.overrides[pos]; ok {
			if data, ok := v.registry.Lookup(id); ok {
				out[pos] = data
			}
			continue
		}
		out[pos] = blockdata.AirBlock()
	}
	return out
}

// Reset sends the authoritative world state for every overridden cell to
// audience, removing the client-side overlay (spec §4.2, testable
// property 8).
func (v *BlockView) Reset(a host.Audience) {
	for _, chunk := range v.box.Chunks() {
		v.ResetChunk(a, chunk.CX, chunk.CZ)
	}
}

// ResetChunk is the per-chunk form of Reset. In UnmanagedCancel views this
// also reverts the explicit clears Apply sent for unmanaged cells, so the
// departing audience's overlay is fully undone, not just the overridden
// cells (spec §4.2 "Algorithmic notes").
func (v *BlockView) ResetChunk(a host.Audience, cx, cz int32) {
	if v.sink == nil || v.dispatcher == nil || a == nil {
		return
	}
	chunk := coord.ChunkKey{World: v.world, CX: cx, CZ: cz}
	cells := v.cellsForReset(chunk)
	if len(cells) == 0 {
		return
	}
	authoritative := make(map[coord.BlockPosition]blockdata.ViewBlockData, len(cells))
	for _, pos := range cells {
		authoritative[pos] = v.authoritativeOrAir(pos)
	}
	pk := v.sink.BlockChangeMulti(chunk, authoritative)
	for _, player := range a.Players(v.playerHost) {
		for pos := range authoritative {
			v.dispatcher.Enqueue(player, pos, kindSectionUpdate, pk)
		}
	}
}

// cellsForReset returns the positions ResetChunk must send authoritative
// state for: just the overridden cells under UnmanagedAllow, or every cell
// of the box within chunk under UnmanagedCancel (mirroring sectionForApply).
func (v *BlockView) cellsForReset(chunk coord.ChunkKey) []coord.BlockPosition {
	if v.opts.UnmanagedMode != UnmanagedCancel {
		overridden := v.overridesInChunk(chunk)
		out := make([]coord.BlockPosition, 0, len(overridden))
		for pos := range overridden {
			out = append(out, pos)
		}
		return out
	}
	return v.cellsInChunk(chunk)
}

// AddAudience registers a as a member, optionally applying the view's
// current overrides to it immediately (spec §4.2, testable property 8).
// It reports whether a was newly added.
func (v *BlockView) AddAudience(a host.Audience, apply bool) bool {
	added := v.audiences.add(a)
	if added && apply {
		v.Apply(a)
	}
	return added
}

// RemoveAudience unregisters a, optionally resetting its client-side
// overlay back to the authoritative world state (spec §4.2, testable
// property 8). It reports whether a was present.
func (v *BlockView) RemoveAudience(a host.Audience, reset bool) bool {
	removed := v.audiences.remove(a)
	if removed && reset {
		v.Reset(a)
	}
	return removed
}

// Viewers satisfies dig.View: the flattened set of players every current
// audience resolves to (spec §3 "materialised viewer set").
func (v *BlockView) Viewers() []host.PlayerID {
	return v.audiences.materialize(v.playerHost)
}

// SetBlockProgress satisfies dig.View: it fires a DigEvent carrying the
// triggering player (subscribers may rewrite Stage, clamped to [-1, 9] by
// the bus) and enqueues a destruction-stage packet to every current viewer
// (spec §4.2, §4.6 "ViewBlockDig{view, player, pos, data, stage}").
func (v *BlockView) SetBlockProgress(entityID int32, pos coord.BlockPosition, player host.PlayerID, stage int8) {
	if v.bus != nil {
		data, _ := v.Get(pos)
		e := &event.DigEvent{View: v, Player: player, Pos: pos, Data: data, Stage: stage}
		v.bus.DispatchDig(e)
		stage = e.Stage
	}
	if v.sink == nil || v.dispatcher == nil {
		return
	}
	pk := v.sink.BlockDestructionStage(entityID, pos, stage)
	for _, player := range v.Viewers() {
		v.dispatcher.Enqueue(player, pos, kindDigStage, pk)
	}
}

// SpawnDigEntity satisfies dig.View: it broadcasts the fake block entity
// backing a newly-created DigRecord to every current viewer (spec §4.4
// "Entity ids", §6 "spawn fake block entity").
func (v *BlockView) SpawnDigEntity(entityID int32, pos coord.BlockPosition) {
	if v.sink == nil || v.dispatcher == nil {
		return
	}
	pk := v.sink.SpawnFakeBlockEntity(entityID, pos)
	for _, player := range v.Viewers() {
		v.dispatcher.Enqueue(player, pos, kindDigEntity, pk)
	}
}

// RemoveDigEntity satisfies dig.View: it broadcasts removal of a
// DigRecord's fake block entity once the record is evicted.
func (v *BlockView) RemoveDigEntity(entityID int32, pos coord.BlockPosition) {
	if v.sink == nil || v.dispatcher == nil {
		return
	}
	pk := v.sink.RemoveFakeBlockEntity(entityID)
	for _, player := range v.Viewers() {
		v.dispatcher.Enqueue(player, pos, kindDigEntity, pk)
	}
}

// StartDig begins a dig session at pos on behalf of player, subject to
// BreakMode (spec §3, §4.4). full_break_ms is derived from the overridden
// block's hardness run through the view's tool-speed modifier chain against
// ctx (spec §4.5 "Break-time computation"), not supplied by the caller.
func (v *BlockView) StartDig(player host.PlayerID, pos coord.BlockPosition, ctx blockdata.BreakContext) (bool, error) {
	if err := v.checkBreakAllowed(pos); err != nil {
		return false, err
	}
	data, ok := v.Get(pos)
	if !ok {
		return false, dig.ErrNoSuchBlock
	}
	fullBreakMS := blockdata.FullBreakDuration(data, v.hardness, ctx, v.modifiers).Milliseconds()
	return v.dig.Start(player, pos, fullBreakMS, 1.0)
}

// CompleteDig finishes the active session at pos on behalf of player.
func (v *BlockView) CompleteDig(pos coord.BlockPosition, player host.PlayerID) error {
	return v.dig.Complete(pos, player)
}

// CancelDig ends the active session at pos on behalf of player, subject
// to the resumability law (spec §8.6).
func (v *BlockView) CancelDig(pos coord.BlockPosition, player host.PlayerID) error {
	return v.dig.Cancel(pos, player)
}

// StopDig forcibly ends every session belonging to player in this view,
// used on disconnect (spec §5).
func (v *BlockView) StopDig(player host.PlayerID) {
	v.dig.Stop(player)
}

// TickDig advances every active dig session by one scheduler invocation
// (spec §5 "background update domain").
func (v *BlockView) TickDig() { v.dig.Tick() }

// SyncDig re-emits stale stages and evicts decayed records (spec §4.4
// "sync").
func (v *BlockView) SyncDig() { v.dig.Sync() }

// Destroy cascades destruction over every active dig session belonging to
// this view (spec §9 "Per-view child lifetime").
func (v *BlockView) Destroy() {
	v.dig.Destroy()
}

// Copy produces a new view at newOrigin with the same override contents
// and a fresh id (spec §4.2 "copy").
func (v *BlockView) Copy(newOrigin coord.BlockPosition, typ Type) *BlockView {
	nv := New(v.world, newOrigin, v.box.Dims, typ, v.opts, v.registry, v.worldHost, v.playerHost, v.sink, v.dispatcher, v.bus, v.owner, v.hardness, v.modifiers)
	v.mu.RLock()
	defer v.mu.RUnlock()
	for pos, id := range v.overrides {
		rx, ry, rz, ok := v.box.Relative(pos)
		if !ok {
			continue
		}
		nv.overrides[newOrigin.Add(rx, ry, rz)] = id
	}
	return nv
}

// Diagnostics summarises the view's current load for host-side status
// commands (SPEC_FULL.md §5).
type Diagnostics struct {
	Overrides  int
	Audiences  int
	Viewers    int
	DigRecords int
	DigActive  int
}

func (v *BlockView) Diagnostics() Diagnostics {
	v.mu.RLock()
	overrides := len(v.overrides)
	v.mu.RUnlock()
	d := v.dig.Diagnostics()
	return Diagnostics{
		Overrides:  overrides,
		Audiences:  len(v.audiences.snapshot()),
		Viewers:    len(v.Viewers()),
		DigRecords: d.Records,
		DigActive:  d.ActiveSessions,
	}
}

func (v *BlockView) overridesInChunk(chunk coord.ChunkKey) map[coord.BlockPosition]blockdata.ViewBlockData {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[coord.BlockPosition]blockdata.ViewBlockData)
	for pos, id := range v.overrides {
		if pos.Chunk() != chunk {
			continue
		}
		if data, ok := v.registry.Lookup(id); ok {
			out[pos] = data
		}
	}
	return out
}

// cellsInChunk enumerates every cell of the view's box that falls within
// chunk's 16x16 column, spanning the box's full height. Used by
// sectionForApply/cellsForReset when UnmanagedCancel requires every cell to
// be accounted for, not just overridden ones.
func (v *BlockView) cellsInChunk(chunk coord.ChunkKey) []coord.BlockPosition {
	loX, hiX := clampRange(v.box.Origin.X, v.box.Origin.X+v.box.Dims.W, chunk.CX*16, chunk.CX*16+16)
	loZ, hiZ := clampRange(v.box.Origin.Z, v.box.Origin.Z+v.box.Dims.D, chunk.CZ*16, chunk.CZ*16+16)
	if loX >= hiX || loZ >= hiZ {
		return nil
	}
	loY, hiY := v.box.Origin.Y, v.box.Origin.Y+v.box.Dims.H

	out := make([]coord.BlockPosition, 0, int(hiX-loX)*int(hiY-loY)*int(hiZ-loZ))
	for x := loX; x < hiX; x++ {
		for y := loY; y < hiY; y++ {
			for z := loZ; z < hiZ; z++ {
				out = append(out, coord.BlockPosition{World: v.world, X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// clampRange intersects [boxLo, boxHi) with [chunkLo, chunkHi).
func clampRange(boxLo, boxHi, chunkLo, chunkHi int32) (lo, hi int32) {
	lo = boxLo
	if chunkLo > lo {
		lo = chunkLo
	}
	hi = boxHi
	if chunkHi < hi {
		hi = chunkHi
	}
	return lo, hi
}

func (v *BlockView) authoritativeOrAir(pos coord.BlockPosition) blockdata.ViewBlockData {
	if v.worldHost == nil {
		return blockdata.AirBlock()
	}
	return v.worldHost.AuthoritativeState(pos)
}

func (v *BlockView) enqueueBlockChange(pos coord.BlockPosition, data blockdata.ViewBlockData) {
	if v.sink == nil || v.dispatcher == nil {
		return
	}
	if v.worldHost != nil && !v.worldHost.ChunkLoaded(pos.Chunk()) {
		return
	}
	pk := v.sink.BlockChange(pos, data)
	for _, player := range v.Viewers() {
		v.dispatcher.Enqueue(player, pos, kindBlockChange, pk)
	}
}

// playBreakAnimation fires a one-shot destruction-stage pulse at stage 9
// to cue the client's break particles, using entity id 0 as a stateless
// signal distinct from any DigRecord's allocated entity id (dig entity ids
// are always negative, spec §4.4).
func (v *BlockView) playBreakAnimation(pos coord.BlockPosition) {
	if v.sink == nil || v.dispatcher == nil {
		return
	}
	pk := v.sink.BlockDestructionStage(0, pos, 9)
	for _, player := range v.Viewers() {
		v.dispatcher.Enqueue(player, pos, kindBreakAnim, pk)
	}
}
