// Package dig implements the per-view destruction-progress tracking
// described in spec §4.4-§4.5: a DigRecord per cell, backed by at most one
// active DigSession per record, orchestrated by a Manager.
package dig

import (
	"time"

	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/host"
)

// Record tracks partial-destruction state for one cell within a view
// (spec §3 "DigRecord"). A Record is retained only while a session is
// active or LastStage >= 0; Manager evicts it once both become false.
type Record struct {
	EntityID      int32
	LastDamager   host.PlayerID
	Session       *Session
	AccumulatedMS int64
	LastStage     int8 // -1 means "no overlay"
}

func newRecord(entityID int32) *Record {
	return &Record{EntityID: entityID, LastStage: -1}
}

// retained reports whether r still needs to be kept around, per the
// invariant in spec §3: a session is active, or LastStage >= 0.
func (r *Record) retained() bool {
	return r.Session != nil || r.LastStage >= 0
}

// View is the minimal seam Manager calls back into to commit a completed
// break or push a stage packet. It is satisfied by view.BlockView without
// this package importing view, which would otherwise create a view<->dig
// import cycle (view owns a Manager per spec §3 "dig_manager").
type View interface {
	// Get returns the override at pos, if any.
	Get(pos coord.BlockPosition) (blockdata.ViewBlockData, bool)
	// BreakViaDig commits a break on behalf of a completed dig session,
	// always attributed to TriggerPlayer. playAnimation controls whether
	// a break-effect packet fires.
	BreakViaDig(player host.PlayerID, pos coord.BlockPosition, playAnimation, emitEvent bool) error
	// SetBlockProgress pushes a stage packet ([-1, 9]) for entityID at pos
	// to every current viewer of the view, attributing the DigEvent it
	// fires to player (spec §4.6 "ViewBlockDig{view, player, pos, data,
	// stage}").
	SetBlockProgress(entityID int32, pos coord.BlockPosition, player host.PlayerID, stage int8)
	// SpawnDigEntity broadcasts the fake block entity backing a
	// newly-created Record to every current viewer (spec §4.4 "Entity
	// ids", §6).
	SpawnDigEntity(entityID int32, pos coord.BlockPosition)
	// RemoveDigEntity broadcasts removal of a Record's fake block entity
	// once the record is evicted.
	RemoveDigEntity(entityID int32, pos coord.BlockPosition)
	// Viewers returns the players currently viewing this view.
	Viewers() []host.PlayerID
}

// now is overridable in tests to avoid real wall-clock sleeps when
// exercising the Session state machine (spec §8 S3/S4 scenarios rely on
// "advancing virtual time").
var now = time.Now

// SetClock overrides the clock used by Session for the duration of a test,
// returning a restore function that puts the previous clock back.
func SetClock(fn func() time.Time) (restore func()) {
	prev := now
	now = fn
	return func() { now = prev }
}
