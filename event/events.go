// Package event implements the Event Surface described in spec §4.6: a
// synchronous, cancellable notification system fired around view
// mutations, modelled after dragonfly's plugin.eventHub handler chain.
package event

import (
	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/host"
)

// TriggerSource identifies the cause of a view block break.
type TriggerSource int

const (
	TriggerPlayer TriggerSource = iota
	TriggerEffect
	TriggerCommand
	TriggerScript
)

// View is the minimal reference to the originating BlockView an event
// carries. It is satisfied by view.BlockView without this package
// importing view, breaking the event<->view dependency cycle.
type View interface {
	ViewID() uint64
}

// SetEvent is fired when BlockView.Set writes an override (spec §4.6).
// It is non-cancellable; Cancelled always reports false.
type SetEvent struct {
	View View
	Pos  coord.BlockPosition
	Data blockdata.ViewBlockData
}

func (*SetEvent) Cancelled() bool { return false }

// BreakEvent is fired when BlockView.BreakBlock is invoked, before the
// override is committed. Subscribers may rewrite Output or cancel the
// event; on cancellation the break never happens and the client overlay
// is rolled back via RefreshBlock (spec §7).
type BreakEvent struct {
	View     View
	Player   host.PlayerID
	Pos      coord.BlockPosition
	Original blockdata.ViewBlockData
	Output   blockdata.ViewBlockData
	Trigger  TriggerSource

	cancelled bool
}

func (e *BreakEvent) Cancelled() bool { return e.cancelled }
func (e *BreakEvent) Cancel()         { e.cancelled = true }

// IsPlayerTriggered reports whether the break was caused directly by a
// player action, per spec §4.6 ("trigger_source == PLAYER or none").
func (e *BreakEvent) IsPlayerTriggered() bool { return e.Trigger == TriggerPlayer }

// PlaceEvent is fired when a view block is placed against an existing
// cell. Cancellable.
type PlaceEvent struct {
	View          View
	Player        host.PlayerID
	Pos           coord.BlockPosition
	Data          blockdata.ViewBlockData
	PlacedAgainst coord.BlockPosition

	cancelled bool
}

func (e *PlaceEvent) Cancelled() bool { return e.cancelled }
func (e *PlaceEvent) Cancel()         { e.cancelled = true }

// DigEvent is fired each time a destruction stage is pushed for a cell:
// on every stage transition of an active dig session, and also whenever a
// stage is pushed outside a session (cancel, reset, simulated partial
// break, and the periodic sync, which re-emits an unchanged stage).
// Subscribers may rewrite Stage; it is clamped to [-1, 9] after dispatch.
type DigEvent struct {
	View   View
	Player host.PlayerID
	Pos    coord.BlockPosition
	Data   blockdata.ViewBlockData
	Stage  int8
}

func (*DigEvent) Cancelled() bool { return false }

func clampStage(s int8) int8 {
	if s < -1 {
		return -1
	}
	if s > 9 {
		return 9
	}
	return s
}
