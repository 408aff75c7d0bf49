package dig

import (
	"math"
	"time"

	"github.com/cammyparakeet/blockview/host"
)

// sessionState enumerates the DigSession lifecycle (spec §4.5):
// Pending -> Active -> Terminated.
type sessionState int

const (
	statePending sessionState = iota
	stateActive
	stateTerminated
)

// Session is a timed, per-cell, per-player state machine advancing a
// destruction stage until the cell breaks (spec §3 "DigSession", §4.5).
// A Session is only ever held while active; terminating it (via Complete,
// Cancel, Stop, or Destroy) detaches it from its owning Record. Session
// carries no completion callback: natural completion is observed by Tick
// via tick()'s own return value, and every other termination path reads
// TotalMS/LastStage from the Session immediately after calling terminate.
type Session struct {
	player          host.PlayerID
	startedAt       time.Time
	baseAccumulated int64
	fullBreakMS     int64
	speedMultiplier float64
	lastStage       int8

	state      sessionState
	finalTotal int64
}

func newSession(player host.PlayerID, baseAccumulated, fullBreakMS int64, speedMultiplier float64) *Session {
	return &Session{
		player:          player,
		baseAccumulated: baseAccumulated,
		fullBreakMS:     fullBreakMS,
		speedMultiplier: speedMultiplier,
		lastStage:       -1,
		state:           statePending,
	}
}

// Player returns the player the session is attributed to, used for
// authorisation checks by Manager.Complete/Cancel (spec §4.4, §7
// Unauthorized).
func (s *Session) Player() host.PlayerID { return s.player }

// start transitions Pending -> Active, recording the start timestamp.
func (s *Session) start() {
	if s.state != statePending {
		return
	}
	s.startedAt = now()
	s.state = stateActive
}

// elapsedMS returns the speed-adjusted elapsed time since start, in
// milliseconds.
func (s *Session) elapsedMS() int64 {
	if s.state != stateActive {
		return 0
	}
	real := now().Sub(s.startedAt)
	return int64(float64(real.Milliseconds()) * s.speedMultiplier)
}

// totalMS returns the accumulated progress including time elapsed in the
// current active run, while the session is still active.
func (s *Session) totalMS() int64 {
	return s.baseAccumulated + s.elapsedMS()
}

// TotalMS returns the session's final accumulated progress. While active it
// reflects the live elapsed time; once terminated it returns the value
// captured at the moment of termination.
func (s *Session) TotalMS() int64 {
	if s.state == stateTerminated {
		return s.finalTotal
	}
	return s.totalMS()
}

// stageFor computes ceil(9 * total/full) per spec §4.5 and §9's rounding
// note: progress == 0 yields stage 0, never negative.
func stageFor(totalMS, fullBreakMS int64) int8 {
	if fullBreakMS <= 0 {
		return 9
	}
	if totalMS <= 0 {
		return 0
	}
	progress := float64(totalMS) / float64(fullBreakMS)
	if progress >= 1 {
		return 9
	}
	stage := int8(math.Ceil(9 * progress))
	if stage > 9 {
		stage = 9
	}
	return stage
}

// tick advances the session by one scheduler invocation. It returns
// (stage, changed, complete): stage is the current stage, changed reports
// whether it differs from the last emitted stage (so the caller only
// sends a packet on change), and complete reports whether the break
// threshold was reached.
func (s *Session) tick() (stage int8, changed bool, complete bool) {
	if s.state != stateActive {
		return s.lastStage, false, false
	}
	total := s.totalMS()
	if s.fullBreakMS > 0 && total >= s.fullBreakMS {
		return 9, s.lastStage != 9, true
	}
	stage = stageFor(total, s.fullBreakMS)
	changed = stage != s.lastStage
	if changed {
		s.lastStage = stage
	}
	return stage, changed, false
}

// terminate moves the session to Terminated, capturing its final total
// progress. It is idempotent: a second call is a no-op. blockWasBroken is
// informational only, kept for call-site symmetry with the completion
// paths that invoke it (spec §4.5 "destroy calls it with
// blockWasBroken=false").
func (s *Session) terminate(blockWasBroken bool) {
	if s.state == stateTerminated {
		return
	}
	s.finalTotal = s.totalMS()
	s.state = stateTerminated
	_ = blockWasBroken
}

// Active reports whether the session is still running.
func (s *Session) Active() bool { return s.state == stateActive }

// LastStage returns the most recently emitted stage, used for diff-only
// packet emission (spec §3 "Cached last_stage").
func (s *Session) LastStage() int8 { return s.lastStage }
