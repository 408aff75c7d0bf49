package dig

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/brentp/intintmap"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/host"
)

// Errors returned by Manager operations (spec §7).
var (
	ErrNoSuchBlock  = errors.New("dig: no override at position")
	ErrUnauthorized = errors.New("dig: session belongs to a different player")
)

// Manager tracks partial-destruction state per cell in a single view
// (spec §4.4). It is owned by the BlockView whose overrides it tracks;
// destroying the view cascades Destroy across every active session.
type Manager struct {
	mu      sync.Mutex
	records map[coord.BlockPosition]*Record
	// issued tracks every entityID ever handed out by this Manager so
	// allocateEntityID never reuses one, even after its Record has been
	// evicted (global uniqueness is not required, but per-view uniqueness
	// is, per spec §4.4).
	issued *intintmap.Map

	view View
}

// NewManager creates a Manager bound to view, following the per-view
// child-lifetime pattern described in spec §9 ("DigManager owned by a
// view").
func NewManager(view View) *Manager {
	return &Manager{
		records: make(map[coord.BlockPosition]*Record),
		issued:  intintmap.New(64, 0.6),
		view:    view,
	}
}

// allocateEntityID picks a pseudo-random negative int32 in
// [-INT32_MAX, -1], unique within this Manager (spec §4.4 "Entity ids").
func (m *Manager) allocateEntityID() int32 {
	for {
		id := -int32(rand.Int32N(math.MaxInt32)) - 1
		key := int64(id)
		if _, ok := m.issued.Get(key); ok {
			continue
		}
		m.issued.Put(key, 1)
		return id
	}
}

// Start begins a dig session for player at pos (spec §4.4). It requires
// an override at pos (ErrNoSuchBlock otherwise). If a session is already
// active at pos it returns false without error. speedMultiplier defaults
// to 1.0 when <= 0.
func (m *Manager) Start(player host.PlayerID, pos coord.BlockPosition, fullBreakMS int64, speedMultiplier float64) (bool, error) {
	if speedMultiplier <= 0 {
		speedMultiplier = 1.0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.view.Get(pos); !ok {
		return false, ErrNoSuchBlock
	}

	rec, ok := m.records[pos]
	if ok && rec.Session != nil && rec.Session.Active() {
		return false, nil
	}
	if !ok {
		rec = newRecord(m.allocateEntityID())
		m.records[pos] = rec
		m.view.SpawnDigEntity(rec.EntityID, pos)
	}
	rec.LastDamager = player
	rec.Session = newSession(player, rec.AccumulatedMS, fullBreakMS, speedMultiplier)
	rec.Session.start()
	return true, nil
}

// resumableAtLocked reports whether the block at pos should retain
// accumulated progress across a cancel, per spec §8.6. Non-resumable
// blocks reset to zero. Callers must hold m.mu.
func (m *Manager) resumableAtLocked(pos coord.BlockPosition) bool {
	data, ok := m.view.Get(pos)
	return ok && data.Resumable()
}

// Complete finishes the active session at pos on behalf of player,
// triggering a break on the owning view. It is a no-op (spec §8.7,
// §7 Unauthorized) if the active session belongs to someone else.
func (m *Manager) Complete(pos coord.BlockPosition, player host.PlayerID) error {
	m.mu.Lock()
	rec, ok := m.records[pos]
	if !ok || rec.Session == nil || !rec.Session.Active() {
		m.mu.Unlock()
		return nil
	}
	if rec.Session.Player() != player {
		m.mu.Unlock()
		return ErrUnauthorized
	}
	m.mu.Unlock()

	// BreakViaDig re-enters the view outside the lock, since it may call
	// back into this manager (e.g. Set clearing this very override).
	err := m.view.BreakViaDig(player, pos, true, true)

	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Session == nil || !rec.Session.Active() {
		return err
	}
	rec.Session.terminate(err == nil)
	if err == nil {
		rec.Session = nil
		delete(m.records, pos)
		m.view.RemoveDigEntity(rec.EntityID, pos)
		return nil
	}
	// The break failed (e.g. cancelled by a BreakEvent handler): treat it
	// like a Cancel, subject to the same resumability law (spec §8.6).
	if m.resumableAtLocked(pos) {
		rec.AccumulatedMS = rec.Session.TotalMS()
		rec.LastStage = rec.Session.LastStage()
	} else {
		rec.AccumulatedMS = 0
		rec.LastStage = -1
	}
	rec.Session = nil
	if !rec.retained() {
		delete(m.records, pos)
		m.view.RemoveDigEntity(rec.EntityID, pos)
	}
	return err
}

// Cancel ends the active session at pos if it belongs to player, per the
// resumability law (spec §8.6): resumable blocks retain accumulated
// progress, non-resumable blocks reset to stage -1.
func (m *Manager) Cancel(pos coord.BlockPosition, player host.PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[pos]
	if !ok || rec.Session == nil || !rec.Session.Active() {
		return nil
	}
	if rec.Session.Player() != player {
		return ErrUnauthorized
	}
	resumable := m.resumableAtLocked(pos)
	rec.Session.terminate(false)
	if resumable {
		rec.AccumulatedMS = rec.Session.TotalMS()
		rec.LastStage = rec.Session.LastStage()
	} else {
		rec.AccumulatedMS = 0
		rec.LastStage = -1
	}
	rec.Session = nil
	if !rec.retained() {
		delete(m.records, pos)
		m.view.RemoveDigEntity(rec.EntityID, pos)
	} else {
		m.view.SetBlockProgress(rec.EntityID, pos, rec.LastDamager, rec.LastStage)
	}
	return nil
}

// Stop forcibly ends every session whose last damager is player, applying
// the same resumability law as Cancel (spec §4.4, used on player quit).
func (m *Manager) Stop(player host.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pos, rec := range m.records {
		if rec.Session == nil || rec.Session.Player() != player {
			continue
		}
		resumable := m.resumableAtLocked(pos)
		rec.Session.terminate(false)
		if resumable {
			rec.AccumulatedMS = rec.Session.TotalMS()
			rec.LastStage = rec.Session.LastStage()
		} else {
			rec.AccumulatedMS = 0
			rec.LastStage = -1
		}
		rec.Session = nil
		if !rec.retained() {
			delete(m.records, pos)
			m.view.RemoveDigEntity(rec.EntityID, pos)
		}
	}
}

// ForceReset unconditionally terminates any session at pos and evicts its
// record, regardless of which player owns it. Used when a view commits a
// break that isn't routed through the owning dig session — e.g. a direct
// BreakBlock/Set call on a cell someone else is mid-dig on (spec §4.2
// "break_block ... clears any dig record").
func (m *Manager) ForceReset(pos coord.BlockPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[pos]
	if !ok {
		return
	}
	if rec.Session != nil {
		rec.Session.terminate(true)
	}
	delete(m.records, pos)
	m.view.RemoveDigEntity(rec.EntityID, pos)
}

// ResetBlock clears the record at pos if no session is active, sending
// stage -1 to viewers (spec §4.4).
func (m *Manager) ResetBlock(pos coord.BlockPosition) {
	m.mu.Lock()
	rec, ok := m.records[pos]
	if !ok || (rec.Session != nil && rec.Session.Active()) {
		m.mu.Unlock()
		return
	}
	entityID := rec.EntityID
	lastDamager := rec.LastDamager
	delete(m.records, pos)
	m.mu.Unlock()
	m.view.SetBlockProgress(entityID, pos, lastDamager, -1)
	m.view.RemoveDigEntity(entityID, pos)
}

// SimulatePartialBreak sets accumulated_ms = fraction*fullBreakMS and
// last_stage = ceil(fraction*9) without starting a timer, used to display
// paused progress (spec §4.4). Calling it twice with the same fraction is
// idempotent (spec §8.5): the resulting record state is identical.
func (m *Manager) SimulatePartialBreak(pos coord.BlockPosition, fraction float64, fullBreakMS int64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	m.mu.Lock()
	rec, ok := m.records[pos]
	if !ok {
		rec = newRecord(m.allocateEntityID())
		m.records[pos] = rec
		m.view.SpawnDigEntity(rec.EntityID, pos)
	}
	rec.AccumulatedMS = int64(fraction * float64(fullBreakMS))
	rec.LastStage = stageFor(rec.AccumulatedMS, fullBreakMS)
	entityID := rec.EntityID
	lastDamager := rec.LastDamager
	stage := rec.LastStage
	m.mu.Unlock()
	m.view.SetBlockProgress(entityID, pos, lastDamager, stage)
}

// Tick advances every active session by one scheduler invocation,
// emitting stage packets on change and triggering completion when a
// session reaches full break (spec §4.5). It is invoked from the
// background update domain at one-tick granularity (spec §5).
func (m *Manager) Tick() {
	type completion struct {
		pos    coord.BlockPosition
		player host.PlayerID
	}
	var toComplete []completion

	m.mu.Lock()
	for pos, rec := range m.records {
		if rec.Session == nil || !rec.Session.Active() {
			continue
		}
		stage, changed, complete := rec.Session.tick()
		if complete {
			toComplete = append(toComplete, completion{pos: pos, player: rec.Session.Player()})
			continue
		}
		if changed {
			rec.LastStage = stage
			m.view.SetBlockProgress(rec.EntityID, pos, rec.LastDamager, stage)
		}
	}
	m.mu.Unlock()

	for _, c := range toComplete {
		_ = m.Complete(c.pos, c.player)
	}
}

// Sync re-emits the last known stage for every record without an active
// session, recovering clients from packet loss (spec §4.4), and evicts
// any record that has decayed to AccumulatedMS <= 0 and LastStage < 0. It
// is invoked periodically by a coarser background task (spec §5, "every
// minute").
func (m *Manager) Sync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pos, rec := range m.records {
		if rec.Session != nil {
			continue
		}
		if rec.AccumulatedMS <= 0 && rec.LastStage < 0 {
			delete(m.records, pos)
			m.view.RemoveDigEntity(rec.EntityID, pos)
			continue
		}
		m.view.SetBlockProgress(rec.EntityID, pos, rec.LastDamager, rec.LastStage)
	}
}

// Destroy forcibly terminates every active session without triggering a
// break, used when the owning view is closed (spec §5 "Closing a view
// triggers destroy on every active session belonging to it").
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pos, rec := range m.records {
		if rec.Session != nil {
			rec.Session.terminate(false)
		}
		delete(m.records, pos)
		m.view.RemoveDigEntity(rec.EntityID, pos)
	}
}

// Diagnostics reports the number of tracked records and active sessions,
// for host-side status commands (SPEC_FULL.md §5).
type Diagnostics struct {
	Records        int
	ActiveSessions int
}

func (m *Manager) Diagnostics() Diagnostics {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := Diagnostics{Records: len(m.records)}
	for _, rec := range m.records {
		if rec.Session != nil && rec.Session.Active() {
			d.ActiveSessions++
		}
	}
	return d
}

// RecordAt returns a snapshot of the record at pos, for tests and
// diagnostics. The returned Record is a copy; mutating it has no effect.
func (m *Manager) RecordAt(pos coord.BlockPosition) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[pos]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}
