// Package manager implements the View Manager described in spec §4.3: a
// chunk-indexed registry mapping each world chunk to the set of
// overlapping views, plus a per-player visibility index.
package manager

import (
	"sync"

	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/host"
	"github.com/cammyparakeet/blockview/view"
)

// Manager owns the process-wide view registry and its two indices (spec
// §4.3 "State"), as fields of a single Manager created once by New. It has
// no clear operation: entries stay until their views are unregistered, and
// Engine.Stop does not empty it.
type Manager struct {
	mu               sync.RWMutex
	viewsByID        map[uint64]*view.BlockView
	chunkIndex       map[coord.ChunkKey]map[uint64]struct{}
	playerVisibility map[host.PlayerID]map[uint64]struct{}
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		viewsByID:        make(map[uint64]*view.BlockView),
		chunkIndex:       make(map[coord.ChunkKey]map[uint64]struct{}),
		playerVisibility: make(map[host.PlayerID]map[uint64]struct{}),
	}
}

// Register indexes v by every chunk its bounding box overlaps (spec
// §4.3). Placeholder views are rejected with ErrIsPlaceholder; a second
// Register of the same view id is rejected with ErrDuplicateView.
func (m *Manager) Register(v *view.BlockView) error {
	if v.Type() == view.Placeholder {
		return ErrIsPlaceholder
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.viewsByID[v.ViewID()]; exists {
		return ErrDuplicateView
	}
	m.viewsByID[v.ViewID()] = v
	for _, ck := range v.Box().Chunks() {
		set, ok := m.chunkIndex[ck]
		if !ok {
			set = make(map[uint64]struct{})
			m.chunkIndex[ck] = set
		}
		set[v.ViewID()] = struct{}{}
	}
	return nil
}

// Unregister removes v from the chunk index and from every player's
// visibility set. It does not call Reset on v's audiences — callers
// decide whether to reset before or after unregistering (spec §4.3).
func (m *Manager) Unregister(v *view.BlockView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.viewsByID, v.ViewID())
	for _, ck := range v.Box().Chunks() {
		if set, ok := m.chunkIndex[ck]; ok {
			delete(set, v.ViewID())
			if len(set) == 0 {
				delete(m.chunkIndex, ck)
			}
		}
	}
	for player, ids := range m.playerVisibility {
		delete(ids, v.ViewID())
		if len(ids) == 0 {
			delete(m.playerVisibility, player)
		}
	}
}

// AddPlayerToView records player as able to see v and delegates to the
// view's audience set with apply=true, per spec §4.3. Placeholder views
// are rejected.
func (m *Manager) AddPlayerToView(player host.PlayerID, v *view.BlockView) error {
	if v.Type() == view.Placeholder {
		return ErrIsPlaceholder
	}
	m.mu.Lock()
	ids, ok := m.playerVisibility[player]
	if !ok {
		ids = make(map[uint64]struct{})
		m.playerVisibility[player] = ids
	}
	ids[v.ViewID()] = struct{}{}
	m.mu.Unlock()

	v.AddAudience(host.SinglePlayer(player), true)
	return nil
}

// RemovePlayerFromView is the inverse of AddPlayerToView, delegating to
// the view's audience set with reset=true.
func (m *Manager) RemovePlayerFromView(player host.PlayerID, v *view.BlockView) error {
	if v.Type() == view.Placeholder {
		return ErrIsPlaceholder
	}
	m.mu.Lock()
	if ids, ok := m.playerVisibility[player]; ok {
		delete(ids, v.ViewID())
		if len(ids) == 0 {
			delete(m.playerVisibility, player)
		}
	}
	m.mu.Unlock()

	v.RemoveAudience(host.SinglePlayer(player), true)
	return nil
}

// ViewByID resolves a registered view by id.
func (m *Manager) ViewByID(id uint64) (*view.BlockView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.viewsByID[id]
	return v, ok
}

// ViewsInChunk returns the ids of every view registered as overlapping
// chunk (spec §4.3, testable property 2).
func (m *Manager) ViewsInChunk(chunk coord.ChunkKey) []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.chunkIndex[chunk]
	if !ok {
		return nil
	}
	out := make([]uint64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// ViewsInChunkForPlayer intersects ViewsInChunk with the views currently
// visible to player.
func (m *Manager) ViewsInChunkForPlayer(player host.PlayerID, chunk coord.ChunkKey) []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunkSet, ok := m.chunkIndex[chunk]
	if !ok {
		return nil
	}
	visible, ok := m.playerVisibility[player]
	if !ok {
		return nil
	}
	var out []uint64
	for id := range chunkSet {
		if _, ok := visible[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ViewsContainingBlock looks up the chunk enclosing pos, then filters the
// overlapping views by Box().Contains(pos) (spec §4.3).
func (m *Manager) ViewsContainingBlock(pos coord.BlockPosition) []*view.BlockView {
	return m.resolve(m.ViewsInChunk(pos.Chunk()), pos)
}

// ViewsVisibleToPlayerContainingBlock intersects ViewsContainingBlock with
// player's visibility set.
func (m *Manager) ViewsVisibleToPlayerContainingBlock(player host.PlayerID, pos coord.BlockPosition) []*view.BlockView {
	return m.resolve(m.ViewsInChunkForPlayer(player, pos.Chunk()), pos)
}

func (m *Manager) resolve(ids []uint64, pos coord.BlockPosition) []*view.BlockView {
	if len(ids) == 0 {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*view.BlockView
	for _, id := range ids {
		v, ok := m.viewsByID[id]
		if ok && v.Box().Contains(pos) {
			out = append(out, v)
		}
	}
	return out
}

// OnPlayerDisconnect clears player from every view's visibility set and
// forcibly stops their dig sessions across every view they viewed (spec
// §5 "Player disconnect triggers stop(player) across every view they
// view").
func (m *Manager) OnPlayerDisconnect(player host.PlayerID) {
	m.mu.Lock()
	ids := m.playerVisibility[player]
	delete(m.playerVisibility, player)
	m.mu.Unlock()

	for id := range ids {
		if v, ok := m.ViewByID(id); ok {
			v.StopDig(player)
		}
	}
}

// TickAll advances the dig sessions of every registered view by one
// scheduler invocation (spec §5 "background update domain").
func (m *Manager) TickAll() {
	for _, v := range m.snapshot() {
		v.TickDig()
	}
}

// SyncAll invokes SyncDig on every registered view, recovering clients
// from packet loss (spec §4.4, invoked at the coarser "every minute"
// cadence).
func (m *Manager) SyncAll() {
	for _, v := range m.snapshot() {
		v.SyncDig()
	}
}

func (m *Manager) snapshot() []*view.BlockView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*view.BlockView, 0, len(m.viewsByID))
	for _, v := range m.viewsByID {
		out = append(out, v)
	}
	return out
}

// Diagnostics reports the registry's current size, for host-side status
// commands (SPEC_FULL.md §5).
type Diagnostics struct {
	Views            int
	ChunkIndexSize   int
	TrackedPlayers   int
}

func (m *Manager) Diagnostics() Diagnostics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Diagnostics{
		Views:          len(m.viewsByID),
		ChunkIndexSize: len(m.chunkIndex),
		TrackedPlayers: len(m.playerVisibility),
	}
}
