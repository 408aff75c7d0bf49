package view

import (
	"sync"

	"github.com/cammyparakeet/blockview/host"
)

// audienceSet is the membership-only relation a BlockView keeps over its
// audiences (spec §9 "Shared audience references": a view owns its
// audience membership set; audiences do not own views). Reads happen on
// the background dispatch domain via Snapshot, writes only on the
// game-tick domain (spec §5 "BlockView.audiences"), so a plain RWMutex
// suffices rather than an atomic.Value swap.
type audienceSet struct {
	mu      sync.RWMutex
	members []host.Audience
}

func newAudienceSet() *audienceSet {
	return &audienceSet{}
}

// add inserts a, deduping against existing members via Audience.Equal. It
// reports whether a was newly added.
func (s *audienceSet) add(a host.Audience) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.Equal(a) {
			return false
		}
	}
	s.members = append(s.members, a)
	return true
}

// remove deletes any member equal to a. It reports whether anything was
// removed.
func (s *audienceSet) remove(a host.Audience) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.members {
		if existing.Equal(a) {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns a copy of the current membership list, safe for the
// dispatcher to range over without racing a concurrent add/remove.
func (s *audienceSet) snapshot() []host.Audience {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]host.Audience, len(s.members))
	copy(out, s.members)
	return out
}

// materialize flattens every member audience into the distinct set of
// currently online players they resolve to (spec §3 "the materialised
// viewer set is the flattened set of currently online players").
func (s *audienceSet) materialize(ph host.PlayerHost) []host.PlayerID {
	seen := make(map[host.PlayerID]struct{})
	var out []host.PlayerID
	for _, a := range s.snapshot() {
		for _, p := range a.Players(ph) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// contains reports whether player is resolved by any current member.
func (s *audienceSet) contains(ph host.PlayerHost, player host.PlayerID) bool {
	for _, p := range s.materialize(ph) {
		if p == player {
			return true
		}
	}
	return false
}
