// Package view implements the Block View described in spec §4.2: a
// rectangular, world-anchored volume storing per-cell overrides, along
// with its audience set and child Dig Manager.
package view

// BreakMode governs whether players may initiate or complete destruction
// of cells inside a view (spec §3 "options").
type BreakMode int

const (
	// BreakEnabled allows dig sessions on every managed cell.
	BreakEnabled BreakMode = iota
	// BreakDisabled rejects every dig session started against this view.
	BreakDisabled
	// BreakNewOnly allows dig sessions and breaks only on cells whose
	// override was written by Set, SetMany or PlaceBlock into a cell that
	// held none (tracked via the override's placement, not its content).
	// Registration is not consulted: overrides written before the view was
	// registered count as new too; overrides carried over by Copy do not.
	BreakNewOnly
)

// PlaceMode governs whether Place operations are accepted against a view.
type PlaceMode int

const (
	PlaceEnabled PlaceMode = iota
	PlaceDisabled
)

// UnmanagedBlockBehavior governs how operations treat cells inside the
// view's bounding box that hold no override (spec §3).
type UnmanagedBlockBehavior int

const (
	// UnmanagedAllow lets unmanaged cells fall through to authoritative
	// world behaviour.
	UnmanagedAllow UnmanagedBlockBehavior = iota
	// UnmanagedCancel rejects operations (break, dig) against unmanaged
	// cells inside the view's bounds, per the Open Question decision
	// recorded in DESIGN.md: enforced as NoSuchBlock.
	UnmanagedCancel
)

// Type enumerates the lifecycle category of a view (spec §3 "type").
// Placeholder views are rejected by the manager and must never be
// registered or given audiences.
type Type int

const (
	Transient Type = iota
	Persistent
	Placeholder
)

// Options bundles the per-view behavioural switches (spec §3 "options").
type Options struct {
	BreakMode     BreakMode
	PlaceMode     PlaceMode
	UnmanagedMode UnmanagedBlockBehavior
}

// DefaultOptions mirrors the permissive defaults used throughout the
// example scenarios in spec §8: breaking and placing both enabled,
// unmanaged cells left alone.
func DefaultOptions() Options {
	return Options{
		BreakMode:     BreakEnabled,
		PlaceMode:     PlaceEnabled,
		UnmanagedMode: UnmanagedAllow,
	}
}
