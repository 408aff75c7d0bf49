package blockdata

import "time"

// BreakContext carries the status modifiers the game host passes in when
// computing a dig session's full break time (spec §4.5): haste, fatigue,
// underwater, airborne and the tool in the player's hand. The view engine
// never interprets these fields itself; it only threads BreakContext
// through the ToolBreakSpeedModifier chain.
type BreakContext struct {
	Tool             ToolKind
	HasteLevel       int
	FatigueLevel     int
	Underwater       bool
	Airborne         bool
	PreferredToolHit bool
}

// ToolBreakSpeedModifier adjusts the running break-speed multiplier for a
// block given the active BreakContext. Modifiers are applied in
// registration order; each receives the multiplier produced by the
// previous modifier (starting at 1.0) and returns the next one.
//
// This mirrors the pluggable ProcessorFactory chain in dragonfly's
// world/redstone package: the core exposes the seam but ships no built-in
// modifiers beyond the identity chain.
type ToolBreakSpeedModifier func(data ViewBlockData, ctx BreakContext, multiplier float64) float64

// ModifierChain is an ordered, append-only list of ToolBreakSpeedModifier
// functions applied to compute a block's effective break speed.
type ModifierChain struct {
	modifiers []ToolBreakSpeedModifier
}

// NewModifierChain creates a chain from the given modifiers, applied in
// the order passed.
func NewModifierChain(modifiers ...ToolBreakSpeedModifier) *ModifierChain {
	return &ModifierChain{modifiers: append([]ToolBreakSpeedModifier(nil), modifiers...)}
}

// Register appends a modifier to the end of the chain.
func (c *ModifierChain) Register(m ToolBreakSpeedModifier) {
	c.modifiers = append(c.modifiers, m)
}

// Speed runs the chain for the given block and context, returning the
// final multiplier. An empty chain returns 1.0 (no modification).
func (c *ModifierChain) Speed(data ViewBlockData, ctx BreakContext) float64 {
	multiplier := 1.0
	if c == nil {
		return multiplier
	}
	for _, m := range c.modifiers {
		multiplier = m(data, ctx, multiplier)
	}
	return multiplier
}

// FullBreakDuration computes full_break_ms per spec §4.5: base hardness
// (in seconds) divided by the tool-speed modifier chain's multiplier, with
// any status modifiers already folded into that chain by the caller. A
// non-positive hardness means the block breaks instantly.
func FullBreakDuration(data ViewBlockData, table HardnessTable, ctx BreakContext, chain *ModifierChain) time.Duration {
	hardness := data.Hardness(table)
	if hardness <= 0 {
		return 0
	}
	speed := chain.Speed(data, ctx)
	if speed <= 0 {
		speed = 1
	}
	// Vanilla-style break time: hardness is expressed in "seconds at speed
	// 1.0"; dividing by the multiplier shortens it as the multiplier grows.
	seconds := hardness / speed
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds * float64(time.Second))
}
