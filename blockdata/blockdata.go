// Package blockdata models the block-state values a view can overlay onto
// a player's client, and the registry that interns them to compact ids.
package blockdata

import "fmt"

// Material groups the properties vanilla blocks of a kind share, such as
// their base hardness against an unspecified tool. Host applications
// supply the table as a HardnessTable; Material here is just the key used
// to look hardness up.
type Material string

// Air is the reserved material bound to AIRID.
const Air Material = "minecraft:air"

// ToolKind identifies the category of tool a player is holding, used by
// ViewBlockData.PreferredTool/HarvestableBy and by break-speed modifiers.
type ToolKind string

const (
	ToolNone     ToolKind = ""
	ToolHand     ToolKind = "hand"
	ToolWooden   ToolKind = "wooden"
	ToolStone    ToolKind = "stone"
	ToolIron     ToolKind = "iron"
	ToolDiamond  ToolKind = "diamond"
	ToolNetherite ToolKind = "netherite"
	ToolGolden   ToolKind = "golden"
)

// ViewBlockData is a tagged value describing a single overridden block
// cell. It is either a Vanilla block state or a Custom block, per spec
// §3. The zero value is not a valid ViewBlockData; use Vanilla or Custom.
type ViewBlockData struct {
	custom bool

	// Vanilla fields.
	state string // canonical vanilla block state string, e.g. "minecraft:stone"

	// Custom fields.
	material   Material
	hardness   float64
	resumable  bool
	harvestable func(ToolKind) bool
	wireState   func() string
}

// Vanilla constructs a ViewBlockData wrapping a vanilla block state. Its
// hardness is resolved lazily from the host's material table; resumable is
// always false per spec §3.
func Vanilla(state string) ViewBlockData {
	return ViewBlockData{custom: false, state: state}
}

// Custom constructs a ViewBlockData for a block with no vanilla
// counterpart. harvestableBy may be nil, in which case HarvestableBy
// (and so PreferredTool) reports true for every tool.
func Custom(material Material, hardness float64, resumable bool, harvestableBy func(ToolKind) bool) ViewBlockData {
	return ViewBlockData{
		custom:      true,
		material:    material,
		hardness:    hardness,
		resumable:   resumable,
		harvestable: harvestableBy,
	}
}

// AirBlock is the reserved value pre-bound to AIRID in every registry.
func AirBlock() ViewBlockData { return Vanilla(string(Air)) }

// IsCustom reports whether v is a Custom value rather than Vanilla.
func (v ViewBlockData) IsCustom() bool { return v.custom }

// State returns the canonical vanilla block state string. It only makes
// sense when !v.IsCustom().
func (v ViewBlockData) State() string { return v.state }

// Material returns the material key used to resolve hardness for vanilla
// blocks (the state string itself) or the custom material key.
func (v ViewBlockData) Material() Material {
	if v.custom {
		return v.material
	}
	return Material(v.state)
}

// Hardness returns the block's hardness. For Custom blocks this is the
// value supplied at construction; for Vanilla blocks the caller must
// resolve it from a host material table (HardnessTable.Lookup), since the
// registry alone carries no material data per §3.
func (v ViewBlockData) Hardness(table HardnessTable) float64 {
	if v.custom {
		return v.hardness
	}
	if table == nil {
		return 0
	}
	return table.Lookup(v.Material())
}

// Resumable reports whether destruction progress on this block persists
// across cancellations. Vanilla blocks are never resumable (§3).
func (v ViewBlockData) Resumable() bool {
	return v.custom && v.resumable
}

// PreferredTool reports whether tool is the preferred tool for breaking
// this block at full speed. Vanilla values with no supplied predicate
// report false (no strong preference modelled).
func (v ViewBlockData) PreferredTool(tool ToolKind) bool {
	if !v.custom {
		return false
	}
	return v.HarvestableBy(tool)
}

// HarvestableBy reports whether the block can be harvested by the given
// tool, dropping its item. Custom blocks with no predicate are always
// harvestable.
func (v ViewBlockData) HarvestableBy(tool ToolKind) bool {
	if !v.custom || v.harvestable == nil {
		return true
	}
	return v.harvestable(tool)
}

// ToWireState returns the string used to build outbound packets for this
// block. Vanilla values return their block state; Custom values use their
// supplied encoder, or fall back to their material key.
func (v ViewBlockData) ToWireState() string {
	if !v.custom {
		return v.state
	}
	if v.wireState != nil {
		return v.wireState()
	}
	return string(v.material)
}

// WithWireState attaches a custom wire-state encoder, returning the
// updated value. Used by hosts that need to compute the wire
// representation lazily (e.g. from block entity NBT).
func (v ViewBlockData) WithWireState(fn func() string) ViewBlockData {
	v.wireState = fn
	return v
}

// Serialize returns the canonical string used as the registry key.
// Invariant (§3): two values whose Serialize results are equal receive the
// same registry id.
func (v ViewBlockData) Serialize() string {
	if !v.custom {
		return "vanilla:" + v.state
	}
	return fmt.Sprintf("custom:%s:%g:%v", v.material, v.hardness, v.resumable)
}

// HardnessTable resolves the base hardness of a vanilla material. Hosts
// implement this over their own block/material tables (spec §6
// WorldHost.material_hardness).
type HardnessTable interface {
	Lookup(m Material) float64
}

// HardnessTableFunc adapts a function to a HardnessTable.
type HardnessTableFunc func(Material) float64

func (f HardnessTableFunc) Lookup(m Material) float64 { return f(m) }
