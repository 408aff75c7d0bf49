package blockdata_test

import (
	"testing"
	"time"

	"github.com/cammyparakeet/blockview/blockdata"
)

func TestVanillaDefaults(t *testing.T) {
	v := blockdata.Vanilla("minecraft:stone")
	if v.IsCustom() {
		t.Fatal("Vanilla value reported as custom")
	}
	if v.Resumable() {
		t.Fatal("vanilla blocks must default to non-resumable")
	}
	if v.PreferredTool(blockdata.ToolDiamond) {
		t.Fatal("vanilla PreferredTool should report false with no predicate")
	}
}

func TestCustomHarvestablePredicate(t *testing.T) {
	c := blockdata.Custom("mymod:reinforced", 4.5, true, func(tool blockdata.ToolKind) bool {
		return tool == blockdata.ToolDiamond || tool == blockdata.ToolNetherite
	})
	if !c.Resumable() {
		t.Fatal("expected resumable custom block to report Resumable() == true")
	}
	if c.HarvestableBy(blockdata.ToolWooden) {
		t.Fatal("wooden tool should not harvest reinforced block")
	}
	if !c.HarvestableBy(blockdata.ToolDiamond) {
		t.Fatal("diamond tool should harvest reinforced block")
	}
}

func TestSerializeStability(t *testing.T) {
	a := blockdata.Custom("mymod:x", 2.0, false, nil)
	b := blockdata.Custom("mymod:x", 2.0, false, nil)
	if a.Serialize() != b.Serialize() {
		t.Fatalf("identical custom values serialised differently: %q vs %q", a.Serialize(), b.Serialize())
	}
	c := blockdata.Custom("mymod:x", 3.0, false, nil)
	if a.Serialize() == c.Serialize() {
		t.Fatal("different hardness values must not serialise identically")
	}
}

func TestFullBreakDurationUsesModifierChain(t *testing.T) {
	table := blockdata.HardnessTableFunc(func(m blockdata.Material) float64 {
		if m == "minecraft:stone" {
			return 1.5
		}
		return 0
	})
	chain := blockdata.NewModifierChain(func(data blockdata.ViewBlockData, ctx blockdata.BreakContext, multiplier float64) float64 {
		if ctx.Tool == blockdata.ToolDiamond {
			return multiplier * 8
		}
		return multiplier
	})

	stone := blockdata.Vanilla("minecraft:stone")
	withHand := blockdata.FullBreakDuration(stone, table, blockdata.BreakContext{Tool: blockdata.ToolHand}, chain)
	withDiamond := blockdata.FullBreakDuration(stone, table, blockdata.BreakContext{Tool: blockdata.ToolDiamond}, chain)

	if withDiamond >= withHand {
		t.Fatalf("diamond tool should break faster than hand: diamond=%v hand=%v", withDiamond, withHand)
	}
	if withHand != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s base break time, got %v", withHand)
	}
}

func TestFullBreakDurationZeroHardnessIsInstant(t *testing.T) {
	table := blockdata.HardnessTableFunc(func(blockdata.Material) float64 { return 0 })
	got := blockdata.FullBreakDuration(blockdata.AirBlock(), table, blockdata.BreakContext{}, nil)
	if got != 0 {
		t.Fatalf("zero-hardness block should break instantly, got %v", got)
	}
}
