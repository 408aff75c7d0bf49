package host

import (
	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
)

// NopWorldHost is a WorldHost implementation that reports every chunk
// loaded and every position as air, useful for unit tests that don't
// exercise world-state interaction (mirrors world.NopProvider).
type NopWorldHost struct{}

func (NopWorldHost) ChunkLoaded(coord.ChunkKey) bool                          { return true }
func (NopWorldHost) WorldID(any) coord.WorldID                                { return "" }
func (NopWorldHost) AuthoritativeState(coord.BlockPosition) blockdata.ViewBlockData { return blockdata.AirBlock() }

// NopPlayerHost is a PlayerHost with no online players.
type NopPlayerHost struct{}

func (NopPlayerHost) Online() []PlayerID                    { return nil }
func (NopPlayerHost) Connected(PlayerID) bool                { return false }
func (NopPlayerHost) Connection(PlayerID) (Connection, bool) { return nil, false }
func (NopPlayerHost) World(PlayerID) any                     { return nil }
func (NopPlayerHost) MainHand(PlayerID) blockdata.ToolKind    { return ToolHandDefault }

// ToolHandDefault is the tool kind NopPlayerHost reports for every player.
const ToolHandDefault = blockdata.ToolHand

// nopTaskHandle is returned by NopScheduler; cancelling it is a no-op.
type nopTaskHandle struct{}

func (nopTaskHandle) Cancel() {}

// NopScheduler never actually invokes scheduled tasks: useful for tests
// that drive dig sessions and dispatcher flushes manually instead of via
// real ticks.
type NopScheduler struct{}

func (NopScheduler) ScheduleRepeating(_ func(), _, _ int, _ bool) TaskHandle {
	return nopTaskHandle{}
}

// NopPacketSink discards every packet. It still constructs real (typed)
// Packet values so dedupe/bundling logic downstream has something to key
// on, but Send/SendBundle do nothing.
type NopPacketSink struct{}

type nopPacket struct {
	kind string
	pos  coord.BlockPosition
}

func (NopPacketSink) Send(Connection, Packet)            {}
func (NopPacketSink) SendBundle(Connection, []Packet)     {}

func (NopPacketSink) BlockChange(pos coord.BlockPosition, _ blockdata.ViewBlockData) Packet {
	return nopPacket{kind: "block-change", pos: pos}
}

func (NopPacketSink) BlockChangeMulti(chunk coord.ChunkKey, _ map[coord.BlockPosition]blockdata.ViewBlockData) Packet {
	return nopPacket{kind: "block-change-multi", pos: coord.BlockPosition{World: chunk.World, X: chunk.CX, Z: chunk.CZ}}
}

func (NopPacketSink) SpawnFakeBlockEntity(_ int32, pos coord.BlockPosition) Packet {
	return nopPacket{kind: "spawn-fake-entity", pos: pos}
}

func (NopPacketSink) RemoveFakeBlockEntity(_ int32) Packet {
	return nopPacket{kind: "remove-fake-entity"}
}

func (NopPacketSink) BlockDestructionStage(_ int32, pos coord.BlockPosition, _ int8) Packet {
	return nopPacket{kind: "dig-stage", pos: pos}
}
