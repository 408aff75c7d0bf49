// Package gtsink implements host.PacketSink against the real Bedrock wire
// protocol via gophertunnel, the same transport library dragonfly itself
// depends on (github.com/sandertv/gophertunnel). It is the concrete
// "opaque packet builder" collaborator named in spec §6; the engine core
// never imports this package, only the host.PacketSink interface it
// satisfies.
package gtsink

import (
	"log/slog"

	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/host"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// Stage event types used for the crack overlay, matching the Bedrock
// protocol's block-break level events.
const (
	levelEventBlockStartBreak  int32 = 3600
	levelEventBlockStopBreak   int32 = 3601
	levelEventBlockUpdateBreak int32 = 3602
)

// stageUnitsPerStage is the full duration, in 65535ths, a single stage slice of 9
// occupies on the wire (Bedrock encodes break progress as a fraction of
// 65535 rather than a discrete 0-9 stage count).
const stageUnitsPerStage = 65535 / 9

// Conn is the subset of a gophertunnel connection the Sink needs to write
// packets to a single client.
type Conn interface {
	WritePacket(pk packet.Packet) error
}

// Sink adapts host.PacketSink to gophertunnel packet types. Send failures
// are logged, never returned, matching spec §7 ("send-failures are
// logged, never surfaced").
type Sink struct {
	log *slog.Logger
}

// New creates a Sink. A nil logger defaults to slog.Default(), mirroring
// dragonfly's Config.Log convention.
func New(log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{log: log.With("subsystem", "blockview.gtsink")}
}

func blockPos(pos coord.BlockPosition) protocol.BlockPos {
	return protocol.BlockPos{pos.X, pos.Y, pos.Z}
}

func runtimeIDOf(data blockdata.ViewBlockData) uint32 {
	// A real deployment resolves data.ToWireState() through the server's
	// block-state-to-runtime-id palette (built once at startup from the
	// same table gophertunnel's protocol package exposes). The view engine
	// itself never needs the numeric id; only the sink does, at the wire
	// boundary.
	return blockRuntimeIDPalette.lookup(data.ToWireState())
}

func (s *Sink) Send(conn host.Connection, pk host.Packet) {
	c, ok := conn.(Conn)
	if !ok || pk == nil {
		return
	}
	real, ok := pk.(packet.Packet)
	if !ok {
		return
	}
	if err := c.WritePacket(real); err != nil {
		s.log.Warn("failed to send packet", "error", err)
	}
}

// SendBundle writes each packet of pks to conn in order, one WritePacket
// call per packet; it does not wrap them in a single frame.
func (s *Sink) SendBundle(conn host.Connection, pks []host.Packet) {
	for _, pk := range pks {
		s.Send(conn, pk)
	}
}

func (s *Sink) BlockChange(pos coord.BlockPosition, data blockdata.ViewBlockData) host.Packet {
	return &packet.UpdateBlock{
		Position:          blockPos(pos),
		NewBlockRuntimeID: runtimeIDOf(data),
		Flags:             packet.BlockUpdateNeighbours | packet.BlockUpdateNetwork,
		Layer:             0,
	}
}

func (s *Sink) BlockChangeMulti(chunk coord.ChunkKey, changes map[coord.BlockPosition]blockdata.ViewBlockData) host.Packet {
	entries := make([]protocol.SubChunkBlockUpdate, 0, len(changes))
	for pos, data := range changes {
		entries = append(entries, protocol.SubChunkBlockUpdate{
			Position:  blockPos(pos),
			BlockID:   runtimeIDOf(data),
			SyncedUpdate: false,
		})
	}
	return &packet.UpdateSubChunkBlocks{
		Position: protocol.SubChunkPos{chunk.CX, 0, chunk.CZ},
		Blocks:   entries,
	}
}

func (s *Sink) SpawnFakeBlockEntity(entityID int32, pos coord.BlockPosition) host.Packet {
	return &packet.BlockEntityData{
		Position: blockPos(pos),
		NBTData: map[string]any{
			"id":          "BlockView.Dig",
			"entityId":    entityID,
		},
	}
}

func (s *Sink) RemoveFakeBlockEntity(entityID int32) host.Packet {
	return &packet.RemoveActor{EntityUniqueID: int64(entityID)}
}

func (s *Sink) BlockDestructionStage(entityID int32, pos coord.BlockPosition, stage int8) host.Packet {
	eventType := levelEventBlockUpdateBreak
	data := int32(0)
	switch {
	case stage < 0:
		eventType = levelEventBlockStopBreak
	case stage == 0:
		eventType = levelEventBlockStartBreak
		data = entityID
	default:
		data = int32(stage) * stageUnitsPerStage
	}
	return &packet.LevelEvent{
		EventType: eventType,
		Position:  blockCenter(pos),
		EventData: data,
	}
}

func blockCenter(pos coord.BlockPosition) (v [3]float32) {
	return [3]float32{float32(pos.X) + 0.5, float32(pos.Y) + 0.5, float32(pos.Z) + 0.5}
}

// runtimePalette resolves a wire block state string to the numeric
// runtime id gophertunnel's protocol expects on the wire. The real
// palette is built from the server's block-state table at startup; this
// engine ships a tiny stand-in so the Sink compiles and behaves
// deterministically in tests that don't care about the concrete id.
type runtimePalette struct {
	ids map[string]uint32
}

var blockRuntimeIDPalette = &runtimePalette{ids: map[string]uint32{
	"minecraft:air": 0,
}}

func (p *runtimePalette) lookup(state string) uint32 {
	if id, ok := p.ids[state]; ok {
		return id
	}
	return 0
}

// RegisterRuntimeID lets a host install the real state->runtime-id mapping
// it builds from its own block palette at startup.
func RegisterRuntimeID(state string, id uint32) {
	blockRuntimeIDPalette.ids[state] = id
}
