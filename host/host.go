// Package host declares the collaborator contracts the block view engine
// consumes (spec §6): the authoritative world, the online player list, a
// tick scheduler, and the packet sink used to reach clients. The engine
// core never implements these itself; it is handed implementations by the
// embedding game server.
package host

import (
	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/google/uuid"
)

// PlayerID opaquely identifies a player across reconnects within a single
// server process lifetime.
type PlayerID uuid.UUID

// String returns the canonical UUID string form of id.
func (id PlayerID) String() string { return uuid.UUID(id).String() }

// Connection is the opaque handle a PacketSink uses to address a specific
// player's network session. The view engine never inspects it.
type Connection any

// WorldHost exposes the authoritative world data the view engine needs to
// read but never mutates: chunk presence, world identity, and material
// hardness (spec §6).
type WorldHost interface {
	// ChunkLoaded reports whether the given chunk is currently loaded for
	// gameplay purposes (used to decide whether a block-change packet
	// should be sent at all).
	ChunkLoaded(key coord.ChunkKey) bool
	// WorldID resolves the opaque world identifier for a given world
	// reference. The view engine treats its argument as an opaque handle.
	WorldID(world any) coord.WorldID
	// AuthoritativeState returns the real (non-overridden) block state at
	// pos, used by refresh/reset operations.
	AuthoritativeState(pos coord.BlockPosition) blockdata.ViewBlockData
}

// PlayerHost enumerates and describes online players (spec §6).
type PlayerHost interface {
	// Online returns every player currently connected.
	Online() []PlayerID
	// Connected reports whether a player id is currently online.
	Connected(id PlayerID) bool
	// Connection resolves a player's network handle for packet delivery.
	Connection(id PlayerID) (Connection, bool)
	// World resolves the world a player currently occupies.
	World(id PlayerID) any
	// MainHand resolves the tool kind in a player's main hand, consulted
	// by dig-speed computation.
	MainHand(id PlayerID) blockdata.ToolKind
}

// TaskHandle cancels a task scheduled via Scheduler.ScheduleRepeating.
type TaskHandle interface {
	Cancel()
}

// Scheduler drives the periodic background tasks described in spec §5: a
// one-tick cadence task for dig-session updates, a dispatcher flush task,
// and a coarser cadence for DigManager.Sync.
type Scheduler interface {
	// ScheduleRepeating runs task every periodTicks ticks, first firing
	// after initialTicks. If async is true the host may invoke task off
	// the game-tick goroutine; the view engine's own state is always
	// internally synchronised regardless.
	ScheduleRepeating(task func(), initialTicks, periodTicks int, async bool) TaskHandle
}

// Audience is a polymorphic packet recipient: either a single player or a
// group that resolves to a set of players (spec §3, §4.2 "Glossary:
// Audience").
type Audience interface {
	// Players returns the current set of player ids this audience
	// resolves to. Implementations must be safe to call repeatedly; the
	// view engine never caches the result across calls.
	Players(host PlayerHost) []PlayerID
	// Equal reports whether a is the same logical audience as this one,
	// used by BlockView to dedupe audience membership.
	Equal(a Audience) bool
}

// SinglePlayer is an Audience resolving to exactly one player.
type SinglePlayer PlayerID

func (p SinglePlayer) Players(host PlayerHost) []PlayerID {
	if host != nil && !host.Connected(PlayerID(p)) {
		return nil
	}
	return []PlayerID{PlayerID(p)}
}

func (p SinglePlayer) Equal(a Audience) bool {
	other, ok := a.(SinglePlayer)
	return ok && other == p
}

// Group is an Audience resolving to a fixed, named set of players (e.g. a
// party or a guild), identified by Name for equality purposes.
type Group struct {
	Name    string
	Members []PlayerID
}

func (g Group) Players(host PlayerHost) []PlayerID {
	out := make([]PlayerID, 0, len(g.Members))
	for _, m := range g.Members {
		if host == nil || host.Connected(m) {
			out = append(out, m)
		}
	}
	return out
}

func (g Group) Equal(a Audience) bool {
	other, ok := a.(Group)
	return ok && other.Name == g.Name
}

// Packet is the opaque wire representation of an outbound update. Spec §6
// treats packet encoding as an opaque collaborator concern; this engine
// reuses gophertunnel's packet.Packet interface directly as that opaque
// type rather than inventing a parallel one (see host/gtsink).
type Packet any

// PacketSink is the set of opaque "send packet" primitives the view
// engine calls to reach clients (spec §6). Concrete adapters (such as
// host/gtsink.Sink) build real wire packets; the engine core only ever
// calls through this interface.
type PacketSink interface {
	// Send delivers a single packet to conn. Failures are logged by the
	// implementation and never surfaced to the engine (spec §7).
	Send(conn Connection, pk Packet)
	// SendBundle delivers every packet in pks to conn as one frame.
	SendBundle(conn Connection, pks []Packet)

	// BlockChange builds a single block-change packet.
	BlockChange(pos coord.BlockPosition, data blockdata.ViewBlockData) Packet
	// BlockChangeMulti builds one packet carrying every change in a
	// single chunk section.
	BlockChangeMulti(chunk coord.ChunkKey, changes map[coord.BlockPosition]blockdata.ViewBlockData) Packet
	// SpawnFakeBlockEntity builds the packet used to key a destruction
	// overlay to entityID.
	SpawnFakeBlockEntity(entityID int32, pos coord.BlockPosition) Packet
	// RemoveFakeBlockEntity builds the packet that removes a previously
	// spawned fake block entity.
	RemoveFakeBlockEntity(entityID int32) Packet
	// BlockDestructionStage builds the crack-overlay packet for stage in
	// [-1, 9]; -1 clears the overlay (spec §6).
	BlockDestructionStage(entityID int32, pos coord.BlockPosition, stage int8) Packet
}
