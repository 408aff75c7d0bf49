// Package dispatch implements the Packet Dispatcher described in spec
// §4.7: per-tick collection of pending (viewer, packet) updates, deduped
// by (viewer, pos, kind) with "latest wins" semantics, flushed as one
// bundled frame per viewer.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/host"
	"github.com/segmentio/fasthash/fnv1a"
	"golang.org/x/sync/errgroup"
)

// pending is one deduped (viewer, pos, kind) slot awaiting flush.
type pending struct {
	player host.PlayerID
	pk     host.Packet
}

// Dispatcher collects packets enqueued by views and the dig subsystem
// during a tick and flushes them as one bundle per viewer (spec §4.7,
// §5 "background update domain"). A single Dispatcher is shared by every
// view registered with a given Manager.
type Dispatcher struct {
	mu      sync.Mutex
	pending map[uint64]pending

	ph   host.PlayerHost
	sink host.PacketSink
	log  *slog.Logger

	// avgFlushMS is a rolling average of Flush's wall-clock duration,
	// mirroring the TPS sampling dragonfly's tick loop keeps for health
	// reporting.
	avgFlushMS float64
}

// budgetMS is the flush duration above which Flush logs a warning,
// following the one-tick (50ms) budget the background domain runs under.
const budgetMS = 50.0

// New creates a Dispatcher delivering through sink, resolving viewers via
// ph. log may be nil, in which case slog.Default() is used.
func New(ph host.PlayerHost, sink host.PacketSink, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		pending: make(map[uint64]pending),
		ph:      ph,
		sink:    sink,
		log:     log,
	}
}

// dedupeKey hashes (player, pos, kind) into a single uint64, avoiding a
// struct-keyed map of three fields for the hot Enqueue path (spec §4.7).
func dedupeKey(player host.PlayerID, pos coord.BlockPosition, kind string) uint64 {
	h := fnv1a.Init64
	h = fnv1a.AddString64(h, player.String())
	h = fnv1a.AddString64(h, string(pos.World))
	h = fnv1a.AddUint64(h, uint64(uint32(pos.X)))
	h = fnv1a.AddUint64(h, uint64(uint32(pos.Y)))
	h = fnv1a.AddUint64(h, uint64(uint32(pos.Z)))
	h = fnv1a.AddString64(h, kind)
	return h
}

// Enqueue records a pending send for player, overwriting any prior entry
// for the same (player, pos, kind) within this tick — "latest wins" per
// spec §4.7. It satisfies view.Dispatcher.
func (d *Dispatcher) Enqueue(player host.PlayerID, pos coord.BlockPosition, kind string, pk host.Packet) {
	key := dedupeKey(player, pos, kind)
	d.mu.Lock()
	d.pending[key] = pending{player: player, pk: pk}
	d.mu.Unlock()
}

// Flush groups every pending packet by viewer and delivers each viewer's
// bundle concurrently via errgroup, bounded by the number of distinct
// viewers (spec §4.7, §5 "packet flush"). A viewer that has disconnected
// between Enqueue and Flush is silently skipped (spec §5 "Timeouts").
// Flush drains the pending set even on a delivery error.
func (d *Dispatcher) Flush(ctx context.Context) error {
	start := d.now()

	d.mu.Lock()
	byPlayer := make(map[host.PlayerID][]host.Packet)
	for _, p := range d.pending {
		byPlayer[p.player] = append(byPlayer[p.player], p.pk)
	}
	d.pending = make(map[uint64]pending)
	d.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for player, packets := range byPlayer {
		player, packets := player, packets
		g.Go(func() error {
			if !d.ph.Connected(player) {
				return nil
			}
			conn, ok := d.ph.Connection(player)
			if !ok {
				return nil
			}
			d.sink.SendBundle(conn, packets)
			return nil
		})
	}
	err := g.Wait()

	d.recordFlush(d.now().Sub(start))
	return err
}

// now returns the wall-clock time used to measure Flush duration; it
// always uses time.Now.
func (d *Dispatcher) now() time.Time { return time.Now() }

func (d *Dispatcher) recordFlush(elapsed time.Duration) {
	ms := float64(elapsed.Microseconds()) / 1000.0
	d.mu.Lock()
	if d.avgFlushMS == 0 {
		d.avgFlushMS = ms
	} else {
		d.avgFlushMS = d.avgFlushMS*0.9 + ms*0.1
	}
	avg := d.avgFlushMS
	d.mu.Unlock()

	if avg > budgetMS {
		d.log.Warn("dispatcher flush behind schedule", "avg_ms", avg, "budget_ms", budgetMS)
	}
}

// Diagnostics reports the dispatcher's current load, for host-side status
// commands (SPEC_FULL.md §5).
type Diagnostics struct {
	PendingPackets int
	AvgFlushMS     float64
}

func (d *Dispatcher) Diagnostics() Diagnostics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Diagnostics{PendingPackets: len(d.pending), AvgFlushMS: d.avgFlushMS}
}
