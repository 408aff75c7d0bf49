// Package blockview is the root facade of the client-side block view
// engine: it wires together the BlockDataRegistry, the View Manager, the
// Event Surface, and the Packet Dispatcher, and drives their background
// cadence via a host-supplied Scheduler (spec §5, §6, §9).
package blockview

import (
	"context"
	"log/slog"
	"time"

	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/coord"
	"github.com/cammyparakeet/blockview/dispatch"
	"github.com/cammyparakeet/blockview/event"
	"github.com/cammyparakeet/blockview/host"
	"github.com/cammyparakeet/blockview/manager"
	"github.com/cammyparakeet/blockview/view"
)

// Engine is the single entry point an embedding game server holds: it
// owns the process-wide view registry, the shared event bus, and the
// packet dispatcher, and exposes the view-lifecycle operations of spec
// §4.2–§4.3 without callers needing to touch the view/manager/dig
// packages directly.
type Engine struct {
	cfg Config

	registry *blockdata.Registry
	manager  *manager.Manager
	bus      *event.Bus
	disp     *dispatch.Dispatcher

	worldHost  host.WorldHost
	playerHost host.PlayerHost
	sink       host.PacketSink
	scheduler  host.Scheduler

	hardness  blockdata.HardnessTable
	modifiers *blockdata.ModifierChain

	tasks []host.TaskHandle
	log   *slog.Logger
}

// New constructs an Engine from its collaborators (spec §6) and an
// optional Config (the zero value applies DefaultConfig). hardness and
// modifiers are threaded into every created view's StartDig computation
// (spec §4.5); either may be nil to fall back to zero hardness / no speed
// adjustment.
func New(cfg Config, wh host.WorldHost, ph host.PlayerHost, sink host.PacketSink, scheduler host.Scheduler, hardness blockdata.HardnessTable, modifiers *blockdata.ModifierChain) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:        cfg,
		registry:   blockdata.NewRegistryWithCapacity(cfg.RegistryCapacity),
		manager:    manager.New(),
		bus:        event.NewBus(),
		worldHost:  wh,
		playerHost: ph,
		sink:       sink,
		scheduler:  scheduler,
		hardness:   hardness,
		modifiers:  modifiers,
		log:        cfg.Log.With("subsystem", "blockview.engine"),
	}
	e.disp = dispatch.New(ph, sink, cfg.Log.With("subsystem", "blockview.dispatch"))
	return e
}

// Start schedules the background domain's three periodic tasks (spec §5):
// a one-tick-granularity task driving dig-session advancement, a task
// flushing the Packet Dispatcher at cfg.FlushPeriod (independent of the dig
// cadence), and a coarser task driving DigManager.Sync. Start is idempotent
// only in the sense that calling it twice schedules the tasks twice;
// callers should call it exactly once.
func (e *Engine) Start() {
	tick := e.scheduler.ScheduleRepeating(func() {
		e.manager.TickAll()
	}, 1, 1, false)

	flushPeriodTicks := periodInTicks(e.cfg.FlushPeriod, e.cfg.DigTickPeriod)
	flush := e.scheduler.ScheduleRepeating(func() {
		if err := e.disp.Flush(context.Background()); err != nil {
			e.log.Warn("dispatcher flush error", "err", err)
		}
	}, flushPeriodTicks, flushPeriodTicks, false)

	syncPeriodTicks := periodInTicks(e.cfg.DigSyncPeriod, e.cfg.DigTickPeriod)
	sync := e.scheduler.ScheduleRepeating(func() {
		e.manager.SyncAll()
	}, syncPeriodTicks, syncPeriodTicks, true)

	e.tasks = append(e.tasks, tick, flush, sync)
}

// periodInTicks converts a duration into a tick count relative to
// tickPeriod, clamped to at least one tick.
func periodInTicks(period, tickPeriod time.Duration) int {
	ticks := int(period / tickPeriod)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// Stop cancels every scheduled background task. It does not destroy
// registered views; callers that want a clean shutdown should Unregister
// and Destroy views themselves first.
func (e *Engine) Stop() {
	for _, t := range e.tasks {
		t.Cancel()
	}
	e.tasks = nil
}

// Bus exposes the shared event bus so hosts can register Handlers (spec
// §4.6).
func (e *Engine) Bus() *event.Bus { return e.bus }

// Manager exposes the underlying View Manager for callers that need the
// lower-level query surface (ViewsInChunk, Diagnostics, etc).
func (e *Engine) Manager() *manager.Manager { return e.manager }

// CreateView constructs and registers a new BlockView sharing this
// engine's registry, collaborators, event bus, and dispatcher (spec
// §4.2–§4.3). Placeholder views are rejected with a ViewError.
func (e *Engine) CreateView(world coord.WorldID, origin coord.BlockPosition, dims coord.Dimensions, typ view.Type, opts view.Options, owner *host.PlayerID) (*view.BlockView, error) {
	v := view.New(world, origin, dims, typ, opts, e.registry, e.worldHost, e.playerHost, e.sink, e.disp, e.bus, owner, e.hardness, e.modifiers)
	if err := e.manager.Register(v); err != nil {
		return nil, classify(err)
	}
	return v, nil
}

// DestroyView unregisters v and cascades Destroy over its dig sessions
// (spec §4.3, §9 "Closing a view"). It sends no reset to v's audiences.
func (e *Engine) DestroyView(v *view.BlockView) {
	e.manager.Unregister(v)
	v.Destroy()
}

// OnPlayerDisconnect clears the player's visibility across every view and
// stops their dig sessions (spec §5 "Player disconnect triggers
// stop(player)").
func (e *Engine) OnPlayerDisconnect(player host.PlayerID) {
	e.manager.OnPlayerDisconnect(player)
}

// Diagnostics aggregates registry, manager, and dispatcher load for
// host-side status commands (SPEC_FULL.md §5).
type Diagnostics struct {
	RegistryEntries int
	Manager         manager.Diagnostics
	Dispatcher      dispatch.Diagnostics
}

func (e *Engine) Diagnostics() Diagnostics {
	return Diagnostics{
		RegistryEntries: e.registry.Len(),
		Manager:         e.manager.Diagnostics(),
		Dispatcher:      e.disp.Diagnostics(),
	}
}
