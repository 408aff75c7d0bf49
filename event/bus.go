package event

import (
	"sync"
	"sync/atomic"
)

// Handler receives Event Surface notifications in registration order. A
// Handler that wants to veto a BreakEvent or PlaceEvent calls Cancel on
// it; Bus stops propagating to later handlers and to the view-level
// commit once that happens (spec §4.6 "Ordering").
//
// Implementations that don't care about a given kind should embed
// NopHandler.
type Handler interface {
	HandleSet(e *SetEvent)
	HandleBreak(e *BreakEvent)
	HandlePlace(e *PlaceEvent)
	HandleDig(e *DigEvent)
}

// NopHandler implements Handler with no-ops for every method, the same
// embeddable-default pattern dragonfly ships for its own Handler
// interfaces.
type NopHandler struct{}

func (NopHandler) HandleSet(*SetEvent)     {}
func (NopHandler) HandleBreak(*BreakEvent) {}
func (NopHandler) HandlePlace(*PlaceEvent) {}
func (NopHandler) HandleDig(*DigEvent)     {}

type registration struct {
	handler Handler
	id      uint64
}

// handlerWrap lets a host install cross-cutting middleware (metrics,
// panic recovery) around every registered Handler without the core
// depending on it, mirroring inventory.SetHandlerWrap in the teacher.
type handlerWrap func(Handler) Handler

var defaultWrap atomic.Value

func init() {
	defaultWrap.Store(handlerWrap(func(h Handler) Handler { return h }))
}

// SetHandlerWrap installs a function applied to every handler at
// registration time. Passing nil restores the identity wrap.
func SetHandlerWrap(w func(Handler) Handler) {
	if w == nil {
		defaultWrap.Store(handlerWrap(func(h Handler) Handler { return h }))
		return
	}
	defaultWrap.Store(handlerWrap(w))
}

func wrap(h Handler) Handler {
	return defaultWrap.Load().(handlerWrap)(h)
}

// Bus dispatches Event Surface notifications to registered handlers in
// registration order, following dragonfly's eventHub: a mutex-guarded
// registration list snapshotted into an atomic.Value so Dispatch never
// blocks on the registration lock.
type Bus struct {
	mu    sync.Mutex
	regs  []registration
	next  uint64
	chain atomic.Value // []registration
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	b := &Bus{}
	b.chain.Store([]registration{})
	return b
}

// Register adds handler to the end of the chain and returns a function
// that removes it. Calling the returned function more than once is a
// no-op.
func (b *Bus) Register(handler Handler) (unregister func()) {
	if handler == nil {
		return func() {}
	}
	wrapped := wrap(handler)
	b.mu.Lock()
	id := b.next
	b.next++
	b.regs = append(b.regs, registration{handler: wrapped, id: id})
	b.chain.Store(b.snapshot())
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			kept := b.regs[:0]
			for _, r := range b.regs {
				if r.id != id {
					kept = append(kept, r)
				}
			}
			b.regs = kept
			b.chain.Store(b.snapshot())
		})
	}
}

func (b *Bus) snapshot() []registration {
	out := make([]registration, len(b.regs))
	copy(out, b.regs)
	return out
}

func (b *Bus) load() []registration {
	if v := b.chain.Load(); v != nil {
		return v.([]registration)
	}
	return nil
}

// DispatchSet fires a SetEvent to every handler. SetEvent is
// non-cancellable so every handler always runs.
func (b *Bus) DispatchSet(e *SetEvent) {
	for _, r := range b.load() {
		r.handler.HandleSet(e)
	}
}

// DispatchBreak fires a BreakEvent, stopping as soon as a handler cancels
// it (spec §4.6 "a cancellation by any subscriber halts propagation").
func (b *Bus) DispatchBreak(e *BreakEvent) {
	for _, r := range b.load() {
		r.handler.HandleBreak(e)
		if e.Cancelled() {
			return
		}
	}
}

// DispatchPlace fires a PlaceEvent, stopping as soon as a handler cancels
// it.
func (b *Bus) DispatchPlace(e *PlaceEvent) {
	for _, r := range b.load() {
		r.handler.HandlePlace(e)
		if e.Cancelled() {
			return
		}
	}
}

// DispatchDig fires a DigEvent to every handler, clamping e.Stage to
// [-1, 9] after each handler runs so a later handler always observes a
// valid value (spec §4.6).
func (b *Bus) DispatchDig(e *DigEvent) {
	for _, r := range b.load() {
		r.handler.HandleDig(e)
		e.Stage = clampStage(e.Stage)
	}
}
