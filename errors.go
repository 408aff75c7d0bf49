package blockview

import (
	"errors"
	"fmt"

	"github.com/cammyparakeet/blockview/blockdata"
	"github.com/cammyparakeet/blockview/dig"
	"github.com/cammyparakeet/blockview/manager"
	"github.com/cammyparakeet/blockview/view"
)

// Kind classifies a ViewError, mirroring dragonfly's typed world/provider
// errors (spec §7).
type Kind int

const (
	KindOutOfBounds Kind = iota
	KindNoSuchBlock
	KindCapacityExhausted
	KindIsPlaceholder
	KindDuplicateView
	KindUnauthorized
	KindCancelled
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindOutOfBounds:
		return "out_of_bounds"
	case KindNoSuchBlock:
		return "no_such_block"
	case KindCapacityExhausted:
		return "capacity_exhausted"
	case KindIsPlaceholder:
		return "is_placeholder"
	case KindDuplicateView:
		return "duplicate_view"
	case KindUnauthorized:
		return "unauthorized"
	case KindCancelled:
		return "cancelled"
	default:
		return "other"
	}
}

// ViewError wraps an error originating from the view/dig/manager packages
// with a host-facing Kind, the way dragonfly's world package surfaces
// typed errors from chunk/provider operations (spec §7). The root package
// is the only layer allowed to depend on view, dig, and manager at once,
// so classification lives here rather than in any one of them.
type ViewError struct {
	Kind Kind
	Err  error
}

func (e *ViewError) Error() string {
	return fmt.Sprintf("blockview: %s: %v", e.Kind, e.Err)
}

func (e *ViewError) Unwrap() error { return e.Err }

// classify wraps err (if non-nil) in a ViewError with the appropriate
// Kind, recognising every sentinel defined by view, dig, and manager.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, view.ErrOutOfBounds):
		return &ViewError{Kind: KindOutOfBounds, Err: err}
	case errors.Is(err, view.ErrCancelled):
		return &ViewError{Kind: KindCancelled, Err: err}
	case errors.Is(err, view.ErrBreakDisabled), errors.Is(err, view.ErrPlaceDisabled):
		return &ViewError{Kind: KindNoSuchBlock, Err: err}
	case errors.Is(err, dig.ErrNoSuchBlock):
		return &ViewError{Kind: KindNoSuchBlock, Err: err}
	case errors.Is(err, dig.ErrUnauthorized):
		return &ViewError{Kind: KindUnauthorized, Err: err}
	case errors.Is(err, manager.ErrIsPlaceholder):
		return &ViewError{Kind: KindIsPlaceholder, Err: err}
	case errors.Is(err, manager.ErrDuplicateView):
		return &ViewError{Kind: KindDuplicateView, Err: err}
	case errors.Is(err, blockdata.ErrCapacityExhausted):
		return &ViewError{Kind: KindCapacityExhausted, Err: err}
	default:
		return &ViewError{Kind: KindOther, Err: err}
	}
}
