package view

import "errors"

// Errors returned by BlockView operations (spec §7).
var (
	// ErrOutOfBounds is returned when a position lies outside the view's
	// bounding box.
	ErrOutOfBounds = errors.New("view: position outside view bounds")
	// ErrCancelled is returned when an event subscriber vetoed the
	// operation; the client-side overlay is rolled back via RefreshBlock
	// before this error is returned (spec §7 "user-visible failure
	// behavior").
	ErrCancelled = errors.New("view: operation cancelled by an event handler")
	// ErrBreakDisabled is returned when the view's BreakMode rejects a
	// break or dig-start at the given cell.
	ErrBreakDisabled = errors.New("view: break mode disallows this cell")
	// ErrPlaceDisabled is returned when the view's PlaceMode is Disabled.
	ErrPlaceDisabled = errors.New("view: place mode is disabled for this view")
)
