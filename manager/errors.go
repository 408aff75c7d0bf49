package manager

import "errors"

// Errors returned by Manager operations (spec §7).
var (
	// ErrIsPlaceholder is returned by Register and AddPlayerToView/
	// RemovePlayerFromView when the view's Type is Placeholder.
	ErrIsPlaceholder = errors.New("manager: placeholder views cannot be registered or granted audiences")
	// ErrDuplicateView is returned by Register when a view with the same
	// id is already registered.
	ErrDuplicateView = errors.New("manager: a view with this id is already registered")
)
