package favorites

import "errors"

var (
	// ErrDuplicate indicates an entry with the same city and region exists.
	ErrDuplicate = errors.New("favorite already exists")
	// ErrNotFound indicates no entry matches the city and region.
	ErrNotFound = errors.New("favorite not found")
)

// User-facing messages.
const (
	MessageAdded     = "Added to favorites!"
	MessageRemoved   = "Removed from favorites."
	MessageDuplicate = "This location is already in favorites."
	MessageNotFound  = "Favorite location not found."
)
