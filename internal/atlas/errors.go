package atlas

import "errors"

var (
	// ErrInvalidName indicates a name that is empty or contains forbidden characters.
	ErrInvalidName = errors.New("invalid name")
	// ErrDuplicateName indicates a name already used by a sibling.
	ErrDuplicateName = errors.New("name already in use")
	// ErrNotFound indicates a lookup by id or name that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrNotPlaceable indicates an attempt to place a tile where an equal tile already sits.
	ErrNotPlaceable = errors.New("tile is not placeable")
	// ErrUnknownTileType indicates tile attributes with a missing or unknown "type".
	ErrUnknownTileType = errors.New("unknown tile type")
	// ErrCorruptDocument indicates persisted state that does not match the document schema.
	ErrCorruptDocument = errors.New("corrupt document")
)
