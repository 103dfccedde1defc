package engine

import "errors"

var (
	ErrInvalidDirection       = errors.New("invalid direction")
	ErrInvalidLevel           = errors.New("invalid level")
	ErrNoLevelLoaded          = errors.New("no level loaded")
	ErrUnknownTileType        = errors.New("unknown tile type")
	ErrInsufficientDirections = errors.New("object needs more active directions")
	ErrOutOfBounds            = errors.New("position out of bounds")
	ErrNothingToRemove        = errors.New("no tile at position")
	ErrMovementFrozen         = errors.New("movement is frozen")
)
