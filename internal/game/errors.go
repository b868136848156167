package game

import "errors"

// Sentinel errors returned by Match operations. Callers match with errors.Is
// and translate to wire error codes at the transport boundary.
var (
	// ErrMatchFull is returned by AddPlayer when the room is at capacity.
	ErrMatchFull = errors.New("match is full")

	// ErrDuplicatePlayer is returned by AddPlayer when the id is already taken.
	ErrDuplicatePlayer = errors.New("player id already present")

	// ErrPlayerNotFound is returned when the named player is not in the match.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrPlayerDead is returned for actions that require a live player.
	ErrPlayerDead = errors.New("player is not alive")

	// ErrBadAction is returned for structurally invalid actions (non-finite
	// vectors, a shot with neither target nor direction, unknown kind).
	ErrBadAction = errors.New("invalid action")

	// ErrTooFewPlayers is returned by StartMatch below the two-player minimum.
	ErrTooFewPlayers = errors.New("not enough players to start")

	// ErrInvalidName is returned for display names that fail validation.
	ErrInvalidName = errors.New("invalid display name")
)
