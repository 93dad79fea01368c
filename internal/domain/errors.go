package domain

import "errors"

// Domain errors
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrNameTaken         = errors.New("player name already taken")
	ErrPlayerDead        = errors.New("player is dead until the next daily reset")
	ErrNoFightsRemaining = errors.New("no forest fights remaining today")
	ErrTargetIneligible  = errors.New("target is not eligible for a duel")
	ErrSelfTarget        = errors.New("cannot duel yourself")
	ErrInsufficientGold  = errors.New("not enough gold")
	ErrAlreadyMarried    = errors.New("already married")
	ErrConflict          = errors.New("player record was modified concurrently")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInternalError     = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound)
}

// IsValidationError reports whether an error means an action precondition
// failed. Validation failures are reported to the player and never mutate
// state.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrPlayerDead) ||
		errors.Is(err, ErrNoFightsRemaining) ||
		errors.Is(err, ErrTargetIneligible) ||
		errors.Is(err, ErrSelfTarget) ||
		errors.Is(err, ErrInsufficientGold) ||
		errors.Is(err, ErrAlreadyMarried) ||
		errors.Is(err, ErrNameTaken) ||
		errors.Is(err, ErrInvalidRequest)
}

// IsConflictError checks for a concurrent-modification failure at save time.
// The caller is expected to reload state and retry the whole action once.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}
