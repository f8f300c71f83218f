package task

import "errors"

// Sentinel errors for the task engine. Handlers and the bulk coordinator map
// these to wire-level kinds via Kind.
var (
	ErrNotFound        = errors.New("task not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidCategory = errors.New("invalid category")
	ErrUnauthorized    = errors.New("not authorized")
	ErrValidation      = errors.New("invalid input")
)

// Kind returns the canonical kind name for an engine error. Anything that is
// not one of the engine's own sentinels is a persistence failure.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFoundError"
	case errors.Is(err, ErrInvalidStatus):
		return "InvalidStatusError"
	case errors.Is(err, ErrInvalidCategory):
		return "InvalidCategoryError"
	case errors.Is(err, ErrUnauthorized):
		return "AuthorizationError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	default:
		return "StoreError"
	}
}
