package services

import (
	"errors"
	"net/http"
)

// Error taxonomy (sentinels). Wrap with fmt.Errorf("%w: ...") and match with
// errors.Is at the HTTP edge.
var (
	// ErrValidation marks bad or missing input and illegal state transitions
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an absent session, question, profile or report
	ErrNotFound = errors.New("not found")
	// ErrGeneration marks a content generation call that exhausted its retries
	ErrGeneration = errors.New("generation error")
	// ErrInternal marks persistence and other infrastructure failures
	ErrInternal = errors.New("internal error")
)

// HTTPStatus maps a service error to its response status code
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
