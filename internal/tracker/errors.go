package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrMediaNotFound: the media record itself does not exist. 404-class.
	ErrMediaNotFound = errors.New("media not found")

	// ErrAlreadyInList / ErrNotInList: user-caused precondition violations.
	ErrAlreadyInList = errors.New("already in list")
	ErrNotInList     = errors.New("not in list")

	// ErrUnknownLength: the media record has no total-unit value, so a
	// completion or redo cannot be priced. Indicates an upstream sync gap;
	// logged for data-quality follow-up at the call site.
	ErrUnknownLength = errors.New("cannot complete or redo an item with unknown length")

	ErrInvalidStatus  = errors.New("invalid status for this media type")
	ErrInvalidRating  = errors.New("rating must be between 0 and 10")
	ErrNegativeValue  = errors.New("value must not be negative")
	ErrUnknownCommand = errors.New("unknown update type for this media type")
)

// IsDomainError reports whether err should surface as a user-facing message
// rather than an internal failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrAlreadyInList) ||
		errors.Is(err, ErrNotInList) ||
		errors.Is(err, ErrUnknownLength) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrUnknownCommand)
}

// handlerNotFound is raised as a panic: an update type passing service
// validation without a registered handler is a wiring bug, not user input.
func handlerNotFound(t interface{}) string {
	return fmt.Sprintf("tracker: no handler registered for update type %v", t)
}
