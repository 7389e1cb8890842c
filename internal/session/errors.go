package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for state-machine misuse. These are quiet notices at
// the surface, not failures: callers translate them into private
// responses rather than aborting the interaction.
var (
	ErrNoUndoAvailable = errors.New("nothing to undo")
	ErrAlreadyRevealed = errors.New("card already revealed")
	ErrSessionExpired  = errors.New("reading has expired")
	ErrUnknownReading  = errors.New("unknown reading")
)

// ValidationError reports a user-correctable bad request, rejected
// before any state mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
