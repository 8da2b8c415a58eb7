package engine

import (
	"errors"
	"fmt"

	"github.com/soyeahso/shopdesk/internal/domain"
)

// ErrInvariant marks a routing bug: the engine reached a state that no
// sequence of user events should be able to produce.
var ErrInvariant = errors.New("engine invariant violated")

// InvariantError carries the user and state at which an invariant broke.
type InvariantError struct {
	UserID string
	State  domain.State
	Err    error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v: user %s at %s: %v", ErrInvariant, e.UserID, e.State, e.Err)
}

// Unwrap exposes both ErrInvariant and the underlying cause to errors.Is.
func (e *InvariantError) Unwrap() []error {
	return []error{ErrInvariant, e.Err}
}
