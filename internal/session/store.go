// Package session keeps the per-user dialog state between turns.
package session

import (
	"context"
	"errors"

	"github.com/soyeahso/shopdesk/internal/domain"
)

// ErrUnavailable wraps backend failures so callers can tell a broken store
// from a missing session. Get never returns an error for a missing session.
var ErrUnavailable = errors.New("session store unavailable")

// Store persists sessions keyed by user ID. Get returns a fresh Idle session
// for users it has never seen. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, userID string) (domain.Session, error)
	Set(ctx context.Context, s domain.Session) error
	Delete(ctx context.Context, userID string) error
}

// ClearFields keeps the user's state but forgets every collected field.
func ClearFields(ctx context.Context, st Store, userID string) error {
	s, err := st.Get(ctx, userID)
	if err != nil {
		return err
	}
	s.Fields = map[string]string{}
	return st.Set(ctx, s)
}
