package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/session"
)

// timeLayout is fixed-width UTC so stored timestamps sort as text.
const timeLayout = "2006-01-02 15:04:05.000000000"

// SQLiteSessionStore is a session.Store that survives restarts.
type SQLiteSessionStore struct {
	db  *DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteSessionStore creates a session store using the given database.
// A ttl of zero keeps sessions forever.
func NewSQLiteSessionStore(db *DB, ttl time.Duration) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db, ttl: ttl, now: time.Now}
}

// Get loads the user's session. Missing or expired rows yield a fresh Idle session.
func (s *SQLiteSessionStore) Get(ctx context.Context, userID string) (domain.Session, error) {
	var state, fields, updatedAt string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT state, fields, updated_at FROM sessions WHERE user_id = ?`, userID,
	).Scan(&state, &fields, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSession(userID), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: loading session %s: %v", session.ErrUnavailable, userID, err)
	}

	sess := domain.NewSession(userID)
	sess.State = domain.ParseState(state)
	if sess.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return domain.Session{}, fmt.Errorf("decoding updated_at for %s: %w", userID, err)
	}
	if s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl {
		s.db.log.Debug().Str("user", userID).Str("state", state).Msg("session expired")
		return domain.NewSession(userID), nil
	}
	if err := json.Unmarshal([]byte(fields), &sess.Fields); err != nil {
		return domain.Session{}, fmt.Errorf("decoding fields for %s: %w", userID, err)
	}
	if sess.Fields == nil {
		sess.Fields = map[string]string{}
	}
	return sess, nil
}

// Set upserts the session and stamps updated_at.
func (s *SQLiteSessionStore) Set(ctx context.Context, sess domain.Session) error {
	fields := sess.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding fields for %s: %w", sess.UserID, err)
	}

	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (user_id, state, fields, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   state = excluded.state,
		   fields = excluded.fields,
		   updated_at = excluded.updated_at`,
		sess.UserID, sess.State.String(), string(data), s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("%w: saving session %s: %v", session.ErrUnavailable, sess.UserID, err)
	}
	return nil
}

// Delete removes the user's session row.
func (s *SQLiteSessionStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("%w: deleting session %s: %v", session.ErrUnavailable, userID, err)
	}
	return nil
}

// Sweep deletes sessions idle longer than the TTL.
func (s *SQLiteSessionStore) Sweep(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UTC().Format(timeLayout)
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	return res.RowsAffected()
}

// Active returns sessions that are mid-flow, most recently updated first.
func (s *SQLiteSessionStore) Active(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT user_id, state, updated_at FROM sessions WHERE state != ? ORDER BY updated_at DESC`,
		domain.Idle.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var userID, state, updatedAt string
		if err := rows.Scan(&userID, &state, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess := domain.NewSession(userID)
		sess.State = domain.ParseState(state)
		if sess.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("decoding updated_at for %s: %w", userID, err)
		}
		if s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl {
			continue
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

var _ session.Store = (*SQLiteSessionStore)(nil)
