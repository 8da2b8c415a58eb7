package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/shopdesk/internal/hooks"
)

// Intake is a completed flow as it was summarized to the customer.
type Intake struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	ChannelID string            `json:"channelId,omitempty"`
	Flow      string            `json:"flow"`
	Fields    map[string]string `json:"fields"`
	HasImage  bool              `json:"hasImage"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// IntakeFilter narrows List. Zero values match everything.
type IntakeFilter struct {
	UserID string
	Flow   string
	Limit  int // 0 defaults to 50
}

// IntakeLog records completed intakes for staff follow-up.
type IntakeLog struct {
	db  *DB
	now func() time.Time
}

// NewIntakeLog creates an intake log using the given database.
func NewIntakeLog(db *DB) *IntakeLog {
	return &IntakeLog{db: db, now: time.Now}
}

// Record inserts an intake, assigning an ID, status, and timestamp when unset.
func (l *IntakeLog) Record(ctx context.Context, in Intake) (Intake, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.Status == "" {
		in.Status = "pending"
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = l.now()
	}
	if in.Fields == nil {
		in.Fields = map[string]string{}
	}

	fields, err := json.Marshal(in.Fields)
	if err != nil {
		return in, fmt.Errorf("encoding intake fields: %w", err)
	}

	_, err = l.db.sql.ExecContext(ctx,
		`INSERT INTO intakes (id, user_id, channel_id, flow, fields, has_image, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.ChannelID, in.Flow, string(fields), in.HasImage, in.Status,
		in.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return in, fmt.Errorf("recording intake: %w", err)
	}
	return in, nil
}

// List returns intakes matching f, newest first.
func (l *IntakeLog) List(ctx context.Context, f IntakeFilter) ([]Intake, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	var where []string
	var args []any
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Flow != "" {
		where = append(where, "flow = ?")
		args = append(args, strings.ToUpper(f.Flow))
	}

	q := `SELECT id, user_id, channel_id, flow, fields, has_image, status, created_at FROM intakes`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, f.Limit)

	rows, err := l.db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing intakes: %w", err)
	}
	defer rows.Close()

	var out []Intake
	for rows.Next() {
		var in Intake
		var fields, createdAt string
		if err := rows.Scan(&in.ID, &in.UserID, &in.ChannelID, &in.Flow, &fields, &in.HasImage, &in.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning intake: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &in.Fields); err != nil {
			return nil, fmt.Errorf("decoding intake %s: %w", in.ID, err)
		}
		if in.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("decoding created_at for intake %s: %w", in.ID, err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Count returns the number of recorded intakes.
func (l *IntakeLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM intakes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting intakes: %w", err)
	}
	return n, nil
}

// Subscribe records every completed flow announced on m.
func (l *IntakeLog) Subscribe(m *hooks.Manager) {
	m.On(hooks.EventFlowCompleted, "intake-log", func(ctx context.Context, p hooks.Payload) error {
		in, err := l.Record(ctx, Intake{
			UserID:    p.Str(hooks.KeyUserID),
			ChannelID: p.Str(hooks.KeyChannelID),
			Flow:      p.Str(hooks.KeyFlow),
			Fields:    p.Fields(),
			HasImage:  p.Bool(hooks.KeyHasImage),
		})
		if err != nil {
			return err
		}
		l.db.log.Info().Str("intake", in.ID).Str("flow", in.Flow).Str("user", in.UserID).Msg("intake recorded")
		return nil
	})
}
