package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create sessions",
		SQL: `
			CREATE TABLE sessions (
				user_id     TEXT PRIMARY KEY,
				state       TEXT NOT NULL DEFAULT 'IDLE',
				fields      TEXT NOT NULL DEFAULT '{}',
				updated_at  TEXT NOT NULL
			);

			CREATE INDEX idx_sessions_updated ON sessions (updated_at);
		`,
	},
	{
		Version: 2,
		Name:    "create intakes",
		SQL: `
			CREATE TABLE intakes (
				id          TEXT PRIMARY KEY,
				user_id     TEXT NOT NULL,
				channel_id  TEXT NOT NULL DEFAULT '',
				flow        TEXT NOT NULL,
				fields      TEXT NOT NULL DEFAULT '{}',
				has_image   INTEGER NOT NULL DEFAULT 0,
				status      TEXT NOT NULL DEFAULT 'pending',
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_intakes_user ON intakes (user_id, created_at);
			CREATE INDEX idx_intakes_flow ON intakes (flow, created_at);
		`,
	},
}
