package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/taskchat/taskchat/store"
)

// DB is the PostgreSQL implementation of store.Driver.
type DB struct {
	db *sql.DB
}

// Open connects to the PostgreSQL database described by dsn.
func Open(dsn string) (store.Driver, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return &DB{db: db}, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task (
			id          SERIAL PRIMARY KEY,
			uid         TEXT NOT NULL UNIQUE,
			user_id     TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT,
			status      TEXT NOT NULL DEFAULT 'pending',
			created_ts  BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
			updated_ts  BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_user ON task(user_id)`,
		`CREATE TABLE IF NOT EXISTS conversation (
			id         SERIAL PRIMARY KEY,
			uid        TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL,
			title      TEXT,
			created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
			updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_user ON conversation(user_id)`,
		`CREATE TABLE IF NOT EXISTS message (
			id              SERIAL PRIMARY KEY,
			uid             TEXT NOT NULL UNIQUE,
			conversation_id INTEGER NOT NULL REFERENCES conversation(id) ON DELETE CASCADE,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			tool_calls      TEXT,
			created_ts      BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_conversation ON message(conversation_id)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the PostgreSQL positional placeholder for index n (1-based).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
