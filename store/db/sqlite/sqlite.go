package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/taskchat/taskchat/store"
)

// DB is the SQLite implementation of store.Driver.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dsn. Foreign keys are
// enabled so deleting a conversation cascades to its messages.
func Open(dsn string) (store.Driver, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite at %q", dsn)
	}
	// modernc.org/sqlite allows one writer; serialize access through a
	// single connection instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}
	return &DB{db: db}, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			uid         TEXT NOT NULL UNIQUE,
			user_id     TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT,
			status      TEXT NOT NULL DEFAULT 'pending',
			created_ts  BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
			updated_ts  BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_user ON task(user_id)`,
		`CREATE TABLE IF NOT EXISTS conversation (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			uid        TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL,
			title      TEXT,
			created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
			updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_user ON conversation(user_id)`,
		`CREATE TABLE IF NOT EXISTS message (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			uid             TEXT NOT NULL UNIQUE,
			conversation_id INTEGER NOT NULL REFERENCES conversation(id) ON DELETE CASCADE,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			tool_calls      TEXT,
			created_ts      BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
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
