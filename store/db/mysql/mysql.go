package mysql

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/taskchat/taskchat/store"
)

// DB is the MySQL implementation of store.Driver.
type DB struct {
	db *sql.DB
}

// Open connects to the MySQL database described by dsn.
func Open(dsn string) (store.Driver, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	return &DB{db: db}, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task (
			id          INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			uid         VARCHAR(256) NOT NULL UNIQUE,
			user_id     VARCHAR(256) NOT NULL,
			title       TEXT NOT NULL,
			description TEXT,
			status      VARCHAR(32) NOT NULL DEFAULT 'pending',
			created_ts  BIGINT NOT NULL DEFAULT (UNIX_TIMESTAMP()),
			updated_ts  BIGINT NOT NULL DEFAULT (UNIX_TIMESTAMP()),
			INDEX idx_task_user (user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation (
			id         INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			uid        VARCHAR(256) NOT NULL UNIQUE,
			user_id    VARCHAR(256) NOT NULL,
			title      TEXT,
			created_ts BIGINT NOT NULL DEFAULT (UNIX_TIMESTAMP()),
			updated_ts BIGINT NOT NULL DEFAULT (UNIX_TIMESTAMP()),
			INDEX idx_conversation_user (user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS message (
			id              INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			uid             VARCHAR(256) NOT NULL UNIQUE,
			conversation_id INT NOT NULL,
			role            VARCHAR(32) NOT NULL,
			content         TEXT NOT NULL,
			tool_calls      TEXT,
			created_ts      BIGINT NOT NULL DEFAULT (UNIX_TIMESTAMP()),
			INDEX idx_message_conversation (conversation_id),
			CONSTRAINT fk_message_conversation FOREIGN KEY (conversation_id)
				REFERENCES conversation(id) ON DELETE CASCADE
		)`,
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
