package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/taskchat/taskchat/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.CreateMessage) (*store.Message, error) {
	toolCalls, err := marshalToolCalls(create.ToolCalls)
	if err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m := &store.Message{
		UID:            create.UID,
		ConversationID: create.ConversationID,
		Role:           create.Role,
		Content:        create.Content,
		ToolCalls:      create.ToolCalls,
	}
	stmt := `INSERT INTO message (uid, conversation_id, role, content, tool_calls)
	         VALUES ($1, $2, $3, $4, $5)
	         RETURNING id, created_ts`
	if err := tx.QueryRowContext(ctx, stmt,
		create.UID, create.ConversationID, create.Role, create.Content, toolCalls,
	).Scan(&m.ID, &m.CreatedTs); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversation SET updated_ts = EXTRACT(EPOCH FROM NOW()) WHERE id = $1`,
		create.ConversationID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	query := `SELECT id, uid, conversation_id, role, content, tool_calls, created_ts
	          FROM message WHERE conversation_id = $1 ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, find.ConversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Message
	for rows.Next() {
		m := &store.Message{}
		var toolCalls sql.NullString
		if err := rows.Scan(&m.ID, &m.UID, &m.ConversationID, &m.Role, &m.Content, &toolCalls, &m.CreatedTs); err != nil {
			return nil, err
		}
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &m.ToolCalls); err != nil {
				return nil, err
			}
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func marshalToolCalls(records []store.ToolCallRecord) (any, error) {
	if len(records) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
