package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/taskchat/taskchat/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.CreateMessage) (*store.Message, error) {
	var toolCalls any
	if len(create.ToolCalls) > 0 {
		raw, err := json.Marshal(create.ToolCalls)
		if err != nil {
			return nil, err
		}
		toolCalls = string(raw)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt := "INSERT INTO `message` (`uid`, `conversation_id`, `role`, `content`, `tool_calls`) VALUES (?, ?, ?, ?, ?)"
	result, err := tx.ExecContext(ctx, stmt,
		create.UID, create.ConversationID, create.Role, create.Content, toolCalls)
	if err != nil {
		return nil, err
	}
	rawID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE `conversation` SET `updated_ts` = UNIX_TIMESTAMP() WHERE `id` = ?",
		create.ConversationID,
	); err != nil {
		return nil, err
	}

	m := &store.Message{
		ID:             int32(rawID),
		UID:            create.UID,
		ConversationID: create.ConversationID,
		Role:           create.Role,
		Content:        create.Content,
		ToolCalls:      create.ToolCalls,
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT `created_ts` FROM `message` WHERE `id` = ?", m.ID,
	).Scan(&m.CreatedTs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	query := `SELECT id, uid, conversation_id, role, content, tool_calls, created_ts
	          FROM message WHERE conversation_id = ? ORDER BY id ASC`
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
