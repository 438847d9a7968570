package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskchat/taskchat/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	stmt := `INSERT INTO conversation (uid, user_id, title)
	         VALUES ($1, $2, $3)
	         RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.UserID, nullString(create.Title),
	).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, uid, user_id, title, created_ts, updated_ts
		 FROM conversation WHERE %s ORDER BY updated_ts DESC, id DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Conversation
	for rows.Next() {
		c := &store.Conversation{}
		var title sql.NullString
		if err := rows.Scan(&c.ID, &c.UID, &c.UserID, &title, &c.CreatedTs, &c.UpdatedTs); err != nil {
			return nil, err
		}
		if title.Valid {
			c.Title = &title.String
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (d *DB) GetConversation(ctx context.Context, find *store.FindConversation) (*store.Conversation, error) {
	list, err := d.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListConversationSummaries(ctx context.Context, userID string) ([]*store.ConversationSummary, error) {
	query := `SELECT c.id, c.uid, c.user_id, c.title, c.created_ts, c.updated_ts, COUNT(m.id)
	          FROM conversation c
	          LEFT JOIN message m ON m.conversation_id = c.id
	          WHERE c.user_id = $1
	          GROUP BY c.id
	          ORDER BY c.updated_ts DESC, c.id DESC`
	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.ConversationSummary
	for rows.Next() {
		c := &store.Conversation{}
		var title sql.NullString
		s := &store.ConversationSummary{Conversation: c}
		if err := rows.Scan(&c.ID, &c.UID, &c.UserID, &title, &c.CreatedTs, &c.UpdatedTs, &s.MessageCount); err != nil {
			return nil, err
		}
		if title.Valid {
			c.Title = &title.String
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (d *DB) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	set, args := []string{}, []any{}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return d.GetConversation(ctx, &store.FindConversation{UID: &update.UID})
	}
	set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())")
	args = append(args, update.UID)
	stmt := fmt.Sprintf(
		`UPDATE conversation SET %s WHERE uid = %s
		 RETURNING id, uid, user_id, title, created_ts, updated_ts`,
		strings.Join(set, ", "), placeholder(len(args)),
	)
	c := &store.Conversation{}
	var title sql.NullString
	err := d.db.QueryRowContext(ctx, stmt, args...).
		Scan(&c.ID, &c.UID, &c.UserID, &title, &c.CreatedTs, &c.UpdatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if title.Valid {
		c.Title = &title.String
	}
	return c, nil
}

func (d *DB) DeleteConversation(ctx context.Context, uid string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM conversation WHERE uid = $1`, uid)
	return err
}
