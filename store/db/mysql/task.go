package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskchat/taskchat/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	stmt := "INSERT INTO `task` (`uid`, `user_id`, `title`, `description`, `status`) VALUES (?, ?, ?, ?, ?)"
	if _, err := d.db.ExecContext(ctx, stmt,
		create.UID, create.UserID, create.Title, nullString(create.Description), create.Status,
	); err != nil {
		return nil, err
	}
	// Fetch it back to populate id and timestamps.
	return d.GetTask(ctx, &store.FindTask{UID: &create.UID, UserID: &create.UserID})
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.UID; v != nil {
		where, args = append(where, "`uid` = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "`user_id` = ?"), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "`status` = ?"), append(args, string(*v))
	}
	query := fmt.Sprintf(
		`SELECT id, uid, user_id, title, description, status, created_ts, updated_ts
		 FROM task WHERE %s ORDER BY created_ts DESC, id DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Task
	for rows.Next() {
		t := &store.Task{}
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.UID, &t.UserID, &t.Title, &description, &t.Status, &t.CreatedTs, &t.UpdatedTs); err != nil {
			return nil, err
		}
		if description.Valid {
			t.Description = &description.String
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (d *DB) GetTask(ctx context.Context, find *store.FindTask) (*store.Task, error) {
	list, err := d.ListTasks(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	set, args := []string{}, []any{}
	if v := update.Title; v != nil {
		set, args = append(set, "`title` = ?"), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "`description` = ?"), append(args, nullString(emptyToNil(*v)))
	}
	if v := update.Status; v != nil {
		set, args = append(set, "`status` = ?"), append(args, string(*v))
	}
	if len(set) == 0 {
		return d.GetTask(ctx, &store.FindTask{UID: &update.UID, UserID: &update.UserID})
	}
	set = append(set, "`updated_ts` = UNIX_TIMESTAMP()")
	args = append(args, update.UID, update.UserID)
	stmt := fmt.Sprintf("UPDATE `task` SET %s WHERE `uid` = ? AND `user_id` = ?", strings.Join(set, ", "))

	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, err
	}
	// RowsAffected would be 0 for a no-op update too; re-fetching settles
	// whether the row exists at all.
	return d.GetTask(ctx, &store.FindTask{UID: &update.UID, UserID: &update.UserID})
}

func (d *DB) DeleteTask(ctx context.Context, delete *store.DeleteTask) (bool, error) {
	result, err := d.db.ExecContext(ctx,
		"DELETE FROM `task` WHERE `uid` = ? AND `user_id` = ?", delete.UID, delete.UserID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
