// Package db selects the concrete store.Driver implementation for a profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/taskchat/taskchat/server/profile"
	"github.com/taskchat/taskchat/store"
	"github.com/taskchat/taskchat/store/db/mysql"
	"github.com/taskchat/taskchat/store/db/postgres"
	"github.com/taskchat/taskchat/store/db/sqlite"
)

// NewDriver opens the database driver named by the profile.
func NewDriver(p *profile.Profile) (store.Driver, error) {
	switch p.Driver {
	case "sqlite":
		return sqlite.Open(p.DSN)
	case "postgres":
		return postgres.Open(p.DSN)
	case "mysql":
		return mysql.Open(p.DSN)
	default:
		return nil, errors.Errorf("unknown database driver %q", p.Driver)
	}
}
