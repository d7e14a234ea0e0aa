// Package db selects the store driver for the configured backend.
package db

import (
	"github.com/pkg/errors"

	"github.com/hadasco/deskrag/internal/profile"
	"github.com/hadasco/deskrag/store"
	"github.com/hadasco/deskrag/store/db/postgres"
	"github.com/hadasco/deskrag/store/db/sqlite"
)

// NewDriver creates the store driver named by the profile.
func NewDriver(p *profile.Profile) (store.Driver, error) {
	switch p.Driver {
	case "postgres":
		return postgres.NewDB(p)
	case "sqlite":
		return sqlite.NewDB(p)
	default:
		return nil, errors.Errorf("unsupported driver %q", p.Driver)
	}
}
