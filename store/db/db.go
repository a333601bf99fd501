package db

import (
	"github.com/pkg/errors"

	"github.com/gaslightgpt/gaslightgpt/internal/profile"
	"github.com/gaslightgpt/gaslightgpt/store"
	"github.com/gaslightgpt/gaslightgpt/store/db/postgres"
	"github.com/gaslightgpt/gaslightgpt/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
