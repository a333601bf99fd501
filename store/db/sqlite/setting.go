package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

func (d *DB) UpsertSetting(ctx context.Context, name, value string) error {
	stmt := `
		INSERT INTO setting (name, value)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value
	`
	if _, err := d.db.ExecContext(ctx, stmt, name, value); err != nil {
		return errors.Wrapf(err, "failed to upsert setting %s", name)
	}
	return nil
}

func (d *DB) GetSetting(ctx context.Context, name string) (string, error) {
	stmt := `SELECT value FROM setting WHERE name = ?`
	var value string
	err := d.db.QueryRowContext(ctx, stmt, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.Wrapf(err, "failed to get setting %s", name)
	}
	return value, nil
}

func (d *DB) DeleteSetting(ctx context.Context, name string) error {
	stmt := `DELETE FROM setting WHERE name = ?`
	if _, err := d.db.ExecContext(ctx, stmt, name); err != nil {
		return errors.Wrapf(err, "failed to delete setting %s", name)
	}
	return nil
}
