package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

type settingsRepository struct {
	s *Store
}

func (r *settingsRepository) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer r.s.observe("settings.get", time.Now(), &err)

	var value string
	err = r.s.q.QueryRowxContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.NewStorage("get setting", err)
	}
	return value, true, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) (err error) {
	defer r.s.observe("settings.set", time.Now(), &err)

	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err = r.s.exec(ctx, "set setting", query, key, value)
	return err
}

func (r *settingsRepository) Delete(ctx context.Context, key string) (err error) {
	defer r.s.observe("settings.delete", time.Now(), &err)

	_, err = r.s.exec(ctx, "delete setting", `DELETE FROM settings WHERE key = ?`, key)
	return err
}
