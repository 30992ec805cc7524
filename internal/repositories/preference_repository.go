package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// PreferenceRepository хранит значение настройки как есть (строкой);
// разбор и проверка на стороне сервиса.
type PreferenceRepository interface {
	Get(ctx context.Context, userID int, key string) (string, bool, error)
	Put(ctx context.Context, userID int, key, value string) error
}

type preferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Get(ctx context.Context, userID int, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM user_preferences WHERE user_id=$1 AND key=$2`, userID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference: %w", err)
	}
	return value, true, nil
}

func (r *preferenceRepository) Put(ctx context.Context, userID int, key, value string) error {
	const q = `
		INSERT INTO user_preferences (user_id, key, value, updated_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (user_id, key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	if _, err := r.db.ExecContext(ctx, q, userID, key, value); err != nil {
		return fmt.Errorf("put preference: %w", err)
	}
	return nil
}
