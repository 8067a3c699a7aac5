package repository

import (
	"context"
	"database/sql"
	"time"
)

// storageKey is the fixed key for the single stored credential.
const storageKey = "transcription_api_key"

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Get(ctx context.Context) (string, error) {
	var encrypted string
	err := r.db.QueryRowContext(ctx, `
		SELECT encrypted_value
		FROM credentials
		WHERE storage_key = $1
	`, storageKey).Scan(&encrypted)
	return encrypted, err
}

func (r *CredentialRepository) Set(ctx context.Context, encrypted string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET encrypted_value = $1, updated_at = $2
		WHERE storage_key = $3
	`, encrypted, now, storageKey)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO credentials (storage_key, encrypted_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, storageKey, encrypted, now, now)
	return err
}

func (r *CredentialRepository) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM credentials
		WHERE storage_key = $1
	`, storageKey)
	return err
}
