package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
)

type TranscriptionLogRepository struct {
	db *sql.DB
}

func NewTranscriptionLogRepository(db *sql.DB) *TranscriptionLogRepository {
	return &TranscriptionLogRepository{db: db}
}

func (r *TranscriptionLogRepository) Create(ctx context.Context, entry domain.TranscriptionLog) (domain.TranscriptionLog, error) {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transcription_logs (id, user_id, mode, original_text, processed_text, duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.UserID, entry.Mode, entry.OriginalText, entry.ProcessedText, entry.DurationSeconds, entry.CreatedAt)
	return entry, err
}

func (r *TranscriptionLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.TranscriptionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, mode, original_text, processed_text, duration_seconds, created_at
		FROM transcription_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TranscriptionLog
	for rows.Next() {
		var entry domain.TranscriptionLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Mode, &entry.OriginalText, &entry.ProcessedText, &entry.DurationSeconds, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *TranscriptionLogRepository) GetByID(ctx context.Context, userID, id string) (domain.TranscriptionLog, error) {
	var entry domain.TranscriptionLog
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, mode, original_text, processed_text, duration_seconds, created_at
		FROM transcription_logs
		WHERE user_id = $1 AND id = $2
	`, userID, id).Scan(&entry.ID, &entry.UserID, &entry.Mode, &entry.OriginalText, &entry.ProcessedText, &entry.DurationSeconds, &entry.CreatedAt)
	return entry, err
}
