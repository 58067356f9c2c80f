package postgres

import (
	"context"

	"github.com/prepview/prepview/internal/models"
	"gorm.io/gorm"
)

type TranscriptRepo interface {
	InsertBatch(ctx context.Context, rows []models.TranscriptRecord) error
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.TranscriptRecord, error)
}

type transcriptRepo struct {
	db *gorm.DB
}

func NewTranscriptRepo(db *gorm.DB) TranscriptRepo {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) InsertBatch(ctx context.Context, rows []models.TranscriptRecord) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

func (r *transcriptRepo) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.TranscriptRecord, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []models.TranscriptRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("timestamp ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
