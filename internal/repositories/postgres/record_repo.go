package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/utils"
	"gorm.io/gorm"
)

type RecordRepo interface {
	InsertInterview(ctx context.Context, row *models.InterviewSession) error
	UpdateSummary(ctx context.Context, id, summary string) error
	ListInterviews(ctx context.Context, userID string, limit int) ([]models.InterviewSession, error)
	GetInterview(ctx context.Context, userID, id string) (*models.InterviewSession, error)
	DeleteInterview(ctx context.Context, userID, id string) error

	InsertCoding(ctx context.Context, row *models.CodingSession) error
	ListCoding(ctx context.Context, userID string, limit int) ([]models.CodingSession, error)
	CountCoding(ctx context.Context, userID string) (int64, error)
}

type recordRepo struct {
	db *gorm.DB
}

func NewRecordRepo(db *gorm.DB) RecordRepo {
	return &recordRepo{db: db}
}

func (r *recordRepo) InsertInterview(ctx context.Context, row *models.InterviewSession) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *recordRepo) UpdateSummary(ctx context.Context, id, summary string) error {
	res := r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Update("summary", summary)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *recordRepo) ListInterviews(ctx context.Context, userID string, limit int) ([]models.InterviewSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *recordRepo) GetInterview(ctx context.Context, userID, id string) (*models.InterviewSession, error) {
	var row models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *recordRepo) DeleteInterview(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.InterviewSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *recordRepo) InsertCoding(ctx context.Context, row *models.CodingSession) error {
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *recordRepo) ListCoding(ctx context.Context, userID string, limit int) ([]models.CodingSession, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []models.CodingSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *recordRepo) CountCoding(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.CodingSession{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
