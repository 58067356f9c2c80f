package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/prepview/prepview/internal/models"
	pgrepo "github.com/prepview/prepview/internal/repositories/postgres"
	"github.com/prepview/prepview/internal/storage"
	"github.com/prepview/prepview/internal/utils"
)

type ResumeService interface {
	Upload(ctx context.Context, userID string, fileName string, fileSize int, mimeType string, objectName string, r storageReader) (*models.ResumeFile, error)
	Latest(ctx context.Context, userID string) (*models.ResumeFile, error)
}

type storageReader interface {
	Read(p []byte) (n int, err error)
}

type resumeService struct {
	repo     pgrepo.ResumeRepository
	uploader storage.Uploader
}

func NewResumeService(repo pgrepo.ResumeRepository, uploader storage.Uploader) ResumeService {
	return &resumeService{repo: repo, uploader: uploader}
}

func (s *resumeService) Upload(ctx context.Context, userID string, fileName string, fileSize int, mimeType string, objectName string, r storageReader) (*models.ResumeFile, error) {
	const op = "ResumeService.Upload"

	if userID == "" || objectName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and object_name are required", nil)
	}
	if s.uploader == nil {
		return nil, utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}

	storedPath, err := s.uploader.Upload(ctx, objectName, mimeType, r)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload file", err)
	}

	row := &models.ResumeFile{
		ID:       uuid.NewString(),
		UserID:   userID,
		FileName: fileName,
		FilePath: storedPath,
		FileSize: fileSize,
		MimeType: mimeType,
		UploadAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist resume metadata", err)
	}

	return row, nil
}

func (s *resumeService) Latest(ctx context.Context, userID string) (*models.ResumeFile, error) {
	const op = "ResumeService.Latest"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	row, err := s.repo.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "no resume on file", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load resume", err)
	}
	return row, nil
}
