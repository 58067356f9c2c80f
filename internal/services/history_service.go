package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/cache"
	"github.com/prepview/prepview/internal/models"
	pgrepo "github.com/prepview/prepview/internal/repositories/postgres"
	"github.com/prepview/prepview/internal/utils"
)

const (
	historyTTL = 5 * time.Minute
	statsTTL   = 5 * time.Minute
)

func historyKey(userID string) string { return "history:" + userID }
func statsKey(userID string) string   { return "stats:" + userID }

type HistoryService interface {
	List(ctx context.Context, userID string, limit int) ([]models.InterviewSession, error)
	Get(ctx context.Context, userID, id string) (*models.InterviewSession, error)
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string) (*models.DashboardStats, error)
	RecordCodingClick(ctx context.Context, userID, platformName, platformURL string) (*models.CodingSession, error)
	ListCoding(ctx context.Context, userID string, limit int) ([]models.CodingSession, error)
	Transcript(ctx context.Context, userID, sessionID string) ([]models.TranscriptRecord, error)
}

type historyService struct {
	records     pgrepo.RecordRepo
	transcripts pgrepo.TranscriptRepo
	cache       cache.Cache
	logger      *logrus.Logger
}

func NewHistoryService(records pgrepo.RecordRepo, transcripts pgrepo.TranscriptRepo, c cache.Cache, logger *logrus.Logger) HistoryService {
	return &historyService{records: records, transcripts: transcripts, cache: c, logger: logger}
}

func (s *historyService) List(ctx context.Context, userID string, limit int) ([]models.InterviewSession, error) {
	const op = "HistoryService.List"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	if s.cache != nil && limit <= 0 {
		var cached []models.InterviewSession
		if hit, err := s.cache.GetJSON(ctx, historyKey(userID), &cached); err == nil && hit {
			return cached, nil
		}
	}

	rows, err := s.records.ListInterviews(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}

	if s.cache != nil && limit <= 0 {
		if err := s.cache.SetJSON(ctx, historyKey(userID), rows, historyTTL); err != nil {
			s.logger.WithError(err).Warn("failed to cache interview history")
		}
	}
	return rows, nil
}

func (s *historyService) Get(ctx context.Context, userID, id string) (*models.InterviewSession, error) {
	const op = "HistoryService.Get"

	if userID == "" || id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and id are required", nil)
	}

	row, err := s.records.GetInterview(ctx, userID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	return row, nil
}

func (s *historyService) Delete(ctx context.Context, userID, id string) error {
	const op = "HistoryService.Delete"

	if userID == "" || id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and id are required", nil)
	}

	if err := s.records.DeleteInterview(ctx, userID, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete interview", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *historyService) Stats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	const op = "HistoryService.Stats"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	if s.cache != nil {
		var cached models.DashboardStats
		if hit, err := s.cache.GetJSON(ctx, statsKey(userID), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	interviews, err := s.records.ListInterviews(ctx, userID, 1000)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load interviews", err)
	}
	coding, err := s.records.ListCoding(ctx, userID, 1000)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load coding sessions", err)
	}

	stats := buildStats(interviews, coding, time.Now().UTC())

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, statsKey(userID), stats, statsTTL); err != nil {
			s.logger.WithError(err).Warn("failed to cache dashboard stats")
		}
	}
	return stats, nil
}

// buildStats aggregates the dashboard buckets. Months cover the last six
// including the current one, oldest first; an empty month still appears.
func buildStats(interviews []models.InterviewSession, coding []models.CodingSession, now time.Time) *models.DashboardStats {
	stats := &models.DashboardStats{
		TotalInterviews:     len(interviews),
		TotalCodingSessions: len(coding),
	}

	typeCounts := map[string]int{}
	for _, iv := range interviews {
		typeCounts[iv.InterviewType]++
	}
	for _, name := range []string{"Technical", "Behavioral", "System Design"} {
		if n := typeCounts[name]; n > 0 {
			stats.TypeDistribution = append(stats.TypeDistribution, models.TypeCount{Name: name, Count: n})
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)
	for i := 0; i < 6; i++ {
		m := monthStart.AddDate(0, i, 0)
		ma := models.MonthActivity{Month: m.Format("Jan")}
		for _, iv := range interviews {
			if sameMonth(iv.CreatedAt, m) {
				ma.Interviews++
			}
		}
		for _, cs := range coding {
			if sameMonth(cs.CreatedAt, m) {
				ma.Coding++
			}
		}
		stats.MonthlyActivity = append(stats.MonthlyActivity, ma)
	}

	ranges := []struct {
		label    string
		min, max int // minutes, inclusive
	}{
		{"0-15 min", 0, 15},
		{"16-30 min", 16, 30},
		{"31-45 min", 31, 45},
		{"46-60 min", 46, 60},
		{"60+ min", 61, 1 << 30},
	}
	for _, r := range ranges {
		n := 0
		for _, iv := range interviews {
			if iv.Duration >= r.min && iv.Duration <= r.max {
				n++
			}
		}
		stats.DurationRanges = append(stats.DurationRanges, models.DurationCount{Range: r.label, Count: n})
	}

	return stats
}

func sameMonth(t, m time.Time) bool {
	t = t.UTC()
	return t.Year() == m.Year() && t.Month() == m.Month()
}

func (s *historyService) RecordCodingClick(ctx context.Context, userID, platformName, platformURL string) (*models.CodingSession, error) {
	const op = "HistoryService.RecordCodingClick"

	if userID == "" || platformName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and platform_name are required", nil)
	}

	row := &models.CodingSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		PlatformName: platformName,
		PlatformURL:  platformURL,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.records.InsertCoding(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record coding session", err)
	}
	s.invalidate(ctx, userID)
	return row, nil
}

func (s *historyService) ListCoding(ctx context.Context, userID string, limit int) ([]models.CodingSession, error) {
	const op = "HistoryService.ListCoding"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	rows, err := s.records.ListCoding(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list coding sessions", err)
	}
	return rows, nil
}

func (s *historyService) Transcript(ctx context.Context, userID, sessionID string) ([]models.TranscriptRecord, error) {
	const op = "HistoryService.Transcript"

	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}

	rows, err := s.transcripts.ListBySession(ctx, userID, sessionID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load transcript", err)
	}
	return rows, nil
}

func (s *historyService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, historyKey(userID), statsKey(userID)); err != nil {
		s.logger.WithError(err).Warn("failed to invalidate history cache")
	}
}
