package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/cache"
	"github.com/prepview/prepview/internal/capture"
	"github.com/prepview/prepview/internal/interview"
	"github.com/prepview/prepview/internal/models"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
	pgrepo "github.com/prepview/prepview/internal/repositories/postgres"
	"github.com/prepview/prepview/internal/transcript"
	"github.com/prepview/prepview/internal/utils"
)

type InterviewService interface {
	Start(ctx context.Context, cfg models.InterviewConfig) (string, interview.State, error)
	State(ctx context.Context, userID, sessionID string) (interview.State, error)
	ToggleRecording(ctx context.Context, userID, sessionID string) (interview.State, error)
	ToggleVideo(ctx context.Context, userID, sessionID string) (interview.State, error)
	End(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error)
	Transcript(ctx context.Context, userID, sessionID string) ([]transcript.Entry, error)
	Feed(userID, sessionID string, pcm []byte) error
}

// activeSession is one in-flight interview: its lifecycle controller plus
// the context keeping its speech recognizer alive.
type activeSession struct {
	userID     string
	controller *interview.Controller
	cancel     context.CancelFunc
	startedAt  time.Time
	cfg        models.InterviewConfig
}

type interviewService struct {
	provider   interview.Provider
	capability capture.Capability
	sessions   mongorepo.SessionRepository
	records    pgrepo.RecordRepo
	events     *SessionEvents
	cache      cache.Cache
	logger     *logrus.Logger

	mu     sync.Mutex
	active map[string]*activeSession // keyed by session id
	byUser map[string]string         // user id -> active session id
}

func NewInterviewService(
	provider interview.Provider,
	capability capture.Capability,
	sessions mongorepo.SessionRepository,
	records pgrepo.RecordRepo,
	events *SessionEvents,
	c cache.Cache,
	logger *logrus.Logger,
) InterviewService {
	return &interviewService{
		provider:   provider,
		capability: capability,
		sessions:   sessions,
		records:    records,
		events:     events,
		cache:      c,
		logger:     logger,
		active:     make(map[string]*activeSession),
		byUser:     make(map[string]string),
	}
}

func (s *interviewService) Start(ctx context.Context, cfg models.InterviewConfig) (string, interview.State, error) {
	const op = "InterviewService.Start"

	if cfg.UserID == "" || cfg.Role == "" || cfg.Company == "" {
		return "", interview.State{}, utils.E(utils.CodeInvalidArgument, op, "user_id, role, and company are required", nil)
	}
	if !cfg.InterviewType.Valid() {
		return "", interview.State{}, utils.E(utils.CodeInvalidArgument, op, "interview_type must be Technical, Behavioral, or System Design", nil)
	}
	if cfg.DurationMinutes <= 0 {
		cfg.DurationMinutes = 30
	}

	s.mu.Lock()
	if existing, ok := s.byUser[cfg.UserID]; ok {
		s.mu.Unlock()
		return "", interview.State{}, utils.E(utils.CodeConflict, op,
			fmt.Sprintf("session %s is already active, end it first", existing), interview.ErrAlreadyActive)
	}
	sessionID := uuid.NewString()
	// reserve the slot before the provider round trip so a racing second
	// start fails fast instead of creating a duplicate conversation
	s.byUser[cfg.UserID] = sessionID
	s.mu.Unlock()

	captureCtx, cancel := context.WithCancel(context.Background())

	log := s.logger.WithFields(logrus.Fields{"session_id": sessionID, "user_id": cfg.UserID})

	ctrl := interview.NewController(s.provider, nil, log)

	rec, err := s.capability.NewRecognizer(captureCtx)
	if err != nil {
		log.WithError(err).Warn("failed to build speech recognizer, capture disabled for session")
		rec = capture.Noop()
	}
	adapter := capture.NewAdapter(rec, ctrl.AppendUser, log)
	ctrl.SetCapture(adapter)

	ctrl.OnState(func(st interview.State) {
		s.events.PublishState(context.Background(), sessionID, st)
	})
	ctrl.OnTranscript(func(e transcript.Entry) {
		s.events.PublishTranscript(context.Background(), sessionID, e)
	})

	if err := ctrl.Start(ctx, cfg); err != nil {
		cancel()
		s.mu.Lock()
		delete(s.byUser, cfg.UserID)
		s.mu.Unlock()
		return "", interview.State{}, utils.E(utils.CodeConflict, op, "failed to start session", err)
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.active[sessionID] = &activeSession{
		userID:     cfg.UserID,
		controller: ctrl,
		cancel:     cancel,
		startedAt:  now,
		cfg:        cfg,
	}
	s.mu.Unlock()

	// Persistence is best-effort: a slow or absent database must never
	// block the interview itself.
	if s.sessions != nil {
		if err := s.sessions.Create(ctx, &models.Session{
			SessionID: sessionID,
			UserID:    cfg.UserID,
			Type:      "interview",
			Status:    "active",
			Metadata: models.SessionMetadata{
				InterviewType: string(cfg.InterviewType),
				CompanyName:   cfg.Company,
				Position:      cfg.Role,
			},
			CreatedAt: now,
		}); err != nil {
			log.WithError(err).Warn("failed to record live session")
		}
	}
	if s.records != nil {
		if err := s.records.InsertInterview(ctx, &models.InterviewSession{
			ID:              sessionID,
			UserID:          cfg.UserID,
			Role:            cfg.Role,
			Company:         cfg.Company,
			InterviewType:   string(cfg.InterviewType),
			Duration:        cfg.DurationMinutes,
			Resume:          cfg.Resume,
			JobDescription:  cfg.JobDescription,
			AdditionalNotes: cfg.AdditionalNotes,
			Summary: fmt.Sprintf("Started a %s interview for the %s position at %s.",
				cfg.InterviewType, cfg.Role, cfg.Company),
			CreatedAt: now,
		}); err != nil {
			log.WithError(err).Warn("failed to insert interview record")
		}
	}
	s.invalidateHistory(ctx, cfg.UserID)

	s.events.PublishStatus(ctx, sessionID, "started", "interview session started")
	return sessionID, ctrl.State(), nil
}

// lookup fetches an active session, enforcing that it belongs to the caller.
func (s *interviewService) lookup(op, userID, sessionID string) (*activeSession, error) {
	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	s.mu.Lock()
	as, ok := s.active[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "no active session with that id", nil)
	}
	if as.userID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "session belongs to another user", nil)
	}
	return as, nil
}

func (s *interviewService) State(ctx context.Context, userID, sessionID string) (interview.State, error) {
	as, err := s.lookup("InterviewService.State", userID, sessionID)
	if err != nil {
		return interview.State{}, err
	}
	return as.controller.State(), nil
}

func (s *interviewService) ToggleRecording(ctx context.Context, userID, sessionID string) (interview.State, error) {
	as, err := s.lookup("InterviewService.ToggleRecording", userID, sessionID)
	if err != nil {
		return interview.State{}, err
	}
	return as.controller.ToggleRecording(), nil
}

func (s *interviewService) ToggleVideo(ctx context.Context, userID, sessionID string) (interview.State, error) {
	as, err := s.lookup("InterviewService.ToggleVideo", userID, sessionID)
	if err != nil {
		return interview.State{}, err
	}
	return as.controller.ToggleVideo(), nil
}

func (s *interviewService) Transcript(ctx context.Context, userID, sessionID string) ([]transcript.Entry, error) {
	as, err := s.lookup("InterviewService.Transcript", userID, sessionID)
	if err != nil {
		return nil, err
	}
	return as.controller.Transcript(), nil
}

func (s *interviewService) Feed(userID, sessionID string, pcm []byte) error {
	as, err := s.lookup("InterviewService.Feed", userID, sessionID)
	if err != nil {
		return err
	}
	as.controller.Feed(pcm)
	return nil
}

func (s *interviewService) End(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	const op = "InterviewService.End"

	as, err := s.lookup(op, userID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.active, sessionID)
	delete(s.byUser, as.userID)
	s.mu.Unlock()

	report := as.controller.End(ctx)
	as.cancel()

	log := s.logger.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID})

	summary := interview.Summary(report.Entries, report.Config, report.ElapsedSeconds)

	record := &models.InterviewSession{
		ID:              sessionID,
		UserID:          userID,
		Role:            as.cfg.Role,
		Company:         as.cfg.Company,
		InterviewType:   string(as.cfg.InterviewType),
		Duration:        as.cfg.DurationMinutes,
		Resume:          as.cfg.Resume,
		JobDescription:  as.cfg.JobDescription,
		AdditionalNotes: as.cfg.AdditionalNotes,
		Summary:         summary,
		CreatedAt:       as.startedAt,
	}

	if s.records != nil {
		if err := s.records.UpdateSummary(ctx, sessionID, summary); err != nil {
			log.WithError(err).Warn("failed to update interview summary")
		}
	}
	if s.sessions != nil {
		dur := int64(report.ElapsedSeconds)
		if err := s.sessions.End(ctx, sessionID, time.Now().UTC(), dur); err != nil {
			log.WithError(err).Warn("failed to close live session record")
		}
	}
	if err := s.events.EnqueueArchive(ctx, userID, sessionID, report.Entries); err != nil {
		log.WithError(err).Warn("failed to enqueue transcript archive")
	}
	s.invalidateHistory(ctx, userID)

	s.events.PublishStatus(ctx, sessionID, "ended", "interview session ended")
	return record, nil
}

func (s *interviewService) invalidateHistory(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, historyKey(userID), statsKey(userID)); err != nil {
		s.logger.WithError(err).Warn("failed to invalidate history cache")
	}
}
