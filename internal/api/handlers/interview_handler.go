package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepview/prepview/internal/interview"
	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/services"
	"github.com/prepview/prepview/internal/utils"
)

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

type StartInterviewRequest struct {
	Role            string `json:"role" binding:"required"`
	Company         string `json:"company" binding:"required"`
	InterviewType   string `json:"interview_type" binding:"required"` // Technical|Behavioral|System Design
	Duration        int    `json:"duration"`
	Resume          string `json:"resume"`
	JobDescription  string `json:"job_description"`
	AdditionalNotes string `json:"additional_notes"`
}

type StartInterviewResponse struct {
	SessionID string          `json:"session_id"`
	State     interview.State `json:"state"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}

	sessionID, state, err := h.svc.Start(c.Request.Context(), models.InterviewConfig{
		UserID:          userID,
		Role:            req.Role,
		Company:         req.Company,
		InterviewType:   models.InterviewType(req.InterviewType),
		DurationMinutes: req.Duration,
		Resume:          req.Resume,
		JobDescription:  req.JobDescription,
		AdditionalNotes: req.AdditionalNotes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartInterviewResponse{SessionID: sessionID, State: state})
}

func (h *InterviewHandler) State(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	state, err := h.svc.State(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *InterviewHandler) ToggleRecording(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	state, err := h.svc.ToggleRecording(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *InterviewHandler) ToggleVideo(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	state, err := h.svc.ToggleVideo(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *InterviewHandler) End(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	record, err := h.svc.End(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *InterviewHandler) Transcript(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	entries, err := h.svc.Transcript(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
