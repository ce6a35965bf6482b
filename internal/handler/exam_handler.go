package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/logger"
	"github.com/stemsi/exsim-backend/internal/middleware"
	"github.com/stemsi/exsim-backend/internal/model"
	"github.com/stemsi/exsim-backend/internal/response"
	"github.com/stemsi/exsim-backend/internal/service"
	"github.com/stemsi/exsim-backend/internal/validator"
)

// ExamHandler exposes the owner's assessment session over HTTP.
type ExamHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(sessionService *service.ExamSessionService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		sessionService: sessionService,
		log:            logger.Component(log, "exam_handler"),
	}
}

// StartExam godoc
// POST /api/v1/exam/start
// Starts a new session in the requested mode (defaults to standard).
func (h *ExamHandler) StartExam(c *gin.Context) {
	owner := middleware.GetOwnerID(c)

	var req model.StartExamRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Start(c.Request.Context(), owner, req.Mode)
	if err != nil {
		failSession(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, state)
}

// GetSession godoc
// GET /api/v1/exam/session
// Restores the owner's session with its progress and running aggregate.
func (h *ExamHandler) GetSession(c *gin.Context) {
	state, err := h.sessionService.State(c.Request.Context(), middleware.GetOwnerID(c))
	if err != nil {
		failSession(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetCurrentModule godoc
// GET /api/v1/exam/current
func (h *ExamHandler) GetCurrentModule(c *gin.Context) {
	assignment, err := h.sessionService.Current(c.Request.Context(), middleware.GetOwnerID(c))
	if err != nil {
		failSession(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignment": assignment})
}

// SubmitResult godoc
// POST /api/v1/exam/results
// Records the outcome of the current module and adapts the difficulty.
func (h *ExamHandler) SubmitResult(c *gin.Context) {
	var req model.SubmitResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Submit(c.Request.Context(), middleware.GetOwnerID(c), req.Outcome())
	if err != nil {
		failSession(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// FinishExam godoc
// POST /api/v1/exam/finish
func (h *ExamHandler) FinishExam(c *gin.Context) {
	report, err := h.sessionService.Finish(c.Request.Context(), middleware.GetOwnerID(c))
	if err != nil {
		failSession(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// AbandonExam godoc
// POST /api/v1/exam/abandon
// Discards the session. Requires {"confirm": true}.
func (h *ExamHandler) AbandonExam(c *gin.Context) {
	var req model.AbandonExamRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !req.Confirm {
		response.Fail(c, http.StatusBadRequest, response.ErrConfirmationRequired)
		return
	}

	if err := h.sessionService.Abandon(c.Request.Context(), middleware.GetOwnerID(c)); err != nil {
		failSession(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"abandoned": true})
}

// ListReports godoc
// GET /api/v1/exam/reports?limit=20
func (h *ExamHandler) ListReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultReportLimit)))

	reports, err := h.sessionService.Reports(c.Request.Context(), middleware.GetOwnerID(c), limit)
	if err != nil {
		failSession(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reports": reports})
}

// GetReport godoc
// GET /api/v1/exam/reports/:id
func (h *ExamHandler) GetReport(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.sessionService.Report(c.Request.Context(), middleware.GetOwnerID(c), id)
	if err != nil {
		failSession(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}
