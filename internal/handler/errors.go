package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exsim-backend/internal/engine"
	"github.com/stemsi/exsim-backend/internal/repository"
	"github.com/stemsi/exsim-backend/internal/response"
)

// failSession translates engine and repository errors into the API envelope.
// Order matters: ErrNoSession and ErrSessionActive wrap ErrInvalidTransition.
func failSession(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, engine.ErrNoSession):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveSession)
	case errors.Is(err, engine.ErrSessionActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionActive)
	case errors.Is(err, engine.ErrInvalidTransition):
		response.FailWithDetail(c, http.StatusConflict, response.ErrInvalidTransition, err.Error())
	case errors.Is(err, engine.ErrSaveFailed):
		log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Session progress not saved")
		response.Fail(c, http.StatusInternalServerError, response.ErrProgressNotSaved)
	case errors.Is(err, engine.ErrNoModulesAvailable):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoModulesAvailable)
	case errors.Is(err, engine.ErrInvalidOutcome):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"detail": err.Error()})
	case errors.Is(err, repository.ErrReportNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Unhandled session error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
