package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrVersionConflict, http.StatusConflict, "version_conflict"},
	{apperrors.ErrAlreadySettled, http.StatusConflict, "already_settled"},
	{apperrors.ErrUnknownCurrency, http.StatusServiceUnavailable, "unknown_currency"},
	{apperrors.ErrInvalidSplit, http.StatusUnprocessableEntity, "invalid_split"},
	{apperrors.ErrInvalidParticipant, http.StatusUnprocessableEntity, "invalid_participant"},
	{apperrors.ErrValidation, http.StatusBadRequest, "validation"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperrors.ErrDuplicate, http.StatusConflict, "duplicate"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict"},
}

// statusForError maps a service error onto an HTTP status and a machine-readable code.
func statusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ""
}

// respondWithError logs err at a level matching its status and writes the JSON error body.
// Server errors hide their details behind failMsg.
func respondWithError(c *gin.Context, logger *slog.Logger, err error, failMsg string) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error(failMsg, slog.String("error", err.Error()))
		c.JSON(status, errorResponse{Error: failMsg})
		return
	}
	logger.Warn(failMsg, slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, errorResponse{Error: err.Error(), Code: code})
}

func respondBindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request format: " + err.Error(), Code: "validation"})
}

// actorFromContext returns the JWT subject, writing a 401 if it is missing.
func actorFromContext(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return "", false
	}
	return userID, true
}
