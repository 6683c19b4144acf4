package api

import (
	"errors"
	"net/http"

	"techtrainer/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with: status is
// "success" or "error", data carries the payload, message is optional
// human-readable context.
type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// respondSuccess writes the success envelope.
func respondSuccess(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, Response{Status: "success", Data: data, Message: message})
}

// respondError writes the error envelope and aborts the request.
func respondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{Status: "error", Message: message})
}

// respondServiceError maps service-layer sentinels onto HTTP status codes.
// Unknown errors become opaque 500s; the real cause stays in the server
// log, not the response.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrExerciseNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrWorkoutCompleted),
		errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrInvalidTransition):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrVersionConflict):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		respondError(c, http.StatusUnauthorized, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
