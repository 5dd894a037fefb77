package server

import (
	"errors"
	"net/http"

	"github.com/careerforge/careerforge/models"
	"github.com/careerforge/careerforge/sessions"
	"github.com/careerforge/careerforge/stores"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, sessions.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, stores.ErrUserNotFound), errors.Is(err, stores.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, stores.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, sessions.ErrUpstreamFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, models.Envelope{Status: models.StatusError, Message: sessions.PublicMessage(err)})
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, models.Envelope{Status: models.StatusSuccess, Message: message, Data: data})
}
