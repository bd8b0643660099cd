package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/jointbank/internal/common"
	"github.com/gin-gonic/gin"
)

// Client-facing error messages. Error details are logged, never returned.
const (
	msgInvalid           = "Invalid request"
	msgUnauthenticated   = "Unauthenticated"
	msgUnauthorized      = "Unauthorized"
	msgNotFound          = "Not found"
	msgInsufficientFunds = "Insufficient funds"
	msgConflict          = "Conflict"
	msgInternal          = "Internal error"
	msgRateLimited       = "Too many requests"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// errorStatus maps a service error to its HTTP status and fixed message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorInvalid):
		return http.StatusBadRequest, msgInvalid
	case errors.Is(err, common.ErrorInsufficientFunds):
		return http.StatusBadRequest, msgInsufficientFunds
	case errors.Is(err, common.ErrorUnauthenticated),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, msgUnauthenticated
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusForbidden, msgUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict, msgConflict
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "path", c.FullPath(), "error", err)
	} else {
		s.logger.Debug(ctx, "request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: msg})
}
