package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-ta-go/internal/database"
	"github.com/irfndi/celebrum-ta-go/internal/indicators"
	"github.com/irfndi/celebrum-ta-go/internal/middleware"
	"github.com/irfndi/celebrum-ta-go/internal/services"
	"github.com/irfndi/celebrum-ta-go/internal/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case utils.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, indicators.ErrUnknownIndicator), errors.Is(err, database.ErrNoCandles):
		return http.StatusNotFound
	case errors.Is(err, indicators.ErrMissingColumn),
		errors.Is(err, indicators.ErrInsufficientData),
		errors.Is(err, indicators.ErrInvalidParameter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNoCandleSource):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	code := StatusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		middleware.RecordError(c, err, "request failed")
		msg = "internal error"
	}
	c.AbortWithStatusJSON(code, ErrorResponse{Error: http.StatusText(code), Message: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest), Message: msg})
}
