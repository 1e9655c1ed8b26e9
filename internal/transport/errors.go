package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
	"github.com/renatodap/snapmod-sub000/internal/pkg/presets"
	"github.com/renatodap/snapmod-sub000/internal/pkg/store"
)

// statusFor maps domain errors to HTTP status codes. Anything unrecognised,
// including persistence failures and capacity violations, is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrVersionNotFound),
		errors.Is(err, entity.ErrHistoryNotFound),
		errors.Is(err, entity.ErrPresetNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrPresetExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrSessionMismatch),
		errors.Is(err, store.ErrInvalidEntry),
		errors.Is(err, store.ErrImportFormat),
		errors.Is(err, filters.ErrUnknownField),
		errors.Is(err, filters.ErrImageDecode),
		errors.Is(err, presets.ErrUnknownPreset):
		return http.StatusBadRequest
	case errors.Is(err, filters.ErrRenderingUnavailable),
		errors.Is(err, entity.ErrEventsDisabled),
		errors.Is(err, store.ErrUnconfigured),
		errors.Is(err, store.ErrStoreClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
