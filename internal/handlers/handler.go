package handlers

import (
	"errors"
	"net/http"
	"time"

	"exchange-backoffice-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the back-office REST endpoints.
type Handler struct {
	svc *service.Backoffice
	log *zap.Logger
}

func New(svc *service.Backoffice, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, log: logger.Named("handlers")}
}

// respondError maps service errors to status codes; anything unexpected is
// logged and reported with the generic message.
func (h *Handler) respondError(c *gin.Context, err error, notFound, generic string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	default:
		h.log.Error(generic, zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": generic})
	}
}

var dateLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{"2006-01-02", true},  // ISO date
	{"2 Jan 2006", true},  // e.g., 30 Oct 2025
	{time.RFC3339, false}, // full RFC3339
	{"02 Jan 2006", true}, // zero-padded day
}

// parseDateFlexible accepts the date formats the frontend sends. A date
// without a time is taken as the start of that day, or its last instant when
// endOfDay is set.
func parseDateFlexible(dateStr string, endOfDay bool) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, dateStr)
		if err != nil {
			continue
		}
		if l.dateOnly && endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, true
	}
	return time.Time{}, false
}
