package handlers

import (
	"net/http"
	"strings"
	"time"

	"exchange-backoffice-api/internal/models"
	"exchange-backoffice-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateMovementRequest represents the request payload for recording a purchase or sale
type CreateMovementRequest struct {
	ClientID   string              `json:"clientId" binding:"required"`
	Type       models.MovementType `json:"type" binding:"required"`
	Currency   string              `json:"currency" binding:"required"`
	Amount     float64             `json:"amount" binding:"required"`
	Rate       float64             `json:"rate" binding:"required"`
	OccurredAt string              `json:"occurredAt"`
	Notes      string              `json:"notes"`
}

/*
*
GetMovements handles GET /api/movements
Optional query params: clientId, type (purchase|sale), currency, from, to.
*/
func (h *Handler) GetMovements(c *gin.Context) {
	filter := service.MovementFilter{
		ClientID: strings.TrimSpace(c.Query("clientId")),
		Type:     models.MovementType(strings.ToLower(c.Query("type"))),
		Currency: strings.TrimSpace(c.Query("currency")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
		return
	}

	var ok bool
	if from := c.Query("from"); from != "" {
		if filter.From, ok = parseDateFlexible(from, false); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
			return
		}
	}
	if to := c.Query("to"); to != "" {
		if filter.To, ok = parseDateFlexible(to, true); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
			return
		}
	}

	movements, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "", "Failed to fetch movements")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movements": movements,
		"count":     len(movements),
	})
}

// CreateMovement handles POST /api/movements
func (h *Handler) CreateMovement(c *gin.Context) {
	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var occurredAt time.Time
	if req.OccurredAt != "" {
		t, ok := parseDateFlexible(req.OccurredAt, false)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid occurredAt date"})
			return
		}
		occurredAt = t
	}

	movement, err := h.svc.CreateMovement(c.Request.Context(), service.CreateMovementInput{
		ClientID:   req.ClientID,
		Type:       models.MovementType(strings.ToLower(string(req.Type))),
		Currency:   req.Currency,
		Amount:     req.Amount,
		Rate:       req.Rate,
		OccurredAt: occurredAt,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(c, err, "", "Failed to create movement")
		return
	}
	c.JSON(http.StatusCreated, movement)
}
