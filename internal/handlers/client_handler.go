package handlers

import (
	"net/http"

	"exchange-backoffice-api/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateClientRequest represents the request payload for registering a client
type CreateClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// GetClients handles GET /api/clients
func (h *Handler) GetClients(c *gin.Context) {
	clients, err := h.svc.ListClients(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "", "Failed to fetch clients")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": clients,
		"count":   len(clients),
	})
}

// GetClientByID handles GET /api/clients/:id
func (h *Handler) GetClientByID(c *gin.Context) {
	client, err := h.svc.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Client not found", "Failed to fetch client")
		return
	}
	c.JSON(http.StatusOK, client)
}

// CreateClient handles POST /api/clients
func (h *Handler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.svc.CreateClient(c.Request.Context(), service.CreateClientInput{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		Notes: req.Notes,
	})
	if err != nil {
		h.respondError(c, err, "", "Failed to create client")
		return
	}
	c.JSON(http.StatusCreated, client)
}
