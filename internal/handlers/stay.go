package handlers

import (
	"net/http"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/services"
	"github.com/gin-gonic/gin"
)

type StayHandler struct {
	stayService *services.StayService
}

func NewStayHandler(stayService *services.StayService) *StayHandler {
	return &StayHandler{stayService: stayService}
}

// ListStays handles GET /api/stays, optionally filtered by sitter_id or owner_id
func (h *StayHandler) ListStays(c *gin.Context) {
	stays, err := h.stayService.ListStays(c.Query("sitter_id"), c.Query("owner_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stays": stays})
}

// CreateStay handles POST /api/stays
func (h *StayHandler) CreateStay(c *gin.Context) {
	var req models.StayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	stay, err := h.stayService.CreateStay(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stay)
}

// GetStay handles GET /api/stays/:stayId
func (h *StayHandler) GetStay(c *gin.Context) {
	stay, err := h.stayService.GetStay(c.Param("stayId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stay)
}

// UpdateStay handles PUT /api/stays/:stayId
func (h *StayHandler) UpdateStay(c *gin.Context) {
	var req models.StayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	stay, err := h.stayService.UpdateStay(c.Param("stayId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stay)
}

// DeleteStay handles DELETE /api/stays/:stayId
func (h *StayHandler) DeleteStay(c *gin.Context) {
	if err := h.stayService.DeleteStay(c.Param("stayId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
