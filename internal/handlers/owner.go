package handlers

import (
	"net/http"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/services"
	"github.com/gin-gonic/gin"
)

type OwnerHandler struct {
	ownerService *services.OwnerService
}

func NewOwnerHandler(ownerService *services.OwnerService) *OwnerHandler {
	return &OwnerHandler{ownerService: ownerService}
}

// ListOwners handles GET /api/owners
func (h *OwnerHandler) ListOwners(c *gin.Context) {
	owners, err := h.ownerService.ListOwners()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"owners": owners})
}

// CreateOwner handles POST /api/owners
func (h *OwnerHandler) CreateOwner(c *gin.Context) {
	var req models.OwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	owner, err := h.ownerService.CreateOwner(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, owner)
}

// GetOwner handles GET /api/owners/:ownerId
func (h *OwnerHandler) GetOwner(c *gin.Context) {
	owner, err := h.ownerService.GetOwner(c.Param("ownerId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, owner)
}

// UpdateOwner handles PUT /api/owners/:ownerId
func (h *OwnerHandler) UpdateOwner(c *gin.Context) {
	var req models.OwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	owner, err := h.ownerService.UpdateOwner(c.Param("ownerId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, owner)
}

// DeleteOwner handles DELETE /api/owners/:ownerId
func (h *OwnerHandler) DeleteOwner(c *gin.Context) {
	if err := h.ownerService.DeleteOwner(c.Param("ownerId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
