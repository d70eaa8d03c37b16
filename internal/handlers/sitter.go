package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/alimgiray/pawrank/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	defaultTopSitters = 10
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type SitterHandler struct {
	sitterService *services.SitterService
	exportService *services.ExportService
}

func NewSitterHandler(sitterService *services.SitterService, exportService *services.ExportService) *SitterHandler {
	return &SitterHandler{
		sitterService: sitterService,
		exportService: exportService,
	}
}

type addStayRequest struct {
	StayID string `json:"stay_id" binding:"required"`
}

// ListSitters handles GET /api/sitters
func (h *SitterHandler) ListSitters(c *gin.Context) {
	q, err := parseSitterQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	sitters, err := h.sitterService.ListSitters(q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sitters": sitters,
		"count":   len(sitters),
		"limit":   q.Limit,
		"offset":  q.Offset,
	})
}

// TopSitters handles GET /api/sitters/top
func (h *SitterHandler) TopSitters(c *gin.Context) {
	limit := defaultTopSitters
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	sitters, err := h.sitterService.TopSitters(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sitters": sitters})
}

// ExportSitters handles GET /api/sitters/export
func (h *SitterHandler) ExportSitters(c *gin.Context) {
	q, err := parseSitterQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exportService.ExportSitters(&buf, q); err != nil {
		respondError(c, err)
		return
	}

	filename := "sitters-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// CreateSitter handles POST /api/sitters
func (h *SitterHandler) CreateSitter(c *gin.Context) {
	var req models.SitterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sitter, err := h.sitterService.CreateSitter(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sitter)
}

// GetSitter handles GET /api/sitters/:sitterId
func (h *SitterHandler) GetSitter(c *gin.Context) {
	sitter, err := h.sitterService.GetSitter(c.Param("sitterId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sitter)
}

// UpdateSitter handles PUT /api/sitters/:sitterId
func (h *SitterHandler) UpdateSitter(c *gin.Context) {
	var req models.SitterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sitter, err := h.sitterService.UpdateSitter(c.Param("sitterId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sitter)
}

// DeleteSitter handles DELETE /api/sitters/:sitterId
func (h *SitterHandler) DeleteSitter(c *gin.Context) {
	if err := h.sitterService.DeleteSitter(c.Param("sitterId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddStay handles POST /api/sitters/:sitterId/stays
func (h *SitterHandler) AddStay(c *gin.Context) {
	var req addStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sitter, err := h.sitterService.AddStay(c.Param("sitterId"), strings.TrimSpace(req.StayID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sitter)
}

// RemoveStay handles DELETE /api/sitters/:sitterId/stays/:stayId
func (h *SitterHandler) RemoveStay(c *gin.Context) {
	sitter, err := h.sitterService.RemoveStay(c.Param("sitterId"), c.Param("stayId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sitter)
}

// parseSitterQuery reads search, min_rank, sort, order, limit and offset
func parseSitterQuery(c *gin.Context) (models.SitterQuery, error) {
	q := models.SitterQuery{
		Search: c.Query("search"),
		Sort:   strings.ToLower(c.DefaultQuery("sort", models.SortByRank)),
	}

	if raw := c.Query("min_rank"); raw != "" {
		minRank, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errInvalidParam("min_rank")
		}
		q.MinRank = &minRank
	}

	switch strings.ToLower(c.Query("order")) {
	case "asc":
		q.Desc = false
	case "desc":
		q.Desc = true
	case "":
		q.Desc = q.Sort != models.SortByName
	default:
		return q, errInvalidParam("order")
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, errInvalidParam("limit")
		}
		q.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return q, errInvalidParam("offset")
		}
		q.Offset = offset
	}

	q.Normalize()
	return q, nil
}

type paramError string

func (e paramError) Error() string {
	return "invalid " + string(e) + " parameter"
}

func errInvalidParam(name string) error {
	return paramError(name)
}
