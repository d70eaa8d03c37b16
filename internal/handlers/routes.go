package handlers

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles every route handler the server exposes
type Handlers struct {
	Sitter   *SitterHandler
	Owner    *OwnerHandler
	Stay     *StayHandler
	Job      *JobHandler
	Health   *HealthHandler
	NotFound *NotFoundHandler
}

// RegisterRoutes mounts the JSON API under /api and the fallback handler
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	api := router.Group("/api")
	{
		sitters := api.Group("/sitters")
		sitters.GET("", h.Sitter.ListSitters)
		sitters.POST("", h.Sitter.CreateSitter)
		sitters.GET("/top", h.Sitter.TopSitters)
		sitters.GET("/export", h.Sitter.ExportSitters)
		sitters.GET("/:sitterId", h.Sitter.GetSitter)
		sitters.PUT("/:sitterId", h.Sitter.UpdateSitter)
		sitters.DELETE("/:sitterId", h.Sitter.DeleteSitter)
		sitters.POST("/:sitterId/stays", h.Sitter.AddStay)
		sitters.DELETE("/:sitterId/stays/:stayId", h.Sitter.RemoveStay)

		owners := api.Group("/owners")
		owners.GET("", h.Owner.ListOwners)
		owners.POST("", h.Owner.CreateOwner)
		owners.GET("/:ownerId", h.Owner.GetOwner)
		owners.PUT("/:ownerId", h.Owner.UpdateOwner)
		owners.DELETE("/:ownerId", h.Owner.DeleteOwner)

		stays := api.Group("/stays")
		stays.GET("", h.Stay.ListStays)
		stays.POST("", h.Stay.CreateStay)
		stays.GET("/:stayId", h.Stay.GetStay)
		stays.PUT("/:stayId", h.Stay.UpdateStay)
		stays.DELETE("/:stayId", h.Stay.DeleteStay)

		jobs := api.Group("/jobs")
		jobs.POST("/recompute", h.Job.EnqueueRecompute)
		jobs.GET("/:jobId", h.Job.GetJob)
	}

	router.GET("/health", h.Health.Health)
	router.NoRoute(h.NotFound.NotFound)
}
