package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers booking-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Public Routes ===
	group.GET("/availability", h.Availability)

	// === Authenticated Routes ===
	auth := group.Group("")
	auth.Use(authMiddleware)
	{
		auth.GET("", h.List)
		auth.GET("/my", h.ListMine)
		auth.GET("/stats", h.Stats)
		auth.GET("/:id", h.Get)
		auth.POST("", h.Create)
		auth.PATCH("/:id", h.Update)
		auth.POST("/:id/approve", h.Approve)
		auth.POST("/:id/reject", h.Reject)
		auth.POST("/:id/cancel", h.Cancel)
	}
}
