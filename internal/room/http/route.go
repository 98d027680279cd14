package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers room-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/rooms")

	// === Public Routes ===
	group.GET("", h.List)
	group.GET("/free", h.ListFree)
	group.GET("/:id", h.Get)

	// === Authenticated Routes ===
	auth := group.Group("")
	auth.Use(authMiddleware)
	{
		auth.POST("", h.Create)
		auth.PATCH("/:id", h.Update)
		auth.DELETE("/:id", h.Delete)
	}
}
