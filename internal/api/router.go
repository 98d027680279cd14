package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vkotelnikov/hotel-booking-backend/internal/auth"
	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	bookingHttp "github.com/vkotelnikov/hotel-booking-backend/internal/booking/http"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
	roomHttp "github.com/vkotelnikov/hotel-booking-backend/internal/room/http"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

// Config carries the services and settings the router needs.
type Config struct {
	IsProduction   bool
	ProdOrigins    []string
	BookingService *booking.Service
	RoomService    *room.Service
	UserService    *user.Service
	JWTManager     *auth.JWTManager
}

// NewRouter assembles middleware (CORS, Logger, Auth) and registers the
// module routes under /v1.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = cfg.ProdOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.RoomService, cfg.UserService)
	roomHandler := roomHttp.NewHandler(cfg.RoomService, cfg.BookingService)

	v1 := r.Group("/v1")
	{
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		roomHttp.RegisterRoutes(v1, roomHandler, authMiddleware)
	}

	return r
}
