package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/vkotelnikov/hotel-booking-backend/internal/api"
	"github.com/vkotelnikov/hotel-booking-backend/internal/auth"
	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	"github.com/vkotelnikov/hotel-booking-backend/internal/clock"
	"github.com/vkotelnikov/hotel-booking-backend/internal/reconciler"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction        bool
	ProdOrigins         []string
	DBPool              *pgxpool.Pool
	Logger              *logrus.Logger
	JWTSecret           string
	JWTTTL              time.Duration
	StrictCreateOverlap bool
	ReconcilerConfig    reconciler.Config
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	Scheduler  *reconciler.Scheduler
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	clk := clock.System()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo)

	// Room Module
	roomRepo := room.NewPgxRepository(cfg.DBPool)
	roomService := room.NewService(roomRepo)

	// Booking Module
	store := booking.NewPgxStore(cfg.DBPool)
	avail := booking.NewAvailability(roomService, store)
	emitter := booking.NewLogEmitter(cfg.Logger)
	bookingService := booking.NewService(
		store,
		roomService,
		userService,
		avail,
		clk,
		emitter,
		cfg.Logger,
		booking.Config{StrictOverlap: cfg.StrictCreateOverlap},
	)

	// Reconciler
	rec := reconciler.New(store, roomService, clk, emitter, cfg.Logger)
	scheduler := reconciler.NewScheduler(rec, cfg.Logger, cfg.ReconcilerConfig)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		BookingService: bookingService,
		RoomService:    roomService,
		UserService:    userService,
		JWTManager:     jwtManager,
	})

	return &Container{
		Router:     router,
		Scheduler:  scheduler,
		JWTManager: jwtManager,
	}
}
