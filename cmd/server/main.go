package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vkotelnikov/hotel-booking-backend/internal/app"
	"github.com/vkotelnikov/hotel-booking-backend/internal/config"
	"github.com/vkotelnikov/hotel-booking-backend/internal/db"
	"github.com/vkotelnikov/hotel-booking-backend/internal/reconciler"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if cfg.IsProduction {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to db")
	}
	defer pool.Close()

	container := app.NewContainer(app.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		DBPool:              pool,
		Logger:              log,
		JWTSecret:           cfg.JWTSecret,
		JWTTTL:              cfg.JWTAccessTokenTTL,
		StrictCreateOverlap: cfg.StrictCreateOverlap,
		ReconcilerConfig: reconciler.Config{
			SweepInterval:  cfg.SweepInterval,
			ExpiryInterval: cfg.ExpiryInterval,
			RollupInterval: cfg.RollupInterval,
		},
	})

	// Background jobs stop when ctx is cancelled.
	container.Scheduler.Start(ctx)

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}

	log.Info("server exited gracefully")
}
