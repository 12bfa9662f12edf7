package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"event-booking-seeder/config"
	"event-booking-seeder/internal/app"
	"event-booking-seeder/internal/handler"
	"event-booking-seeder/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.L.Fatal("Failed to load config", zap.Error(err))
	}

	a, err := app.New(cfg, app.Options{})
	if err != nil {
		logger.L.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer a.Close()

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	handler.NewCatalogHandler(a.Catalog, a.Booking).RegisterRoutes(router)
	handler.NewRunHandler(a.Pipeline).RegisterRoutes(router)

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.L.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("http server shutdown", zap.Error(err))
	}
}
