package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boardly/internal/config"
	"boardly/internal/db"
	"boardly/internal/middleware"
	"boardly/internal/router"
	"boardly/internal/views"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	conn, err := db.Init(cfg)
	if err != nil {
		slog.Error("database init failed", "error", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())
	r.HTMLRender = views.Load(cfg.TemplatesDir)

	if err := router.RegisterRoutes(r, conn, cfg); err != nil {
		slog.Error("route setup failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("boardly server starting", "addr", cfg.Addr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
}
