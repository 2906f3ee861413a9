package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sketchdeck/sketchdeck/internal/auth"
	"github.com/sketchdeck/sketchdeck/internal/config"
	"github.com/sketchdeck/sketchdeck/internal/server"
	"github.com/sketchdeck/sketchdeck/internal/session"
	"github.com/sketchdeck/sketchdeck/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("store open failed", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("store close failed", "error", err)
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenDuration)
	registry := session.NewRegistry()
	hub := server.NewHub(registry)
	resolver := server.NewRoomResolver(st)
	router := server.NewRouter(hub, resolver, st)

	api := server.NewAPI(st, tokens)
	ws := server.NewWSHandler(hub, router, tokens, cfg)
	mux := server.SetupRoutes(api, ws)

	go hub.Run()
	slog.Info("hub started")

	httpServer := server.CreateServer(cfg.Port, mux)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.StartServer(httpServer)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout); err != nil {
		slog.Warn("http shutdown incomplete", "error", err)
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		slog.Warn("hub shutdown incomplete", "error", err)
	}
}

func setupLogger(level string) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}
