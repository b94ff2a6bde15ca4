package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/rebellion-web/app/internal/config"
	"github.com/rebellion-web/app/internal/database"
	"github.com/rebellion-web/app/internal/engine"
	"github.com/rebellion-web/app/internal/engine/demo"
	"github.com/rebellion-web/app/internal/handlers"
	"github.com/rebellion-web/app/internal/lobby"
	"github.com/rebellion-web/app/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "err", err)
		os.Exit(1)
	}

	if err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		slog.Error("configuring logging", "err", err)
		os.Exit(1)
	}

	store, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("opening account store", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	catalog, err := config.LoadRoles(cfg.RolesPath)
	if err != nil {
		slog.Error("loading role catalog", "err", err)
		os.Exit(1)
	}

	factory := demo.NewFactory(catalog.Names(), engine.Limits{
		MinPlayers:   catalog.MinPlayers,
		MaxPlayers:   catalog.MaxPlayers,
		RolesPerGame: catalog.RolesPerGame,
	})

	coord := lobby.New(lobby.Options{
		Store:         store,
		Engines:       factory,
		Logger:        slog.Default(),
		ChannelBuffer: cfg.ChannelBuffer,
	})

	h := handlers.New(coord, handlers.NewSessions(), slog.Default(), cfg.Heartbeat)

	addr := ":" + cfg.Port
	slog.Info("server listening", "addr", addr, "roles", len(catalog.Roles))
	if err := http.ListenAndServe(addr, h.Routes(cfg.AllowedOrigins)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
