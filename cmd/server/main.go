// Command server runs the fitness challenge API.
//
// Configuration comes from the environment:
//
//	PORT            HTTP listen port            (default 8080)
//	DB_PATH         SQLite database file        (default ./data/urfit.db)
//	JWT_SECRET      HMAC key for session tokens (required)
//	ADMIN_NAME      seed coordinator name       (optional)
//	ADMIN_EMAIL     seed coordinator email      (optional, enables seeding)
//	ADMIN_PASSWORD  seed coordinator password   (optional)
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/sakif/urfit-server/internal/server"
)

type config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"./data/urfit.db"`
	JWTSecret string `env:"JWT_SECRET,required"`

	AdminName     string `env:"ADMIN_NAME"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The sqlite driver won't create missing parent directories.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(server.Config{
		Port:          cfg.Port,
		DBPath:        cfg.DBPath,
		JWTSecret:     cfg.JWTSecret,
		AdminName:     cfg.AdminName,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
