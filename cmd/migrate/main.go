package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/josh-kwaku/swift-payment-portal/internal/logging"
	"github.com/josh-kwaku/swift-payment-portal/internal/migrate"
	"github.com/josh-kwaku/swift-payment-portal/internal/repository"
)

// The migrator only needs the database, so it does not go through
// config.Load and its API-only required keys.
type migrateConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	Attempts    int    `env:"DB_CONNECT_ATTEMPTS" envDefault:"10"`
}

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|up-by-one|down|redo|reset|status|version|up-to|down-to")
	target := flag.String("version", "", "target version for up-to and down-to")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := env.ParseAs[migrateConfig]()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.Init("swift-payment-migrate", cfg.LogLevel, cfg.AppEnv).With("cmd", *cmd)

	ctx := context.Background()
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1}, cfg.Attempts)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var args []string
	if *target != "" {
		args = append(args, *target)
	}

	if err := migrate.Run(ctx, db, log, *cmd, args...); err != nil {
		log.Error("migration failed", "error", err)
		db.Close()
		os.Exit(1)
	}
	log.Info("migration complete")
}
