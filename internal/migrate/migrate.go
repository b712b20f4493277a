package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/josh-kwaku/swift-payment-portal/migrations"
)

var setupOnce sync.Once

// goose keeps its dialect, filesystem and logger in package state.
func setup(log *slog.Logger) error {
	var err error
	setupOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		goose.SetLogger(gooseLogger{log: log})
		err = goose.SetDialect("postgres")
	})
	if err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command (up, down, status, version, redo, ...)
// against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, log *slog.Logger, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("Run: db is required")
	}
	if err := setup(log); err != nil {
		return fmt.Errorf("Run: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("Run: goose %s: %w", command, err)
	}
	return nil
}

func Up(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	return Run(ctx, db, log, "up")
}

type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}
