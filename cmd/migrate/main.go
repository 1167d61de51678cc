package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/Afresh-academy/JosCity-Back-end/internal/config"
	"github.com/Afresh-academy/JosCity-Back-end/internal/logging"
	"github.com/Afresh-academy/JosCity-Back-end/migrations"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/pressly/goose/v3"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	// 1. Resolve the connection string the same way the API does.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger, syncLogs, err := logging.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = syncLogs() }()

	dsn, err := cfg.Database.DSN()
	if err != nil {
		return err
	}

	// 2. Open a database connection and make sure it is reachable.
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database connection: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	// 3. Configure goose over the embedded migrations.
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	// 4. Run the requested command, e.g. `go run ./cmd/migrate up`.
	if len(argv) < 1 {
		return fmt.Errorf("missing goose command. Usage: go run ./cmd/migrate [up|down|status|version|redo|reset]")
	}
	command, args := argv[0], argv[1:]
	logger.Info("running goose command", "command", command)
	if err := goose.RunContext(context.Background(), command, db, ".", args...); err != nil {
		return fmt.Errorf("goose command %q failed: %w", command, err)
	}
	return nil
}
