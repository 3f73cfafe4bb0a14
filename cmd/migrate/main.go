package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/randomtoy/chess-arbiter/internal/config"
	"github.com/randomtoy/chess-arbiter/internal/db"
	"github.com/randomtoy/chess-arbiter/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		zap.NewExample().Fatal("logger", zap.Error(err))
	}
	defer log.Sync() //nolint:errcheck

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	conn, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()
	if err := conn.PingContext(ctx); err != nil {
		log.Fatal("ping db", zap.Error(err))
	}

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("goose set dialect", zap.Error(err))
	}

	if err := goose.RunContext(ctx, cmd, conn, "migrations", os.Args[min(len(os.Args), 2):]...); err != nil {
		log.Fatal("goose", zap.String("command", cmd), zap.Error(err))
	}
	log.Info("migrations done", zap.String("command", cmd))
}
