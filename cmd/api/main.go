package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/randomtoy/chess-arbiter/internal/adapters/memory"
	pgstore "github.com/randomtoy/chess-arbiter/internal/adapters/postgres"
	"github.com/randomtoy/chess-arbiter/internal/config"
	"github.com/randomtoy/chess-arbiter/internal/logging"
	"github.com/randomtoy/chess-arbiter/internal/ports"
	transporthttp "github.com/randomtoy/chess-arbiter/internal/transport/http"
	"github.com/randomtoy/chess-arbiter/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archive ports.Archive = memory.NewArchive()
	if cfg.DatabaseURL != "" {
		pool, err := connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info("connected to database")
		archive = pgstore.New(pool)
	}

	var rl ports.RateLimiter = memory.AlwaysAllow{}
	var pruner usecase.Pruner
	if cfg.RateLimitRPS > 0 {
		tb := memory.NewTokenBucket(cfg.RateLimitRPS, cfg.RateLimitBurst)
		rl, pruner = tb, tb
	}

	store := memory.New()
	h := transporthttp.NewHandlers(
		usecase.NewSessionCreator(store, rl, log),
		usecase.NewSessionGetter(store, rl),
		usecase.NewMoveSubmitter(store, archive, rl, log),
		usecase.NewTerminator(store, archive, rl, log),
		usecase.NewBindingLister(store, rl),
		usecase.NewArchiveReader(archive, rl),
	)
	e := transporthttp.New(h, cfg.AllowedOrigins, log)
	sweeper := usecase.NewSweeper(store, pruner, cfg.FinishedTTL, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connCtx, url)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}
