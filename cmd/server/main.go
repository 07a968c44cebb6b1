package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/PlanningPoker/internal/adapters/http"
	sig "github.com/dkeye/PlanningPoker/internal/adapters/signal"
	"github.com/dkeye/PlanningPoker/internal/app"
	"github.com/dkeye/PlanningPoker/internal/backlog"
	"github.com/dkeye/PlanningPoker/internal/config"
	"github.com/dkeye/PlanningPoker/internal/core"
)

func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// openStorage returns the backlog and pause-snapshot persisters for the configured driver.
func openStorage(ctx context.Context, cfg config.Storage) (backlog.Persister, backlog.Persister, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := backlog.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Str("module", "main").Msg("close sqlite")
			}
		}
		primary, pause, err := sqlitePersisters(ctx, db)
		if err != nil {
			closeDB()
			return nil, nil, nil, err
		}
		return primary, pause, closeDB, nil
	default:
		fs := afero.NewOsFs()
		primary := backlog.NewFilePersister(fs, cfg.BacklogPath)
		pause := backlog.NewFilePersister(fs, cfg.PausePath)
		log.Info().Str("module", "main").Str("backlog", primary.Path()).Str("pause", pause.Path()).Msg("file storage")
		return primary, pause, func() {}, nil
	}
}

func sqlitePersisters(ctx context.Context, db *sql.DB) (backlog.Persister, backlog.Persister, error) {
	primary, err := backlog.NewSQLitePersister(ctx, db, backlog.TableBacklog)
	if err != nil {
		return nil, nil, err
	}
	pause, err := backlog.NewSQLitePersister(ctx, db, backlog.TablePause)
	if err != nil {
		return nil, nil, err
	}
	return primary, pause, nil
}

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	setupLogger(os.Getenv("POKER_LOG_LEVEL"))

	flags, err := config.Flags(os.Args[1:])
	if err != nil {
		return err
	}
	cfg, loader, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogger(cfg.LogLevel)

	primary, pause, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStorage()

	store := backlog.NewStore(primary, cfg.Limits)
	store.Load(ctx)

	hub := core.NewHub()
	coord := app.NewCoordinator(store, pause, app.Options{
		AllowList:      cfg.AllowList,
		Roles:          cfg.Roles,
		IdentitySwitch: cfg.IdentitySwitch,
		Sink:           sig.NewBroadcaster(hub, app.SimplePolicy{}),
	})
	ctl := sig.NewSignalWSController(coord, hub, sig.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		VoteLimit:  cfg.RateLimit.Votes,
		VoteWindow: cfg.RateLimit.Interval,
	})

	loader.Watch(func(next *config.Config) {
		coord.SetAllowList(next.AllowList)
		coord.SetRoles(next.Roles)
		coord.SetIdentitySwitch(next.IdentitySwitch)
	})

	r := router.SetupRouter(ctx, cfg, coord, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Planning poker server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		coord.Close(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
