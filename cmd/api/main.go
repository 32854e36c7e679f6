package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/fastprodman/drawengine/internal/api"
	"github.com/fastprodman/drawengine/internal/cache"
	"github.com/fastprodman/drawengine/internal/config"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/infra/cronrunner"
	"github.com/fastprodman/drawengine/internal/infra/logging"
	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	pgdraws "github.com/fastprodman/drawengine/internal/repos/draws/postgres"
	"github.com/fastprodman/drawengine/internal/services/balance"
	"github.com/fastprodman/drawengine/internal/services/placement"
	"github.com/fastprodman/drawengine/internal/services/results"
	"github.com/fastprodman/drawengine/internal/services/scheduler"
	"github.com/fastprodman/drawengine/internal/services/settlement"
	"github.com/fastprodman/drawengine/internal/verify"
	"github.com/fastprodman/drawengine/pkg/envconf"
	"github.com/fastprodman/drawengine/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logCloser := logging.SetupJSON(cfg.Log)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}

		//nolint:errcheck
		logCloser.Close()
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error { return dbConns.Close() })

	catalog, err := loadCatalog(cfg.Game)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	store, err := openCache(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	// --- Services ---
	balanceSrv := balance.New(dbConns)
	chain := verify.NewTronReader(cfg.Chain)
	binder := verify.NewBinder(
		chain,
		pgdraws.New(dbConns),
		cfg.Chain.LinkTemplate,
		cfg.Chain.RetryMaxElapsed,
	)
	settlementSrv := settlement.New(dbConns, catalog, balanceSrv, binder)
	placementSrv := placement.New(dbConns, catalog, balanceSrv)
	resultsSrv := results.New(dbConns, catalog, store)

	hub := scheduler.NewHub()
	records, unsubscribe := hub.Subscribe(64)
	shutdownqueue.Add("results feed", func(context.Context) error {
		unsubscribe()
		return nil
	})

	go resultsSrv.Watch(ctx, records)

	sched := scheduler.New(catalog, scheduler.NewPostgresStore(dbConns), settlementSrv, hub, cfg.Scheduler)

	err = sched.Recover(ctx)
	if err != nil {
		// The recovery sweep retries what is left.
		slog.Error("startup recovery incomplete", "error", err)
	}

	lanesCtx, stopLanes := context.WithCancel(ctx)
	schedDone := make(chan error, 1)

	go func() { schedDone <- sched.Run(lanesCtx) }()

	shutdownqueue.Add("scheduler", func(c context.Context) error {
		stopLanes()

		select {
		case err := <-schedDone:
			return err
		case <-c.Done():
			return c.Err()
		}
	})

	// --- Background sweeps ---
	cr := cronrunner.New(ctx)

	err = addSweeps(cr, cfg, sched, settlementSrv, verify.NewRepairer(chain, pgdraws.New(dbConns)))
	if err != nil {
		return err
	}

	cr.Start()
	shutdownqueue.Add("cron", cr.Stop)

	// --- HTTP server ---
	srv := api.NewServer(cfg.HTTP, api.Services{
		Wallet:    balanceSrv,
		Placer:    placementSrv,
		Results:   resultsSrv,
		Overrider: settlementSrv,
	})

	shutdownqueue.Add("http server", srv.Shutdown)

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.HTTP.Port, "lanes", len(sched.Lanes()))

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

func loadCatalog(cfg config.GameConfig) (*game.Catalog, error) {
	if cfg.CatalogPath == "" {
		return game.DefaultCatalog(), nil
	}

	c, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	slog.Info("game catalog loaded", "path", cfg.CatalogPath)

	return c, nil
}

func openCache(ctx context.Context, cfg config.RedisConfig) (cache.Store, error) {
	if cfg.Addr == "" {
		slog.Info("result cache in memory")
		return cache.NewMemoryStore(), nil
	}

	rs := cache.NewRedisStore(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, "drawengine:")

	err := rs.Ping(ctx)
	if err != nil {
		//nolint:errcheck
		rs.Close()

		return nil, err
	}

	shutdownqueue.Add("redis", func(context.Context) error { return rs.Close() })
	slog.Info("result cache in redis", "addr", cfg.Addr)

	return rs, nil
}

func addSweeps(
	cr *cronrunner.Runner,
	cfg *apiConfig,
	sched *scheduler.Scheduler,
	settlementSrv *settlement.Service,
	repairer *verify.Repairer,
) error {
	err := cr.Add("recover periods", cfg.Scheduler.RecoveryCron, sched.Recover)
	if err != nil {
		return err
	}

	err = cr.Add("retry credits", cfg.Scheduler.CreditCron, func(ctx context.Context) error {
		rep, err := settlementSrv.RetryPendingCredits(ctx, cfg.Sweep.CreditMinAge, cfg.Sweep.CreditLimit)
		if rep.Attempted > 0 {
			slog.Info("credit retry pass", "attempted", rep.Attempted, "credited", rep.Credited, "failed", rep.Failed)
		}

		return err
	})
	if err != nil {
		return err
	}

	return cr.Add("repair proofs", cfg.Scheduler.RepairCron, func(ctx context.Context) error {
		_, err := repairer.Run(ctx, cfg.Sweep.RepairLimit)
		return err
	})
}
