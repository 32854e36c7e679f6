// Command repair runs a single proof backfill pass and prints the report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/drawengine/internal/config"
	"github.com/fastprodman/drawengine/internal/infra/logging"
	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	pgdraws "github.com/fastprodman/drawengine/internal/repos/draws/postgres"
	"github.com/fastprodman/drawengine/internal/verify"
	"github.com/fastprodman/drawengine/pkg/envconf"
)

type repairConfig struct {
	Limit    int `env:"REPAIR_LIMIT" envDefault:"1000"`
	Log      config.LogConfig
	Postgres config.PostgresConfig
	Chain    config.ChainConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		slog.Error("repair failed", "error", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := new(repairConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	//nolint:errcheck
	defer logging.SetupJSON(cfg.Log).Close()

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	rep, err := verify.NewRepairer(verify.NewTronReader(cfg.Chain), pgdraws.New(db)).Run(ctx, cfg.Limit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(rep)
}
