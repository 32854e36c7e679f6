// Command materializer loads the five digit outcome space into fived_outcomes.
// It is an offline tool; the engine always builds the space in memory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fastprodman/drawengine/internal/config"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/infra/logging"
	"github.com/fastprodman/drawengine/pkg/envconf"
)

type materializerConfig struct {
	DSN string `env:"PG_DSN,required"`
	// Force reloads the table even when it already holds the full space.
	Force bool `env:"MATERIALIZE_FORCE" envDefault:"false"`
	Log   config.LogConfig
}

var columns = []string{"id", "a", "b", "c", "d", "e", "digit_sum", "mask"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		slog.Error("materialize failed", "error", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := new(materializerConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	//nolint:errcheck
	defer logging.SetupJSON(cfg.Log).Close()

	v, err := game.Lookup(game.FiveD)
	if err != nil {
		return err
	}

	outcomes := v.Outcomes()

	conn, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	//nolint:errcheck
	defer conn.Close(context.Background())

	var have int
	err = conn.QueryRow(ctx, "SELECT count(*) FROM fived_outcomes").Scan(&have)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}

	if have == len(outcomes) && !cfg.Force {
		slog.Info("five digit space already materialized", "rows", have)
		return nil
	}

	start := time.Now()

	n, err := load(ctx, conn, outcomes)
	if err != nil {
		return err
	}

	slog.Info("five digit space materialized", "rows", n, "took", time.Since(start))

	return nil
}

func load(ctx context.Context, conn *pgx.Conn, outcomes []game.Outcome) (int64, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	//nolint:errcheck
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "TRUNCATE fived_outcomes")
	if err != nil {
		return 0, fmt.Errorf("truncate: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"fived_outcomes"}, columns,
		pgx.CopyFromSlice(len(outcomes), func(i int) ([]any, error) {
			return row(outcomes[i]), nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy outcomes: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return n, nil
}

func row(o game.Outcome) []any {
	d := o.Digits

	return []any{
		int32(o.ID),
		int16(d[0]), int16(d[1]), int16(d[2]), int16(d[3]), int16(d[4]),
		int16(o.Sum),
		int32(o.Mask),
	}
}
