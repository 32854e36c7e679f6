// Package results serves settled outcomes: the latest result per lane, the
// paginated history and proof verification.
package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fastprodman/drawengine/internal/cache"
	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/draws"
	pgdraws "github.com/fastprodman/drawengine/internal/repos/draws/postgres"
	"github.com/fastprodman/drawengine/internal/repos/periods"
	pgperiods "github.com/fastprodman/drawengine/internal/repos/periods/postgres"
	"github.com/fastprodman/drawengine/internal/verify"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100

	lastTTL = 24 * time.Hour
)

type Service struct {
	catalog *game.Catalog
	draws   draws.Draws
	periods periods.Periods
	cache   cache.Store
	now     func() time.Time
}

func New(dbx *sql.DB, catalog *game.Catalog, store cache.Store) *Service {
	return &Service{
		catalog: catalog,
		draws:   pgdraws.New(dbx),
		periods: pgperiods.New(dbx),
		cache:   store,
		now:     time.Now,
	}
}

// Current returns the period of the lane whose window contains now.
func (s *Service) Current(ctx context.Context, key period.Key) (period.Period, error) {
	err := s.checkLane(key)
	if err != nil {
		return period.Period{}, err
	}

	p, err := s.periods.At(ctx, key, s.now())
	if err != nil {
		return period.Period{}, fmt.Errorf("current period of %s: %w", key, err)
	}

	return p, nil
}

// Last returns the newest settlement record of the lane. Records published
// through Watch keep the cached copy fresh; a miss falls back to storage.
func (s *Service) Last(ctx context.Context, key period.Key) (draw.Record, error) {
	err := s.checkLane(key)
	if err != nil {
		return draw.Record{}, err
	}

	var rec draw.Record

	found, err := cache.GetJSON(ctx, s.cache, lastKey(key), &rec)
	if err != nil {
		slog.Warn("result cache read failed", "lane", key.String(), "error", err)
	}

	if found {
		return rec, nil
	}

	rec, err = s.draws.LastRecord(ctx, key.Game, key.Duration)
	if err != nil {
		return draw.Record{}, fmt.Errorf("last result of %s: %w", key, err)
	}

	s.remember(ctx, rec)

	return rec, nil
}

// History lists records newest first, older than the before cursor when set.
func (s *Service) History(ctx context.Context, key period.Key, before string, limit int) ([]draw.Record, error) {
	err := s.checkLane(key)
	if err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	out, err := s.draws.History(ctx, key.Game, key.Duration, before, limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", key, err)
	}

	return out, nil
}

// Verify recomputes a settled verifiable outcome from its stored hash.
func (s *Service) Verify(ctx context.Context, periodID string) (verify.Verification, error) {
	rec, err := s.draws.GetRecord(ctx, periodID)
	if err != nil {
		return verify.Verification{}, fmt.Errorf("load record: %w", err)
	}

	return verify.Check(rec)
}

// Watch caches every published record as its lane's latest until records is
// closed or ctx ends.
func (s *Service) Watch(ctx context.Context, records <-chan draw.Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}

			s.remember(ctx, rec)
		}
	}
}

func (s *Service) remember(ctx context.Context, rec draw.Record) {
	key := period.Key{Game: rec.Game, Duration: rec.Duration}

	var cached draw.Record

	found, err := cache.GetJSON(ctx, s.cache, lastKey(key), &cached)
	if err == nil && found && cached.PeriodID > rec.PeriodID {
		return
	}

	err = cache.SetJSON(ctx, s.cache, lastKey(key), rec, lastTTL)
	if err != nil {
		slog.Warn("result cache write failed", "period_id", rec.PeriodID, "error", err)
	}
}

func (s *Service) checkLane(key period.Key) error {
	rules, err := s.catalog.Rules(key.Game)
	if err != nil {
		return err
	}

	if !rules.HasDuration(key.Duration) {
		return fmt.Errorf("%w: %s", period.ErrInvalidDuration, key)
	}

	return nil
}

func lastKey(k period.Key) string {
	return "last:" + string(k.Game) + ":" + strconv.Itoa(int(k.Duration.Seconds()))
}

// IsNotFound reports whether err means there is nothing to show yet.
func IsNotFound(err error) bool {
	return errors.Is(err, draws.ErrRecordNotFound) || errors.Is(err, periods.ErrPeriodNotFound)
}
