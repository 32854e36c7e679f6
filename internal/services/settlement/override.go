package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/draws"
)

var (
	ErrOverrideConflict   = errors.New("period already has a different override")
	ErrOverrideNotAllowed = errors.New("override not allowed")
	ErrPeriodCompleted    = errors.New("period already completed")
)

// Override forces the outcome of a house-policy period that has not
// completed. It takes the same row lock as settlement. Repeating an override
// with the same outcome returns the stored one.
func (s *Service) Override(ctx context.Context, periodID string, outcomeID int, actor, reason string) (draw.Override, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return draw.Override{}, fmt.Errorf("%w: actor required", ErrOverrideNotAllowed)
	}

	p, err := s.periods.Get(ctx, periodID)
	if err != nil {
		return draw.Override{}, fmt.Errorf("load period: %w", err)
	}

	rules, err := s.catalog.Rules(p.Game)
	if err != nil {
		return draw.Override{}, err
	}

	if rules.Policy != game.PolicyHouse {
		return draw.Override{}, fmt.Errorf("%w: %s outcomes are bound to an external reference", ErrOverrideNotAllowed, p.Game)
	}

	if _, ok := rules.Variant.Outcome(outcomeID); !ok {
		return draw.Override{}, fmt.Errorf("%w: %d in %s", game.ErrUnknownOutcome, outcomeID, p.Game)
	}

	var out draw.Override

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		locked, err := s.periods.LockForUpdate(tx, periodID)
		if err != nil {
			return fmt.Errorf("lock period: %w", err)
		}

		if locked.State == period.StateCompleted {
			return fmt.Errorf("%w: %s", ErrPeriodCompleted, periodID)
		}

		prev, err := s.draws.GetOverride(tx, periodID)
		switch {
		case err == nil:
			if prev.OutcomeID != outcomeID {
				return fmt.Errorf("%w: %s forced to %d", ErrOverrideConflict, periodID, prev.OutcomeID)
			}

			out = prev

			return nil
		case !errors.Is(err, draws.ErrOverrideNotFound):
			return fmt.Errorf("load override: %w", err)
		}

		out = draw.Override{
			PeriodID:  periodID,
			OutcomeID: outcomeID,
			Actor:     actor,
			Reason:    reason,
			CreatedAt: s.now().UTC().Truncate(time.Microsecond),
		}

		return s.draws.InsertOverride(tx, out)
	})
	if err != nil {
		return draw.Override{}, fmt.Errorf("override %s: %w", periodID, err)
	}

	slog.Warn("period outcome overridden",
		"period_id", periodID, "outcome_id", outcomeID, "actor", out.Actor, "reason", out.Reason)

	return out, nil
}
