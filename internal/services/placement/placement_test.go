package placement

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/infra/pgtestutil"
	"github.com/fastprodman/drawengine/internal/infra/pgutils"
	"github.com/fastprodman/drawengine/internal/period"
	pgperiods "github.com/fastprodman/drawengine/internal/repos/periods/postgres"
	"github.com/fastprodman/drawengine/internal/repos/users"
	"github.com/fastprodman/drawengine/internal/services/balance"
)

var (
	wingoMinute = period.Key{Game: game.Wingo, Duration: time.Minute}
	midWindow   = time.Date(2026, 10, 16, 12, 0, 20, 0, time.UTC)
)

func openPeriod(t *testing.T, db *sql.DB, at time.Time) period.Period {
	t.Helper()

	repo := pgperiods.New(db)
	p := period.At(wingoMinute, at)

	err := pgutils.WithTx(t.Context(), db, func(tx *sql.Tx) error {
		_, err := repo.Create(tx, p)
		if err != nil {
			return err
		}

		return repo.Transition(tx, p.ID, period.StatePending, period.StateOpen, at)
	})
	if err != nil {
		t.Fatalf("open period: %v", err)
	}

	p.State = period.StateOpen

	return p
}

func newService(db *sql.DB, now time.Time) *Service {
	s := New(db, game.DefaultCatalog(), balance.New(db))
	s.now = func() time.Time { return now }

	return s
}

func TestPlace(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedUser(t, db, 10, 50_000)
	p := openPeriod(t, db, midWindow)

	tests := []struct {
		name    string
		req     Request
		now     time.Time
		wantErr error
	}{
		{
			name: "unknown category",
			req:  Request{UserID: 10, Game: game.Wingo, Duration: time.Minute, Category: game.Cat(game.KindTriple, "any"), Stake: 1000},
			now:  midWindow, wantErr: game.ErrInvalidCategory,
		},
		{
			name: "stake below minimum",
			req:  Request{UserID: 10, Game: game.Wingo, Duration: time.Minute, Category: game.Cat(game.KindSize, "big"), Stake: 99},
			now:  midWindow, wantErr: ErrStakeOutOfBounds,
		},
		{
			name: "lane not configured",
			req:  Request{UserID: 10, Game: game.Wingo, Duration: 7 * time.Second, Category: game.Cat(game.KindSize, "big"), Stake: 1000},
			now:  midWindow, wantErr: period.ErrInvalidDuration,
		},
		{
			name: "after close",
			req:  Request{UserID: 10, Game: game.Wingo, Duration: time.Minute, PeriodID: p.ID, Category: game.Cat(game.KindSize, "big"), Stake: 1000},
			now:  p.EndAt, wantErr: ErrPeriodNotOpen,
		},
		{
			name: "no period yet",
			req:  Request{UserID: 10, Game: game.Wingo, Duration: time.Minute, Category: game.Cat(game.KindSize, "big"), Stake: 1000},
			now:  p.EndAt.Add(time.Second), wantErr: ErrPeriodNotOpen,
		},
		{
			name: "period of another lane",
			req:  Request{UserID: 10, Game: game.Wingo, Duration: 3 * time.Minute, PeriodID: p.ID, Category: game.Cat(game.KindSize, "big"), Stake: 1000},
			now:  midWindow, wantErr: ErrPeriodNotOpen,
		},
		{
			name: "insufficient funds",
			req:  Request{UserID: 10, Game: game.Wingo, Duration: time.Minute, Category: game.Cat(game.KindSize, "big"), Stake: 60_000},
			now:  midWindow, wantErr: balance.ErrInsufficientFunds,
		},
		{
			name: "unknown user",
			req:  Request{UserID: 404, Game: game.Wingo, Duration: time.Minute, Category: game.Cat(game.KindSize, "big"), Stake: 1000},
			now:  midWindow, wantErr: users.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(db, tt.now).Place(t.Context(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	bal, err := balance.New(db).GetBalance(t.Context(), 10)
	if err != nil || bal != 50_000 {
		t.Fatalf("rejected wagers touched the wallet: balance %d, err %v", bal, err)
	}
}

func TestPlace_Accepts(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedUser(t, db, 11, 10_000)
	p := openPeriod(t, db, midWindow)

	rec, err := newService(db, midWindow).Place(t.Context(), Request{
		UserID:   11,
		Game:     game.Wingo,
		Duration: time.Minute,
		Category: game.Cat(game.KindColor, "violet"),
		Stake:    1050,
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	w := rec.Wager
	if w.PeriodID != p.ID {
		t.Fatalf("period = %s, want %s", w.PeriodID, p.ID)
	}

	// 1050 × 0.02 = 21
	if w.Tax != 21 || w.AmountAfterTax != 1029 || w.Odds.String() != "4.5" {
		t.Fatalf("quote = tax %d, after tax %d, odds %s", w.Tax, w.AmountAfterTax, w.Odds)
	}

	if rec.Balance.BalanceBefore != 10_000 || rec.Balance.BalanceAfter != 8_950 {
		t.Fatalf("snapshot = %+v", rec.Balance)
	}

	var ref string

	err = db.QueryRowContext(t.Context(),
		`SELECT transaction_id FROM transactions WHERE user_id = 11`).Scan(&ref)
	if err != nil || ref != "bet:"+w.ID {
		t.Fatalf("debit reference = %q, %v", ref, err)
	}
}

// The next period is opened ahead of the boundary while the current one is
// still open. At the boundary instant wagers land in the next period.
func TestPlace_BoundaryBeforeHandoff(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedUser(t, db, 12, 10_000)
	cur := openPeriod(t, db, midWindow)
	next := openPeriod(t, db, cur.EndAt)

	svc := newService(db, cur.EndAt)

	rec, err := svc.Place(t.Context(), Request{
		UserID:   12,
		Game:     game.Wingo,
		Duration: time.Minute,
		Category: game.Cat(game.KindSize, "small"),
		Stake:    1000,
	})
	if err != nil {
		t.Fatalf("Place at boundary: %v", err)
	}

	if rec.Wager.PeriodID != next.ID {
		t.Fatalf("period = %s, want %s", rec.Wager.PeriodID, next.ID)
	}

	_, err = svc.Place(t.Context(), Request{
		UserID:   12,
		Game:     game.Wingo,
		Duration: time.Minute,
		PeriodID: cur.ID,
		Category: game.Cat(game.KindSize, "small"),
		Stake:    1000,
	})
	if !errors.Is(err, ErrPeriodNotOpen) {
		t.Fatalf("err = %v, want ErrPeriodNotOpen for the ended window", err)
	}
}
