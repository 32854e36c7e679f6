// Package draw holds what a settled period leaves behind: the settlement
// record, the external proof bundle of verifiable draws and audited overrides.
package draw

import (
	"time"

	"github.com/fastprodman/drawengine/internal/game"
)

// Method records how a period's outcome was chosen.
type Method string

const (
	MethodMinExposure Method = "min_exposure"
	MethodNoWagers    Method = "no_wagers"
	MethodVerified    Method = "verified"
	MethodOverride    Method = "override"
)

// Proof binds a period to a finalized external ledger reference. The outcome
// is always recomputed from Hash; nothing else is needed to verify it.
type Proof struct {
	PeriodID         string
	Hash             string
	VerificationLink string
	BlockHeight      *int64
	BlockTime        time.Time
	FetchedAt        time.Time
}

// Record is the one-per-period settlement result. TotalWinAmount is the sum
// of stake × odds over won wagers; TotalPayout is what was actually credited,
// the after-tax amount × odds.
type Record struct {
	PeriodID       string
	Game           game.Type
	Duration       time.Duration
	Outcome        game.Outcome
	Method         Method
	Exposure       int64
	MaxExposure    int64
	WagerCount     int
	WinnerCount    int
	TotalStake     int64
	TotalWinAmount int64
	TotalPayout    int64
	Proof          *Proof
	SettledAt      time.Time
}

// Override is an administrative forced outcome. It is stored once per period
// and never rewritten.
type Override struct {
	PeriodID  string
	OutcomeID int
	Actor     string
	Reason    string
	CreatedAt time.Time
}
