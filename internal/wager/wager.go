// Package wager holds the wager entity and the money arithmetic applied to it
// at placement and settlement.
package wager

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/drawengine/internal/game"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// CreditStatus tracks the wallet credit of a winning wager separately from
// its settlement, so a failed credit can be retried on its own.
type CreditStatus string

const (
	CreditNone     CreditStatus = "none"
	CreditPending  CreditStatus = "pending"
	CreditCredited CreditStatus = "credited"
)

// Wager is one player's bet within a period. Amounts are minor units.
type Wager struct {
	ID             string
	PeriodID       string
	UserID         uint64
	Category       game.Category
	Stake          int64
	Odds           decimal.Decimal
	Tax            int64
	AmountAfterTax int64
	Status         Status
	WinAmount      int64
	Payout         int64
	CreditStatus   CreditStatus
	BalanceBefore  *int64
	BalanceAfter   *int64
	PlacedAt       time.Time
	SettledAt      *time.Time
}

// CreditReference is the wallet reference of a wager's winning credit. It is
// unique per wager so a retried credit is applied at most once.
func (w Wager) CreditReference() string {
	return "win:" + w.ID
}

// DebitReference is the wallet reference of the stake debit.
func (w Wager) DebitReference() string {
	return "bet:" + w.ID
}

// Liability is stake × odds, the exposure the wager adds to every outcome it wins on.
func (w Wager) Liability() int64 {
	return roundMinor(decimal.NewFromInt(w.Stake).Mul(w.Odds))
}
