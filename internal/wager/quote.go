package wager

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the price of a wager fixed at placement. Later odds or tax changes
// never touch already placed wagers.
type Quote struct {
	Odds           decimal.Decimal
	Tax            int64
	AmountAfterTax int64
}

// NewQuote computes tax = stake × rate, rounded half away from zero to the
// minor unit, and the amount left after it.
func NewQuote(stake int64, odds, taxRate decimal.Decimal) Quote {
	tax := roundMinor(decimal.NewFromInt(stake).Mul(taxRate))

	return Quote{Odds: odds, Tax: tax, AmountAfterTax: stake - tax}
}

// Resolve settles w against the drawn outcome. Winners get
// win amount = stake × odds and payout = amount after tax × odds; losers get zero.
func Resolve(w Wager, won bool, at time.Time) Wager {
	w.SettledAt = &at

	if !won {
		w.Status = StatusLost
		w.WinAmount = 0
		w.Payout = 0
		w.CreditStatus = CreditNone

		return w
	}

	w.Status = StatusWon
	w.WinAmount = w.Liability()
	w.Payout = roundMinor(decimal.NewFromInt(w.AmountAfterTax).Mul(w.Odds))
	w.CreditStatus = CreditPending

	if w.Payout <= 0 {
		w.CreditStatus = CreditNone
	}

	return w
}

func roundMinor(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
