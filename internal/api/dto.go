package api

import (
	"time"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/transactions"
	"github.com/fastprodman/drawengine/internal/services/placement"
	"github.com/fastprodman/drawengine/internal/verify"
)

type outcomeDTO struct {
	ID     int      `json:"id"`
	Key    string   `json:"key"`
	Digits []int    `json:"digits"`
	Sum    int      `json:"sum"`
	Tags   []string `json:"tags"`
}

type proofDTO struct {
	Hash             string    `json:"hash"`
	VerificationLink string    `json:"verificationLink"`
	BlockHeight      *int64    `json:"blockHeight"`
	BlockTime        time.Time `json:"blockTime"`
}

type recordDTO struct {
	PeriodID        string     `json:"periodId"`
	Game            game.Type  `json:"game"`
	DurationSeconds int        `json:"durationSeconds"`
	Outcome         outcomeDTO `json:"outcome"`
	Method          string     `json:"method"`
	Proof           *proofDTO  `json:"proof,omitempty"`
	SettledAt       time.Time  `json:"settledAt"`
}

type periodDTO struct {
	PeriodID        string    `json:"periodId"`
	Game            game.Type `json:"game"`
	DurationSeconds int       `json:"durationSeconds"`
	Sequence        int       `json:"sequence"`
	State           string    `json:"state"`
	StartAt         time.Time `json:"startAt"`
	EndAt           time.Time `json:"endAt"`
}

type wagerDTO struct {
	WagerID        string    `json:"wagerId"`
	PeriodID       string    `json:"periodId"`
	UserID         uint64    `json:"userId"`
	Category       string    `json:"category"`
	Stake          string    `json:"stake"`
	Odds           string    `json:"odds"`
	Tax            string    `json:"tax"`
	AmountAfterTax string    `json:"amountAfterTax"`
	Status         string    `json:"status"`
	PlacedAt       time.Time `json:"placedAt"`
	BalanceBefore  string    `json:"balanceBefore"`
	BalanceAfter   string    `json:"balanceAfter"`
}

type verificationDTO struct {
	PeriodID string     `json:"periodId"`
	Proof    proofDTO   `json:"proof"`
	Recorded outcomeDTO `json:"recorded"`
	Derived  outcomeDTO `json:"derived"`
	Match    bool       `json:"match"`
}

func toOutcome(o game.Outcome) outcomeDTO {
	out := outcomeDTO{ID: o.ID, Key: o.Key(), Digits: o.Digits, Sum: o.Sum, Tags: []string{}}

	if v, err := game.Lookup(o.Game); err == nil {
		for _, c := range game.TagsFor(v, o) {
			out.Tags = append(out.Tags, c.String())
		}
	}

	return out
}

func toProof(p draw.Proof) proofDTO {
	return proofDTO{
		Hash:             p.Hash,
		VerificationLink: p.VerificationLink,
		BlockHeight:      p.BlockHeight,
		BlockTime:        p.BlockTime,
	}
}

func toRecord(r draw.Record) recordDTO {
	out := recordDTO{
		PeriodID:        r.PeriodID,
		Game:            r.Game,
		DurationSeconds: int(r.Duration.Seconds()),
		Outcome:         toOutcome(r.Outcome),
		Method:          string(r.Method),
		SettledAt:       r.SettledAt,
	}

	if r.Proof != nil {
		p := toProof(*r.Proof)
		out.Proof = &p
	}

	return out
}

func toPeriod(p period.Period) periodDTO {
	return periodDTO{
		PeriodID:        p.ID,
		Game:            p.Game,
		DurationSeconds: int(p.Duration.Seconds()),
		Sequence:        p.Sequence,
		State:           string(p.State),
		StartAt:         p.StartAt,
		EndAt:           p.EndAt,
	}
}

func toWager(rec placement.Receipt) wagerDTO {
	w := rec.Wager

	return wagerDTO{
		WagerID:        w.ID,
		PeriodID:       w.PeriodID,
		UserID:         w.UserID,
		Category:       w.Category.String(),
		Stake:          formatCents(w.Stake),
		Odds:           w.Odds.String(),
		Tax:            formatCents(w.Tax),
		AmountAfterTax: formatCents(w.AmountAfterTax),
		Status:         string(w.Status),
		PlacedAt:       w.PlacedAt,
		BalanceBefore:  formatCents(rec.Balance.BalanceBefore),
		BalanceAfter:   formatCents(rec.Balance.BalanceAfter),
	}
}

func toVerification(v verify.Verification) verificationDTO {
	return verificationDTO{
		PeriodID: v.PeriodID,
		Proof:    toProof(v.Proof),
		Recorded: toOutcome(v.Recorded),
		Derived:  toOutcome(v.Derived),
		Match:    v.Match,
	}
}

type transactionDTO struct {
	TransactionID string    `json:"transactionId"`
	Kind          string    `json:"kind"`
	Source        string    `json:"source"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balanceBefore"`
	BalanceAfter  string    `json:"balanceAfter"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toTransaction(e transactions.Entry) transactionDTO {
	return transactionDTO{
		TransactionID: e.TransactionID,
		Kind:          string(e.Kind),
		Source:        e.Source,
		Amount:        formatCents(e.Amount),
		BalanceBefore: formatCents(e.BalanceBefore),
		BalanceAfter:  formatCents(e.BalanceAfter),
		CreatedAt:     e.CreatedAt,
	}
}
