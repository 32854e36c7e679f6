package balance

import (
	"github.com/fastprodman/drawengine/internal/repos/transactions"
	"github.com/fastprodman/drawengine/internal/repos/users"
)

type SourceType string

const (
	SourceGame    SourceType = "game"
	SourceServer  SourceType = "server"
	SourcePayment SourceType = "payment"
)

type TxState string

const (
	TxWin  TxState = "win"
	TxLose TxState = "lose"
)

// Transaction is one wallet mutation request. TransactionID is the
// idempotency reference: bet:<wager> and win:<wager> for the engine's own
// debits and credits.
type Transaction struct {
	TransactionID string
	UserID        uint64
	Source        SourceType
	State         TxState
	AmountMinor   int64 // cents
}

// Snapshot is the balance around an applied transaction. For a duplicate
// reference it describes the original application.
type Snapshot struct {
	TransactionID string
	UserID        uint64
	BalanceBefore int64
	BalanceAfter  int64
}

var (
	ErrDuplicateTransaction = transactions.ErrDuplicateTransaction
	ErrInsufficientFunds    = users.ErrInsufficientFunds
)
