package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/drawengine/internal/repos/transactions"
	"github.com/fastprodman/drawengine/internal/repos/users"
	"github.com/fastprodman/drawengine/internal/services/balance"
)

type txRequest struct {
	State         string `json:"state"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transactionId"`
}

func parseSourceType(h http.Header) (balance.SourceType, error) {
	raw := strings.ToLower(strings.TrimSpace(h.Get("Source-Type")))
	switch raw {
	case "game":
		return balance.SourceGame, nil
	case "server":
		return balance.SourceServer, nil
	case "payment":
		return balance.SourcePayment, nil
	default:
		return "", errors.New("invalid Source-Type")
	}
}

func parseTxState(s string) (balance.TxState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win":
		return balance.TxWin, nil
	case "lose":
		return balance.TxLose, nil
	default:
		return "", errors.New("invalid state")
	}
}

// GetBalanceHandler handles GET /user/{userId}/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	bal, err := h.svc.Wallet.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}

		internalError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"balance": formatCents(bal),
	})
}

// ProcessTransactionHandler handles POST /user/{userId}/transaction
func (h *HandlerProvider) ProcessTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	source, err := parseSourceType(r.Header)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid Source-Type header")
		return
	}

	var req txRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := parseTxState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}

	amountCents, err := parseAmountCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.TransactionID == "" {
		writeError(w, http.StatusBadRequest, "transactionId required")
		return
	}

	snap, err := h.svc.Wallet.ProcessTransaction(r.Context(), balance.Transaction{
		TransactionID: req.TransactionID,
		UserID:        userID,
		Source:        source,
		State:         state,
		AmountMinor:   amountCents,
	})
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrDuplicateTransaction):
			writeError(w, http.StatusConflict, "duplicate transaction")
		case errors.Is(err, users.ErrInsufficientFunds):
			writeError(w, http.StatusConflict, "insufficient funds")
		case errors.Is(err, users.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			internalError(w, r, fmt.Errorf("process transaction: %w", err))
		}

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"transactionId": snap.TransactionID,
		"balanceBefore": formatCents(snap.BalanceBefore),
		"balanceAfter":  formatCents(snap.BalanceAfter),
	})
}

// TransactionHistoryHandler handles GET /user/{userId}/transactions?limit=
func (h *HandlerProvider) TransactionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	entries, err := h.svc.Wallet.History(r.Context(), userID, limit)
	if err != nil {
		internalError(w, r, err)
		return
	}

	items := make([]transactionDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, toTransaction(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "items": items})
}
