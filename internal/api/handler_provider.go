package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/transactions"
	"github.com/fastprodman/drawengine/internal/services/balance"
	"github.com/fastprodman/drawengine/internal/services/placement"
	"github.com/fastprodman/drawengine/internal/verify"
)

const maxBody = 1 << 20

type Wallet interface {
	GetBalance(ctx context.Context, userID uint64) (int64, error)
	ProcessTransaction(ctx context.Context, t balance.Transaction) (balance.Snapshot, error)
	History(ctx context.Context, userID uint64, limit int) ([]transactions.Entry, error)
}

type Placer interface {
	Place(ctx context.Context, req placement.Request) (placement.Receipt, error)
}

type Results interface {
	Current(ctx context.Context, key period.Key) (period.Period, error)
	Last(ctx context.Context, key period.Key) (draw.Record, error)
	History(ctx context.Context, key period.Key, before string, limit int) ([]draw.Record, error)
	Verify(ctx context.Context, periodID string) (verify.Verification, error)
}

type Overrider interface {
	Override(ctx context.Context, periodID string, outcomeID int, actor, reason string) (draw.Override, error)
}

// Services are the operations exposed over HTTP.
type Services struct {
	Wallet    Wallet
	Placer    Placer
	Results   Results
	Overrider Overrider
}

// HandlerProvider exposes Services as HTTP handlers.
type HandlerProvider struct {
	svc Services
}

func NewHandler(svc Services) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeBody reads a size capped JSON body and rejects unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return errors.New("empty body")
	}

	if err != nil {
		return errors.New("invalid JSON")
	}

	return nil
}

func parseUserID(raw string) (uint64, error) {
	if raw == "" {
		return 0, errors.New("missing userId")
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid userId: %w", err)
	}

	if id == 0 {
		return 0, errors.New("invalid userId: must be positive")
	}

	return id, nil
}

// parseLane reads {game} and {duration} (seconds) from the route.
func parseLane(r *http.Request) (period.Key, error) {
	g, err := game.ParseType(chi.URLParam(r, "game"))
	if err != nil {
		return period.Key{}, err
	}

	secs, err := strconv.Atoi(chi.URLParam(r, "duration"))
	if err != nil || secs <= 0 {
		return period.Key{}, fmt.Errorf("%w: %q", period.ErrInvalidDuration, chi.URLParam(r, "duration"))
	}

	return period.Key{Game: g, Duration: time.Duration(secs) * time.Second}, nil
}

// parseAmountCents converts a decimal string with up to 2 fractional digits into cents.
func parseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("amount required")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.New("invalid amount")
	}

	if !d.Equal(d.Truncate(2)) {
		return 0, errors.New("amount supports up to 2 decimals")
	}

	cents := d.Shift(2)
	if !cents.IsPositive() {
		return 0, errors.New("amount must be > 0")
	}

	if cents.GreaterThan(decimal.NewFromInt(1 << 53)) {
		return 0, errors.New("amount too large")
	}

	return cents.IntPart(), nil
}

func formatCents(c int64) string {
	return decimal.New(c, -2).StringFixed(2)
}
