package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/period"
	"github.com/fastprodman/drawengine/internal/repos/users"
	"github.com/fastprodman/drawengine/internal/services/balance"
	"github.com/fastprodman/drawengine/internal/services/placement"
	"github.com/fastprodman/drawengine/internal/services/results"
)

type wagerRequest struct {
	Category string `json:"category"`
	Stake    string `json:"stake"`
	PeriodID string `json:"periodId"`
}

// PlaceWagerHandler handles POST /games/{game}/{duration}/wagers
func (h *HandlerProvider) PlaceWagerHandler(w http.ResponseWriter, r *http.Request) {
	key, err := parseLane(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	userID, err := parseUserID(r.Header.Get("X-User-Id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid X-User-Id header")
		return
	}

	var req wagerRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := game.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stake, err := parseAmountCents(req.Stake)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.svc.Placer.Place(r.Context(), placement.Request{
		UserID:   userID,
		Game:     key.Game,
		Duration: key.Duration,
		PeriodID: req.PeriodID,
		Category: cat,
		Stake:    stake,
	})
	if err != nil {
		switch {
		case errors.Is(err, game.ErrUnknownGame), errors.Is(err, period.ErrInvalidDuration):
			writeError(w, http.StatusNotFound, "unknown game lane")
		case errors.Is(err, game.ErrInvalidCategory):
			writeError(w, http.StatusBadRequest, "invalid category for game")
		case errors.Is(err, placement.ErrStakeOutOfBounds):
			writeError(w, http.StatusBadRequest, "stake out of bounds")
		case errors.Is(err, placement.ErrPeriodNotOpen):
			writeError(w, http.StatusConflict, "period not open")
		case errors.Is(err, balance.ErrInsufficientFunds):
			writeError(w, http.StatusConflict, "insufficient funds")
		case errors.Is(err, users.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			internalError(w, r, err)
		}

		return
	}

	writeJSON(w, http.StatusCreated, toWager(rec))
}

// CurrentPeriodHandler handles GET /games/{game}/{duration}/periods/current
func (h *HandlerProvider) CurrentPeriodHandler(w http.ResponseWriter, r *http.Request) {
	key, err := parseLane(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	p, err := h.svc.Results.Current(r.Context(), key)
	if err != nil {
		h.writeReadError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriod(p))
}

// LastResultHandler handles GET /games/{game}/{duration}/results/last
func (h *HandlerProvider) LastResultHandler(w http.ResponseWriter, r *http.Request) {
	key, err := parseLane(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	rec, err := h.svc.Results.Last(r.Context(), key)
	if err != nil {
		h.writeReadError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecord(rec))
}

// HistoryHandler handles GET /games/{game}/{duration}/results?before=&limit=
func (h *HandlerProvider) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	key, err := parseLane(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	recs, err := h.svc.Results.History(r.Context(), key, q.Get("before"), limit)
	if err != nil {
		h.writeReadError(w, r, err)
		return
	}

	items := make([]recordDTO, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toRecord(rec))
	}

	resp := map[string]any{"items": items}
	if len(recs) > 0 {
		resp["next"] = recs[len(recs)-1].PeriodID
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HandlerProvider) writeReadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownGame), errors.Is(err, period.ErrInvalidDuration):
		writeError(w, http.StatusNotFound, "unknown game lane")
	case results.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	default:
		internalError(w, r, err)
	}
}
