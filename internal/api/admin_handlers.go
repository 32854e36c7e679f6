package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/drawengine/internal/game"
	"github.com/fastprodman/drawengine/internal/services/settlement"
	"github.com/fastprodman/drawengine/internal/verify"
)

type overrideRequest struct {
	OutcomeID *int   `json:"outcomeId"`
	Actor     string `json:"actor"`
	Reason    string `json:"reason"`
}

// VerificationHandler handles GET /periods/{periodId}/verification
func (h *HandlerProvider) VerificationHandler(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Results.Verify(r.Context(), chi.URLParam(r, "periodId"))
	if err != nil {
		if errors.Is(err, verify.ErrNotVerifiable) {
			writeError(w, http.StatusUnprocessableEntity, "period has no external proof")
			return
		}

		h.writeReadError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, toVerification(v))
}

// OverrideHandler handles POST /admin/periods/{periodId}/override
func (h *HandlerProvider) OverrideHandler(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.OutcomeID == nil {
		writeError(w, http.StatusBadRequest, "outcomeId required")
		return
	}

	o, err := h.svc.Overrider.Override(r.Context(), chi.URLParam(r, "periodId"), *req.OutcomeID, req.Actor, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, settlement.ErrOverrideConflict), errors.Is(err, settlement.ErrPeriodCompleted):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, settlement.ErrOverrideNotAllowed), errors.Is(err, game.ErrUnknownOutcome):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.writeReadError(w, r, err)
		}

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"periodId":  o.PeriodID,
		"outcomeId": o.OutcomeID,
		"actor":     o.Actor,
		"reason":    o.Reason,
		"createdAt": o.CreatedAt,
	})
}
