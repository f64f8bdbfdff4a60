package http

import (
	"net/http"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/application"
)

func (h *Handler) submitAppeal(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	var req application.CreateAppealRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "submit_appeal", err)
		return
	}
	appeal, err := h.service.SubmitAppeal(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "submit_appeal", err)
		return
	}
	writeSuccess(w, http.StatusCreated, appeal)
}

func (h *Handler) listAppeals(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	appeals, err := h.service.ListAppeals(r.Context(), actor, parseIntDefault(r.URL.Query().Get("limit"), 20))
	if err != nil {
		writeMappedError(r.Context(), w, "list_appeals", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"appeals": appeals})
}

func (h *Handler) hasOpenAppeal(w http.ResponseWriter, r *http.Request) {
	penaltyID, err := pathUUID(r, "penalty_id")
	if err != nil {
		writeValidationError(r.Context(), w, "has_open_appeal", err)
		return
	}
	open, err := h.service.HasOpenAppeal(r.Context(), penaltyID)
	if err != nil {
		writeMappedError(r.Context(), w, "has_open_appeal", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"penalty_id": penaltyID, "has_open_appeal": open})
}
