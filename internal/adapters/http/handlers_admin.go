package http

import (
	"net/http"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/application"
)

func (h *Handler) updateAppeal(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	appealID, err := pathUUID(r, "appeal_id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_appeal", err)
		return
	}
	var req application.UpdateAppealRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_appeal", err)
		return
	}
	appeal, err := h.service.UpdateAppeal(r.Context(), application.UpdateAppealInput{
		AppealID:      appealID,
		Status:        req.Status,
		AdminResponse: req.AdminResponse,
		ReviewedBy:    actor.UserID,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "update_appeal", err)
		return
	}
	writeSuccess(w, http.StatusOK, appeal)
}

func (h *Handler) openExpulsionReview(w http.ResponseWriter, r *http.Request) {
	var req application.OpenReviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "open_expulsion_review", err)
		return
	}
	review, err := h.service.OpenReview(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "open_expulsion_review", err)
		return
	}
	writeSuccess(w, http.StatusCreated, review)
}

func (h *Handler) getRiskSnapshot(w http.ResponseWriter, r *http.Request) {
	professionalID, err := pathUUID(r, "professional_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_risk_snapshot", err)
		return
	}
	snapshot, err := h.service.GetRiskSnapshot(r.Context(), professionalID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_risk_snapshot", err)
		return
	}
	writeSuccess(w, http.StatusOK, snapshot)
}

func (h *Handler) getRiskHistory(w http.ResponseWriter, r *http.Request) {
	professionalID, err := pathUUID(r, "professional_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_risk_history", err)
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	runs, err := h.service.ListRiskHistory(r.Context(), professionalID, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "get_risk_history", err)
		return
	}
	violations, err := h.service.ListViolations(r.Context(), professionalID, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "get_risk_history", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"professional_id": professionalID,
		"runs":            runs,
		"violations":      violations,
	})
}

func (h *Handler) getCommittee(w http.ResponseWriter, r *http.Request) {
	chapterID, err := pathUUID(r, "chapter_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_committee", err)
		return
	}
	rotation, err := h.service.GetCurrentCommittee(r.Context(), chapterID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_committee", err)
		return
	}
	writeSuccess(w, http.StatusOK, rotation)
}
