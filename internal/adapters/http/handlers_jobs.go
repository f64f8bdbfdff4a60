package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/application"
)

func (h *Handler) analyzeBehavior(w http.ResponseWriter, r *http.Request) {
	var req application.AnalyzeBehaviorRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "analyze_behavior", err)
		return
	}
	professionalID, err := uuid.Parse(strings.TrimSpace(req.ProfessionalID))
	if err != nil {
		writeValidationError(r.Context(), w, "analyze_behavior", errors.New("professionalId must be a UUID"))
		return
	}
	res, err := h.service.AnalyzeBehavior(r.Context(), professionalID)
	if err != nil {
		writeMappedError(r.Context(), w, "analyze_behavior", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) analyzeBehaviorBatch(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.AnalyzeRecentlyActive(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "analyze_behavior_batch", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"processed": len(report.Items),
		"succeeded": report.Succeeded(),
		"failed":    report.Failed(),
		"report":    report,
	})
}

func (h *Handler) rotateCommittee(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.RotateCommittees(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "rotate_committee", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) processExpulsionVotes(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ProcessExpulsionVotes(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "process_expulsion_votes", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) recordBehaviorEvents(w http.ResponseWriter, r *http.Request) {
	var req application.RecordBehaviorEventsRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "record_behavior_events", err)
		return
	}
	accepted, err := h.service.RecordBehaviorEvents(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "record_behavior_events", err)
		return
	}
	writeSuccess(w, http.StatusAccepted, map[string]any{"accepted": accepted})
}
