package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxAppealReasonLength = 2000

type AppealStatus string

const (
	AppealStatusPending     AppealStatus = "pending"
	AppealStatusUnderReview AppealStatus = "under_review"
	AppealStatusApproved    AppealStatus = "approved"
	AppealStatusRejected    AppealStatus = "rejected"
)

func (s AppealStatus) IsTerminal() bool {
	return s == AppealStatusApproved || s == AppealStatusRejected
}

// ParseAppealDecision accepts the statuses a reviewer may set.
func ParseAppealDecision(raw string) (AppealStatus, error) {
	switch s := AppealStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case AppealStatusUnderReview, AppealStatusApproved, AppealStatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unsupported appeal status %q", ErrInvalidInput, raw)
	}
}

type UserPenalty struct {
	PenaltyID        uuid.UUID  `json:"penalty_id"`
	ProfessionalID   uuid.UUID  `json:"professional_id"`
	PenaltyType      string     `json:"penalty_type"`
	Severity         Severity   `json:"severity"`
	Reason           string     `json:"reason"`
	PointsDeducted   int        `json:"points_deducted"`
	RestrictionUntil *time.Time `json:"restriction_until,omitempty"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
}

type PenaltyAppeal struct {
	AppealID          uuid.UUID    `json:"appeal_id"`
	PenaltyID         uuid.UUID    `json:"penalty_id"`
	ProfessionalID    uuid.UUID    `json:"professional_id"`
	AppealReason      string       `json:"appeal_reason"`
	AdditionalContext string       `json:"additional_context,omitempty"`
	Status            AppealStatus `json:"status"`
	AdminResponse     string       `json:"admin_response,omitempty"`
	ReviewedBy        *uuid.UUID   `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

func ValidateAppealReason(reason string) error {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return fmt.Errorf("%w: appeal reason is required", ErrInvalidInput)
	}
	if len(trimmed) > MaxAppealReasonLength {
		return fmt.Errorf("%w: appeal reason exceeds %d characters", ErrInvalidInput, MaxAppealReasonLength)
	}
	return nil
}

// Decide records a reviewer decision. Approved and rejected appeals are closed.
func (a PenaltyAppeal) Decide(status AppealStatus, response string, reviewer uuid.UUID, now time.Time) (PenaltyAppeal, error) {
	if a.Status.IsTerminal() {
		return a, fmt.Errorf("%w: appeal %s already %s", ErrInvalidTransition, a.AppealID, a.Status)
	}
	a.Status = status
	a.AdminResponse = strings.TrimSpace(response)
	r := reviewer
	a.ReviewedBy = &r
	at := now
	a.ReviewedAt = &at
	return a, nil
}
