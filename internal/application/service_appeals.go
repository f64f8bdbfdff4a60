package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

type appealDecidedEventData struct {
	AppealID       string `json:"appeal_id"`
	PenaltyID      string `json:"penalty_id"`
	ProfessionalID string `json:"professional_id"`
	Status         string `json:"status"`
	ReviewedBy     string `json:"reviewed_by"`
	ReviewedAt     string `json:"reviewed_at"`
	PenaltyLifted  bool   `json:"penalty_lifted"`
	PointsRestored int    `json:"points_restored"`
}

// SubmitAppeal files an appeal on behalf of the authenticated professional.
func (s *Service) SubmitAppeal(ctx context.Context, actor Actor, req CreateAppealRequest) (domain.PenaltyAppeal, error) {
	if actor.UserID == uuid.Nil {
		return domain.PenaltyAppeal{}, domain.ErrUnauthorized
	}
	penaltyID, err := uuid.Parse(strings.TrimSpace(req.PenaltyID))
	if err != nil {
		return domain.PenaltyAppeal{}, fmt.Errorf("%w: invalid penalty_id", domain.ErrInvalidInput)
	}
	professional, err := s.professionals.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if isNotFound(err) {
			return domain.PenaltyAppeal{}, domain.ErrForbidden
		}
		return domain.PenaltyAppeal{}, err
	}
	return s.CreateAppeal(ctx, CreateAppealInput{
		PenaltyID:         penaltyID,
		ProfessionalID:    professional.ProfessionalID,
		Reason:            req.Reason,
		AdditionalContext: req.AdditionalContext,
	})
}

// CreateAppeal inserts a pending appeal. Several open appeals against one
// penalty are allowed.
func (s *Service) CreateAppeal(ctx context.Context, input CreateAppealInput) (domain.PenaltyAppeal, error) {
	if input.PenaltyID == uuid.Nil || input.ProfessionalID == uuid.Nil {
		return domain.PenaltyAppeal{}, fmt.Errorf("%w: penalty and professional are required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateAppealReason(input.Reason); err != nil {
		return domain.PenaltyAppeal{}, err
	}
	penalty, err := s.appeals.GetPenalty(ctx, input.PenaltyID)
	if err != nil {
		return domain.PenaltyAppeal{}, err
	}
	if penalty.ProfessionalID != input.ProfessionalID {
		return domain.PenaltyAppeal{}, domain.ErrForbidden
	}

	appeal := domain.PenaltyAppeal{
		AppealID:          uuid.New(),
		PenaltyID:         input.PenaltyID,
		ProfessionalID:    input.ProfessionalID,
		AppealReason:      strings.TrimSpace(input.Reason),
		AdditionalContext: strings.TrimSpace(input.AdditionalContext),
		Status:            domain.AppealStatusPending,
		CreatedAt:         s.nowFn(),
	}
	if err := s.appeals.Create(ctx, appeal); err != nil {
		return domain.PenaltyAppeal{}, fmt.Errorf("create appeal: %w", err)
	}
	return appeal, nil
}

// UpdateAppeal records a reviewer decision. Approval lifts the linked penalty
// in the same transaction.
func (s *Service) UpdateAppeal(ctx context.Context, input UpdateAppealInput) (domain.PenaltyAppeal, error) {
	if input.AppealID == uuid.Nil {
		return domain.PenaltyAppeal{}, fmt.Errorf("%w: appeal_id is required", domain.ErrInvalidInput)
	}
	if input.ReviewedBy == uuid.Nil {
		return domain.PenaltyAppeal{}, domain.ErrUnauthorized
	}
	status, err := domain.ParseAppealDecision(input.Status)
	if err != nil {
		return domain.PenaltyAppeal{}, err
	}
	current, err := s.appeals.GetByID(ctx, input.AppealID)
	if err != nil {
		return domain.PenaltyAppeal{}, err
	}
	now := s.nowFn()
	decided, err := current.Decide(status, input.AdminResponse, input.ReviewedBy, now)
	if err != nil {
		return domain.PenaltyAppeal{}, err
	}

	write := ports.AppealDecisionWrite{Appeal: decided, PreviousStatus: current.Status}
	if status == domain.AppealStatusApproved {
		write.DeactivatePenalty = true
		if s.cfg.RestorePointsOnApproval {
			penalty, penaltyErr := s.appeals.GetPenalty(ctx, decided.PenaltyID)
			if penaltyErr != nil {
				return domain.PenaltyAppeal{}, penaltyErr
			}
			if penalty.IsActive {
				write.RestorePoints = penalty.PointsDeducted
			}
		}
	}
	write.Event = s.newOutboxEvent(domain.EventAppealDecided, domain.CanonicalEventClassDomain,
		decided.ProfessionalID.String(), "data.professional_id",
		appealDecidedEventData{
			AppealID:       decided.AppealID.String(),
			PenaltyID:      decided.PenaltyID.String(),
			ProfessionalID: decided.ProfessionalID.String(),
			Status:         string(decided.Status),
			ReviewedBy:     input.ReviewedBy.String(),
			ReviewedAt:     now.Format(time.RFC3339),
			PenaltyLifted:  write.DeactivatePenalty,
			PointsRestored: write.RestorePoints,
		},
	)
	if err := s.appeals.ApplyDecision(ctx, write); err != nil {
		return domain.PenaltyAppeal{}, err
	}

	s.logger().InfoContext(ctx, "appeal decided",
		"operation", "update_appeal",
		"outcome", "success",
		"appeal_id", decided.AppealID.String(),
		"status", string(decided.Status),
		"penalty_lifted", write.DeactivatePenalty,
	)
	return decided, nil
}

func (s *Service) ListAppeals(ctx context.Context, actor Actor, limit int) ([]domain.PenaltyAppeal, error) {
	if actor.UserID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	professional, err := s.professionals.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if isNotFound(err) {
			return []domain.PenaltyAppeal{}, nil
		}
		return nil, err
	}
	return s.appeals.ListByProfessional(ctx, professional.ProfessionalID, clampLimit(limit))
}

// HasOpenAppeal backs the client-side check done before showing the appeal form.
func (s *Service) HasOpenAppeal(ctx context.Context, penaltyID uuid.UUID) (bool, error) {
	if penaltyID == uuid.Nil {
		return false, fmt.Errorf("%w: penalty_id is required", domain.ErrInvalidInput)
	}
	return s.appeals.HasOpenAppeal(ctx, penaltyID)
}
