package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"gorm.io/gorm"
)

type appealRepository struct {
	db *gorm.DB
}

func (r *appealRepository) GetPenalty(ctx context.Context, penaltyID uuid.UUID) (domain.UserPenalty, error) {
	var rec userPenaltyModel
	if err := r.db.WithContext(ctx).Where("penalty_id = ?", penaltyID).Take(&rec).Error; err != nil {
		return domain.UserPenalty{}, translateNotFound(err)
	}
	return toDomainUserPenalty(rec), nil
}

func (r *appealRepository) Create(ctx context.Context, appeal domain.PenaltyAppeal) error {
	rec := toPenaltyAppealModel(appeal)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *appealRepository) GetByID(ctx context.Context, appealID uuid.UUID) (domain.PenaltyAppeal, error) {
	var rec penaltyAppealModel
	if err := r.db.WithContext(ctx).Where("appeal_id = ?", appealID).Take(&rec).Error; err != nil {
		return domain.PenaltyAppeal{}, translateNotFound(err)
	}
	return toDomainPenaltyAppeal(rec), nil
}

func (r *appealRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, limit int) ([]domain.PenaltyAppeal, error) {
	var rows []penaltyAppealModel
	if err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PenaltyAppeal, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainPenaltyAppeal(row))
	}
	return out, nil
}

func (r *appealRepository) HasOpenAppeal(ctx context.Context, penaltyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&penaltyAppealModel{}).
		Where("penalty_id = ? AND status IN ?", penaltyID,
			[]string{string(domain.AppealStatusPending), string(domain.AppealStatusUnderReview)}).
		Count(&count).Error
	return count > 0, err
}

// ApplyDecision only restores points when this decision is the one that
// deactivates the penalty.
func (r *appealRepository) ApplyDecision(ctx context.Context, write ports.AppealDecisionWrite) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appeal := write.Appeal
		res := tx.Model(&penaltyAppealModel{}).
			Where("appeal_id = ? AND status = ?", appeal.AppealID, string(write.PreviousStatus)).
			Updates(map[string]any{
				"status":         string(appeal.Status),
				"admin_response": appeal.AdminResponse,
				"reviewed_by":    appeal.ReviewedBy,
				"reviewed_at":    appeal.ReviewedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if write.DeactivatePenalty {
			res = tx.Model(&userPenaltyModel{}).
				Where("penalty_id = ? AND is_active = ?", appeal.PenaltyID, true).
				Update("is_active", false)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 && write.RestorePoints > 0 {
				if err := tx.Model(&professionalModel{}).
					Where("professional_id = ?", appeal.ProfessionalID).
					Update("total_points", gorm.Expr("total_points + ?", write.RestorePoints)).Error; err != nil {
					return err
				}
			}
		}
		return (&outboxRepository{db: tx}).Enqueue(ctx, write.Event)
	})
}

var _ ports.AppealRepository = (*appealRepository)(nil)
