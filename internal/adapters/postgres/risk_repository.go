package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type riskRepository struct {
	db *gorm.DB
}

func (r *riskRepository) SaveScoringRun(ctx context.Context, write ports.RiskScoringWrite) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := toRiskScoreRunModel(write.Run)
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		snapshot := riskSnapshotModel{
			ProfessionalID:        run.ProfessionalID,
			LastRunID:             run.RunID,
			OverallScore:          run.OverallScore,
			RiskFactors:           run.RiskFactors,
			LastUpdated:           run.ComputedAt,
			AlertThresholdReached: run.AlertThresholdReached,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "professional_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_run_id", "overall_score", "risk_factors", "last_updated", "alert_threshold_reached"}),
		}).Create(&snapshot).Error; err != nil {
			return err
		}
		if write.Violation != nil {
			violation := toModerationViolationModel(*write.Violation)
			if err := tx.Create(&violation).Error; err != nil {
				return err
			}
		}
		outbox := &outboxRepository{db: tx}
		for _, event := range write.Events {
			if err := outbox.Enqueue(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *riskRepository) GetSnapshot(ctx context.Context, professionalID uuid.UUID) (domain.RiskSnapshot, error) {
	var rec riskSnapshotModel
	if err := r.db.WithContext(ctx).Where("professional_id = ?", professionalID).Take(&rec).Error; err != nil {
		return domain.RiskSnapshot{}, translateNotFound(err)
	}
	return toDomainRiskSnapshot(rec), nil
}

func (r *riskRepository) ListRuns(ctx context.Context, professionalID uuid.UUID, limit int) ([]domain.RiskScoreRun, error) {
	var rows []riskScoreRunModel
	if err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("computed_at desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RiskScoreRun, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainRiskScoreRun(row))
	}
	return out, nil
}

func (r *riskRepository) ListViolations(ctx context.Context, professionalID uuid.UUID, limit int) ([]domain.ModerationViolation, error) {
	var rows []moderationViolationModel
	if err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ModerationViolation, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainModerationViolation(row))
	}
	return out, nil
}

var _ ports.RiskRepository = (*riskRepository)(nil)
