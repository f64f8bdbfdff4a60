package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type behaviorEventRepository struct {
	db *gorm.DB
}

// Append ignores events whose id is already stored so replays are harmless.
func (r *behaviorEventRepository) Append(ctx context.Context, events []domain.BehaviorEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]behaviorEventModel, 0, len(events))
	for _, event := range events {
		rows = append(rows, toBehaviorEventModel(event))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&rows).Error
}

func (r *behaviorEventRepository) ListSince(ctx context.Context, professionalID uuid.UUID, since time.Time) ([]domain.BehaviorEvent, error) {
	var rows []behaviorEventModel
	if err := r.db.WithContext(ctx).
		Where("professional_id = ? AND occurred_at >= ?", professionalID, since.UTC()).
		Order("occurred_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.BehaviorEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainBehaviorEvent(row))
	}
	return out, nil
}

func (r *behaviorEventRepository) ListActiveProfessionals(ctx context.Context, since time.Time, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&behaviorEventModel{}).
		Distinct().
		Where("occurred_at >= ? AND professional_id > ?", since.UTC(), afterID).
		Order("professional_id asc").
		Limit(limit).
		Pluck("professional_id", &ids).Error
	return ids, err
}

var _ ports.BehaviorEventRepository = (*behaviorEventRepository)(nil)
