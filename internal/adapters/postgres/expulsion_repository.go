package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"gorm.io/gorm"
)

type expulsionRepository struct {
	db *gorm.DB
}

func (r *expulsionRepository) CreateReview(ctx context.Context, review domain.ExpulsionReview) error {
	rec := toExpulsionReviewModel(review)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *expulsionRepository) GetReview(ctx context.Context, reviewID uuid.UUID) (domain.ExpulsionReview, error) {
	var rec expulsionReviewModel
	if err := r.db.WithContext(ctx).Where("review_id = ?", reviewID).Take(&rec).Error; err != nil {
		return domain.ExpulsionReview{}, translateNotFound(err)
	}
	return toDomainExpulsionReview(rec), nil
}

func (r *expulsionRepository) ListExpired(ctx context.Context, now time.Time, afterID uuid.UUID, limit int) ([]domain.ExpulsionReview, error) {
	return r.listPending(ctx, "auto_expire_at < ?", now.UTC(), afterID, limit)
}

func (r *expulsionRepository) ListPendingCreatedBefore(ctx context.Context, before time.Time, afterID uuid.UUID, limit int) ([]domain.ExpulsionReview, error) {
	return r.listPending(ctx, "created_at < ?", before.UTC(), afterID, limit)
}

func (r *expulsionRepository) listPending(ctx context.Context, cond string, at time.Time, afterID uuid.UUID, limit int) ([]domain.ExpulsionReview, error) {
	var rows []expulsionReviewModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND review_id > ?", string(domain.ReviewStatusPending), afterID).
		Where(cond, at).
		Order("review_id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ExpulsionReview, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainExpulsionReview(row))
	}
	return out, nil
}

func (r *expulsionRepository) ListVotes(ctx context.Context, reviewID uuid.UUID) ([]domain.ExpulsionVote, error) {
	var rows []expulsionVoteModel
	if err := r.db.WithContext(ctx).Where("review_id = ?", reviewID).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ExpulsionVote, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainExpulsionVote(row))
	}
	return out, nil
}

func (r *expulsionRepository) ApplyAutoExpiry(ctx context.Context, write ports.AutoExpiryWrite) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		professional := write.Professional
		updatedAt := time.Now().UTC()
		if professional.LastExpulsionAt != nil {
			updatedAt = professional.LastExpulsionAt.UTC()
		}
		res := tx.Model(&professionalModel{}).
			Where("professional_id = ? AND expulsion_count = ?", professional.ProfessionalID, write.PreviousExpulsionCount).
			Updates(map[string]any{
				"status":            string(professional.Status),
				"expulsion_count":   professional.ExpulsionCount,
				"last_expulsion_at": professional.LastExpulsionAt,
				"updated_at":        updatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		res = tx.Model(&expulsionReviewModel{}).
			Where("review_id = ? AND status = ?", write.Review.ReviewID, string(domain.ReviewStatusPending)).
			Updates(map[string]any{
				"status":     string(write.Review.Status),
				"decided_at": write.Review.DecidedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		notification := toNotificationModel(write.Notification)
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}
		return (&outboxRepository{db: tx}).Enqueue(ctx, write.Event)
	})
}

var _ ports.ExpulsionRepository = (*expulsionRepository)(nil)
