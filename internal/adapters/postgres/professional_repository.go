package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"gorm.io/gorm"
)

type professionalRepository struct {
	db *gorm.DB
}

func (r *professionalRepository) GetByID(ctx context.Context, professionalID uuid.UUID) (domain.Professional, error) {
	return r.get(ctx, "professional_id = ?", professionalID)
}

func (r *professionalRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Professional, error) {
	return r.get(ctx, "user_id = ?", userID)
}

func (r *professionalRepository) get(ctx context.Context, cond string, id uuid.UUID) (domain.Professional, error) {
	var rec professionalModel
	if err := r.db.WithContext(ctx).Where(cond, id).Take(&rec).Error; err != nil {
		return domain.Professional{}, translateNotFound(err)
	}
	return toDomainProfessional(rec), nil
}

var _ ports.ProfessionalRepository = (*professionalRepository)(nil)
