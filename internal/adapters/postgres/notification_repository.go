package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) Create(ctx context.Context, n domain.Notification) error {
	rec := toNotificationModel(n)
	return r.db.WithContext(ctx).Create(&rec).Error
}

type roleRepository struct {
	db *gorm.DB
}

func (r *roleRepository) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userRoleModel{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}

var (
	_ ports.NotificationRepository = (*notificationRepository)(nil)
	_ ports.RoleRepository         = (*roleRepository)(nil)
)
