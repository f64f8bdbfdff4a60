package postgres

import (
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Events        ports.BehaviorEventRepository
	Risk          ports.RiskRepository
	Committees    ports.CommitteeRepository
	Expulsions    ports.ExpulsionRepository
	Professionals ports.ProfessionalRepository
	Appeals       ports.AppealRepository
	Notifications ports.NotificationRepository
	Roles         ports.RoleRepository
	Outbox        ports.OutboxRepository
	EventDedup    ports.EventDedupRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Events:        &behaviorEventRepository{db: db},
		Risk:          &riskRepository{db: db},
		Committees:    &committeeRepository{db: db},
		Expulsions:    &expulsionRepository{db: db},
		Professionals: &professionalRepository{db: db},
		Appeals:       &appealRepository{db: db},
		Notifications: &notificationRepository{db: db},
		Roles:         &roleRepository{db: db},
		Outbox:        &outboxRepository{db: db},
		EventDedup:    &eventDedupRepository{db: db},
	}
}
