package application

import (
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

type Service struct {
	cfg           Config
	events        ports.BehaviorEventRepository
	risk          ports.RiskRepository
	committees    ports.CommitteeRepository
	expulsions    ports.ExpulsionRepository
	professionals ports.ProfessionalRepository
	appeals       ports.AppealRepository
	notifications ports.NotificationRepository
	roles         ports.RoleRepository
	outbox        ports.OutboxRepository
	eventDedup    ports.EventDedupRepository
	cache         ports.Cache
	locker        ports.Locker
	tokens        ports.TokenVerifier
	push          ports.PushSender
	email         ports.EmailSender
	metrics       ports.Metrics
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
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
	Cache         ports.Cache
	Locker        ports.Locker
	Tokens        ports.TokenVerifier
	Push          ports.PushSender
	Email         ports.EmailSender
	Metrics       ports.Metrics
	Clock         func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M47-Community-Governance-Service"
	}
	if cfg.RiskActivityWindow <= 0 {
		cfg.RiskActivityWindow = 7 * 24 * time.Hour
	}
	if cfg.RiskWorkers <= 0 {
		cfg.RiskWorkers = 4
	}
	if cfg.BatchPageSize <= 0 {
		cfg.BatchPageSize = 200
	}
	if cfg.SnapshotCacheTTL <= 0 {
		cfg.SnapshotCacheTTL = 5 * time.Minute
	}
	if cfg.RotationPeriod <= 0 {
		cfg.RotationPeriod = domain.RotationPeriod
	}
	if cfg.RotationLockTTL <= 0 {
		cfg.RotationLockTTL = 30 * time.Second
	}
	if cfg.ReviewWindow <= 0 {
		cfg.ReviewWindow = 7 * 24 * time.Hour
	}
	if cfg.ReminderAfter <= 0 {
		cfg.ReminderAfter = 48 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}

	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Service{
		cfg:           cfg,
		events:        deps.Events,
		risk:          deps.Risk,
		committees:    deps.Committees,
		expulsions:    deps.Expulsions,
		professionals: deps.Professionals,
		appeals:       deps.Appeals,
		notifications: deps.Notifications,
		roles:         deps.Roles,
		outbox:        deps.Outbox,
		eventDedup:    deps.EventDedup,
		cache:         deps.Cache,
		locker:        deps.Locker,
		tokens:        deps.Tokens,
		push:          deps.Push,
		email:         deps.Email,
		metrics:       metrics,
		nowFn:         nowFn,
	}
}

func (s *Service) logger() *slog.Logger {
	return slog.Default().With(
		"service", s.cfg.ServiceName,
		"module", "application",
		"layer", "application",
	)
}

type nopMetrics struct{}

func (nopMetrics) ObserveBatchItem(string, string) {}
func (nopMetrics) ObserveRiskScore(int) {}
func (nopMetrics) ObserveDispatchFailure(string) {}
