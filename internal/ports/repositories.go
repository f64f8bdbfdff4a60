package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
)

type BehaviorEventRepository interface {
	Append(ctx context.Context, events []domain.BehaviorEvent) error
	ListSince(ctx context.Context, professionalID uuid.UUID, since time.Time) ([]domain.BehaviorEvent, error)
	// ListActiveProfessionals pages distinct professional ids with events since
	// the given time, ordered by id and starting after afterID.
	ListActiveProfessionals(ctx context.Context, since time.Time, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
}

type RiskScoringWrite struct {
	Run       domain.RiskScoreRun
	Violation *domain.ModerationViolation
	Events    []OutboxEvent
}

type RiskRepository interface {
	// SaveScoringRun appends the ledger row, replaces the snapshot, and inserts
	// the violation and outbox events in one transaction.
	SaveScoringRun(ctx context.Context, write RiskScoringWrite) error
	GetSnapshot(ctx context.Context, professionalID uuid.UUID) (domain.RiskSnapshot, error)
	ListRuns(ctx context.Context, professionalID uuid.UUID, limit int) ([]domain.RiskScoreRun, error)
	ListViolations(ctx context.Context, professionalID uuid.UUID, limit int) ([]domain.ModerationViolation, error)
}

type RotationCandidate struct {
	ChapterID   uuid.UUID
	HasRotation bool
}

type CommitteeRepository interface {
	// ListRotationCandidates returns chapters whose latest rotation is due at now
	// and chapters with at least minMembers members and no rotation.
	ListRotationCandidates(ctx context.Context, now time.Time, minMembers int) ([]RotationCandidate, error)
	ListEligibleMembers(ctx context.Context, chapterID uuid.UUID) ([]domain.ChapterMember, error)
	CurrentRotation(ctx context.Context, chapterID uuid.UUID) (domain.CommitteeRotation, error)
	// InsertRotation fails with domain.ErrConflict when the chapter already has
	// a rotation that is not yet due.
	InsertRotation(ctx context.Context, rotation domain.CommitteeRotation, event OutboxEvent) error
}

type AutoExpiryWrite struct {
	Review                 domain.ExpulsionReview
	Professional           domain.Professional
	PreviousExpulsionCount int
	Notification           domain.Notification
	Event                  OutboxEvent
}

type ExpulsionRepository interface {
	CreateReview(ctx context.Context, review domain.ExpulsionReview) error
	GetReview(ctx context.Context, reviewID uuid.UUID) (domain.ExpulsionReview, error)
	ListExpired(ctx context.Context, now time.Time, afterID uuid.UUID, limit int) ([]domain.ExpulsionReview, error)
	ListPendingCreatedBefore(ctx context.Context, before time.Time, afterID uuid.UUID, limit int) ([]domain.ExpulsionReview, error)
	ListVotes(ctx context.Context, reviewID uuid.UUID) ([]domain.ExpulsionVote, error)
	// ApplyAutoExpiry updates the professional and the review and records the
	// notification and outbox event atomically. It fails with domain.ErrConflict
	// if either row changed since it was read.
	ApplyAutoExpiry(ctx context.Context, write AutoExpiryWrite) error
}

type ProfessionalRepository interface {
	GetByID(ctx context.Context, professionalID uuid.UUID) (domain.Professional, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Professional, error)
}

type AppealDecisionWrite struct {
	Appeal            domain.PenaltyAppeal
	PreviousStatus    domain.AppealStatus
	DeactivatePenalty bool
	RestorePoints     int
	Event             OutboxEvent
}

type AppealRepository interface {
	GetPenalty(ctx context.Context, penaltyID uuid.UUID) (domain.UserPenalty, error)
	Create(ctx context.Context, appeal domain.PenaltyAppeal) error
	GetByID(ctx context.Context, appealID uuid.UUID) (domain.PenaltyAppeal, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, limit int) ([]domain.PenaltyAppeal, error)
	HasOpenAppeal(ctx context.Context, penaltyID uuid.UUID) (bool, error)
	ApplyDecision(ctx context.Context, write AppealDecisionWrite) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) error
}

type RoleRepository interface {
	HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	CreatedAt    time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}
