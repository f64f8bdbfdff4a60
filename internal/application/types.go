package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
)

type Config struct {
	ServiceName string

	// RiskActivityWindow selects professionals for batch scoring.
	RiskActivityWindow time.Duration
	RiskWorkers        int
	BatchPageSize      int
	SnapshotCacheTTL   time.Duration

	RotationPeriod  time.Duration
	RotationLockTTL time.Duration

	ReviewWindow  time.Duration
	ReminderAfter time.Duration

	EventDedupTTL           time.Duration
	RestorePointsOnApproval bool
	JobsBearerToken         string
}

const (
	JobAnalyzeBehavior       = "analyze_behavior"
	JobRotateCommittee       = "rotate_committee"
	JobProcessExpulsionVotes = "process_expulsion_votes"

	KindAutoExpire = "auto_expire"
	KindReminder   = "reminder"
	KindPage       = "page"
)

const RoleAdmin = "admin"

type Actor struct {
	UserID uuid.UUID
	Role   string
}

type AnalyzeBehaviorRequest struct {
	ProfessionalID string `json:"professionalId"`
}

type AnalyzeBehaviorResult struct {
	ProfessionalID uuid.UUID           `json:"professionalId"`
	RiskScore      int                 `json:"riskScore"`
	RiskFactors    []domain.RiskFactor `json:"riskFactors"`
	AlertTriggered bool                `json:"alertTriggered"`
	EventsAnalyzed int                 `json:"eventsAnalyzed"`
}

type RotateCommitteesResult struct {
	Success   bool                     `json:"success"`
	Rotations []domain.RotationOutcome `json:"rotations"`
	Report    *domain.BatchReport      `json:"-"`
}

type ProcessExpulsionResult struct {
	AutoExpulsions int                 `json:"auto_expulsions"`
	RemindersSent  int                 `json:"reminders_sent"`
	Failures       int                 `json:"failures"`
	Report         *domain.BatchReport `json:"-"`
}

type RecordBehaviorEventRequest struct {
	EventID        string         `json:"event_id,omitempty"`
	ProfessionalID string         `json:"professional_id"`
	EventType      string         `json:"event_type"`
	OccurredAt     *time.Time     `json:"occurred_at,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type RecordBehaviorEventsRequest struct {
	Events []RecordBehaviorEventRequest `json:"events"`
}

type OpenReviewRequest struct {
	ProfessionalID string         `json:"professional_id"`
	ChapterID      string         `json:"chapter_id"`
	TriggerDetails map[string]any `json:"trigger_details,omitempty"`
}

type CreateAppealRequest struct {
	PenaltyID         string `json:"penalty_id"`
	Reason            string `json:"reason"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

type CreateAppealInput struct {
	PenaltyID         uuid.UUID
	ProfessionalID    uuid.UUID
	Reason            string
	AdditionalContext string
}

type UpdateAppealRequest struct {
	Status        string `json:"status"`
	AdminResponse string `json:"admin_response"`
}

type UpdateAppealInput struct {
	AppealID      uuid.UUID
	Status        string
	AdminResponse string
	ReviewedBy    uuid.UUID
}
