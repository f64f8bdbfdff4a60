package postgres

import (
	"time"

	"github.com/google/uuid"
)

func allModels() []any {
	return []any{
		&behaviorEventModel{},
		&riskScoreRunModel{},
		&riskSnapshotModel{},
		&moderationViolationModel{},
		&professionalModel{},
		&chapterModel{},
		&chapterMemberModel{},
		&committeeRotationModel{},
		&expulsionReviewModel{},
		&expulsionVoteModel{},
		&userPenaltyModel{},
		&penaltyAppealModel{},
		&notificationModel{},
		&userRoleModel{},
		&governanceOutboxModel{},
		&governanceEventDedupModel{},
	}
}

type behaviorEventModel struct {
	EventID        uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey"`
	ProfessionalID uuid.UUID `gorm:"column:professional_id;type:uuid;not null;index:idx_behavior_events_professional_time,priority:1"`
	EventType      string    `gorm:"column:event_type;not null"`
	OccurredAt     time.Time `gorm:"column:occurred_at;not null;index:idx_behavior_events_professional_time,priority:2;index:idx_behavior_events_time"`
	Metadata       string    `gorm:"column:metadata"`
}

func (behaviorEventModel) TableName() string { return "behavior_events" }

type riskScoreRunModel struct {
	RunID                 uuid.UUID `gorm:"column:run_id;type:uuid;primaryKey"`
	ProfessionalID        uuid.UUID `gorm:"column:professional_id;type:uuid;not null;index:idx_risk_runs_professional_time,priority:1"`
	OverallScore          int       `gorm:"column:overall_score;not null"`
	RiskFactors           string    `gorm:"column:risk_factors;not null"`
	EventsAnalyzed        int       `gorm:"column:events_analyzed;not null"`
	AlertThresholdReached bool      `gorm:"column:alert_threshold_reached;not null"`
	ComputedAt            time.Time `gorm:"column:computed_at;not null;index:idx_risk_runs_professional_time,priority:2"`
}

func (riskScoreRunModel) TableName() string { return "risk_score_runs" }

type riskSnapshotModel struct {
	ProfessionalID        uuid.UUID `gorm:"column:professional_id;type:uuid;primaryKey"`
	LastRunID             uuid.UUID `gorm:"column:last_run_id;type:uuid;not null"`
	OverallScore          int       `gorm:"column:overall_score;not null"`
	RiskFactors           string    `gorm:"column:risk_factors;not null"`
	LastUpdated           time.Time `gorm:"column:last_updated;not null"`
	AlertThresholdReached bool      `gorm:"column:alert_threshold_reached;not null"`
}

func (riskSnapshotModel) TableName() string { return "risk_snapshots" }

type moderationViolationModel struct {
	ViolationID         uuid.UUID `gorm:"column:violation_id;type:uuid;primaryKey"`
	ProfessionalID      uuid.UUID `gorm:"column:professional_id;type:uuid;not null;index"`
	ViolationType       string    `gorm:"column:violation_type;not null"`
	Severity            string    `gorm:"column:severity;not null"`
	Reason              string    `gorm:"column:reason"`
	Categories          string    `gorm:"column:categories"`
	AutoDetected        bool      `gorm:"column:auto_detected;not null"`
	DetectionConfidence int       `gorm:"column:detection_confidence;not null"`
	Blocked             bool      `gorm:"column:blocked;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;not null"`
}

func (moderationViolationModel) TableName() string { return "moderation_violations" }

type professionalModel struct {
	ProfessionalID  uuid.UUID  `gorm:"column:professional_id;type:uuid;primaryKey"`
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;uniqueIndex"`
	Status          string     `gorm:"column:status;not null"`
	ExpulsionCount  int        `gorm:"column:expulsion_count;not null;default:0"`
	LastExpulsionAt *time.Time `gorm:"column:last_expulsion_at"`
	TotalPoints     int        `gorm:"column:total_points;not null;default:0"`
	JoinedAt        time.Time  `gorm:"column:joined_at;not null"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (professionalModel) TableName() string { return "professionals" }

type chapterModel struct {
	ChapterID uuid.UUID `gorm:"column:chapter_id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (chapterModel) TableName() string { return "chapters" }

type chapterMemberModel struct {
	ChapterID      uuid.UUID `gorm:"column:chapter_id;type:uuid;primaryKey"`
	ProfessionalID uuid.UUID `gorm:"column:professional_id;type:uuid;primaryKey"`
	Status         string    `gorm:"column:status;not null"`
	IsBlocked      bool      `gorm:"column:is_blocked;not null;default:false"`
	JoinedAt       time.Time `gorm:"column:joined_at;not null"`
}

func (chapterMemberModel) TableName() string { return "chapter_members" }

type committeeRotationModel struct {
	RotationID     uuid.UUID `gorm:"column:rotation_id;type:uuid;primaryKey"`
	ChapterID      uuid.UUID `gorm:"column:chapter_id;type:uuid;not null;uniqueIndex:idx_committee_rotations_chapter_next,priority:1"`
	Member1ID      uuid.UUID `gorm:"column:member1_id;type:uuid;not null"`
	Member2ID      uuid.UUID `gorm:"column:member2_id;type:uuid;not null"`
	Member3ID      uuid.UUID `gorm:"column:member3_id;type:uuid;not null"`
	IsFounding     bool      `gorm:"column:is_founding;not null"`
	NextRotationAt time.Time `gorm:"column:next_rotation_at;not null;uniqueIndex:idx_committee_rotations_chapter_next,priority:2"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (committeeRotationModel) TableName() string { return "committee_rotations" }

type expulsionReviewModel struct {
	ReviewID       uuid.UUID  `gorm:"column:review_id;type:uuid;primaryKey"`
	ProfessionalID uuid.UUID  `gorm:"column:professional_id;type:uuid;not null;index"`
	ChapterID      uuid.UUID  `gorm:"column:chapter_id;type:uuid;not null"`
	Status         string     `gorm:"column:status;not null;index"`
	TriggerDetails string     `gorm:"column:trigger_details"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
	AutoExpireAt   time.Time  `gorm:"column:auto_expire_at;not null"`
	DecidedAt      *time.Time `gorm:"column:decided_at"`
}

func (expulsionReviewModel) TableName() string { return "expulsion_reviews" }

type expulsionVoteModel struct {
	VoteID    uuid.UUID `gorm:"column:vote_id;type:uuid;primaryKey"`
	ReviewID  uuid.UUID `gorm:"column:review_id;type:uuid;not null;index"`
	VoterID   uuid.UUID `gorm:"column:voter_id;type:uuid;not null"`
	Vote      string    `gorm:"column:vote;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (expulsionVoteModel) TableName() string { return "expulsion_votes" }

type userPenaltyModel struct {
	PenaltyID        uuid.UUID  `gorm:"column:penalty_id;type:uuid;primaryKey"`
	ProfessionalID   uuid.UUID  `gorm:"column:professional_id;type:uuid;not null;index"`
	PenaltyType      string     `gorm:"column:penalty_type;not null"`
	Severity         string     `gorm:"column:severity"`
	Reason           string     `gorm:"column:reason"`
	PointsDeducted   int        `gorm:"column:points_deducted;not null;default:0"`
	RestrictionUntil *time.Time `gorm:"column:restriction_until"`
	IsActive         bool       `gorm:"column:is_active;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
}

func (userPenaltyModel) TableName() string { return "user_penalties" }

type penaltyAppealModel struct {
	AppealID          uuid.UUID  `gorm:"column:appeal_id;type:uuid;primaryKey"`
	PenaltyID         uuid.UUID  `gorm:"column:penalty_id;type:uuid;not null;index"`
	ProfessionalID    uuid.UUID  `gorm:"column:professional_id;type:uuid;not null;index"`
	AppealReason      string     `gorm:"column:appeal_reason;not null"`
	AdditionalContext string     `gorm:"column:additional_context"`
	Status            string     `gorm:"column:status;not null"`
	AdminResponse     string     `gorm:"column:admin_response"`
	ReviewedBy        *uuid.UUID `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt        *time.Time `gorm:"column:reviewed_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null"`
}

func (penaltyAppealModel) TableName() string { return "penalty_appeals" }

type notificationModel struct {
	NotificationID uuid.UUID `gorm:"column:notification_id;type:uuid;primaryKey"`
	ProfessionalID uuid.UUID `gorm:"column:professional_id;type:uuid;not null;index"`
	Type           string    `gorm:"column:type;not null"`
	Title          string    `gorm:"column:title;not null"`
	Body           string    `gorm:"column:body;not null"`
	Metadata       string    `gorm:"column:metadata"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (notificationModel) TableName() string { return "notifications" }

type userRoleModel struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Role   string    `gorm:"column:role;primaryKey"`
}

func (userRoleModel) TableName() string { return "user_roles" }

type governanceOutboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type;not null"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload;not null"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null;index"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	RetryCount       int        `gorm:"column:retry_count;not null;default:0"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
}

func (governanceOutboxModel) TableName() string { return "governance_outbox" }

type governanceEventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (governanceEventDedupModel) TableName() string { return "governance_event_dedup" }
