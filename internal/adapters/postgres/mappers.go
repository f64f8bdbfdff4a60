package postgres

import (
	"encoding/json"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
)

func encodeJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func decodeJSON[T any](raw string) T {
	var out T
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func toBehaviorEventModel(e domain.BehaviorEvent) behaviorEventModel {
	m := behaviorEventModel{
		EventID: e.EventID, ProfessionalID: e.ProfessionalID, EventType: string(e.EventType),
		OccurredAt: e.OccurredAt.UTC(),
	}
	if len(e.Metadata) > 0 {
		m.Metadata = encodeJSON(e.Metadata)
	}
	return m
}

func toDomainBehaviorEvent(m behaviorEventModel) domain.BehaviorEvent {
	return domain.BehaviorEvent{
		EventID: m.EventID, ProfessionalID: m.ProfessionalID, EventType: domain.EventType(m.EventType),
		OccurredAt: m.OccurredAt.UTC(), Metadata: decodeJSON[map[string]any](m.Metadata),
	}
}

func toRiskScoreRunModel(r domain.RiskScoreRun) riskScoreRunModel {
	return riskScoreRunModel{
		RunID: r.RunID, ProfessionalID: r.ProfessionalID, OverallScore: r.OverallScore,
		RiskFactors: encodeFactors(r.RiskFactors), EventsAnalyzed: r.EventsAnalyzed,
		AlertThresholdReached: r.AlertThresholdReached, ComputedAt: r.ComputedAt.UTC(),
	}
}

func toDomainRiskScoreRun(m riskScoreRunModel) domain.RiskScoreRun {
	return domain.RiskScoreRun{
		RunID: m.RunID, ProfessionalID: m.ProfessionalID, OverallScore: m.OverallScore,
		RiskFactors: decodeFactors(m.RiskFactors), EventsAnalyzed: m.EventsAnalyzed,
		AlertThresholdReached: m.AlertThresholdReached, ComputedAt: m.ComputedAt.UTC(),
	}
}

func toDomainRiskSnapshot(m riskSnapshotModel) domain.RiskSnapshot {
	return domain.RiskSnapshot{
		ProfessionalID: m.ProfessionalID, OverallScore: m.OverallScore, RiskFactors: decodeFactors(m.RiskFactors),
		LastUpdated: m.LastUpdated.UTC(), AlertThresholdReached: m.AlertThresholdReached,
	}
}

// Factors are stored as a JSON array, never null.
func encodeFactors(factors []domain.RiskFactor) string {
	if factors == nil {
		factors = []domain.RiskFactor{}
	}
	return encodeJSON(factors)
}

func decodeFactors(raw string) []domain.RiskFactor {
	out := decodeJSON[[]domain.RiskFactor](raw)
	if out == nil {
		out = []domain.RiskFactor{}
	}
	return out
}

func toModerationViolationModel(v domain.ModerationViolation) moderationViolationModel {
	return moderationViolationModel{
		ViolationID: v.ViolationID, ProfessionalID: v.ProfessionalID, ViolationType: v.ViolationType,
		Severity: string(v.Severity), Reason: v.Reason, Categories: encodeJSON(v.Categories),
		AutoDetected: v.AutoDetected, DetectionConfidence: v.DetectionConfidence, Blocked: v.Blocked,
		CreatedAt: v.CreatedAt.UTC(),
	}
}

func toDomainModerationViolation(m moderationViolationModel) domain.ModerationViolation {
	return domain.ModerationViolation{
		ViolationID: m.ViolationID, ProfessionalID: m.ProfessionalID, ViolationType: m.ViolationType,
		Severity: domain.Severity(m.Severity), Reason: m.Reason, Categories: decodeJSON[[]string](m.Categories),
		AutoDetected: m.AutoDetected, DetectionConfidence: m.DetectionConfidence, Blocked: m.Blocked,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func toDomainProfessional(m professionalModel) domain.Professional {
	return domain.Professional{
		ProfessionalID: m.ProfessionalID, UserID: m.UserID, Status: domain.ProfessionalStatus(m.Status),
		ExpulsionCount: m.ExpulsionCount, LastExpulsionAt: m.LastExpulsionAt, TotalPoints: m.TotalPoints,
		JoinedAt: m.JoinedAt.UTC(),
	}
}

func toCommitteeRotationModel(r domain.CommitteeRotation) committeeRotationModel {
	return committeeRotationModel{
		RotationID: r.RotationID, ChapterID: r.ChapterID, Member1ID: r.Member1ID, Member2ID: r.Member2ID,
		Member3ID: r.Member3ID, IsFounding: r.IsFounding, NextRotationAt: r.NextRotationAt.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toDomainCommitteeRotation(m committeeRotationModel) domain.CommitteeRotation {
	return domain.CommitteeRotation{
		RotationID: m.RotationID, ChapterID: m.ChapterID, Member1ID: m.Member1ID, Member2ID: m.Member2ID,
		Member3ID: m.Member3ID, IsFounding: m.IsFounding, NextRotationAt: m.NextRotationAt.UTC(),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func toExpulsionReviewModel(r domain.ExpulsionReview) expulsionReviewModel {
	m := expulsionReviewModel{
		ReviewID: r.ReviewID, ProfessionalID: r.ProfessionalID, ChapterID: r.ChapterID, Status: string(r.Status),
		CreatedAt: r.CreatedAt.UTC(), AutoExpireAt: r.AutoExpireAt.UTC(), DecidedAt: r.DecidedAt,
	}
	if len(r.TriggerDetails) > 0 {
		m.TriggerDetails = encodeJSON(r.TriggerDetails)
	}
	return m
}

func toDomainExpulsionReview(m expulsionReviewModel) domain.ExpulsionReview {
	return domain.ExpulsionReview{
		ReviewID: m.ReviewID, ProfessionalID: m.ProfessionalID, ChapterID: m.ChapterID,
		Status: domain.ReviewStatus(m.Status), TriggerDetails: decodeJSON[map[string]any](m.TriggerDetails),
		CreatedAt: m.CreatedAt.UTC(), AutoExpireAt: m.AutoExpireAt.UTC(), DecidedAt: m.DecidedAt,
	}
}

func toDomainExpulsionVote(m expulsionVoteModel) domain.ExpulsionVote {
	return domain.ExpulsionVote{
		VoteID: m.VoteID, ReviewID: m.ReviewID, VoterID: m.VoterID, Vote: m.Vote, CreatedAt: m.CreatedAt.UTC(),
	}
}

func toDomainUserPenalty(m userPenaltyModel) domain.UserPenalty {
	return domain.UserPenalty{
		PenaltyID: m.PenaltyID, ProfessionalID: m.ProfessionalID, PenaltyType: m.PenaltyType,
		Severity: domain.Severity(m.Severity), Reason: m.Reason, PointsDeducted: m.PointsDeducted,
		RestrictionUntil: m.RestrictionUntil, IsActive: m.IsActive, CreatedAt: m.CreatedAt.UTC(),
	}
}

func toPenaltyAppealModel(a domain.PenaltyAppeal) penaltyAppealModel {
	return penaltyAppealModel{
		AppealID: a.AppealID, PenaltyID: a.PenaltyID, ProfessionalID: a.ProfessionalID,
		AppealReason: a.AppealReason, AdditionalContext: a.AdditionalContext, Status: string(a.Status),
		AdminResponse: a.AdminResponse, ReviewedBy: a.ReviewedBy, ReviewedAt: a.ReviewedAt,
		CreatedAt: a.CreatedAt.UTC(),
	}
}

func toDomainPenaltyAppeal(m penaltyAppealModel) domain.PenaltyAppeal {
	return domain.PenaltyAppeal{
		AppealID: m.AppealID, PenaltyID: m.PenaltyID, ProfessionalID: m.ProfessionalID,
		AppealReason: m.AppealReason, AdditionalContext: m.AdditionalContext, Status: domain.AppealStatus(m.Status),
		AdminResponse: m.AdminResponse, ReviewedBy: m.ReviewedBy, ReviewedAt: m.ReviewedAt,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func toNotificationModel(n domain.Notification) notificationModel {
	m := notificationModel{
		NotificationID: n.NotificationID, ProfessionalID: n.ProfessionalID, Type: n.Type,
		Title: n.Title, Body: n.Body, CreatedAt: n.CreatedAt.UTC(),
	}
	if len(n.Metadata) > 0 {
		m.Metadata = encodeJSON(n.Metadata)
	}
	return m
}
