package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"golang.org/x/sync/errgroup"
)

type riskSnapshotEventData struct {
	ProfessionalID string `json:"professional_id"`
	RunID          string `json:"run_id"`
	OverallScore   int    `json:"overall_score"`
	AlertReached   bool   `json:"alert_threshold_reached"`
}

type violationEventData struct {
	ViolationID    string   `json:"violation_id"`
	ProfessionalID string   `json:"professional_id"`
	Severity       string   `json:"severity"`
	Confidence     int      `json:"detection_confidence"`
	Categories     []string `json:"categories"`
}

func (s *Service) AnalyzeBehavior(ctx context.Context, professionalID uuid.UUID) (AnalyzeBehaviorResult, error) {
	if professionalID == uuid.Nil {
		return AnalyzeBehaviorResult{}, fmt.Errorf("%w: professionalId is required", domain.ErrInvalidInput)
	}
	now := s.nowFn()

	events, err := s.events.ListSince(ctx, professionalID, now.Add(-domain.SequenceWindow))
	if err != nil {
		return AnalyzeBehaviorResult{}, fmt.Errorf("load behavior events: %w", err)
	}
	assessment := domain.AssessBehavior(now, events)

	run := domain.RiskScoreRun{
		RunID:                 uuid.New(),
		ProfessionalID:        professionalID,
		OverallScore:          assessment.Score,
		RiskFactors:           assessment.Factors,
		EventsAnalyzed:        assessment.EventsAnalyzed,
		AlertThresholdReached: assessment.AlertTriggered,
		ComputedAt:            now,
	}
	write := ports.RiskScoringWrite{Run: run}
	write.Events = append(write.Events, s.newOutboxEvent(
		domain.EventRiskSnapshotRefreshed, domain.CanonicalEventClassAnalyticsOnly,
		professionalID.String(), "data.professional_id",
		riskSnapshotEventData{ProfessionalID: professionalID.String(), RunID: run.RunID.String(), OverallScore: run.OverallScore, AlertReached: run.AlertThresholdReached},
	))
	if violation, ok := domain.ViolationForAssessment(professionalID, assessment, now); ok {
		write.Violation = &violation
		write.Events = append(write.Events, s.newOutboxEvent(
			domain.EventViolationCreated, domain.CanonicalEventClassDomain,
			professionalID.String(), "data.professional_id",
			violationEventData{
				ViolationID: violation.ViolationID.String(), ProfessionalID: professionalID.String(),
				Severity: string(violation.Severity), Confidence: violation.DetectionConfidence, Categories: violation.Categories,
			},
		))
	}
	if err := s.risk.SaveScoringRun(ctx, write); err != nil {
		return AnalyzeBehaviorResult{}, fmt.Errorf("save scoring run: %w", err)
	}
	s.invalidateSnapshot(ctx, professionalID)
	s.metrics.ObserveRiskScore(assessment.Score)

	s.logger().InfoContext(ctx, "behavior analyzed",
		"operation", "analyze_behavior",
		"outcome", "success",
		"professional_id", professionalID.String(),
		"risk_score", assessment.Score,
		"factors", len(assessment.Factors),
		"alert_triggered", assessment.AlertTriggered,
		"violation_created", write.Violation != nil,
	)

	factors := assessment.Factors
	if factors == nil {
		factors = []domain.RiskFactor{}
	}
	return AnalyzeBehaviorResult{
		ProfessionalID: professionalID,
		RiskScore:      assessment.Score,
		RiskFactors:    factors,
		AlertTriggered: assessment.AlertTriggered,
		EventsAnalyzed: assessment.EventsAnalyzed,
	}, nil
}

// AnalyzeRecentlyActive scores every professional with events inside the
// activity window. Professionals are scored concurrently up to RiskWorkers;
// one professional's failure is recorded and does not stop the batch.
func (s *Service) AnalyzeRecentlyActive(ctx context.Context) (*domain.BatchReport, error) {
	now := s.nowFn()
	report := domain.NewBatchReport(JobAnalyzeBehavior, now)
	since := now.Add(-s.cfg.RiskActivityWindow)

	after := uuid.Nil
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			break
		}
		ids, err := s.events.ListActiveProfessionals(ctx, since, after, s.cfg.BatchPageSize)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("list active professionals: %w", err)
			}
			report.Add(domain.ItemResult{Subject: after.String(), Kind: KindPage, Outcome: domain.ItemFailed, Reason: err.Error()})
			break
		}
		if len(ids) == 0 {
			break
		}

		results := make([]domain.ItemResult, len(ids))
		var g errgroup.Group
		g.SetLimit(s.cfg.RiskWorkers)
		for i, id := range ids {
			g.Go(func() error {
				results[i] = s.analyzeItem(ctx, id)
				return nil
			})
		}
		_ = g.Wait()
		for _, res := range results {
			report.Add(res)
			s.metrics.ObserveBatchItem(JobAnalyzeBehavior, string(res.Outcome))
		}

		after = ids[len(ids)-1]
		if len(ids) < s.cfg.BatchPageSize {
			break
		}
	}

	report.FinishedAt = s.nowFn()
	s.logger().InfoContext(ctx, "behavior batch completed",
		"operation", "analyze_recently_active",
		"outcome", "success",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
	)
	return report, nil
}

func (s *Service) analyzeItem(ctx context.Context, id uuid.UUID) domain.ItemResult {
	res := domain.ItemResult{Subject: id.String(), Kind: JobAnalyzeBehavior, Outcome: domain.ItemSucceeded}
	if _, err := s.AnalyzeBehavior(ctx, id); err != nil {
		res.Outcome = domain.ItemFailed
		res.Reason = err.Error()
		s.logger().WarnContext(ctx, "behavior analysis failed",
			"operation", "analyze_recently_active",
			"outcome", "failure",
			"professional_id", id.String(),
			"error", err,
		)
	}
	return res
}

func snapshotCacheKey(professionalID uuid.UUID) string {
	return "governance:risk_snapshot:" + professionalID.String()
}

func (s *Service) invalidateSnapshot(ctx context.Context, professionalID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, snapshotCacheKey(professionalID)); err != nil {
		s.logger().WarnContext(ctx, "snapshot cache invalidation failed",
			"operation", "invalidate_snapshot",
			"outcome", "failure",
			"professional_id", professionalID.String(),
			"error", err,
		)
	}
}

func (s *Service) GetRiskSnapshot(ctx context.Context, professionalID uuid.UUID) (domain.RiskSnapshot, error) {
	if professionalID == uuid.Nil {
		return domain.RiskSnapshot{}, fmt.Errorf("%w: professional_id is required", domain.ErrInvalidInput)
	}
	key := snapshotCacheKey(professionalID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var cached domain.RiskSnapshot
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}
	snapshot, err := s.risk.GetSnapshot(ctx, professionalID)
	if err != nil {
		return domain.RiskSnapshot{}, err
	}
	if s.cache != nil {
		if raw, marshalErr := json.Marshal(snapshot); marshalErr == nil {
			_ = s.cache.Set(ctx, key, string(raw), s.cfg.SnapshotCacheTTL)
		}
	}
	return snapshot, nil
}

func (s *Service) ListRiskHistory(ctx context.Context, professionalID uuid.UUID, limit int) ([]domain.RiskScoreRun, error) {
	if professionalID == uuid.Nil {
		return nil, fmt.Errorf("%w: professional_id is required", domain.ErrInvalidInput)
	}
	return s.risk.ListRuns(ctx, professionalID, clampLimit(limit))
}

func (s *Service) ListViolations(ctx context.Context, professionalID uuid.UUID, limit int) ([]domain.ModerationViolation, error) {
	if professionalID == uuid.Nil {
		return nil, fmt.Errorf("%w: professional_id is required", domain.ErrInvalidInput)
	}
	return s.risk.ListViolations(ctx, professionalID, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
