package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

type committeeRotatedEventData struct {
	RotationID     string   `json:"rotation_id"`
	ChapterID      string   `json:"chapter_id"`
	Members        []string `json:"members"`
	IsFounding     bool     `json:"is_founding"`
	NextRotationAt string   `json:"next_rotation_at"`
}

// RotateCommittees staffs a new committee for every chapter whose rotation is
// due or that has never had one. Chapters that already hold a current rotation
// are not candidates, so running more often than the rotation period is safe.
func (s *Service) RotateCommittees(ctx context.Context) (RotateCommitteesResult, error) {
	now := s.nowFn()
	candidates, err := s.committees.ListRotationCandidates(ctx, now, domain.MinChapterMembers)
	if err != nil {
		return RotateCommitteesResult{}, fmt.Errorf("list rotation candidates: %w", err)
	}

	report := domain.NewBatchReport(JobRotateCommittee, now)
	outcomes := make([]domain.RotationOutcome, 0, len(candidates))
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		outcome := s.rotateChapter(ctx, candidate, now)
		outcomes = append(outcomes, outcome)

		item := domain.ItemResult{Subject: candidate.ChapterID.String(), Kind: JobRotateCommittee, Reason: outcome.Reason}
		switch outcome.Status {
		case domain.RotationStatusRotated:
			item.Outcome = domain.ItemSucceeded
		case domain.RotationStatusSkipped:
			item.Outcome = domain.ItemSkipped
		default:
			item.Outcome = domain.ItemFailed
		}
		report.Add(item)
		s.metrics.ObserveBatchItem(JobRotateCommittee, string(item.Outcome))
	}
	report.FinishedAt = s.nowFn()

	s.logger().InfoContext(ctx, "committee rotation completed",
		"operation", "rotate_committees",
		"outcome", "success",
		"candidates", len(candidates),
		"rotated", report.Succeeded(),
		"skipped", report.Skipped(),
		"failed", report.Failed(),
	)
	return RotateCommitteesResult{Success: true, Rotations: outcomes, Report: report}, nil
}

func (s *Service) rotateChapter(ctx context.Context, candidate ports.RotationCandidate, now time.Time) domain.RotationOutcome {
	outcome := domain.RotationOutcome{ChapterID: candidate.ChapterID}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "governance:rotation:"+candidate.ChapterID.String(), s.cfg.RotationLockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockNotAcquired) {
				outcome.Status = domain.RotationStatusSkipped
				outcome.Reason = "rotation in progress"
				return outcome
			}
			return s.rotationFailed(ctx, outcome, fmt.Errorf("acquire rotation lock: %w", err))
		}
		defer func() { _ = release(context.WithoutCancel(ctx)) }()
	}

	members, err := s.committees.ListEligibleMembers(ctx, candidate.ChapterID)
	if err != nil {
		return s.rotationFailed(ctx, outcome, fmt.Errorf("list eligible members: %w", err))
	}
	ranked := domain.RankCommitteeCandidates(members)
	rotation, ok := domain.NewCommitteeRotation(candidate.ChapterID, ranked, !candidate.HasRotation, now, s.cfg.RotationPeriod)
	if !ok {
		outcome.Status = domain.RotationStatusSkipped
		outcome.Reason = fmt.Sprintf("only %d eligible members", len(ranked))
		return outcome
	}

	event := s.newOutboxEvent(domain.EventCommitteeRotated, domain.CanonicalEventClassDomain,
		candidate.ChapterID.String(), "data.chapter_id",
		committeeRotatedEventData{
			RotationID:     rotation.RotationID.String(),
			ChapterID:      rotation.ChapterID.String(),
			Members:        uuidStrings(rotation.Members()),
			IsFounding:     rotation.IsFounding,
			NextRotationAt: rotation.NextRotationAt.Format(time.RFC3339),
		},
	)
	if err := s.committees.InsertRotation(ctx, rotation, event); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			outcome.Status = domain.RotationStatusSkipped
			outcome.Reason = "chapter already has a current rotation"
			return outcome
		}
		return s.rotationFailed(ctx, outcome, fmt.Errorf("insert rotation: %w", err))
	}

	outcome.Status = domain.RotationStatusRotated
	outcome.Committee = rotation.Members()
	return outcome
}

func (s *Service) rotationFailed(ctx context.Context, outcome domain.RotationOutcome, err error) domain.RotationOutcome {
	s.logger().WarnContext(ctx, "chapter rotation failed",
		"operation", "rotate_committees",
		"outcome", "failure",
		"chapter_id", outcome.ChapterID.String(),
		"error", err,
	)
	outcome.Status = domain.RotationStatusError
	outcome.Reason = err.Error()
	return outcome
}

func (s *Service) GetCurrentCommittee(ctx context.Context, chapterID uuid.UUID) (domain.CommitteeRotation, error) {
	if chapterID == uuid.Nil {
		return domain.CommitteeRotation{}, fmt.Errorf("%w: chapter_id is required", domain.ErrInvalidInput)
	}
	return s.committees.CurrentRotation(ctx, chapterID)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
