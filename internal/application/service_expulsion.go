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

type reviewExpiredEventData struct {
	ReviewID       string `json:"review_id"`
	ProfessionalID string `json:"professional_id"`
	ChapterID      string `json:"chapter_id"`
	Status         string `json:"status"`
	ExpulsionCount int    `json:"expulsion_count"`
	DecidedAt      string `json:"decided_at"`
}

// OpenReview opens a pending expulsion review. The expiry deadline is fixed now
// and never changes afterwards.
func (s *Service) OpenReview(ctx context.Context, req OpenReviewRequest) (domain.ExpulsionReview, error) {
	professionalID, err := uuid.Parse(req.ProfessionalID)
	if err != nil || professionalID == uuid.Nil {
		return domain.ExpulsionReview{}, fmt.Errorf("%w: invalid professional_id", domain.ErrInvalidInput)
	}
	chapterID, err := uuid.Parse(req.ChapterID)
	if err != nil || chapterID == uuid.Nil {
		return domain.ExpulsionReview{}, fmt.Errorf("%w: invalid chapter_id", domain.ErrInvalidInput)
	}
	if _, err := s.professionals.GetByID(ctx, professionalID); err != nil {
		return domain.ExpulsionReview{}, err
	}
	now := s.nowFn()
	review := domain.ExpulsionReview{
		ReviewID:       uuid.New(),
		ProfessionalID: professionalID,
		ChapterID:      chapterID,
		Status:         domain.ReviewStatusPending,
		TriggerDetails: req.TriggerDetails,
		CreatedAt:      now,
		AutoExpireAt:   now.Add(s.cfg.ReviewWindow),
	}
	if err := s.expulsions.CreateReview(ctx, review); err != nil {
		return domain.ExpulsionReview{}, err
	}
	return review, nil
}

// ProcessExpulsionVotes runs the timeout transition over every overdue review,
// then reminds silent committee members of reviews pending past ReminderAfter.
func (s *Service) ProcessExpulsionVotes(ctx context.Context) (ProcessExpulsionResult, error) {
	now := s.nowFn()
	report := domain.NewBatchReport(JobProcessExpulsionVotes, now)

	if err := s.expireOverdueReviews(ctx, now, report); err != nil {
		return ProcessExpulsionResult{}, err
	}
	if err := s.remindSilentMembers(ctx, now, report); err != nil {
		return ProcessExpulsionResult{}, err
	}
	report.FinishedAt = s.nowFn()

	result := ProcessExpulsionResult{
		AutoExpulsions: report.Count(KindAutoExpire, domain.ItemSucceeded),
		RemindersSent:  report.Count(KindReminder, domain.ItemSucceeded),
		Failures:       report.Failed(),
		Report:         report,
	}
	s.logger().InfoContext(ctx, "expulsion processing completed",
		"operation", "process_expulsion_votes",
		"outcome", "success",
		"auto_expulsions", result.AutoExpulsions,
		"reminders_sent", result.RemindersSent,
		"failures", result.Failures,
	)
	return result, nil
}

func (s *Service) expireOverdueReviews(ctx context.Context, now time.Time, report *domain.BatchReport) error {
	after := uuid.Nil
	for page := 0; ; page++ {
		if ctx.Err() != nil {
			return nil
		}
		reviews, err := s.expulsions.ListExpired(ctx, now, after, s.cfg.BatchPageSize)
		if err != nil {
			if page == 0 {
				return fmt.Errorf("list expired reviews: %w", err)
			}
			report.Add(domain.ItemResult{Subject: after.String(), Kind: KindPage, Outcome: domain.ItemFailed, Reason: err.Error()})
			return nil
		}
		for _, review := range reviews {
			item := s.expireReview(ctx, review, now)
			report.Add(item)
			s.metrics.ObserveBatchItem(JobProcessExpulsionVotes, string(item.Outcome))
		}
		if len(reviews) < s.cfg.BatchPageSize {
			return nil
		}
		after = reviews[len(reviews)-1].ReviewID
	}
}

func (s *Service) expireReview(ctx context.Context, review domain.ExpulsionReview, now time.Time) domain.ItemResult {
	item := domain.ItemResult{Subject: review.ReviewID.String(), Kind: KindAutoExpire, Outcome: domain.ItemSucceeded}
	fail := func(err error) domain.ItemResult {
		s.logger().WarnContext(ctx, "auto-expire failed",
			"operation", "expire_review",
			"outcome", "failure",
			"review_id", review.ReviewID.String(),
			"error", err,
		)
		item.Outcome = domain.ItemFailed
		item.Reason = err.Error()
		return item
	}

	expired, err := review.AutoExpire(now)
	if err != nil {
		item.Outcome = domain.ItemSkipped
		item.Reason = err.Error()
		return item
	}
	professional, err := s.professionals.GetByID(ctx, review.ProfessionalID)
	if err != nil {
		return fail(fmt.Errorf("load professional: %w", err))
	}
	updated := professional.Expel(now)
	notice := domain.ExpulsionNotice(updated, review.ReviewID, now)
	event := s.newOutboxEvent(domain.EventExpulsionAutoExpired, domain.CanonicalEventClassDomain,
		updated.ProfessionalID.String(), "data.professional_id",
		reviewExpiredEventData{
			ReviewID:       review.ReviewID.String(),
			ProfessionalID: updated.ProfessionalID.String(),
			ChapterID:      review.ChapterID.String(),
			Status:         string(updated.Status),
			ExpulsionCount: updated.ExpulsionCount,
			DecidedAt:      now.Format(time.RFC3339),
		},
	)

	err = s.expulsions.ApplyAutoExpiry(ctx, ports.AutoExpiryWrite{
		Review:                 expired,
		Professional:           updated,
		PreviousExpulsionCount: professional.ExpulsionCount,
		Notification:           notice,
		Event:                  event,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			item.Outcome = domain.ItemSkipped
			item.Reason = "review or professional changed concurrently"
			return item
		}
		return fail(fmt.Errorf("apply auto-expiry: %w", err))
	}

	s.logger().InfoContext(ctx, "review auto-expired",
		"operation", "expire_review",
		"outcome", "success",
		"review_id", review.ReviewID.String(),
		"professional_id", updated.ProfessionalID.String(),
		"status", string(updated.Status),
		"expulsion_count", updated.ExpulsionCount,
	)
	s.sendPush(ctx, ports.PushMessage{
		ProfessionalID: notice.ProfessionalID,
		Title:          notice.Title,
		Body:           notice.Body,
		Data:           notice.Metadata,
	})
	s.sendEmail(ctx, ports.EmailMessage{
		ProfessionalID: notice.ProfessionalID,
		Template:       notice.Type,
		Subject:        notice.Title,
		Body:           notice.Body,
	})
	return item
}

func (s *Service) remindSilentMembers(ctx context.Context, now time.Time, report *domain.BatchReport) error {
	before := now.Add(-s.cfg.ReminderAfter)
	after := uuid.Nil
	for page := 0; ; page++ {
		if ctx.Err() != nil {
			return nil
		}
		reviews, err := s.expulsions.ListPendingCreatedBefore(ctx, before, after, s.cfg.BatchPageSize)
		if err != nil {
			if page == 0 {
				return fmt.Errorf("list reviews awaiting votes: %w", err)
			}
			report.Add(domain.ItemResult{Subject: after.String(), Kind: KindPage, Outcome: domain.ItemFailed, Reason: err.Error()})
			return nil
		}
		for _, review := range reviews {
			for _, item := range s.remindReview(ctx, review, now) {
				report.Add(item)
				s.metrics.ObserveBatchItem(JobProcessExpulsionVotes, string(item.Outcome))
			}
		}
		if len(reviews) < s.cfg.BatchPageSize {
			return nil
		}
		after = reviews[len(reviews)-1].ReviewID
	}
}

func (s *Service) remindReview(ctx context.Context, review domain.ExpulsionReview, now time.Time) []domain.ItemResult {
	subject := review.ReviewID.String()
	rotation, err := s.committees.CurrentRotation(ctx, review.ChapterID)
	if err != nil {
		if isNotFound(err) {
			return []domain.ItemResult{{Subject: subject, Kind: KindReminder, Outcome: domain.ItemSkipped, Reason: "chapter has no committee"}}
		}
		return []domain.ItemResult{{Subject: subject, Kind: KindReminder, Outcome: domain.ItemFailed, Reason: err.Error()}}
	}
	votes, err := s.expulsions.ListVotes(ctx, review.ReviewID)
	if err != nil {
		return []domain.ItemResult{{Subject: subject, Kind: KindReminder, Outcome: domain.ItemFailed, Reason: err.Error()}}
	}

	silent := domain.SilentMembers(rotation, review.ProfessionalID, votes)
	items := make([]domain.ItemResult, 0, len(silent))
	for _, memberID := range silent {
		item := domain.ItemResult{Subject: subject + ":" + memberID.String(), Kind: KindReminder, Outcome: domain.ItemSucceeded}
		reminder := domain.VoteReminder(memberID, review, now)
		if err := s.notifications.Create(ctx, reminder); err != nil {
			s.logger().WarnContext(ctx, "vote reminder failed",
				"operation", "remind_silent_members",
				"outcome", "failure",
				"review_id", subject,
				"member_id", memberID.String(),
				"error", err,
			)
			item.Outcome = domain.ItemFailed
			item.Reason = err.Error()
			items = append(items, item)
			continue
		}
		s.sendPush(ctx, ports.PushMessage{
			ProfessionalID: memberID,
			Title:          reminder.Title,
			Body:           reminder.Body,
			Data:           reminder.Metadata,
		})
		items = append(items, item)
	}
	return items
}
