package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypeExpulsionDecision = "expulsion_decision"
	NotificationTypeVoteReminder      = "expulsion_vote_reminder"
)

type Notification struct {
	NotificationID uuid.UUID         `json:"notification_id"`
	ProfessionalID uuid.UUID         `json:"professional_id"`
	Type           string            `json:"type"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func ExpulsionNotice(p Professional, reviewID uuid.UUID, now time.Time) Notification {
	n := Notification{
		NotificationID: uuid.New(),
		ProfessionalID: p.ProfessionalID,
		Type:           NotificationTypeExpulsionDecision,
		Metadata: map[string]string{
			"review_id":       reviewID.String(),
			"status":          string(p.Status),
			"expulsion_count": fmt.Sprintf("%d", p.ExpulsionCount),
		},
		CreatedAt: now,
	}
	if p.Status == ProfessionalStatusBanned {
		n.Title = "Your account has been permanently suspended"
		n.Body = "Your chapter review expired without a committee decision. Because this is a repeated expulsion, your account is permanently suspended."
		return n
	}
	n.Title = "Your membership has been deactivated"
	n.Body = fmt.Sprintf("Your chapter review expired without a committee decision. Your membership is inactive and you will be eligible for reentry in %d months.", ReentryWaitMonths)
	return n
}

func VoteReminder(memberID uuid.UUID, review ExpulsionReview, now time.Time) Notification {
	return Notification{
		NotificationID: uuid.New(),
		ProfessionalID: memberID,
		Type:           NotificationTypeVoteReminder,
		Title:          "An expulsion review is waiting for your vote",
		Body:           fmt.Sprintf("A review in your chapter has been open since %s. Please cast your vote before %s.", review.CreatedAt.Format(time.RFC3339), review.AutoExpireAt.Format(time.RFC3339)),
		Metadata: map[string]string{
			"review_id":  review.ReviewID.String(),
			"chapter_id": review.ChapterID.String(),
		},
		CreatedAt: now,
	}
}
