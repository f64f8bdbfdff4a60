package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// BanThreshold is the expulsion count at which a professional is banned.
	BanThreshold        = 2
	ReentryWaitMonths   = 6
	ReminderAfter       = 48 * time.Hour
	DefaultReviewWindow = 7 * 24 * time.Hour
)

type ProfessionalStatus string

const (
	ProfessionalStatusActive   ProfessionalStatus = "active"
	ProfessionalStatusInactive ProfessionalStatus = "inactive"
	ProfessionalStatusBanned   ProfessionalStatus = "banned"
)

type Professional struct {
	ProfessionalID  uuid.UUID          `json:"professional_id"`
	UserID          uuid.UUID          `json:"user_id"`
	Status          ProfessionalStatus `json:"status"`
	ExpulsionCount  int                `json:"expulsion_count"`
	LastExpulsionAt *time.Time         `json:"last_expulsion_at,omitempty"`
	TotalPoints     int                `json:"total_points"`
	JoinedAt        time.Time          `json:"joined_at"`
}

// Expel applies one escalation step: the count increments and the status is
// banned once it reaches BanThreshold, inactive before that.
func (p Professional) Expel(now time.Time) Professional {
	p.ExpulsionCount++
	if p.ExpulsionCount >= BanThreshold {
		p.Status = ProfessionalStatusBanned
	} else {
		p.Status = ProfessionalStatusInactive
	}
	at := now
	p.LastExpulsionAt = &at
	return p
}

type ReviewStatus string

const (
	ReviewStatusPending     ReviewStatus = "pending"
	ReviewStatusAutoExpired ReviewStatus = "auto_expired"
	ReviewStatusResolved    ReviewStatus = "resolved"
)

func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusAutoExpired || s == ReviewStatusResolved
}

type ExpulsionReview struct {
	ReviewID       uuid.UUID      `json:"review_id"`
	ProfessionalID uuid.UUID      `json:"professional_id"`
	ChapterID      uuid.UUID      `json:"chapter_id"`
	Status         ReviewStatus   `json:"status"`
	TriggerDetails map[string]any `json:"trigger_details,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	AutoExpireAt   time.Time      `json:"auto_expire_at"`
	DecidedAt      *time.Time     `json:"decided_at,omitempty"`
}

func (r ExpulsionReview) IsExpired(now time.Time) bool {
	return r.Status == ReviewStatusPending && r.AutoExpireAt.Before(now)
}

func (r ExpulsionReview) NeedsReminder(now time.Time, after time.Duration) bool {
	return r.Status == ReviewStatusPending && r.CreatedAt.Before(now.Add(-after))
}

// AutoExpire moves a pending review to auto_expired.
func (r ExpulsionReview) AutoExpire(now time.Time) (ExpulsionReview, error) {
	if r.Status != ReviewStatusPending {
		return r, fmt.Errorf("%w: review %s is %s", ErrInvalidTransition, r.ReviewID, r.Status)
	}
	r.Status = ReviewStatusAutoExpired
	at := now
	r.DecidedAt = &at
	return r, nil
}

type ExpulsionVote struct {
	VoteID    uuid.UUID `json:"vote_id"`
	ReviewID  uuid.UUID `json:"review_id"`
	VoterID   uuid.UUID `json:"voter_id"`
	Vote      string    `json:"vote"`
	CreatedAt time.Time `json:"created_at"`
}

// SilentMembers returns committee members other than the accused with no vote
// recorded for the review.
func SilentMembers(rotation CommitteeRotation, accused uuid.UUID, votes []ExpulsionVote) []uuid.UUID {
	voted := make(map[uuid.UUID]struct{}, len(votes))
	for _, v := range votes {
		voted[v.VoterID] = struct{}{}
	}
	out := make([]uuid.UUID, 0, CommitteeSize)
	for _, id := range rotation.Members() {
		if id == accused {
			continue
		}
		if _, ok := voted[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}
