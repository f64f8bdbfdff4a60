package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	CommitteeSize     = 3
	MinChapterMembers = 3
	RotationPeriod    = 180 * 24 * time.Hour
)

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusApproved MemberStatus = "approved"
	MemberStatusRejected MemberStatus = "rejected"
)

type Chapter struct {
	ChapterID uuid.UUID `json:"chapter_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ChapterMember joins a membership row with the professional's point total.
type ChapterMember struct {
	ChapterID      uuid.UUID    `json:"chapter_id"`
	ProfessionalID uuid.UUID    `json:"professional_id"`
	Status         MemberStatus `json:"status"`
	IsBlocked      bool         `json:"is_blocked"`
	JoinedAt       time.Time    `json:"joined_at"`
	TotalPoints    int          `json:"total_points"`
}

func (m ChapterMember) EligibleForCommittee() bool {
	return m.Status == MemberStatusApproved && !m.IsBlocked
}

type CommitteeRotation struct {
	RotationID     uuid.UUID `json:"rotation_id"`
	ChapterID      uuid.UUID `json:"chapter_id"`
	Member1ID      uuid.UUID `json:"member1_id"`
	Member2ID      uuid.UUID `json:"member2_id"`
	Member3ID      uuid.UUID `json:"member3_id"`
	IsFounding     bool      `json:"is_founding"`
	NextRotationAt time.Time `json:"next_rotation_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r CommitteeRotation) Members() []uuid.UUID {
	return []uuid.UUID{r.Member1ID, r.Member2ID, r.Member3ID}
}

func (r CommitteeRotation) HasMember(id uuid.UUID) bool {
	return r.Member1ID == id || r.Member2ID == id || r.Member3ID == id
}

// IsDue reports whether the rotation period has elapsed at now.
func (r CommitteeRotation) IsDue(now time.Time) bool {
	return !r.NextRotationAt.After(now)
}

// RankCommitteeCandidates orders eligible members by points descending, then
// earliest join, then professional id, and returns at most CommitteeSize.
func RankCommitteeCandidates(members []ChapterMember) []ChapterMember {
	eligible := make([]ChapterMember, 0, len(members))
	for _, m := range members {
		if m.EligibleForCommittee() {
			eligible = append(eligible, m)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ProfessionalID.String() < b.ProfessionalID.String()
	})
	if len(eligible) > CommitteeSize {
		eligible = eligible[:CommitteeSize]
	}
	return eligible
}

// NewCommitteeRotation staffs a rotation from ranked members. ok is false when
// fewer than CommitteeSize members are eligible. A non-positive period falls
// back to RotationPeriod.
func NewCommitteeRotation(chapterID uuid.UUID, ranked []ChapterMember, founding bool, now time.Time, period time.Duration) (CommitteeRotation, bool) {
	if len(ranked) < CommitteeSize {
		return CommitteeRotation{}, false
	}
	if period <= 0 {
		period = RotationPeriod
	}
	return CommitteeRotation{
		RotationID:     uuid.New(),
		ChapterID:      chapterID,
		Member1ID:      ranked[0].ProfessionalID,
		Member2ID:      ranked[1].ProfessionalID,
		Member3ID:      ranked[2].ProfessionalID,
		IsFounding:     founding,
		NextRotationAt: now.Add(period),
		CreatedAt:      now,
	}, true
}

type RotationStatus string

const (
	RotationStatusRotated RotationStatus = "rotated"
	RotationStatusSkipped RotationStatus = "skipped"
	RotationStatusError   RotationStatus = "error"
)

type RotationOutcome struct {
	ChapterID uuid.UUID      `json:"chapterId"`
	Status    RotationStatus `json:"status"`
	Committee []uuid.UUID    `json:"committee,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}
