package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

type harness struct {
	svc     *application.Service
	store   *memStore
	cache   *memCache
	sender  *recordingSender
	metrics *countingMetrics
	clock   *fakeClock
}

func newHarness(t *testing.T, mutate ...func(*application.Dependencies)) *harness {
	t.Helper()
	h := &harness{
		store:   newMemStore(),
		cache:   newMemCache(),
		sender:  &recordingSender{},
		metrics: newCountingMetrics(),
		clock:   &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
	}
	deps := application.Dependencies{
		Config: application.Config{
			BatchPageSize: 2,
			RiskWorkers:   2,
		},
		Events:        h.store,
		Risk:          h.store,
		Committees:    h.store,
		Expulsions:    h.store,
		Professionals: h.store,
		Appeals:       appealStore{h.store},
		Notifications: notificationStore{h.store},
		Roles:         h.store,
		Outbox:        h.store,
		EventDedup:    h.store,
		Cache:         h.cache,
		Push:          h.sender,
		Email:         h.sender,
		Metrics:       h.metrics,
		Clock:         h.clock.Now,
	}
	for _, fn := range mutate {
		fn(&deps)
	}
	h.svc = application.NewService(deps)
	return h
}

func (h *harness) addEvents(professionalID uuid.UUID, eventType domain.EventType, n int, at time.Time) {
	for i := 0; i < n; i++ {
		id := uuid.New()
		h.store.events[id] = domain.BehaviorEvent{EventID: id, ProfessionalID: professionalID, EventType: eventType, OccurredAt: at.Add(-time.Duration(i) * time.Second)}
	}
}

func (h *harness) addProfessional(count int) domain.Professional {
	p := domain.Professional{
		ProfessionalID: uuid.New(),
		UserID:         uuid.New(),
		Status:         domain.ProfessionalStatusActive,
		ExpulsionCount: count,
		JoinedAt:       h.clock.Now().Add(-365 * 24 * time.Hour),
	}
	h.store.professionals[p.ProfessionalID] = p
	return p
}

func TestRecordBehaviorEventsRejectsWholeBatch(t *testing.T) {
	h := newHarness(t)
	id := uuid.NewString()

	_, err := h.svc.RecordBehaviorEvents(context.Background(), application.RecordBehaviorEventsRequest{Events: []application.RecordBehaviorEventRequest{
		{ProfessionalID: id, EventType: "offer_contact"},
		{ProfessionalID: id, EventType: "teleport"},
	}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, h.store.events)

	future := h.clock.Now().Add(time.Hour)
	_, err = h.svc.RecordBehaviorEvents(context.Background(), application.RecordBehaviorEventsRequest{Events: []application.RecordBehaviorEventRequest{
		{ProfessionalID: id, EventType: "offer_view", OccurredAt: &future},
	}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	n, err := h.svc.RecordBehaviorEvents(context.Background(), application.RecordBehaviorEventsRequest{Events: []application.RecordBehaviorEventRequest{
		{ProfessionalID: id, EventType: "offer_contact"},
		{ProfessionalID: id, EventType: "price_discussed", Metadata: map[string]any{"offer_id": "o1"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, h.store.events, 2)
}

func TestHandleBehaviorRecordedIgnoresRedelivery(t *testing.T) {
	h := newHarness(t)
	eventID := uuid.NewString()
	payload := []byte(`{"event_id":"` + eventID + `","event_type":"professional.behavior_recorded","data":{"professional_id":"` + uuid.NewString() + `","behavior_type":"rapid_messaging"}}`)

	require.NoError(t, h.svc.HandleBehaviorRecorded(context.Background(), payload))
	require.NoError(t, h.svc.HandleBehaviorRecorded(context.Background(), payload))
	assert.Len(t, h.store.events, 1)

	err := h.svc.HandleBehaviorRecorded(context.Background(), []byte(`{"event_id":"`+uuid.NewString()+`","data":{"professional_id":"`+uuid.NewString()+`","behavior_type":"wire_transfer"}}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnalyzeBehaviorRecordsRunSnapshotAndViolation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	professionalID := uuid.New()
	recent := h.clock.Now().Add(-time.Hour)
	h.addEvents(professionalID, domain.EventTypeOfferContact, 16, recent)
	h.addEvents(professionalID, domain.EventTypeContactInfoShared, 9, recent)

	result, err := h.svc.AnalyzeBehavior(ctx, professionalID)
	require.NoError(t, err)
	assert.Equal(t, 65, result.RiskScore)
	assert.True(t, result.AlertTriggered)
	assert.Equal(t, 25, result.EventsAnalyzed)
	assert.Len(t, result.RiskFactors, 2)

	require.Len(t, h.store.violations, 1)
	assert.Equal(t, domain.SeverityMedium, h.store.violations[0].Severity)
	assert.False(t, h.store.violations[0].Blocked)
	assert.ElementsMatch(t, []string{domain.EventRiskSnapshotRefreshed, domain.EventViolationCreated}, h.store.outboxTypes())

	snap, err := h.svc.GetRiskSnapshot(ctx, professionalID)
	require.NoError(t, err)
	assert.Equal(t, 65, snap.OverallScore)
	assert.Equal(t, []int{65}, h.metrics.observedRiskScore)

	h.clock.Advance(2 * 24 * time.Hour)
	result, err = h.svc.AnalyzeBehavior(ctx, professionalID)
	require.NoError(t, err)
	assert.Zero(t, result.RiskScore)
	assert.NotNil(t, result.RiskFactors)

	runs, err := h.svc.ListRiskHistory(ctx, professionalID, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2, "every run is kept in the ledger")
	assert.Zero(t, runs[0].OverallScore)
	assert.Equal(t, 65, runs[1].OverallScore)

	snap, err = h.svc.GetRiskSnapshot(ctx, professionalID)
	require.NoError(t, err)
	assert.Zero(t, snap.OverallScore, "cache is invalidated when a new run lands")
	assert.Len(t, h.store.violations, 1)
}

func TestAnalyzeBehaviorRequiresProfessional(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.AnalyzeBehavior(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetRiskSnapshotServesFromCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	professionalID := uuid.New()
	h.store.snapshots[professionalID] = domain.RiskSnapshot{ProfessionalID: professionalID, OverallScore: 42}

	first, err := h.svc.GetRiskSnapshot(ctx, professionalID)
	require.NoError(t, err)
	h.store.snapshots[professionalID] = domain.RiskSnapshot{ProfessionalID: professionalID, OverallScore: 7}
	second, err := h.svc.GetRiskSnapshot(ctx, professionalID)
	require.NoError(t, err)
	assert.Equal(t, first.OverallScore, second.OverallScore)

	_, err = h.svc.GetRiskSnapshot(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalyzeRecentlyActiveContinuesPastFailures(t *testing.T) {
	h := newHarness(t)
	recent := h.clock.Now().Add(-time.Hour)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		h.addEvents(id, domain.EventTypeOfferView, 1, recent)
	}
	h.addEvents(uuid.New(), domain.EventTypeOfferView, 1, h.clock.Now().Add(-30*24*time.Hour))
	h.store.failSave[ids[1]] = errors.New("disk full")

	report, err := h.svc.AnalyzeRecentlyActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Items, 3, "inactive professionals are not scored and pages are followed")
	assert.Equal(t, 2, report.Succeeded())
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, h.metrics.items[application.JobAnalyzeBehavior+":failed"])
	for _, item := range report.Items {
		if item.Subject == ids[1].String() {
			assert.Equal(t, domain.ItemFailed, item.Outcome)
			assert.Contains(t, item.Reason, "disk full")
		}
	}
}

func (h *harness) addChapter(points ...int) (uuid.UUID, []domain.ChapterMember) {
	chapterID := uuid.New()
	members := make([]domain.ChapterMember, 0, len(points))
	for i, pts := range points {
		members = append(members, domain.ChapterMember{
			ChapterID:      chapterID,
			ProfessionalID: uuid.New(),
			Status:         domain.MemberStatusApproved,
			JoinedAt:       h.clock.Now().Add(-time.Duration(len(points)-i) * time.Hour),
			TotalPoints:    pts,
		})
	}
	h.store.members[chapterID] = members
	return chapterID, members
}

func TestRotateCommitteesFoundingThenPeriodic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	chapterID, members := h.addChapter(50, 400, 300, 200)
	members[1].IsBlocked = true
	h.store.members[chapterID] = members

	result, err := h.svc.RotateCommittees(ctx)
	require.NoError(t, err)
	require.Len(t, result.Rotations, 1)
	outcome := result.Rotations[0]
	assert.Equal(t, domain.RotationStatusRotated, outcome.Status)
	assert.Equal(t, []uuid.UUID{members[2].ProfessionalID, members[3].ProfessionalID, members[0].ProfessionalID}, outcome.Committee)

	current, err := h.svc.GetCurrentCommittee(ctx, chapterID)
	require.NoError(t, err)
	assert.True(t, current.IsFounding)
	assert.Equal(t, h.clock.Now().Add(domain.RotationPeriod), current.NextRotationAt)

	again, err := h.svc.RotateCommittees(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Rotations, "a chapter with a current rotation is not a candidate")
	assert.Len(t, h.store.rotations, 1)

	h.clock.Advance(domain.RotationPeriod)
	later, err := h.svc.RotateCommittees(ctx)
	require.NoError(t, err)
	require.Len(t, later.Rotations, 1)
	assert.Equal(t, domain.RotationStatusRotated, later.Rotations[0].Status)
	current, err = h.svc.GetCurrentCommittee(ctx, chapterID)
	require.NoError(t, err)
	assert.False(t, current.IsFounding)
	assert.Len(t, h.store.rotations, 2)
	assert.Contains(t, h.store.outboxTypes(), domain.EventCommitteeRotated)
}

func TestRotateCommitteesSkipsUnderstaffedChapters(t *testing.T) {
	h := newHarness(t)
	chapterID, members := h.addChapter(10, 20, 30)
	members[0].Status = domain.MemberStatusPending
	h.store.members[chapterID] = members
	h.addChapter(1, 2)

	result, err := h.svc.RotateCommittees(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Rotations, 1, "chapters below the member floor are not candidates")
	assert.Equal(t, domain.RotationStatusSkipped, result.Rotations[0].Status)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Report.Skipped())
	assert.Empty(t, h.store.rotations)
}

func TestRotateCommitteesSkipsWhenLockHeld(t *testing.T) {
	h := newHarness(t, func(d *application.Dependencies) { d.Locker = heldLocker{} })
	h.addChapter(1, 2, 3)

	result, err := h.svc.RotateCommittees(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Rotations, 1)
	assert.Equal(t, domain.RotationStatusSkipped, result.Rotations[0].Status)
	assert.Empty(t, h.store.rotations)
}

func (h *harness) addReview(professionalID, chapterID uuid.UUID, createdAgo, expiresIn time.Duration) domain.ExpulsionReview {
	now := h.clock.Now()
	review := domain.ExpulsionReview{
		ReviewID:       uuid.New(),
		ProfessionalID: professionalID,
		ChapterID:      chapterID,
		Status:         domain.ReviewStatusPending,
		CreatedAt:      now.Add(-createdAgo),
		AutoExpireAt:   now.Add(expiresIn),
	}
	h.store.reviews[review.ReviewID] = review
	return review
}

func TestProcessExpulsionVotesEscalates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.addProfessional(0)
	repeat := h.addProfessional(1)
	r1 := h.addReview(first.ProfessionalID, uuid.New(), 8*24*time.Hour, -time.Hour)
	r2 := h.addReview(repeat.ProfessionalID, uuid.New(), 8*24*time.Hour, -time.Minute)
	h.addReview(first.ProfessionalID, uuid.New(), time.Hour, 6*24*time.Hour)

	result, err := h.svc.ProcessExpulsionVotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.AutoExpulsions)
	assert.Zero(t, result.Failures)

	assert.Equal(t, domain.ProfessionalStatusInactive, h.store.professionals[first.ProfessionalID].Status)
	assert.Equal(t, 1, h.store.professionals[first.ProfessionalID].ExpulsionCount)
	assert.Equal(t, domain.ProfessionalStatusBanned, h.store.professionals[repeat.ProfessionalID].Status)
	assert.Equal(t, 2, h.store.professionals[repeat.ProfessionalID].ExpulsionCount)
	assert.Equal(t, domain.ReviewStatusAutoExpired, h.store.reviews[r1.ReviewID].Status)
	assert.Equal(t, domain.ReviewStatusAutoExpired, h.store.reviews[r2.ReviewID].Status)

	require.Len(t, h.store.notifications, 2)
	assert.Len(t, h.sender.pushes, 2)
	assert.Len(t, h.sender.emails, 2)
	assert.Equal(t, []string{domain.EventExpulsionAutoExpired, domain.EventExpulsionAutoExpired}, h.store.outboxTypes())

	again, err := h.svc.ProcessExpulsionVotes(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.AutoExpulsions, "terminal reviews are never processed twice")
	assert.Equal(t, 2, h.store.professionals[repeat.ProfessionalID].ExpulsionCount)
}

func TestProcessExpulsionVotesIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	failing := h.addProfessional(0)
	healthy := h.addProfessional(0)
	broken := h.addReview(failing.ProfessionalID, uuid.New(), 8*24*time.Hour, -time.Hour)
	h.addReview(healthy.ProfessionalID, uuid.New(), 8*24*time.Hour, -time.Hour)
	h.addReview(uuid.New(), uuid.New(), 8*24*time.Hour, -time.Hour)
	h.store.failExpiry[broken.ReviewID] = errors.New("deadlock detected")

	result, err := h.svc.ProcessExpulsionVotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AutoExpulsions)
	assert.Equal(t, 2, result.Failures, "a failed write and a missing professional are both recorded")
	assert.Equal(t, domain.ReviewStatusPending, h.store.reviews[broken.ReviewID].Status)
	assert.Zero(t, h.store.professionals[failing.ProfessionalID].ExpulsionCount)
	assert.Equal(t, domain.ProfessionalStatusInactive, h.store.professionals[healthy.ProfessionalID].Status)
}

func TestProcessExpulsionVotesRemindsSilentMembers(t *testing.T) {
	h := newHarness(t)
	chapterID, members := h.addChapter(30, 20, 10, 5)
	_, err := h.svc.RotateCommittees(context.Background())
	require.NoError(t, err)

	accused := h.addProfessional(0)
	review := h.addReview(accused.ProfessionalID, chapterID, 3*24*time.Hour, 4*24*time.Hour)
	h.addReview(accused.ProfessionalID, chapterID, time.Hour, 7*24*time.Hour)
	h.store.votes = append(h.store.votes, domain.ExpulsionVote{VoteID: uuid.New(), ReviewID: review.ReviewID, VoterID: members[0].ProfessionalID, Vote: "expel"})

	result, err := h.svc.ProcessExpulsionVotes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.AutoExpulsions)
	assert.Equal(t, 2, result.RemindersSent)
	require.Len(t, h.store.notifications, 2)
	reminded := []uuid.UUID{h.store.notifications[0].ProfessionalID, h.store.notifications[1].ProfessionalID}
	assert.ElementsMatch(t, []uuid.UUID{members[1].ProfessionalID, members[2].ProfessionalID}, reminded)
	assert.Equal(t, domain.NotificationTypeVoteReminder, h.store.notifications[0].Type)
}

func TestProcessExpulsionVotesSkipsChaptersWithoutCommittee(t *testing.T) {
	h := newHarness(t)
	accused := h.addProfessional(0)
	h.addReview(accused.ProfessionalID, uuid.New(), 3*24*time.Hour, 4*24*time.Hour)

	result, err := h.svc.ProcessExpulsionVotes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.RemindersSent)
	assert.Zero(t, result.Failures)
	assert.Equal(t, 1, result.Report.Skipped())
}

func TestDispatchFailuresDoNotFailTheBatch(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("provider down")
	p := h.addProfessional(0)
	h.addReview(p.ProfessionalID, uuid.New(), 8*24*time.Hour, -time.Hour)

	result, err := h.svc.ProcessExpulsionVotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AutoExpulsions)
	assert.Zero(t, result.Failures)
	assert.Equal(t, 2, h.metrics.dispatchFailures)
	assert.Len(t, h.store.notifications, 1, "the in-app notification is durable regardless of push")
}

func TestOpenReviewFixesDeadline(t *testing.T) {
	h := newHarness(t)
	p := h.addProfessional(0)

	review, err := h.svc.OpenReview(context.Background(), application.OpenReviewRequest{
		ProfessionalID: p.ProfessionalID.String(),
		ChapterID:      uuid.NewString(),
		TriggerDetails: map[string]any{"reports": 4},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusPending, review.Status)
	assert.Equal(t, h.clock.Now().Add(domain.DefaultReviewWindow), review.AutoExpireAt)

	_, err = h.svc.OpenReview(context.Background(), application.OpenReviewRequest{ProfessionalID: uuid.NewString(), ChapterID: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.svc.OpenReview(context.Background(), application.OpenReviewRequest{ProfessionalID: "x", ChapterID: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func (h *harness) addPenalty(p domain.Professional, points int) domain.UserPenalty {
	penalty := domain.UserPenalty{
		PenaltyID:      uuid.New(),
		ProfessionalID: p.ProfessionalID,
		PenaltyType:    "points_deduction",
		PointsDeducted: points,
		IsActive:       true,
		CreatedAt:      h.clock.Now().Add(-24 * time.Hour),
	}
	h.store.penalties[penalty.PenaltyID] = penalty
	return penalty
}

func TestSubmitAppealOwnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.addProfessional(0)
	other := h.addProfessional(0)
	penalty := h.addPenalty(owner, 25)

	appeal, err := h.svc.SubmitAppeal(ctx, application.Actor{UserID: owner.UserID}, application.CreateAppealRequest{PenaltyID: penalty.PenaltyID.String(), Reason: " misunderstanding "})
	require.NoError(t, err)
	assert.Equal(t, domain.AppealStatusPending, appeal.Status)
	assert.Equal(t, "misunderstanding", appeal.AppealReason)

	_, err = h.svc.SubmitAppeal(ctx, application.Actor{UserID: other.UserID}, application.CreateAppealRequest{PenaltyID: penalty.PenaltyID.String(), Reason: "not mine"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.SubmitAppeal(ctx, application.Actor{UserID: owner.UserID}, application.CreateAppealRequest{PenaltyID: penalty.PenaltyID.String(), Reason: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.svc.SubmitAppeal(ctx, application.Actor{}, application.CreateAppealRequest{PenaltyID: penalty.PenaltyID.String(), Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	second, err := h.svc.SubmitAppeal(ctx, application.Actor{UserID: owner.UserID}, application.CreateAppealRequest{PenaltyID: penalty.PenaltyID.String(), Reason: "more context"})
	require.NoError(t, err, "several open appeals on one penalty are allowed")
	assert.NotEqual(t, appeal.AppealID, second.AppealID)

	open, err := h.svc.HasOpenAppeal(ctx, penalty.PenaltyID)
	require.NoError(t, err)
	assert.True(t, open)

	list, err := h.svc.ListAppeals(ctx, application.Actor{UserID: owner.UserID}, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUpdateAppealApprovalLiftsPenalty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.addProfessional(0)
	penalty := h.addPenalty(owner, 25)
	reviewer := uuid.New()
	appeal, err := h.svc.CreateAppeal(ctx, application.CreateAppealInput{PenaltyID: penalty.PenaltyID, ProfessionalID: owner.ProfessionalID, Reason: "wrong account"})
	require.NoError(t, err)

	inReview, err := h.svc.UpdateAppeal(ctx, application.UpdateAppealInput{AppealID: appeal.AppealID, Status: "under_review", ReviewedBy: reviewer})
	require.NoError(t, err)
	assert.Equal(t, domain.AppealStatusUnderReview, inReview.Status)
	assert.True(t, h.store.penalties[penalty.PenaltyID].IsActive)

	approved, err := h.svc.UpdateAppeal(ctx, application.UpdateAppealInput{AppealID: appeal.AppealID, Status: "approved", AdminResponse: "confirmed", ReviewedBy: reviewer})
	require.NoError(t, err)
	assert.Equal(t, domain.AppealStatusApproved, approved.Status)
	assert.False(t, h.store.penalties[penalty.PenaltyID].IsActive)
	assert.Zero(t, h.store.professionals[owner.ProfessionalID].TotalPoints, "points are not restored unless configured")

	_, err = h.svc.UpdateAppeal(ctx, application.UpdateAppealInput{AppealID: appeal.AppealID, Status: "rejected", ReviewedBy: reviewer})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Contains(t, h.store.outboxTypes(), domain.EventAppealDecided)

	open, err := h.svc.HasOpenAppeal(ctx, penalty.PenaltyID)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestUpdateAppealRestoresPointsWhenConfigured(t *testing.T) {
	h := newHarness(t, func(d *application.Dependencies) { d.Config.RestorePointsOnApproval = true })
	ctx := context.Background()
	owner := h.addProfessional(0)
	penalty := h.addPenalty(owner, 25)
	appeal, err := h.svc.CreateAppeal(ctx, application.CreateAppealInput{PenaltyID: penalty.PenaltyID, ProfessionalID: owner.ProfessionalID, Reason: "wrong account"})
	require.NoError(t, err)

	_, err = h.svc.UpdateAppeal(ctx, application.UpdateAppealInput{AppealID: appeal.AppealID, Status: "approved", ReviewedBy: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 25, h.store.professionals[owner.ProfessionalID].TotalPoints)
}

func TestUpdateAppealRejectionKeepsPenalty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.addProfessional(0)
	penalty := h.addPenalty(owner, 10)
	appeal, err := h.svc.CreateAppeal(ctx, application.CreateAppealInput{PenaltyID: penalty.PenaltyID, ProfessionalID: owner.ProfessionalID, Reason: "unfair"})
	require.NoError(t, err)

	rejected, err := h.svc.UpdateAppeal(ctx, application.UpdateAppealInput{AppealID: appeal.AppealID, Status: "rejected", AdminResponse: "evidence upheld", ReviewedBy: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "evidence upheld", rejected.AdminResponse)
	assert.True(t, h.store.penalties[penalty.PenaltyID].IsActive)

	_, err = h.svc.UpdateAppeal(ctx, application.UpdateAppealInput{AppealID: appeal.AppealID, Status: "pending", ReviewedBy: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.svc.UpdateAppeal(ctx, application.UpdateAppealInput{AppealID: uuid.New(), Status: "approved", ReviewedBy: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthentication(t *testing.T) {
	userID := uuid.New()
	adminID := uuid.New()
	h := newHarness(t, func(d *application.Dependencies) {
		d.Tokens = staticTokens{
			"user-token":  ports.AuthClaims{UserID: userID, Role: "user"},
			"admin-token": ports.AuthClaims{UserID: adminID, Role: "user"},
		}
		d.Config.JobsBearerToken = "cron-secret"
	})
	h.store.roles[adminID] = []string{application.RoleAdmin}
	ctx := context.Background()

	actor, err := h.svc.Authenticate(ctx, "user-token")
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID)
	assert.ErrorIs(t, h.svc.RequireAdmin(ctx, actor), domain.ErrForbidden)

	admin, err := h.svc.Authenticate(ctx, "admin-token")
	require.NoError(t, err)
	assert.NoError(t, h.svc.RequireAdmin(ctx, admin), "the role table decides, not the token claim")

	_, err = h.svc.Authenticate(ctx, "forged")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = h.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.NoError(t, h.svc.AuthorizeJob("cron-secret"))
	assert.ErrorIs(t, h.svc.AuthorizeJob("nope"), domain.ErrUnauthorized)
}

func TestAuthorizeJobOpenWithoutToken(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.svc.AuthorizeJob(""))
	_, err := h.svc.Authenticate(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "no verifier configured")
}
