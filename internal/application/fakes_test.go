package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// memStore backs every repository port with maps guarded by one mutex, so the
// multi-entity writes behave like the transactional adapters.
type memStore struct {
	mu sync.Mutex

	events        map[uuid.UUID]domain.BehaviorEvent
	runs          []domain.RiskScoreRun
	snapshots     map[uuid.UUID]domain.RiskSnapshot
	violations    []domain.ModerationViolation
	professionals map[uuid.UUID]domain.Professional
	members       map[uuid.UUID][]domain.ChapterMember
	rotations     []domain.CommitteeRotation
	reviews       map[uuid.UUID]domain.ExpulsionReview
	votes         []domain.ExpulsionVote
	penalties     map[uuid.UUID]domain.UserPenalty
	appeals       map[uuid.UUID]domain.PenaltyAppeal
	notifications []domain.Notification
	roles         map[uuid.UUID][]string
	outbox        []ports.OutboxEvent
	dedup         map[string]time.Time

	failSave   map[uuid.UUID]error
	failExpiry map[uuid.UUID]error
	failNotify error
}

func newMemStore() *memStore {
	return &memStore{
		events:        map[uuid.UUID]domain.BehaviorEvent{},
		snapshots:     map[uuid.UUID]domain.RiskSnapshot{},
		professionals: map[uuid.UUID]domain.Professional{},
		members:       map[uuid.UUID][]domain.ChapterMember{},
		reviews:       map[uuid.UUID]domain.ExpulsionReview{},
		penalties:     map[uuid.UUID]domain.UserPenalty{},
		appeals:       map[uuid.UUID]domain.PenaltyAppeal{},
		roles:         map[uuid.UUID][]string{},
		dedup:         map[string]time.Time{},
		failSave:      map[uuid.UUID]error{},
		failExpiry:    map[uuid.UUID]error{},
	}
}

func (s *memStore) Append(_ context.Context, events []domain.BehaviorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		if _, ok := s.events[ev.EventID]; !ok {
			s.events[ev.EventID] = ev
		}
	}
	return nil
}

func (s *memStore) ListSince(_ context.Context, professionalID uuid.UUID, since time.Time) ([]domain.BehaviorEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BehaviorEvent
	for _, ev := range s.events {
		if ev.ProfessionalID == professionalID && !ev.OccurredAt.Before(since) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (s *memStore) ListActiveProfessionals(_ context.Context, since time.Time, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[uuid.UUID]struct{}{}
	for _, ev := range s.events {
		if !ev.OccurredAt.Before(since) && ev.ProfessionalID.String() > afterID.String() {
			seen[ev.ProfessionalID] = struct{}{}
		}
	}
	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *memStore) SaveScoringRun(_ context.Context, write ports.RiskScoringWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failSave[write.Run.ProfessionalID]; err != nil {
		return err
	}
	s.runs = append(s.runs, write.Run)
	s.snapshots[write.Run.ProfessionalID] = write.Run.Snapshot()
	if write.Violation != nil {
		s.violations = append(s.violations, *write.Violation)
	}
	s.outbox = append(s.outbox, write.Events...)
	return nil
}

func (s *memStore) GetSnapshot(_ context.Context, professionalID uuid.UUID) (domain.RiskSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[professionalID]
	if !ok {
		return domain.RiskSnapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

func (s *memStore) ListRuns(_ context.Context, professionalID uuid.UUID, limit int) ([]domain.RiskScoreRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RiskScoreRun
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.runs[i].ProfessionalID == professionalID {
			out = append(out, s.runs[i])
		}
	}
	return out, nil
}

func (s *memStore) ListViolations(_ context.Context, professionalID uuid.UUID, limit int) ([]domain.ModerationViolation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ModerationViolation
	for i := len(s.violations) - 1; i >= 0 && len(out) < limit; i-- {
		if s.violations[i].ProfessionalID == professionalID {
			out = append(out, s.violations[i])
		}
	}
	return out, nil
}

func (s *memStore) latestRotation(chapterID uuid.UUID) (domain.CommitteeRotation, bool) {
	var (
		latest domain.CommitteeRotation
		found  bool
	)
	for _, r := range s.rotations {
		if r.ChapterID == chapterID && (!found || r.NextRotationAt.After(latest.NextRotationAt)) {
			latest, found = r, true
		}
	}
	return latest, found
}

func (s *memStore) ListRotationCandidates(_ context.Context, now time.Time, minMembers int) ([]ports.RotationCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.RotationCandidate
	for chapterID, members := range s.members {
		if latest, ok := s.latestRotation(chapterID); ok {
			if latest.IsDue(now) {
				out = append(out, ports.RotationCandidate{ChapterID: chapterID, HasRotation: true})
			}
			continue
		}
		if len(members) >= minMembers {
			out = append(out, ports.RotationCandidate{ChapterID: chapterID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterID.String() < out[j].ChapterID.String() })
	return out, nil
}

func (s *memStore) ListEligibleMembers(_ context.Context, chapterID uuid.UUID) ([]domain.ChapterMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ChapterMember
	for _, m := range s.members[chapterID] {
		if m.EligibleForCommittee() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) CurrentRotation(_ context.Context, chapterID uuid.UUID) (domain.CommitteeRotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest, ok := s.latestRotation(chapterID)
	if !ok {
		return domain.CommitteeRotation{}, domain.ErrNotFound
	}
	return latest, nil
}

func (s *memStore) InsertRotation(_ context.Context, rotation domain.CommitteeRotation, event ports.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if latest, ok := s.latestRotation(rotation.ChapterID); ok && (rotation.IsFounding || !latest.IsDue(rotation.CreatedAt)) {
		return domain.ErrConflict
	}
	s.rotations = append(s.rotations, rotation)
	s.outbox = append(s.outbox, event)
	return nil
}

func (s *memStore) CreateReview(_ context.Context, review domain.ExpulsionReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[review.ReviewID] = review
	return nil
}

func (s *memStore) GetReview(_ context.Context, reviewID uuid.UUID) (domain.ExpulsionReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review, ok := s.reviews[reviewID]
	if !ok {
		return domain.ExpulsionReview{}, domain.ErrNotFound
	}
	return review, nil
}

func (s *memStore) listPending(afterID uuid.UUID, limit int, keep func(domain.ExpulsionReview) bool) []domain.ExpulsionReview {
	var out []domain.ExpulsionReview
	for _, r := range s.reviews {
		if r.Status == domain.ReviewStatusPending && r.ReviewID.String() > afterID.String() && keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewID.String() < out[j].ReviewID.String() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memStore) ListExpired(_ context.Context, now time.Time, afterID uuid.UUID, limit int) ([]domain.ExpulsionReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPending(afterID, limit, func(r domain.ExpulsionReview) bool { return r.AutoExpireAt.Before(now) }), nil
}

func (s *memStore) ListPendingCreatedBefore(_ context.Context, before time.Time, afterID uuid.UUID, limit int) ([]domain.ExpulsionReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPending(afterID, limit, func(r domain.ExpulsionReview) bool { return r.CreatedAt.Before(before) }), nil
}

func (s *memStore) ListVotes(_ context.Context, reviewID uuid.UUID) ([]domain.ExpulsionVote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ExpulsionVote
	for _, v := range s.votes {
		if v.ReviewID == reviewID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *memStore) ApplyAutoExpiry(_ context.Context, write ports.AutoExpiryWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failExpiry[write.Review.ReviewID]; err != nil {
		return err
	}
	current, ok := s.reviews[write.Review.ReviewID]
	if !ok || current.Status != domain.ReviewStatusPending {
		return domain.ErrConflict
	}
	professional, ok := s.professionals[write.Professional.ProfessionalID]
	if !ok || professional.ExpulsionCount != write.PreviousExpulsionCount {
		return domain.ErrConflict
	}
	s.reviews[write.Review.ReviewID] = write.Review
	s.professionals[write.Professional.ProfessionalID] = write.Professional
	s.notifications = append(s.notifications, write.Notification)
	s.outbox = append(s.outbox, write.Event)
	return nil
}

func (s *memStore) GetByID(_ context.Context, professionalID uuid.UUID) (domain.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.professionals[professionalID]
	if !ok {
		return domain.Professional{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *memStore) GetByUserID(_ context.Context, userID uuid.UUID) (domain.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.professionals {
		if p.UserID == userID {
			return p, nil
		}
	}
	return domain.Professional{}, domain.ErrNotFound
}

func (s *memStore) HasRole(_ context.Context, userID uuid.UUID, role string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles[userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, event)
	return nil
}

func (s *memStore) FetchUnpublished(context.Context, int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (s *memStore) MarkPublished(context.Context, uuid.UUID, time.Time) error { return nil }

func (s *memStore) MarkFailed(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (s *memStore) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.dedup[eventID]
	return ok && expires.After(now), nil
}

func (s *memStore) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dedup[eventID] = expiresAt
	return nil
}

func (s *memStore) outboxTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.outbox))
	for _, ev := range s.outbox {
		out = append(out, ev.EventType)
	}
	return out
}

// appealStore and notificationStore exist because their Create and GetByID
// collide with the professional repository methods on memStore.
type appealStore struct{ *memStore }

func (s appealStore) GetPenalty(_ context.Context, penaltyID uuid.UUID) (domain.UserPenalty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.penalties[penaltyID]
	if !ok {
		return domain.UserPenalty{}, domain.ErrNotFound
	}
	return p, nil
}

func (s appealStore) Create(_ context.Context, appeal domain.PenaltyAppeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appeals[appeal.AppealID] = appeal
	return nil
}

func (s appealStore) GetByID(_ context.Context, appealID uuid.UUID) (domain.PenaltyAppeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appeals[appealID]
	if !ok {
		return domain.PenaltyAppeal{}, domain.ErrNotFound
	}
	return a, nil
}

func (s appealStore) ListByProfessional(_ context.Context, professionalID uuid.UUID, limit int) ([]domain.PenaltyAppeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PenaltyAppeal
	for _, a := range s.appeals {
		if a.ProfessionalID == professionalID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s appealStore) HasOpenAppeal(_ context.Context, penaltyID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appeals {
		if a.PenaltyID == penaltyID && !a.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s appealStore) ApplyDecision(_ context.Context, write ports.AppealDecisionWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.appeals[write.Appeal.AppealID]
	if !ok || current.Status != write.PreviousStatus {
		return domain.ErrConflict
	}
	s.appeals[write.Appeal.AppealID] = write.Appeal
	if write.DeactivatePenalty {
		penalty := s.penalties[write.Appeal.PenaltyID]
		if penalty.IsActive {
			penalty.IsActive = false
			s.penalties[penalty.PenaltyID] = penalty
			if write.RestorePoints > 0 {
				p := s.professionals[penalty.ProfessionalID]
				p.TotalPoints += write.RestorePoints
				s.professionals[p.ProfessionalID] = p
			}
		}
	}
	s.outbox = append(s.outbox, write.Event)
	return nil
}

type notificationStore struct{ *memStore }

func (s notificationStore) Create(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNotify != nil {
		return s.failNotify
	}
	s.notifications = append(s.notifications, n)
	return nil
}

type memCache struct {
	mu      sync.Mutex
	values  map[string]string
	deletes int
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	c.deletes++
	return nil
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return nil, domain.ErrLockNotAcquired
}

type staticTokens map[string]ports.AuthClaims

func (t staticTokens) Verify(raw string) (ports.AuthClaims, error) {
	claims, ok := t[raw]
	if !ok {
		return ports.AuthClaims{}, errors.New("token not recognised")
	}
	return claims, nil
}

type recordingSender struct {
	mu     sync.Mutex
	pushes []ports.PushMessage
	emails []ports.EmailMessage
	err    error
}

func (r *recordingSender) SendPush(_ context.Context, msg ports.PushMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, msg)
	return r.err
}

func (r *recordingSender) SendEmail(_ context.Context, msg ports.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, msg)
	return r.err
}

type countingMetrics struct {
	mu                sync.Mutex
	items             map[string]int
	dispatchFailures  int
	observedRiskScore []int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{items: map[string]int{}}
}

func (m *countingMetrics) ObserveBatchItem(job, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[job+":"+outcome]++
}

func (m *countingMetrics) ObserveRiskScore(score int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observedRiskScore = append(m.observedRiskScore, score)
}

func (m *countingMetrics) ObserveDispatchFailure(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchFailures++
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
