package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	RiskWindow     = 24 * time.Hour
	SequenceWindow = 7 * 24 * time.Hour

	AlertThreshold        = 60
	HighSeverityThreshold = 80
	MaxRiskScore          = 100

	ViolationTypeBehaviorRisk = "behavior_risk"
)

type RiskFactor struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Score       int      `json:"score"`
}

// Tier fires when the counted events strictly exceed Threshold.
type Tier struct {
	Threshold int
	Factor    RiskFactor
}

// CountRule counts one event type inside RiskWindow. Tiers are ordered from
// the highest threshold down and at most one tier fires.
type CountRule struct {
	EventType EventType
	Tiers     []Tier
}

func (r CountRule) Evaluate(counts map[EventType]int) (RiskFactor, bool) {
	n := counts[r.EventType]
	for _, tier := range r.Tiers {
		if n > tier.Threshold {
			return tier.Factor, true
		}
	}
	return RiskFactor{}, false
}

// SequenceRule counts adjacent First -> Then pairs no more than MaxGap apart.
type SequenceRule struct {
	First     EventType
	Then      EventType
	MaxGap    time.Duration
	Threshold int
	Factor    RiskFactor
}

func (r SequenceRule) CountPairs(ordered []BehaviorEvent) int {
	pairs := 0
	for i := 0; i+1 < len(ordered); i++ {
		cur, next := ordered[i], ordered[i+1]
		if cur.EventType != r.First || next.EventType != r.Then {
			continue
		}
		if next.OccurredAt.Sub(cur.OccurredAt) <= r.MaxGap {
			pairs++
		}
	}
	return pairs
}

func (r SequenceRule) Evaluate(ordered []BehaviorEvent) (RiskFactor, bool) {
	if r.CountPairs(ordered) > r.Threshold {
		return r.Factor, true
	}
	return RiskFactor{}, false
}

var CountRules = []CountRule{
	{
		EventType: EventTypeOfferContact,
		Tiers: []Tier{
			{Threshold: 15, Factor: RiskFactor{Type: "excessive_contacts", Severity: SeverityHigh, Description: "Unusually high number of offer contacts in 24 hours", Score: 30}},
			{Threshold: 10, Factor: RiskFactor{Type: "high_contacts", Severity: SeverityMedium, Description: "Elevated number of offer contacts in 24 hours", Score: 15}},
		},
	},
	{
		EventType: EventTypeRapidMessaging,
		Tiers: []Tier{
			{Threshold: 5, Factor: RiskFactor{Type: "rapid_messaging", Severity: SeverityHigh, Description: "Rapid messaging bursts detected", Score: 25}},
		},
	},
	{
		EventType: EventTypeContactInfoShared,
		Tiers: []Tier{
			{Threshold: 8, Factor: RiskFactor{Type: "frequent_contact_sharing", Severity: SeverityHigh, Description: "Contact information shared very frequently", Score: 35}},
			{Threshold: 5, Factor: RiskFactor{Type: "contact_sharing", Severity: SeverityMedium, Description: "Contact information shared repeatedly", Score: 20}},
		},
	},
	{
		EventType: EventTypeExternalLinkShared,
		Tiers: []Tier{
			{Threshold: 5, Factor: RiskFactor{Type: "external_links", Severity: SeverityMedium, Description: "Multiple external links shared", Score: 20}},
		},
	},
}

var PriceThenContactRule = SequenceRule{
	First:     EventTypePriceDiscussed,
	Then:      EventTypeContactInfoShared,
	MaxGap:    5 * time.Minute,
	Threshold: 3,
	Factor:    RiskFactor{Type: "price_then_contact_pattern", Severity: SeverityHigh, Description: "Contact details shared right after price discussions", Score: 40},
}

type RiskAssessment struct {
	Score          int          `json:"risk_score"`
	Factors        []RiskFactor `json:"risk_factors"`
	AlertTriggered bool         `json:"alert_triggered"`
	EventsAnalyzed int          `json:"events_analyzed"`
}

// AssessBehavior applies the count rules to events inside RiskWindow and the
// sequence rule to events inside SequenceWindow. events may be unordered.
func AssessBehavior(now time.Time, events []BehaviorEvent) RiskAssessment {
	recentSince := now.Add(-RiskWindow)
	sequenceSince := now.Add(-SequenceWindow)

	counts := make(map[EventType]int)
	analyzed := 0
	window := make([]BehaviorEvent, 0, len(events))
	for _, ev := range events {
		if ev.OccurredAt.After(now) {
			continue
		}
		if !ev.OccurredAt.Before(recentSince) {
			counts[ev.EventType]++
			analyzed++
		}
		if !ev.OccurredAt.Before(sequenceSince) {
			window = append(window, ev)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].OccurredAt.Before(window[j].OccurredAt)
	})

	factors := make([]RiskFactor, 0, len(CountRules)+1)
	for _, rule := range CountRules {
		if factor, ok := rule.Evaluate(counts); ok {
			factors = append(factors, factor)
		}
	}
	if factor, ok := PriceThenContactRule.Evaluate(window); ok {
		factors = append(factors, factor)
	}

	total := 0
	for _, f := range factors {
		total += f.Score
	}
	score := ClampScore(total)
	return RiskAssessment{
		Score:          score,
		Factors:        factors,
		AlertTriggered: score >= AlertThreshold,
		EventsAnalyzed: analyzed,
	}
}

func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxRiskScore {
		return MaxRiskScore
	}
	return v
}

// RiskSnapshot is the current view of a professional's latest scoring run.
type RiskSnapshot struct {
	ProfessionalID        uuid.UUID    `json:"professional_id"`
	OverallScore          int          `json:"overall_score"`
	RiskFactors           []RiskFactor `json:"risk_factors"`
	LastUpdated           time.Time    `json:"last_updated"`
	AlertThresholdReached bool         `json:"alert_threshold_reached"`
}

// RiskScoreRun is one append-only ledger entry.
type RiskScoreRun struct {
	RunID                 uuid.UUID    `json:"run_id"`
	ProfessionalID        uuid.UUID    `json:"professional_id"`
	OverallScore          int          `json:"overall_score"`
	RiskFactors           []RiskFactor `json:"risk_factors"`
	EventsAnalyzed        int          `json:"events_analyzed"`
	AlertThresholdReached bool         `json:"alert_threshold_reached"`
	ComputedAt            time.Time    `json:"computed_at"`
}

func (r RiskScoreRun) Snapshot() RiskSnapshot {
	return RiskSnapshot{
		ProfessionalID:        r.ProfessionalID,
		OverallScore:          r.OverallScore,
		RiskFactors:           r.RiskFactors,
		LastUpdated:           r.ComputedAt,
		AlertThresholdReached: r.AlertThresholdReached,
	}
}

type ModerationViolation struct {
	ViolationID         uuid.UUID `json:"violation_id"`
	ProfessionalID      uuid.UUID `json:"professional_id"`
	ViolationType       string    `json:"violation_type"`
	Severity            Severity  `json:"severity"`
	Reason              string    `json:"reason"`
	Categories          []string  `json:"categories"`
	AutoDetected        bool      `json:"auto_detected"`
	DetectionConfidence int       `json:"detection_confidence"`
	Blocked             bool      `json:"blocked"`
	CreatedAt           time.Time `json:"created_at"`
}

// ViolationForAssessment returns the violation a scoring run must record, if any.
// The scorer never blocks; violations are flags for human follow-up.
func ViolationForAssessment(professionalID uuid.UUID, a RiskAssessment, now time.Time) (ModerationViolation, bool) {
	if a.Score < AlertThreshold {
		return ModerationViolation{}, false
	}
	severity := SeverityMedium
	if a.Score >= HighSeverityThreshold {
		severity = SeverityHigh
	}
	categories := make([]string, 0, len(a.Factors))
	for _, f := range a.Factors {
		categories = append(categories, f.Type)
	}
	return ModerationViolation{
		ViolationID:         uuid.New(),
		ProfessionalID:      professionalID,
		ViolationType:       ViolationTypeBehaviorRisk,
		Severity:            severity,
		Reason:              fmt.Sprintf("automated behavior analysis scored %d", a.Score),
		Categories:          categories,
		AutoDetected:        true,
		DetectionConfidence: a.Score,
		Blocked:             false,
		CreatedAt:           now,
	}, true
}
