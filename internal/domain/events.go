package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
)

// Outbox event types emitted by the governance engine.
const (
	EventBehaviorRecorded      = "professional.behavior_recorded"
	EventViolationCreated      = "moderation.violation_created"
	EventCommitteeRotated      = "chapter.committee_rotated"
	EventExpulsionAutoExpired  = "expulsion.review_auto_expired"
	EventAppealDecided         = "penalty.appeal_decided"
	EventRiskSnapshotRefreshed = "risk.snapshot_refreshed"
)

type EventType string

const (
	EventTypeOfferView          EventType = "offer_view"
	EventTypeOfferContact       EventType = "offer_contact"
	EventTypeMessageSent        EventType = "message_sent"
	EventTypeProfileView        EventType = "profile_view"
	EventTypeContactInfoShared  EventType = "contact_info_shared"
	EventTypePriceDiscussed     EventType = "price_discussed"
	EventTypeRapidMessaging     EventType = "rapid_messaging"
	EventTypeExternalLinkShared EventType = "external_link_shared"
)

var knownEventTypes = map[EventType]struct{}{
	EventTypeOfferView:          {},
	EventTypeOfferContact:       {},
	EventTypeMessageSent:        {},
	EventTypeProfileView:        {},
	EventTypeContactInfoShared:  {},
	EventTypePriceDiscussed:     {},
	EventTypeRapidMessaging:     {},
	EventTypeExternalLinkShared: {},
}

// ParseEventType validates raw against the closed event type set.
func ParseEventType(raw string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownEventTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEventType, raw)
	}
	return t, nil
}

// BehaviorEvent is immutable once written.
type BehaviorEvent struct {
	EventID        uuid.UUID      `json:"event_id"`
	ProfessionalID uuid.UUID      `json:"professional_id"`
	EventType      EventType      `json:"event_type"`
	OccurredAt     time.Time      `json:"occurred_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
