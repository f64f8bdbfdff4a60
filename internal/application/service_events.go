package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// maxClockSkew bounds how far in the future an ingested event may be stamped.
const maxClockSkew = 5 * time.Minute

type eventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class"`
	OccurredAt       string          `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	SchemaVersion    string          `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

func (s *Service) newOutboxEvent(eventType, eventClass, partitionKey, partitionKeyPath string, data any) ports.OutboxEvent {
	occurredAt := s.nowFn()
	eventID := uuid.New()
	rawData, _ := json.Marshal(data)
	payload, _ := json.Marshal(eventEnvelope{
		EventID:          eventID.String(),
		EventType:        eventType,
		EventClass:       eventClass,
		OccurredAt:       occurredAt.Format(time.RFC3339),
		SourceService:    s.cfg.ServiceName,
		SchemaVersion:    "1.0",
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             rawData,
	})
	return ports.OutboxEvent{
		EventID:          eventID,
		EventType:        eventType,
		PartitionKey:     partitionKey,
		PartitionKeyPath: partitionKeyPath,
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    "1.0",
	}
}

// RecordBehaviorEvents validates a batch against the closed event type set and
// appends it. Nothing is written if any event is rejected.
func (s *Service) RecordBehaviorEvents(ctx context.Context, req RecordBehaviorEventsRequest) (int, error) {
	if len(req.Events) == 0 {
		return 0, fmt.Errorf("%w: events are required", domain.ErrInvalidInput)
	}
	now := s.nowFn()
	out := make([]domain.BehaviorEvent, 0, len(req.Events))
	for i, item := range req.Events {
		ev, err := s.toBehaviorEvent(item, now)
		if err != nil {
			return 0, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	if err := s.events.Append(ctx, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

func (s *Service) toBehaviorEvent(item RecordBehaviorEventRequest, now time.Time) (domain.BehaviorEvent, error) {
	professionalID, err := uuid.Parse(strings.TrimSpace(item.ProfessionalID))
	if err != nil || professionalID == uuid.Nil {
		return domain.BehaviorEvent{}, fmt.Errorf("%w: invalid professional_id", domain.ErrInvalidInput)
	}
	eventType, err := domain.ParseEventType(item.EventType)
	if err != nil {
		return domain.BehaviorEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	occurredAt := now
	if item.OccurredAt != nil {
		occurredAt = item.OccurredAt.UTC()
	}
	if occurredAt.After(now.Add(maxClockSkew)) {
		return domain.BehaviorEvent{}, fmt.Errorf("%w: occurred_at is in the future", domain.ErrInvalidInput)
	}
	eventID := uuid.New()
	if strings.TrimSpace(item.EventID) != "" {
		parsed, parseErr := uuid.Parse(strings.TrimSpace(item.EventID))
		if parseErr != nil {
			return domain.BehaviorEvent{}, fmt.Errorf("%w: invalid event_id", domain.ErrInvalidInput)
		}
		eventID = parsed
	}
	return domain.BehaviorEvent{
		EventID:        eventID,
		ProfessionalID: professionalID,
		EventType:      eventType,
		OccurredAt:     occurredAt,
		Metadata:       item.Metadata,
	}, nil
}

type behaviorRecordedEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		ProfessionalID string         `json:"professional_id"`
		BehaviorType   string         `json:"behavior_type"`
		OccurredAt     *time.Time     `json:"occurred_at"`
		Metadata       map[string]any `json:"metadata"`
	} `json:"data"`
}

// HandleBehaviorRecorded ingests one professional.behavior_recorded envelope
// from the event bus. Redelivered envelopes are ignored.
func (s *Service) HandleBehaviorRecorded(ctx context.Context, payload []byte) error {
	var evt behaviorRecordedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: invalid %s payload", domain.ErrInvalidInput, domain.EventBehaviorRecorded)
	}
	if strings.TrimSpace(evt.EventID) == "" {
		return fmt.Errorf("%w: missing event_id", domain.ErrInvalidInput)
	}
	dup, err := s.eventDedup.IsDuplicate(ctx, evt.EventID, s.nowFn())
	if err != nil {
		return err
	}
	if dup {
		return nil
	}
	ev, err := s.toBehaviorEvent(RecordBehaviorEventRequest{
		EventID:        evt.EventID,
		ProfessionalID: evt.Data.ProfessionalID,
		EventType:      evt.Data.BehaviorType,
		OccurredAt:     evt.Data.OccurredAt,
		Metadata:       evt.Data.Metadata,
	}, s.nowFn())
	if err != nil {
		return err
	}
	if err := s.events.Append(ctx, []domain.BehaviorEvent{ev}); err != nil {
		return err
	}
	return s.eventDedup.MarkProcessed(ctx, evt.EventID, domain.EventBehaviorRecorded, s.nowFn().Add(s.cfg.EventDedupTTL))
}
