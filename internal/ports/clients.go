package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Locker hands out short-lived advisory locks. release is safe to call after
// the lock expired.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

type AuthClaims struct {
	UserID    uuid.UUID
	Role      string
	ExpiresAt time.Time
}

type TokenVerifier interface {
	Verify(raw string) (AuthClaims, error)
}

type PushMessage struct {
	ProfessionalID uuid.UUID         `json:"professional_id"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
}

type EmailMessage struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	Template       string    `json:"template"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
}

type PushSender interface {
	SendPush(ctx context.Context, msg PushMessage) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type Metrics interface {
	ObserveBatchItem(job, outcome string)
	ObserveRiskScore(score int)
	ObserveDispatchFailure(channel string)
}
