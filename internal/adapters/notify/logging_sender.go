package notify

import (
	"context"
	"log/slog"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// LoggingSender stands in for the notification service in local runs.
type LoggingSender struct{}

func (LoggingSender) SendPush(ctx context.Context, msg ports.PushMessage) error {
	slog.Default().InfoContext(ctx, "push notification",
		"module", "notify",
		"layer", "adapter",
		"professional_id", msg.ProfessionalID.String(),
		"title", msg.Title,
	)
	return nil
}

func (LoggingSender) SendEmail(ctx context.Context, msg ports.EmailMessage) error {
	slog.Default().InfoContext(ctx, "email notification",
		"module", "notify",
		"layer", "adapter",
		"professional_id", msg.ProfessionalID.String(),
		"template", msg.Template,
	)
	return nil
}

var (
	_ ports.PushSender  = LoggingSender{}
	_ ports.EmailSender = LoggingSender{}
)
