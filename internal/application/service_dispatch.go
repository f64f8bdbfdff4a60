package application

import (
	"context"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// sendPush and sendEmail are fire-and-forget. Failures are logged and counted
// but never reach the caller.
func (s *Service) sendPush(ctx context.Context, msg ports.PushMessage) {
	if s.push == nil {
		return
	}
	if err := s.push.SendPush(ctx, msg); err != nil {
		s.metrics.ObserveDispatchFailure("push")
		s.logger().WarnContext(ctx, "push dispatch failed",
			"operation", "send_push",
			"outcome", "failure",
			"professional_id", msg.ProfessionalID.String(),
			"error", err,
		)
	}
}

func (s *Service) sendEmail(ctx context.Context, msg ports.EmailMessage) {
	if s.email == nil {
		return
	}
	if err := s.email.SendEmail(ctx, msg); err != nil {
		s.metrics.ObserveDispatchFailure("email")
		s.logger().WarnContext(ctx, "email dispatch failed",
			"operation", "send_email",
			"outcome", "failure",
			"professional_id", msg.ProfessionalID.String(),
			"error", err,
		)
	}
}
