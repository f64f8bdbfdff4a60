package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
)

// Authenticate resolves a bearer token to an actor.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (Actor, error) {
	if strings.TrimSpace(rawToken) == "" || s.tokens == nil {
		return Actor{}, domain.ErrUnauthorized
	}
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		s.logger().WarnContext(ctx, "token verification failed",
			"operation", "authenticate",
			"outcome", "failure",
			"error", err,
		)
		return Actor{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

// RequireAdmin checks the role table, not the token claim, for the admin role.
func (s *Service) RequireAdmin(ctx context.Context, actor Actor) error {
	if actor.UserID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	ok, err := s.roles.HasRole(ctx, actor.UserID, RoleAdmin)
	if err != nil {
		return fmt.Errorf("resolve roles: %w", err)
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// AuthorizeJob guards the batch endpoints when a jobs token is configured.
func (s *Service) AuthorizeJob(rawToken string) error {
	expected := s.cfg.JobsBearerToken
	if expected == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(rawToken), []byte(expected)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}
