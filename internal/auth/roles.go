package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm-service/internal/domain"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

// RequireAgentRole ensures the agent principal has one of the allowed roles.
func RequireAgentRole(allowed ...domain.AgentRole) fiber.Handler {
	allowedSet := make(map[domain.AgentRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Agent == nil {
			return apperrors.NewForbidden("agent role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Agent.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyAgent ensures the caller is an authenticated agent.
func RequireAnyAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
