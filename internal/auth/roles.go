package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/compliance-service/pkg/util"
)

// RequireRole ensures the member holds one of the allowed roles. Admin always passes.
func RequireRole(allowed ...Role) fiber.Handler {
	allowedSet := make(map[Role]struct{}, len(allowed)+1)
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}
	allowedSet[RoleAdmin] = struct{}{}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireWriter allows editors and admins.
func RequireWriter() fiber.Handler {
	return RequireRole(RoleEditor)
}
