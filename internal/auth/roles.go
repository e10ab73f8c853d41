package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/lukeeterna/dropevolution-api/pkg/util"
)

// RequireRole ensures the resolved principal carries the given role. It
// must run after the admission middleware on an AuthRequired route.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewAuthenticationRequired("authentication required")
		}
		if !principal.HasRole(role) {
			return apperrors.NewPermissionDenied("insufficient permissions")
		}
		return c.Next()
	}
}
