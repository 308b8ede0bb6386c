package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/campus-engage-api/internal/utils"
)

// Auth role constants used by the WithAuth helper.
const (
	AuthRoleAny       = "any"
	AuthRoleStaff     = "staff"
	AuthRoleStudent   = "student"
	AuthRoleVolunteer = "volunteer"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a handler with authentication and coarse role guards. The
// fine-grained ownership checks stay in the services; this only gates entry.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser
	if !requireUser && role != AuthRoleAny {
		requireUser = true
	}

	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id")
		if requireUser && userID == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if role == AuthRoleAny {
			return handler(c)
		}

		if staff, ok := c.Locals("user_staff").(bool); ok && staff {
			// Staff passes every role gate.
			return handler(c)
		}

		currentRole := normalizeRoleValue(c.Locals("user_role"))
		switch role {
		case AuthRoleStaff:
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		case AuthRoleVolunteer:
			if currentRole != AuthRoleVolunteer {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		case AuthRoleStudent:
			if currentRole != AuthRoleStudent && currentRole != AuthRoleVolunteer {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		default:
			if currentRole != role {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		}

		return handler(c)
	}
}
