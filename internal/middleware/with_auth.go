package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/risetutor-api/internal/utils"
)

// Session roles.
const (
	AuthRoleAny     = "any"
	AuthRoleAdmin   = "admin"
	AuthRoleStudent = "student"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	// Roles lists the accepted roles; empty or AuthRoleAny accepts every role.
	Roles       []string
	RequireUser bool
}

// WithAuth guards a single handler. Any role restriction implies RequireUser.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	allowed := make(map[string]struct{}, len(opts.Roles))
	for _, role := range opts.Roles {
		if normalized := normalizeRoleValue(role); normalized != "" && normalized != AuthRoleAny {
			allowed[normalized] = struct{}{}
		}
	}
	requireUser := opts.RequireUser || len(allowed) > 0

	return func(c *fiber.Ctx) error {
		if requireUser && !hasSubject(c) {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if len(allowed) == 0 {
			return handler(c)
		}
		if _, ok := allowed[currentRole(c)]; !ok {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return handler(c)
	}
}

func hasSubject(c *fiber.Ctx) bool {
	if session, ok := SessionFromContext(c); ok {
		return session.UserID != 0
	}
	return c.Locals("user_id") != nil
}
