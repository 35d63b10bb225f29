// Package middleware provides the Fiber middleware chain shared by all routes.
package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(token string) (uint, bool)
}

// OptionalAuth resolves the Authorization header to a viewer when it carries a
// valid credential. Requests without one continue as anonymous; operations
// that need a viewer reject them later.
func OptionalAuth(authn Authenticator, extract func(string) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extract(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Next()
		}
		userID, ok := authn.Authenticate(token)
		if !ok {
			return c.Next()
		}

		c.Locals("userID", userID)
		c.SetUserContext(WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}
