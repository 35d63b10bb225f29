package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuthenticator map[string]uint

func (s staticAuthenticator) Authenticate(token string) (uint, bool) {
	id, ok := s[token]
	return id, ok
}

func bearer(h string) string {
	return strings.TrimPrefix(h, "Bearer ")
}

func TestOptionalAuth(t *testing.T) {
	authn := staticAuthenticator{"good": 9}

	app := fiber.New()
	app.Use(OptionalAuth(authn, bearer))
	app.Get("/", func(c *fiber.Ctx) error {
		uid, ok := UserIDFromContext(c.UserContext())
		if !ok {
			return c.SendString("anonymous")
		}
		assert.Equal(t, uid, c.Locals("userID"))
		return c.SendString("viewer")
	})

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", "anonymous"},
		{"invalid token", "Bearer bad", "anonymous"},
		{"valid token", "Bearer good", "viewer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			buf := new(strings.Builder)
			_, _ = io.Copy(buf, resp.Body)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
