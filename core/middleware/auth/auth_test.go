package auth_test

import (
	"net/http/httptest"
	"testing"

	"legacy-mirror/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		header string
		value  string
		want   int
	}{
		{"Disabled", "", "", "", fiber.StatusOK},
		{"MissingKey", "secret", "", "", fiber.StatusUnauthorized},
		{"WrongKey", "secret", auth.Header, "nope", fiber.StatusUnauthorized},
		{"HeaderKey", "secret", auth.Header, "secret", fiber.StatusOK},
		{"BearerToken", "secret", fiber.HeaderAuthorization, "Bearer secret", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(auth.New(auth.Config{ApiKey: tt.apiKey}))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
