package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTAuth(testSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		return c.SendString(userID)
	})
	return app
}

func TestJWTAuth(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{
			name:       "valid token",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user-1", "exp": now.Add(time.Hour).Unix()}),
			wantStatus: fiber.StatusOK,
			wantUser:   "user-1",
		},
		{
			name:       "missing header",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "not bearer",
			header:     "Basic abc",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "user-1"}),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user-1", "exp": now.Add(-time.Hour).Unix()}),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "issued in the future",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user-1", "iat": now.Add(time.Hour).Unix()}),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "missing subject",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"email": "a@b.c"}),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "other HMAC algorithm rejected",
			header:     "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"sub": "user-1"}),
			wantStatus: fiber.StatusUnauthorized,
		},
	}

	app := newAuthApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantUser != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantUser, string(body))
			}
		})
	}
}

func TestJWTAuth_Preflight(t *testing.T) {
	app := fiber.New()
	app.Use(JWTAuth(testSecret))
	app.Options("/me", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("OPTIONS", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"app error", apperr.RateLimited("gmail", nil), fiber.StatusTooManyRequests},
		{"fiber error", fiber.NewError(fiber.StatusNotFound, "nope"), fiber.StatusNotFound},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
			app.Use(RequestID())
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestRecover(t *testing.T) {
	app := fiber.New()
	app.Use(Recover())
	app.Get("/", func(c *fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
