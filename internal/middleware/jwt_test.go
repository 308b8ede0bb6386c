package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const jwtTestSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtTestSecret))
	require.NoError(t, err)
	return token
}

func jwtTestApp(capture *map[string]interface{}) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", JWTProtected(jwtTestSecret), func(c *fiber.Ctx) error {
		*capture = map[string]interface{}{
			"user_id":    c.Locals("user_id"),
			"user_role":  c.Locals("user_role"),
			"user_name":  c.Locals("user_name"),
			"user_staff": c.Locals("user_staff"),
			"student_id": c.Locals("student_id"),
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestJWTProtectedBindsClaims(t *testing.T) {
	var locals map[string]interface{}
	app := jwtTestApp(&locals)

	token := signToken(t, jwt.MapClaims{
		"sub":        "42",
		"role":       "volunteer",
		"name":       "Mila Reviewer",
		"staff":      false,
		"student_id": 7,
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, uint(42), locals["user_id"])
	require.Equal(t, "volunteer", locals["user_role"])
	require.Equal(t, "Mila Reviewer", locals["user_name"])
	require.Equal(t, false, locals["user_staff"])
	require.Equal(t, uint(7), locals["student_id"])
}

func TestJWTProtectedRejectsMissingHeader(t *testing.T) {
	var locals map[string]interface{}
	app := jwtTestApp(&locals)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsBadSignature(t *testing.T) {
	var locals map[string]interface{}
	app := jwtTestApp(&locals)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
