package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func withIdentity(id uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localUserID, id)
		c.Locals(localUserRole, role)
		return c.Next()
	}
}

func statusFor(t *testing.T, app *fiber.App, path string) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		role   string
		status int
	}{
		{role: "Teacher", status: fiber.StatusOK},
		{role: "admin", status: fiber.StatusOK},
		{role: "student", status: fiber.StatusForbidden},
		{role: "", status: fiber.StatusForbidden},
	}

	for _, tc := range cases {
		app := fiber.New()
		app.Use(withIdentity(1, tc.role))
		app.Get("/grade", RequireRole(RoleAdmin, RoleTeacher), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		require.Equal(t, tc.status, statusFor(t, app, "/grade"), "role %q", tc.role)
	}
}

func TestRequireSelfOrRole(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(localUserID, uint(7))
		c.Locals(localUserRole, c.Get("X-Role"))
		return c.Next()
	})
	app.Get("/students/:id", RequireSelfOrRole("id", RoleTeacher), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	require.Equal(t, fiber.StatusOK, statusFor(t, app, "/students/7"))
	require.Equal(t, fiber.StatusForbidden, statusFor(t, app, "/students/8"))
	require.Equal(t, fiber.StatusForbidden, statusFor(t, app, "/students/abc"))

	req := httptest.NewRequest(http.MethodGet, "/students/8", nil)
	req.Header.Set("X-Role", "teacher")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
