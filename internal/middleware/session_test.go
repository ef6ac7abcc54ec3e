package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/risetutor-api/internal/middleware"
)

const testSecret = "session-secret"

func TestIssueAndParseSessionRoundTrip(t *testing.T) {
	now := time.Now()
	token, expires, err := middleware.IssueSession(testSecret, middleware.Session{
		UserID:         7,
		Role:           "Student",
		Email:          "asha@example.com",
		Name:           "Asha",
		RegistrationID: "RT260001",
		Standard:       "10",
	}, time.Hour, now)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(time.Hour), expires, time.Second)

	session, err := middleware.ParseSession(testSecret, token)
	require.NoError(t, err)
	require.Equal(t, uint(7), session.UserID)
	require.Equal(t, "student", session.Role)
	require.Equal(t, "RT260001", session.RegistrationID)
	require.Equal(t, "10", session.Standard)

	_, err = middleware.ParseSession("other-secret", token)
	require.ErrorIs(t, err, middleware.ErrInvalidSession)
}

func TestParseSessionRejectsExpiredToken(t *testing.T) {
	token, _, err := middleware.IssueSession(testSecret, middleware.Session{UserID: 1, Role: "admin"}, time.Minute, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = middleware.ParseSession(testSecret, token)
	require.ErrorIs(t, err, middleware.ErrInvalidSession)
}

func TestSessionAuthReadsCookie(t *testing.T) {
	token, _, err := middleware.IssueSession(testSecret, middleware.Session{UserID: 3, Role: "admin", Email: "admin@example.com"}, time.Hour, time.Now())
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", middleware.SessionAuth(testSecret), func(c *fiber.Ctx) error {
		session, ok := middleware.SessionFromContext(c)
		require.True(t, ok)
		return c.SendString(session.Email)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionAuthAcceptsBearerHeader(t *testing.T) {
	token, _, err := middleware.IssueSession(testSecret, middleware.Session{UserID: 3, Role: "student"}, time.Hour, time.Now())
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", middleware.SessionAuth(testSecret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestSessionAuthRejectsMissingSession(t *testing.T) {
	app := fiber.New()
	app.Get("/me", middleware.SessionAuth(testSecret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSetSessionCookieIsHTTPOnly(t *testing.T) {
	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		middleware.SetSessionCookie(c, "token", time.Now().Add(time.Hour), true)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
	require.NoError(t, err)

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, cookies[0].Secure)
}
