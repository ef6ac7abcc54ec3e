package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/handler"
	"github.com/noah-isme/risetutor-api/internal/middleware"
	"github.com/noah-isme/risetutor-api/internal/service"
)

const handlerSecret = "handler-secret"

type mockTestService struct {
	identity  service.StudentIdentity
	submitted dto.SubmitTestRequest
	view      dto.TestView
	err       error
}

func (m *mockTestService) ListAvailable(_ context.Context, student service.StudentIdentity) ([]dto.TestSummary, error) {
	m.identity = student
	return []dto.TestSummary{{ID: 1, Title: "Algebra", Attempted: true}}, m.err
}

func (m *mockTestService) Fetch(_ context.Context, _ uint, student service.StudentIdentity) (dto.TestView, error) {
	m.identity = student
	return m.view, m.err
}

func (m *mockTestService) Submit(_ context.Context, _ uint, student service.StudentIdentity, req dto.SubmitTestRequest) (dto.SubmitTestResponse, error) {
	m.identity = student
	m.submitted = req
	if m.err != nil {
		return dto.SubmitTestResponse{}, m.err
	}
	return dto.SubmitTestResponse{ResultID: 9, MarksObtained: 5, TotalMarks: 10, PassingMarks: 4, Status: "Pass", ViolationsCount: len(req.Violations)}, nil
}

func (m *mockTestService) MyResult(context.Context, uint, service.StudentIdentity) (dto.TestResultResponse, error) {
	return dto.TestResultResponse{}, m.err
}

func newStudentTestApp(svc service.TestService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/student/tests", middleware.SessionAuth(handlerSecret), middleware.RequireRole(middleware.AuthRoleStudent))
	handler.NewTestHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func sessionCookie(t *testing.T, session middleware.Session) *http.Cookie {
	t.Helper()
	token, _, err := middleware.IssueSession(handlerSecret, session, time.Hour, time.Now())
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

func TestTestHandler_RequiresStudentSession(t *testing.T) {
	app := newStudentTestApp(&mockTestService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/student/tests", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/student/tests", nil)
	req.AddCookie(sessionCookie(t, middleware.Session{UserID: 1, Role: middleware.AuthRoleAdmin}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestTestHandler_SubmitPassesSessionIdentity(t *testing.T) {
	svc := &mockTestService{}
	app := newStudentTestApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/v1/student/tests/3/submit", map[string]interface{}{
		"answers":    []map[string]interface{}{{"questionId": 1, "answer": "B"}},
		"violations": []map[string]interface{}{{"type": "tab_switch", "timestamp": "2026-06-01T09:05:00Z", "questionIndex": 0}},
		"timeSpent":  420,
	})
	req.AddCookie(sessionCookie(t, middleware.Session{UserID: 7, Role: middleware.AuthRoleStudent, Standard: "10"}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	decoded := decodeEnvelope(t, resp)
	var result dto.SubmitTestResponse
	require.NoError(t, json.Unmarshal(decoded.Data, &result))
	require.Equal(t, "Pass", result.Status)
	require.Equal(t, 1, result.ViolationsCount)

	require.Equal(t, service.StudentIdentity{ID: 7, Standard: "10"}, svc.identity)
	require.Equal(t, 420, svc.submitted.TimeSpentSeconds)
	require.Equal(t, "B", svc.submitted.Answers[0].Answer)
}

func TestTestHandler_ErrorStatuses(t *testing.T) {
	cases := map[error]int{
		service.ErrForbidden:        fiber.StatusForbidden,
		service.ErrTestNotAvailable: fiber.StatusConflict,
		service.ErrAlreadySubmitted: fiber.StatusConflict,
		service.ErrTestNotFound:     fiber.StatusNotFound,
	}
	for svcErr, status := range cases {
		t.Run(svcErr.Error(), func(t *testing.T) {
			app := newStudentTestApp(&mockTestService{err: svcErr})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/student/tests/3", nil)
			req.AddCookie(sessionCookie(t, middleware.Session{UserID: 7, Role: middleware.AuthRoleStudent, Standard: "10"}))

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, status, resp.StatusCode)
		})
	}

	app := newStudentTestApp(&mockTestService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/student/tests/abc", nil)
	req.AddCookie(sessionCookie(t, middleware.Session{UserID: 7, Role: middleware.AuthRoleStudent, Standard: "10"}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
