package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/handler"
	"github.com/noah-isme/gema-gradebook/internal/middleware"
	"github.com/noah-isme/gema-gradebook/internal/service"
)

type stubStudentDashboardService struct {
	response      dto.StudentDashboardResponse
	err           error
	calls         int
	lastStudentID uint
	lastCourseID  uint
}

func (s *stubStudentDashboardService) GetDashboard(_ context.Context, studentID, courseID uint) (dto.StudentDashboardResponse, error) {
	s.calls++
	s.lastStudentID = studentID
	s.lastCourseID = courseID
	if s.err != nil {
		return dto.StudentDashboardResponse{}, s.err
	}
	return s.response, nil
}

func setupDashboardApp(svc service.StudentDashboardService, userID uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2", func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		return c.Next()
	})
	handler.NewStudentDashboardHandler(svc, zerolog.Nop()).Register(group, middleware.RequireSelfOrRole("id", middleware.RoleTeacher, middleware.RoleAdmin))
	return app
}

func TestStudentDashboardHandler_Success(t *testing.T) {
	response := dto.StudentDashboardResponse{
		StudentID: 33,
		CourseID:  2,
		Summary:   dto.ProgressSummary{TotalAssignments: 4, Graded: 2, AveragePercentage: 81},
		Assignments: []dto.AssignmentProgress{
			{AssignmentID: 7, Title: "Essay", DueAt: time.Now(), LifecycleState: "no_submission", AttemptsLeft: 1},
		},
	}
	svc := &stubStudentDashboardService{response: response}
	app := setupDashboardApp(svc, 33, "student")

	req := httptest.NewRequest(http.MethodGet, "/api/v2/students/33/dashboard?course_id=2", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                         `json:"success"`
		Message string                       `json:"message"`
		Data    dto.StudentDashboardResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()

	require.True(t, payload.Success)
	require.Equal(t, "dashboard retrieved", payload.Message)
	require.Equal(t, response.Summary.TotalAssignments, payload.Data.Summary.TotalAssignments)
	require.Equal(t, uint(33), svc.lastStudentID)
	require.Equal(t, uint(2), svc.lastCourseID)
	require.Equal(t, 1, svc.calls)
}

func TestStudentDashboardHandler_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		userID uint
		role   string
		path   string
		err    error
		status int
	}{
		{name: "other student", userID: 34, role: "student", path: "/api/v2/students/33/dashboard?course_id=2", status: fiber.StatusForbidden},
		{name: "missing course", userID: 33, role: "student", path: "/api/v2/students/33/dashboard", status: fiber.StatusBadRequest},
		{name: "not enrolled", userID: 1, role: "teacher", path: "/api/v2/students/33/dashboard?course_id=2", err: service.ErrStudentNotEnrolled, status: fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubStudentDashboardService{err: tc.err}
			app := setupDashboardApp(svc, tc.userID, tc.role)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var payload struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			resp.Body.Close()
			require.False(t, payload.Success)
			require.NotEmpty(t, payload.Message)
		})
	}
}

var _ service.StudentDashboardService = (*stubStudentDashboardService)(nil)
