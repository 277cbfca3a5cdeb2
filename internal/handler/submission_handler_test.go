package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/handler"
	"github.com/noah-isme/gema-gradebook/internal/service"
)

type stubSubmissionService struct {
	submitted  dto.SubmissionCreateRequest
	filter     dto.SubmissionFilter
	submitErr  error
	submission dto.SubmissionResponse
}

func (s *stubSubmissionService) Submit(_ context.Context, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	s.submitted = payload
	if s.submitErr != nil {
		return dto.SubmissionResponse{}, s.submitErr
	}
	return dto.SubmissionResponse{ID: 10, AssignmentID: assignmentID, StudentID: payload.StudentID, Attempt: 1}, nil
}

func (s *stubSubmissionService) List(_ context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	s.filter = filter
	return []dto.SubmissionResponse{}, nil
}

func (s *stubSubmissionService) Get(_ context.Context, id uint) (dto.SubmissionResponse, error) {
	response := s.submission
	response.ID = id
	return response, nil
}

var _ service.SubmissionService = (*stubSubmissionService)(nil)

func setupSubmissionApp(svc service.SubmissionService, userID uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2", func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		return c.Next()
	})
	handler.NewSubmissionHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func postSubmission(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v2/assignments/3/submissions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSubmissionHandlerStudentSubmitsForSelf(t *testing.T) {
	svc := &stubSubmissionService{}
	app := setupSubmissionApp(svc, 7, "student")

	resp := postSubmission(t, app, `{"responses":[{"question_id":1,"text_answer":"hello"}]}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, "submission created", payload.Message)
	require.Equal(t, uint(7), svc.submitted.StudentID)
	require.Equal(t, uint(7), payload.Data.StudentID)

	resp = postSubmission(t, app, `{"student_id":8}`)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubmissionHandlerStaffSubmitsOnBehalf(t *testing.T) {
	svc := &stubSubmissionService{}
	app := setupSubmissionApp(svc, 2, "teacher")

	resp := postSubmission(t, app, `{"student_id":8}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(8), svc.submitted.StudentID)
}

func TestSubmissionHandlerErrorMapping(t *testing.T) {
	cases := map[error]int{
		service.ErrMaxAttemptsReached:     fiber.StatusConflict,
		service.ErrAssignmentInactive:     fiber.StatusConflict,
		service.ErrLateSubmissionRejected: fiber.StatusConflict,
		service.ErrStudentNotEnrolled:     fiber.StatusForbidden,
		service.ErrAssignmentNotFound:     fiber.StatusNotFound,
	}

	for err, status := range cases {
		t.Run(err.Error(), func(t *testing.T) {
			app := setupSubmissionApp(&stubSubmissionService{submitErr: err}, 7, "student")
			resp := postSubmission(t, app, `{}`)
			require.Equal(t, status, resp.StatusCode)
		})
	}
}

func TestSubmissionHandlerScopesStudents(t *testing.T) {
	svc := &stubSubmissionService{submission: dto.SubmissionResponse{StudentID: 8}}
	app := setupSubmissionApp(svc, 7, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/submissions?student_id=8&status=graded", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.filter.StudentID)
	require.Equal(t, uint(7), *svc.filter.StudentID)
	require.Equal(t, "graded", *svc.filter.Status)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/submissions/4", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode, "other students' submissions stay hidden")

	staff := setupSubmissionApp(svc, 2, "teacher")
	resp, err = staff.Test(httptest.NewRequest(http.MethodGet, "/api/v2/submissions/4", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
