package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/config"
	"github.com/noah-isme/gema-gradebook/internal/handler"
	"github.com/noah-isme/gema-gradebook/internal/middleware"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
	"github.com/noah-isme/gema-gradebook/internal/router"
	"github.com/noah-isme/gema-gradebook/internal/service"
)

const integrationSecret = "integration-secret"

func setupGradebookApp(t *testing.T, cfg config.Config) (*fiber.App, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	statsService := service.NewCourseStatsService(assignmentRepo, submissionRepo, enrollmentRepo, nil, 0, logger)
	publisher := service.NewGradeEventPublisher(nil, nil, "", logger)
	policy := service.SubmissionPolicy{RejectLateWhenDisallowed: cfg.RejectLateWhenDisallowed}

	assignmentService := service.NewAssignmentService(assignmentRepo, statsService, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, enrollmentRepo, statsService, policy, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, publisher, statsService, validate, logger)
	dashboardService := service.NewStudentDashboardService(assignmentRepo, submissionRepo, enrollmentRepo, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger, MetricsPrefix: "/api/v2"})

	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:       handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:       handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:          handler.NewGradingHandler(gradingService, logger),
		CourseStatsHandler:      handler.NewCourseStatsHandler(statsService, logger),
		StudentDashboardHandler: handler.NewStudentDashboardHandler(dashboardService, logger),
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
		GradingRateLimiter:      middleware.RateLimit("grading", cfg.GradingRateLimit, cfg.GradingRateWindow),
	})

	require.NoError(t, enrollmentRepo.Enroll(context.Background(), 5, 21))
	return app, db
}

func seedPastDueAssignment(t *testing.T, db *gorm.DB, allowLate bool) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		CourseID:             5,
		Title:                "Closed lab",
		DueAt:                time.Now().Add(-2 * time.Hour).UTC(),
		Points:               20,
		AllowLateSubmissions: allowLate,
		LatePenaltyPercent:   25,
		MaxAttempts:          1,
		IsActive:             true,
		Questions: []models.Question{
			{Text: "Summarise the lab", QuestionType: models.QuestionTypeEssay, Points: 20, IsRequired: true, Order: 1},
		},
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", userID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(integrationSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func submitEssay(t *testing.T, app *fiber.App, assignment models.Assignment, auth string) (int, map[string]interface{}) {
	t.Helper()
	return doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assignments/%d/submissions", assignment.ID), auth, map[string]interface{}{
		"student_id": 21,
		"responses": []map[string]interface{}{
			{"question_id": assignment.Questions[0].ID, "text_answer": "Everything <b>worked</b>"},
		},
	})
}

func TestLateSubmissionRejectedByPolicy(t *testing.T) {
	app, db := setupGradebookApp(t, config.Config{
		AppName:                  "gradebook",
		JWTSecret:                integrationSecret,
		RejectLateWhenDisallowed: true,
		GradingRateLimit:         10,
		GradingRateWindow:        time.Minute,
	})
	assignment := seedPastDueAssignment(t, db, false)

	status, body := submitEssay(t, app, assignment, bearer(t, 21, "student"))
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, false, body["success"])
}

func TestLateSubmissionAcceptedAndPenalised(t *testing.T) {
	app, db := setupGradebookApp(t, config.Config{
		AppName:           "gradebook",
		JWTSecret:         integrationSecret,
		GradingRateLimit:  10,
		GradingRateWindow: time.Minute,
	})
	assignment := seedPastDueAssignment(t, db, true)

	status, body := submitEssay(t, app, assignment, bearer(t, 21, "student"))
	require.Equal(t, fiber.StatusCreated, status)
	data := body["data"].(map[string]interface{})
	require.Equal(t, true, data["is_late"])
	submissionID := uint(data["id"].(float64))

	status, body = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v2/submissions/%d/grade", submissionID), bearer(t, 3, "teacher"), map[string]interface{}{
		"raw_score": 20,
		"feedback":  "<script>alert(1)</script>Good recovery",
	})
	require.Equal(t, fiber.StatusOK, status)
	data = body["data"].(map[string]interface{})
	require.InDelta(t, 15.0, data["grade"].(float64), 0.0001)
	require.Equal(t, float64(75), data["percentage"])
	require.Equal(t, "Good recovery", data["feedback"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v2/courses/5/stats", bearer(t, 3, "teacher"), nil)
	require.Equal(t, fiber.StatusOK, status)
	course := body["data"].(map[string]interface{})["course"].(map[string]interface{})
	require.InDelta(t, 15.0, course["average_grade"].(float64), 0.0001)
	require.Equal(t, float64(1), course["graded_count"])
}

func TestGradingRateLimited(t *testing.T) {
	app, db := setupGradebookApp(t, config.Config{
		AppName:           "gradebook",
		JWTSecret:         integrationSecret,
		GradingRateLimit:  2,
		GradingRateWindow: time.Minute,
	})
	assignment := seedPastDueAssignment(t, db, true)

	status, body := submitEssay(t, app, assignment, bearer(t, 21, "student"))
	require.Equal(t, fiber.StatusCreated, status)
	submissionID := uint(body["data"].(map[string]interface{})["id"].(float64))

	teacher := bearer(t, 3, "teacher")
	path := fmt.Sprintf("/api/v2/submissions/%d/grade", submissionID)
	for i := 0; i < 2; i++ {
		status, _ = doJSON(t, app, http.MethodPatch, path, teacher, map[string]interface{}{"raw_score": 10 + i})
		require.Equal(t, fiber.StatusOK, status)
	}

	status, body = doJSON(t, app, http.MethodPatch, path, teacher, map[string]interface{}{"raw_score": 12})
	require.Equal(t, fiber.StatusTooManyRequests, status)
	require.Equal(t, false, body["success"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	metrics, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(metrics), "grading_operations_total")
}
