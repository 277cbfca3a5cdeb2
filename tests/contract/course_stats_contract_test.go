package contract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/grading"
	"github.com/noah-isme/gema-gradebook/internal/handler"
)

type stubCourseStatsService struct {
	stats grading.Stats
}

func (s stubCourseStatsService) GetCourseStats(_ context.Context, courseID uint) (dto.CourseStatsResponse, error) {
	return dto.NewCourseStatsResponse(courseID, s.stats, time.Now().UTC()), nil
}

func (stubCourseStatsService) Invalidate(context.Context, uint) {}

func TestCourseStatsContract(t *testing.T) {
	schema := compileSchema(t, "course_stats.schema.json")

	cases := map[string]grading.Stats{
		"populated": {
			Assignments: []grading.AssignmentStats{
				{AssignmentID: 1, Title: "Essay", TotalStudents: 30, SubmissionsCount: 24, GradedCount: 20, LateCount: 3, SubmissionRate: 0.8, GradedRate: 0.8333, AverageGrade: 41.5},
				{AssignmentID: 2, Title: "Quiz", TotalStudents: 30},
			},
			Course: grading.CourseStats{AssignmentCount: 2, SubmissionsCount: 24, GradedCount: 20, AverageGrade: 41.5},
		},
		"empty course": {},
	}

	for name, stats := range cases {
		t.Run(name, func(t *testing.T) {
			h := handler.NewCourseStatsHandler(stubCourseStatsService{stats: stats}, zerolog.Nop())

			app := fiber.New()
			h.Register(app.Group("/api/v2"))

			req := httptest.NewRequest(http.MethodGet, "/api/v2/courses/4/stats", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			require.NoError(t, schema.Validate(decodeBody(t, resp)))
		})
	}
}
