package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

var baseTime = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

type testEnv struct {
	db          *gorm.DB
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentRepository
}

func setupEnv(t *testing.T) testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	return testEnv{
		db:          db,
		assignments: repository.NewAssignmentRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
	}
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// seedAssignment stores an essay assignment due at baseTime with one required question.
func seedAssignment(t *testing.T, env testEnv, courseID uint, mutate func(*models.Assignment)) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		CourseID:    courseID,
		Title:       "Essay",
		DueAt:       baseTime,
		Points:      50,
		MaxAttempts: 1,
		IsActive:    true,
		Questions: []models.Question{
			{Text: "Explain closures", QuestionType: models.QuestionTypeEssay, Points: 50, IsRequired: true, Order: 1},
		},
	}
	if mutate != nil {
		mutate(&assignment)
	}
	require.NoError(t, env.assignments.Create(context.Background(), &assignment))
	return assignment
}

func enroll(t *testing.T, env testEnv, courseID uint, studentIDs ...uint) {
	t.Helper()
	for _, id := range studentIDs {
		require.NoError(t, env.enrollments.Enroll(context.Background(), courseID, id))
	}
}

func essayRequest(studentID, questionID uint, text string) dto.SubmissionCreateRequest {
	return dto.SubmissionCreateRequest{
		StudentID: studentID,
		Responses: []dto.ResponseRequest{{QuestionID: questionID, TextAnswer: &text}},
	}
}

type countingInvalidator struct {
	mu      sync.Mutex
	courses []uint
}

func (c *countingInvalidator) Invalidate(ctx context.Context, courseID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courses = append(c.courses, courseID)
}

type recordingPublisher struct {
	events []dto.GradeEvent
	err    error
}

func (r *recordingPublisher) PublishGraded(ctx context.Context, event dto.GradeEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func rawScore(value float64) *float64 {
	return &value
}
