package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/grading"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

// StudentDashboardService reports per-assignment progress for a student.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, studentID, courseID uint) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator.
func NewStudentDashboardService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, enrollments repository.EnrollmentRepository, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		assignments: assignments,
		submissions: submissions,
		enrollments: enrollments,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, studentID, courseID uint) (dto.StudentDashboardResponse, error) {
	enrolled, err := s.enrollments.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	if !enrolled {
		return dto.StudentDashboardResponse{}, ErrStudentNotEnrolled
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	latest, err := s.submissions.LatestForStudent(ctx, studentID, assignmentIDs(assignments))
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(assignments, latest)
	response.StudentID = studentID
	response.CourseID = courseID

	s.logger.Debug().
		Uint("student_id", studentID).
		Uint("course_id", courseID).
		Int("assignments", len(assignments)).
		Msg("dashboard built")

	return response, nil
}

func (s *studentDashboardService) buildResponse(assignments []models.Assignment, latest map[uint]models.Submission) dto.StudentDashboardResponse {
	now := s.now()
	summary := dto.ProgressSummary{}
	progress := make([]dto.AssignmentProgress, 0, len(assignments))
	var percentageTotal int
	var percentageCount int

	for _, assignment := range assignments {
		summary.TotalAssignments++

		item := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueAt:        assignment.DueAt,
			Points:       assignment.Points,
			AttemptsLeft: assignment.MaxAttempts,
		}

		var submission *models.Submission
		if found, ok := latest[assignment.ID]; ok {
			submission = &found
			id := found.ID
			item.SubmissionID = &id
			item.Attempt = found.Attempt
			item.AttemptsLeft = max(assignment.MaxAttempts-found.Attempt, 0)
			item.Grade = found.Grade
			item.Feedback = found.Feedback
			if found.Grade != nil {
				if percentage, ok := grading.Percentage(assignment.Points, *found.Grade); ok {
					item.Percentage = &percentage
					percentageTotal += percentage
					percentageCount++
				}
			}
		}

		state := grading.DeriveStatus(assignment, submission, now)
		item.LifecycleState = string(state)

		switch state {
		case grading.StateNoSubmission:
			summary.NoSubmission++
		case grading.StateSubmittedOnTime:
			summary.SubmittedOnTime++
		case grading.StateSubmittedLate:
			summary.SubmittedLate++
		case grading.StateGraded:
			summary.Graded++
		case grading.StateOverdue:
			summary.Overdue++
		}

		progress = append(progress, item)
	}

	if percentageCount > 0 {
		summary.AveragePercentage = float64(percentageTotal) / float64(percentageCount)
	}

	return dto.StudentDashboardResponse{
		Summary:     summary,
		Assignments: progress,
	}
}
