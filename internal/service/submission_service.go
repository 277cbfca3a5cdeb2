package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/grading"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAssignmentInactive indicates the assignment no longer accepts hand-ins.
	ErrAssignmentInactive = errors.New("assignment is not active")
	// ErrStudentNotEnrolled indicates the student is not part of the assignment's course.
	ErrStudentNotEnrolled = errors.New("student is not enrolled in the course")
	// ErrMaxAttemptsReached indicates the student used every allowed attempt.
	ErrMaxAttemptsReached = errors.New("maximum number of attempts reached")
	// ErrLateSubmissionRejected indicates a late hand-in on an assignment that disallows them.
	ErrLateSubmissionRejected = errors.New("late submissions are not accepted for this assignment")
)

const maxAttemptRaces = 3

// SubmissionPolicy configures acceptance rules enforced before the grading engine is involved.
type SubmissionPolicy struct {
	RejectLateWhenDisallowed bool
}

// SubmissionService orchestrates submission workflows.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	enrollments repository.EnrollmentRepository
	stats       StatsInvalidator
	policy      SubmissionPolicy
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. stats may be nil.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, enrollmentRepo repository.EnrollmentRepository, stats StatsInvalidator, policy SubmissionPolicy, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		enrollments: enrollmentRepo,
		stats:       stats,
		policy:      policy,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions, s.now()), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, s.now()), nil
}

func (s *submissionService) Submit(ctx context.Context, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !assignment.IsActive {
		return dto.SubmissionResponse{}, ErrAssignmentInactive
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, assignment.CourseID, payload.StudentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrStudentNotEnrolled
	}

	now := s.now().UTC()
	if grading.IsLate(assignment, now) && !assignment.AllowLateSubmissions && s.policy.RejectLateWhenDisallowed {
		return dto.SubmissionResponse{}, ErrLateSubmissionRejected
	}

	responses, err := s.buildResponses(assignment, payload.Responses)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submissionID, err := s.createAttempt(ctx, assignment, payload.StudentID, responses, now)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.stats != nil {
		s.stats.Invalidate(ctx, assignment.CourseID)
	}

	s.logger.Info().
		Uint("submission_id", created.ID).
		Uint("assignment_id", assignment.ID).
		Int("attempt", created.Attempt).
		Bool("is_late", created.IsLate).
		Msg("submission created")

	return dto.NewSubmissionResponse(created, now), nil
}

// createAttempt stores the next attempt number for the student. The unique
// (assignment, student, attempt) index settles concurrent hand-ins: the loser
// recounts and either takes the following attempt or hits the limit.
func (s *submissionService) createAttempt(ctx context.Context, assignment models.Assignment, studentID uint, responses []models.QuestionResponse, now time.Time) (uint, error) {
	for race := 0; race < maxAttemptRaces; race++ {
		attempts, err := s.submissions.CountAttempts(ctx, assignment.ID, studentID)
		if err != nil {
			return 0, err
		}
		if attempts >= int64(assignment.MaxAttempts) {
			return 0, ErrMaxAttemptsReached
		}

		submission := models.Submission{
			AssignmentID: assignment.ID,
			StudentID:    studentID,
			Attempt:      int(attempts) + 1,
			Status:       models.SubmissionStatusPending,
			Responses:    slices.Clone(responses),
		}
		if err := submission.MarkSubmitted(assignment, now); err != nil {
			return 0, err
		}
		if err := submission.Validate(&assignment); err != nil {
			return 0, err
		}

		err = s.submissions.Create(ctx, &submission)
		if errors.Is(err, repository.ErrDuplicateAttempt) {
			s.logger.Debug().
				Uint("assignment_id", assignment.ID).
				Uint("student_id", studentID).
				Int("attempt", submission.Attempt).
				Msg("attempt taken by a concurrent hand-in, recounting")
			continue
		}
		if err != nil {
			return 0, err
		}
		return submission.ID, nil
	}

	return 0, ErrMaxAttemptsReached
}

func (s *submissionService) buildResponses(assignment models.Assignment, requests []dto.ResponseRequest) ([]models.QuestionResponse, error) {
	answered := make(map[uint]struct{}, len(requests))
	responses := make([]models.QuestionResponse, 0, len(requests))

	for _, request := range requests {
		question, ok := assignment.QuestionByID(request.QuestionID)
		if !ok {
			return nil, &models.ValidationError{Field: "responses", Reason: "question does not belong to the assignment"}
		}
		if _, dup := answered[question.ID]; dup {
			return nil, &models.ValidationError{Field: "responses", Reason: "question answered more than once"}
		}
		answered[question.ID] = struct{}{}

		payload := models.ResponsePayload{
			Text:             request.TextAnswer,
			SelectedAnswerID: request.SelectedAnswerID,
			FileURL:          request.FileAnswer,
		}
		if payload.Text != nil {
			clean := s.sanitizer.Sanitize(*payload.Text)
			payload.Text = &clean
		}

		response, err := models.NewQuestionResponse(question, payload)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	for _, question := range assignment.Questions {
		if !question.IsRequired {
			continue
		}
		if _, ok := answered[question.ID]; !ok {
			return nil, &models.ValidationError{Field: "responses", Reason: "required question is unanswered: " + question.Text}
		}
	}

	return responses, nil
}
