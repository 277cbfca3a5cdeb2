package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrDueDateInPast indicates a new assignment was scheduled in the past.
var ErrDueDateInPast = errors.New("due date must be in the future")

// AssignmentService exposes assignment authoring use cases.
type AssignmentService interface {
	ListByCourse(ctx context.Context, courseID uint) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, courseID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	stats     StatsInvalidator
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service. stats may be nil.
func NewAssignmentService(repo repository.AssignmentRepository, stats StatsInvalidator, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		stats:     stats,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) ListByCourse(ctx context.Context, courseID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, courseID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueAt, err := dto.ParseDueAt(payload.DueAt)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	if !dueAt.After(s.now()) {
		return dto.AssignmentResponse{}, ErrDueDateInPast
	}

	maxAttempts := payload.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}

	assignment := models.Assignment{
		CourseID:             courseID,
		ModuleID:             payload.ModuleID,
		Title:                strings.TrimSpace(payload.Title),
		Description:          s.sanitizer.Sanitize(payload.Description),
		DueAt:                dueAt.UTC(),
		Points:               payload.Points,
		AllowLateSubmissions: payload.AllowLateSubmissions,
		LatePenaltyPercent:   payload.LatePenaltyPercent,
		MaxAttempts:          maxAttempts,
		IsActive:             isActive,
		AssignmentFile:       strings.TrimSpace(payload.AssignmentFile),
		Questions:            make([]models.Question, 0, len(payload.Questions)),
	}

	for _, q := range payload.Questions {
		question := models.Question{
			Text:         strings.TrimSpace(q.Text),
			QuestionType: models.QuestionType(q.QuestionType),
			Points:       q.Points,
			IsRequired:   q.IsRequired,
			Order:        q.Order,
		}
		for _, a := range q.Answers {
			question.Answers = append(question.Answers, models.Answer{
				Text:      strings.TrimSpace(a.Text),
				IsCorrect: a.IsCorrect,
				Order:     a.Order,
			})
		}
		assignment.Questions = append(assignment.Questions, question)
	}

	if err := assignment.Validate(); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.invalidate(ctx, courseID)
	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", courseID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = strings.TrimSpace(*payload.Title)
	}

	if payload.Description != nil {
		assignment.Description = s.sanitizer.Sanitize(*payload.Description)
	}

	if payload.DueAt != nil {
		dueAt, err := dto.ParseDueAt(*payload.DueAt)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		// Administrative edits may move a deadline; stored lateness flags are kept.
		assignment.DueAt = dueAt.UTC()
	}

	if payload.Points != nil {
		assignment.Points = *payload.Points
	}

	if payload.AllowLateSubmissions != nil {
		assignment.AllowLateSubmissions = *payload.AllowLateSubmissions
	}

	if payload.LatePenaltyPercent != nil {
		assignment.LatePenaltyPercent = *payload.LatePenaltyPercent
	}

	if payload.MaxAttempts != nil {
		assignment.MaxAttempts = *payload.MaxAttempts
	}

	if payload.IsActive != nil {
		assignment.IsActive = *payload.IsActive
	}

	if payload.AssignmentFile != nil {
		assignment.AssignmentFile = strings.TrimSpace(*payload.AssignmentFile)
	}

	if err := assignment.Validate(); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.invalidate(ctx, assignment.CourseID)
	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.invalidate(ctx, assignment.CourseID)
	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) invalidate(ctx context.Context, courseID uint) {
	if s.stats != nil {
		s.stats.Invalidate(ctx, courseID)
	}
}
