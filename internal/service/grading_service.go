package service

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/grading"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/observability"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

// ErrSubmissionNotGradable indicates the submission has not been handed in yet.
var ErrSubmissionNotGradable = errors.New("submission is not ready for grading")

// Actor identifies the teacher or administrator performing an operation.
type Actor struct {
	ID   uint
	Role string
}

// GradingService encapsulates grading workflows for teachers and administrators.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor Actor) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	events      GradeEventPublisher
	stats       StatsInvalidator
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service. events and stats may be nil.
func NewGradingService(repo repository.SubmissionRepository, events GradeEventPublisher, stats StatsInvalidator, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: repo,
		events:      events,
		stats:       stats,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor Actor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-gradebook/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.update", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		observability.GradingOperations().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.SetStatus(codes.Error, "submission_lookup_failed")
		observability.GradingOperations().WithLabelValues("failed").Inc()
		return dto.SubmissionResponse{}, err
	}

	if !submission.IsHandedIn() {
		span.SetStatus(codes.Error, "submission_not_gradable")
		observability.GradingOperations().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, ErrSubmissionNotGradable
	}

	rubric := models.RubricScores(payload.RubricScores)
	result, err := grading.ComputeGrade(submission.Assignment, *payload.RawScore, grading.GradeOptions{
		IsLate:       submission.IsLate,
		RubricScores: rubric,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_rejected")
		observability.GradingOperations().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, err
	}

	var feedback *string
	if trimmed := strings.TrimSpace(payload.Feedback); trimmed != "" {
		clean := s.sanitizer.Sanitize(trimmed)
		feedback = &clean
	}

	if sameGrade(submission, result, feedback, rubric, actor.ID) {
		span.SetAttributes(attribute.Bool("grading.unchanged", true))
		observability.GradingOperations().WithLabelValues("unchanged").Inc()
		return dto.NewSubmissionResponse(submission, s.now()), nil
	}

	gradedAt := s.now().UTC()
	if err := submission.ApplyGrade(result.Grade, result.RawScore, feedback, rubric, actor.ID, gradedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_transition_failed")
		observability.GradingOperations().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_persist_failed")
		observability.GradingOperations().WithLabelValues("failed").Inc()
		return dto.SubmissionResponse{}, err
	}

	history := models.SubmissionGradeHistory{
		SubmissionID:   submission.ID,
		RawScore:       result.RawScore,
		Grade:          result.Grade,
		PenaltyApplied: result.PenaltyApplied,
		GradedBy:       actor.ID,
		GradedAt:       gradedAt,
	}
	if feedback != nil {
		history.Feedback = *feedback
	}
	if err := s.submissions.CreateHistory(ctx, &history); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to record grade history")
		span.RecordError(err)
	} else {
		submission.History = append(submission.History, history)
	}

	observability.GradingOperations().WithLabelValues("graded").Inc()
	if result.PenaltyApplied {
		observability.LatePenalties().Inc()
	}
	span.SetAttributes(
		attribute.Float64("grading.grade", result.Grade),
		attribute.Bool("grading.penalty_applied", result.PenaltyApplied),
	)

	if s.stats != nil {
		s.stats.Invalidate(ctx, submission.Assignment.CourseID)
	}

	if s.events != nil {
		event := dto.GradeEvent{
			SubmissionID:   submission.ID,
			AssignmentID:   submission.AssignmentID,
			CourseID:       submission.Assignment.CourseID,
			StudentID:      submission.StudentID,
			Grade:          result.Grade,
			Percentage:     result.Percentage,
			IsLate:         submission.IsLate,
			PenaltyApplied: result.PenaltyApplied,
			GradedBy:       actor.ID,
			GradedAt:       gradedAt,
		}
		if err := s.events.PublishGraded(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish grade event")
			span.RecordError(err)
		}
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("actor_id", actor.ID).
		Float64("grade", result.Grade).
		Bool("penalty_applied", result.PenaltyApplied).
		Msg("submission graded")

	return dto.NewSubmissionResponse(submission, gradedAt), nil
}

// sameGrade reports whether applying result would leave the submission unchanged.
func sameGrade(submission models.Submission, result grading.GradeResult, feedback *string, rubric models.RubricScores, actorID uint) bool {
	if !submission.IsGraded() || submission.GradedBy == nil || *submission.GradedBy != actorID {
		return false
	}
	if submission.Grade == nil || *submission.Grade != result.Grade {
		return false
	}
	if submission.RawScore == nil || *submission.RawScore != result.RawScore {
		return false
	}
	if (submission.Feedback == nil) != (feedback == nil) {
		return false
	}
	if feedback != nil && *submission.Feedback != *feedback {
		return false
	}
	return maps.Equal(submission.Rubric(), rubric)
}
