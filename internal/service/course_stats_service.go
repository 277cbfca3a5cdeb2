package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/grading"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/observability"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

// StatsInvalidator drops cached course statistics after a write.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, courseID uint)
}

// CourseStatsService aggregates per-assignment and per-course statistics.
type CourseStatsService interface {
	StatsInvalidator
	GetCourseStats(ctx context.Context, courseID uint) (dto.CourseStatsResponse, error)
}

type courseStatsService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCourseStatsService constructs the statistics service. cache may be nil.
func NewCourseStatsService(assignmentRepo repository.AssignmentRepository, submissionRepo repository.SubmissionRepository, enrollmentRepo repository.EnrollmentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) CourseStatsService {
	return &courseStatsService{
		assignments: assignmentRepo,
		submissions: submissionRepo,
		enrollments: enrollmentRepo,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "course_stats_service").Logger(),
		now:         time.Now,
	}
}

func courseStatsKey(courseID uint) string {
	return fmt.Sprintf("stats:course:%d", courseID)
}

func (s *courseStatsService) GetCourseStats(ctx context.Context, courseID uint) (dto.CourseStatsResponse, error) {
	cacheKey := courseStatsKey(courseID)
	tracer := otel.Tracer("github.com/noah-isme/gema-gradebook/internal/service/course_stats")
	ctx, span := tracer.Start(ctx, "stats.aggregate")
	span.SetAttributes(
		attribute.Int64("stats.course_id", int64(courseID)),
		attribute.String("stats.cache_key", cacheKey),
	)
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.CourseStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				observability.StatsCacheLookups().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("stats.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to read stats cache")
			span.RecordError(err)
		}
		observability.StatsCacheLookups().WithLabelValues("miss").Inc()
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_assignments_failed")
		return dto.CourseStatsResponse{}, err
	}

	totalStudents, err := s.enrollments.CountByCourse(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_enrollments_failed")
		return dto.CourseStatsResponse{}, err
	}

	ids := assignmentIDs(assignments)
	submissions, err := s.submissions.LatestByAssignments(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_submissions_failed")
		return dto.CourseStatsResponse{}, err
	}

	totals := make(map[uint]int, len(ids))
	for _, id := range ids {
		totals[id] = int(totalStudents)
	}

	stats := grading.Aggregate(assignments, submissions, totals)
	response := dto.NewCourseStatsResponse(courseID, stats, s.now().UTC())
	span.SetAttributes(
		attribute.Int("stats.assignment_count", len(assignments)),
		attribute.Int64("stats.total_students", totalStudents),
	)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to store stats cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

func (s *courseStatsService) Invalidate(ctx context.Context, courseID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, courseStatsKey(courseID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to invalidate stats cache")
	}
}

func assignmentIDs(assignments []models.Assignment) []uint {
	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}
	return ids
}
