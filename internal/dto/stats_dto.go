package dto

import (
	"time"

	"github.com/noah-isme/gema-gradebook/internal/grading"
)

// CourseStatsResponse is the serialized course statistics view.
type CourseStatsResponse struct {
	CourseID    uint                      `json:"course_id"`
	Course      grading.CourseStats       `json:"course"`
	Assignments []grading.AssignmentStats `json:"assignments"`
	GeneratedAt time.Time                 `json:"generated_at"`
	CacheHit    bool                      `json:"cache_hit"`
}

// NewCourseStatsResponse wraps aggregated statistics.
func NewCourseStatsResponse(courseID uint, stats grading.Stats, generatedAt time.Time) CourseStatsResponse {
	assignments := stats.Assignments
	if assignments == nil {
		assignments = []grading.AssignmentStats{}
	}

	return CourseStatsResponse{
		CourseID:    courseID,
		Course:      stats.Course,
		Assignments: assignments,
		GeneratedAt: generatedAt,
	}
}
