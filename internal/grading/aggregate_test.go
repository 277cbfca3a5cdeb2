package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

func gradedSubmission(id, assignmentID uint, grade float64) models.Submission {
	submittedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return models.Submission{
		ID:           id,
		AssignmentID: assignmentID,
		Status:       models.SubmissionStatusGraded,
		SubmittedAt:  &submittedAt,
		Grade:        &grade,
	}
}

func submittedSubmission(id, assignmentID uint, late bool) models.Submission {
	submittedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return models.Submission{
		ID:           id,
		AssignmentID: assignmentID,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  &submittedAt,
		IsLate:       late,
	}
}

func TestAggregatePerAssignment(t *testing.T) {
	assignments := []models.Assignment{{ID: 1, Title: "Essay", Points: 50}}
	submissions := map[uint][]models.Submission{
		1: {
			gradedSubmission(1, 1, 45),
			submittedSubmission(2, 1, true),
			{ID: 3, AssignmentID: 1, Status: models.SubmissionStatusPending},
		},
	}

	stats := Aggregate(assignments, submissions, map[uint]int{1: 4})
	require.Len(t, stats.Assignments, 1)

	item := stats.Assignments[0]
	require.Equal(t, uint(1), item.AssignmentID)
	require.Equal(t, "Essay", item.Title)
	require.Equal(t, 4, item.TotalStudents)
	require.Equal(t, 2, item.SubmissionsCount)
	require.Equal(t, 1, item.GradedCount)
	require.Equal(t, 1, item.LateCount)
	require.InDelta(t, 0.5, item.SubmissionRate, 1e-9)
	require.InDelta(t, 0.5, item.GradedRate, 1e-9)
	require.Equal(t, 90.0, item.AverageGrade)
}

func TestAggregateZeroStudentsDoesNotDivide(t *testing.T) {
	assignments := []models.Assignment{{ID: 1, Points: 10}}
	submissions := map[uint][]models.Submission{1: {submittedSubmission(1, 1, false)}}

	stats := Aggregate(assignments, submissions, map[uint]int{1: 0})
	require.Equal(t, 1, stats.Assignments[0].SubmissionsCount)
	require.Zero(t, stats.Assignments[0].SubmissionRate)
}

func TestAggregateCourseAverageSkipsUngradedAssignments(t *testing.T) {
	assignments := []models.Assignment{
		{ID: 1, Points: 100},
		{ID: 2, Points: 100},
	}
	submissions := map[uint][]models.Submission{
		1: {submittedSubmission(1, 1, false)},
		2: {gradedSubmission(2, 2, 90)},
	}

	stats := Aggregate(assignments, submissions, map[uint]int{1: 2, 2: 2})
	require.Equal(t, 0, stats.Assignments[0].GradedCount)
	require.Zero(t, stats.Assignments[0].AverageGrade)
	require.Equal(t, 90.0, stats.Assignments[1].AverageGrade)

	require.Equal(t, 90.0, stats.Course.AverageGrade)
	require.Equal(t, 2, stats.Course.AssignmentCount)
	require.Equal(t, 2, stats.Course.SubmissionsCount)
	require.Equal(t, 1, stats.Course.GradedCount)
}

func TestAggregateAverageUsesPercentages(t *testing.T) {
	assignments := []models.Assignment{{ID: 7, Points: 8}}
	submissions := map[uint][]models.Submission{
		7: {gradedSubmission(1, 7, 1), gradedSubmission(2, 7, 8)},
	}

	stats := Aggregate(assignments, submissions, map[uint]int{7: 2})
	// 1/8 rounds to 13%, 8/8 is 100%.
	require.Equal(t, 56.5, stats.Assignments[0].AverageGrade)
	require.Equal(t, 1.0, stats.Assignments[0].SubmissionRate)
}

func TestAggregateKeepsGradesAboveReducedPoints(t *testing.T) {
	assignments := []models.Assignment{{ID: 1, Title: "Rescaled", Points: 40}}
	submissions := map[uint][]models.Submission{
		1: {gradedSubmission(1, 1, 50), gradedSubmission(2, 1, 30)},
	}

	stats := Aggregate(assignments, submissions, map[uint]int{1: 2})
	require.InDelta(t, 100.0, stats.Assignments[0].AverageGrade, 0.0001, "125 and 75 percent are averaged unclamped")
	require.InDelta(t, 100.0, stats.Course.AverageGrade, 0.0001)
}

func TestAggregateDegradesOnMissingData(t *testing.T) {
	assignments := []models.Assignment{
		{ID: 1, Points: 10},
		{ID: 2, Points: 0},
	}
	submissions := map[uint][]models.Submission{
		2: {gradedSubmission(1, 2, 5), {ID: 2, AssignmentID: 2, Status: models.SubmissionStatusGraded}},
	}

	stats := Aggregate(assignments, submissions, nil)
	require.Len(t, stats.Assignments, 2)
	require.Equal(t, AssignmentStats{AssignmentID: 1}, stats.Assignments[0])
	require.Equal(t, 2, stats.Assignments[1].GradedCount)
	require.Zero(t, stats.Assignments[1].AverageGrade)
	require.Zero(t, stats.Course.AverageGrade)

	empty := Aggregate(nil, nil, nil)
	require.Empty(t, empty.Assignments)
	require.Equal(t, CourseStats{}, empty.Course)
}

func TestAggregatePreservesInputOrder(t *testing.T) {
	assignments := []models.Assignment{{ID: 9, Points: 1}, {ID: 3, Points: 1}, {ID: 5, Points: 1}}
	stats := Aggregate(assignments, nil, nil)

	ids := make([]uint, 0, len(stats.Assignments))
	for _, item := range stats.Assignments {
		ids = append(ids, item.AssignmentID)
	}
	require.Equal(t, []uint{9, 3, 5}, ids)
}
