package grading

import "github.com/noah-isme/gema-gradebook/internal/models"

// AssignmentStats summarises hand-ins and grades for one assignment.
type AssignmentStats struct {
	AssignmentID     uint    `json:"assignment_id"`
	Title            string  `json:"title"`
	TotalStudents    int     `json:"total_students"`
	SubmissionsCount int     `json:"submissions_count"`
	GradedCount      int     `json:"graded_count"`
	LateCount        int     `json:"late_count"`
	SubmissionRate   float64 `json:"submission_rate"`
	GradedRate       float64 `json:"graded_rate"`
	AverageGrade     float64 `json:"average_grade"`
}

// CourseStats folds the per-assignment statistics of a course.
type CourseStats struct {
	AssignmentCount  int     `json:"assignment_count"`
	SubmissionsCount int     `json:"submissions_count"`
	GradedCount      int     `json:"graded_count"`
	AverageGrade     float64 `json:"average_grade"`
}

// Stats is the result of Aggregate.
type Stats struct {
	Assignments []AssignmentStats `json:"assignments"`
	Course      CourseStats       `json:"course"`
}

// Aggregate computes per-assignment and course statistics. It never fails:
// missing or malformed per-assignment data degrades to zero values.
//
// AverageGrade of an assignment is 0 both when nothing is graded and when the
// graded mean really is 0; GradedCount tells them apart. The course average
// only includes assignments whose AverageGrade is above 0.
//
// Percentages use the assignment's current Points. Grades recorded before
// Points was lowered are not clamped, so an average may exceed 100.
func Aggregate(assignments []models.Assignment, submissionsByAssignment map[uint][]models.Submission, totalStudentsByAssignment map[uint]int) Stats {
	stats := Stats{Assignments: make([]AssignmentStats, 0, len(assignments))}

	var averageSum float64
	averaged := 0

	for _, assignment := range assignments {
		item := aggregateAssignment(assignment, submissionsByAssignment[assignment.ID], totalStudentsByAssignment[assignment.ID])
		stats.Assignments = append(stats.Assignments, item)

		stats.Course.AssignmentCount++
		stats.Course.SubmissionsCount += item.SubmissionsCount
		stats.Course.GradedCount += item.GradedCount
		if item.AverageGrade > 0 {
			averageSum += item.AverageGrade
			averaged++
		}
	}

	if averaged > 0 {
		stats.Course.AverageGrade = averageSum / float64(averaged)
	}

	return stats
}

func aggregateAssignment(assignment models.Assignment, submissions []models.Submission, totalStudents int) AssignmentStats {
	item := AssignmentStats{
		AssignmentID:  assignment.ID,
		Title:         assignment.Title,
		TotalStudents: totalStudents,
	}

	percentageSum := 0
	percentages := 0

	for _, submission := range submissions {
		if !submission.IsHandedIn() {
			continue
		}
		item.SubmissionsCount++
		if submission.IsLate {
			item.LateCount++
		}
		if !submission.IsGraded() {
			continue
		}
		item.GradedCount++
		if submission.Grade == nil {
			continue
		}
		if percentage, ok := Percentage(assignment.Points, *submission.Grade); ok {
			percentageSum += percentage
			percentages++
		}
	}

	if totalStudents > 0 {
		item.SubmissionRate = float64(item.SubmissionsCount) / float64(totalStudents)
	}
	if item.SubmissionsCount > 0 {
		item.GradedRate = float64(item.GradedCount) / float64(item.SubmissionsCount)
	}
	if percentages > 0 {
		item.AverageGrade = float64(percentageSum) / float64(percentages)
	}

	return item
}
