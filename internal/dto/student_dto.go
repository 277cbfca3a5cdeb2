package dto

import "time"

// StudentDashboardResponse aggregates assignment progress for a student.
type StudentDashboardResponse struct {
	StudentID   uint                 `json:"student_id"`
	CourseID    uint                 `json:"course_id"`
	Summary     ProgressSummary      `json:"summary"`
	Assignments []AssignmentProgress `json:"assignments"`
}

// ProgressSummary counts assignments per lifecycle state.
type ProgressSummary struct {
	TotalAssignments  int     `json:"total_assignments"`
	NoSubmission      int     `json:"no_submission"`
	SubmittedOnTime   int     `json:"submitted_on_time"`
	SubmittedLate     int     `json:"submitted_late"`
	Graded            int     `json:"graded"`
	Overdue           int     `json:"overdue"`
	AveragePercentage float64 `json:"average_percentage"`
}

// AssignmentProgress describes the state of a single assignment relative to a student.
type AssignmentProgress struct {
	AssignmentID   uint      `json:"assignment_id"`
	Title          string    `json:"title"`
	DueAt          time.Time `json:"due_at"`
	Points         float64   `json:"points"`
	LifecycleState string    `json:"lifecycle_state"`
	SubmissionID   *uint     `json:"submission_id"`
	Attempt        int       `json:"attempt"`
	AttemptsLeft   int       `json:"attempts_left"`
	Grade          *float64  `json:"grade"`
	Percentage     *int      `json:"percentage"`
	Feedback       *string   `json:"feedback"`
}
