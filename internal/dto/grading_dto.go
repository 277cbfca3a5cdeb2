package dto

import "time"

// GradeSubmissionRequest captures payloads for grading submissions.
// RawScore is a pointer so that a score of zero is still required.
type GradeSubmissionRequest struct {
	RawScore     *float64       `json:"raw_score" validate:"required,gte=0"`
	Feedback     string         `json:"feedback" validate:"omitempty,max=5000"`
	RubricScores map[string]int `json:"rubric_scores" validate:"omitempty,dive,keys,required,max=64,endkeys,gte=0,lte=5"`
}

// GradeEvent is published after a submission is graded.
type GradeEvent struct {
	Type           string    `json:"type"`
	Source         string    `json:"source"`
	SubmissionID   uint      `json:"submission_id"`
	AssignmentID   uint      `json:"assignment_id"`
	CourseID       uint      `json:"course_id"`
	StudentID      uint      `json:"student_id"`
	Grade          float64   `json:"grade"`
	Percentage     int       `json:"percentage"`
	IsLate         bool      `json:"is_late"`
	PenaltyApplied bool      `json:"penalty_applied"`
	GradedBy       uint      `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"`
}
