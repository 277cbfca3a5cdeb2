package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus is the stored state of a submission.
type SubmissionStatus string

const (
	// SubmissionStatusPending marks a submission that exists but has not been handed in.
	SubmissionStatusPending SubmissionStatus = "pending"
	// SubmissionStatusSubmitted indicates the submission has been handed in but not graded.
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded SubmissionStatus = "graded"
)

// Valid reports whether the status is known.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusSubmitted, SubmissionStatusGraded:
		return true
	default:
		return false
	}
}

// RubricMin and RubricMax bound a single rubric criterion rating.
const (
	RubricMin = 0
	RubricMax = 5
)

// RubricScores maps a criterion key to a 0-5 rating.
type RubricScores map[string]int

// Validate rejects ratings outside the rubric scale.
func (r RubricScores) Validate() error {
	for key, value := range r {
		if value < RubricMin || value > RubricMax {
			return invalid("rubric_scores."+key, "must be between %d and %d", RubricMin, RubricMax)
		}
	}
	return nil
}

// Submission is one attempt by a student at an assignment.
type Submission struct {
	ID           uint                             `gorm:"primaryKey" json:"id"`
	AssignmentID uint                             `gorm:"not null;index;uniqueIndex:idx_submission_attempt,priority:1" json:"assignment_id"`
	StudentID    uint                             `gorm:"not null;index;uniqueIndex:idx_submission_attempt,priority:2" json:"student_id"`
	Attempt      int                              `gorm:"not null;uniqueIndex:idx_submission_attempt,priority:3" json:"attempt"`
	SubmittedAt  *time.Time                       `json:"submitted_at"`
	Status       SubmissionStatus                 `gorm:"size:32;not null" json:"status"`
	Grade        *float64                         `json:"grade"`
	RawScore     *float64                         `json:"raw_score"`
	Feedback     *string                          `gorm:"type:text" json:"feedback"`
	IsLate       bool                             `gorm:"not null" json:"is_late"`
	RubricScores datatypes.JSONType[RubricScores] `json:"rubric_scores"`
	GradedBy     *uint                            `json:"graded_by"`
	GradedAt     *time.Time                       `json:"graded_at"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
	Responses    []QuestionResponse               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"responses"`
	History      []SubmissionGradeHistory         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"history"`
	Assignment   Assignment                       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student      Student                          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// IsHandedIn reports whether the submission counts as submitted for statistics.
func (s Submission) IsHandedIn() bool {
	return s.Status == SubmissionStatusSubmitted || s.Status == SubmissionStatusGraded
}

// Rubric returns the stored rubric ratings.
func (s Submission) Rubric() RubricScores {
	return s.RubricScores.Data()
}

// Validate checks the stored invariants. assignment may be nil when unknown.
func (s Submission) Validate(assignment *Assignment) error {
	if !s.Status.Valid() {
		return invalid("status", "unknown status %q", s.Status)
	}
	if s.Grade != nil {
		if s.Status != SubmissionStatusGraded {
			return invalid("grade", "set on a submission that is %s", s.Status)
		}
		if math.IsNaN(*s.Grade) || *s.Grade < 0 {
			return invalid("grade", "must not be negative")
		}
		if assignment != nil && *s.Grade > assignment.Points {
			return invalid("grade", "exceeds assignment points %.2f", assignment.Points)
		}
	}
	if s.Status != SubmissionStatusPending && s.SubmittedAt == nil {
		return invalid("submitted_at", "required once the submission is %s", s.Status)
	}
	if err := s.Rubric().Validate(); err != nil {
		return err
	}
	for _, response := range s.Responses {
		if err := response.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MarkSubmitted hands the submission in. Lateness is fixed here and never recomputed.
func (s *Submission) MarkSubmitted(assignment Assignment, at time.Time) error {
	if s.Status != "" && s.Status != SubmissionStatusPending {
		return ErrInvalidTransition
	}
	submittedAt := at
	s.SubmittedAt = &submittedAt
	s.IsLate = assignment.IsPastDue(at)
	s.Status = SubmissionStatusSubmitted
	return nil
}

// ApplyGrade overwrites any previous grading outcome.
func (s *Submission) ApplyGrade(grade, rawScore float64, feedback *string, rubric RubricScores, gradedBy uint, at time.Time) error {
	if s.Status != SubmissionStatusSubmitted && s.Status != SubmissionStatusGraded {
		return ErrInvalidTransition
	}
	if err := rubric.Validate(); err != nil {
		return err
	}

	s.Grade = &grade
	s.RawScore = &rawScore
	s.Feedback = feedback
	s.RubricScores = datatypes.NewJSONType(rubric)
	s.Status = SubmissionStatusGraded
	gradedAt := at
	s.GradedAt = &gradedAt
	s.GradedBy = &gradedBy
	return nil
}

// SubmissionGradeHistory records each grading operation for audit.
type SubmissionGradeHistory struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubmissionID   uint      `gorm:"not null;index" json:"submission_id"`
	RawScore       float64   `gorm:"not null" json:"raw_score"`
	Grade          float64   `gorm:"not null" json:"grade"`
	PenaltyApplied bool      `gorm:"not null" json:"penalty_applied"`
	Feedback       string    `gorm:"type:text" json:"feedback"`
	GradedBy       uint      `gorm:"not null" json:"graded_by"`
	GradedAt       time.Time `gorm:"not null" json:"graded_at"`
}
