// Package grading holds the assignment grading rules: lifecycle state derivation,
// grade computation and course statistics. Every function is pure and safe for
// concurrent use; callers fetch records and pass them in.
package grading

import (
	"time"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// ValidationError reports malformed grading input.
type ValidationError = models.ValidationError

// LifecycleState is the derived relationship of a student to an assignment.
type LifecycleState string

const (
	StateNoSubmission    LifecycleState = "no_submission"
	StateSubmittedOnTime LifecycleState = "submitted_on_time"
	StateSubmittedLate   LifecycleState = "submitted_late"
	StateGraded          LifecycleState = "graded"
	StateOverdue         LifecycleState = "overdue"
)

// States lists every lifecycle state in display order.
func States() []LifecycleState {
	return []LifecycleState{StateNoSubmission, StateSubmittedOnTime, StateSubmittedLate, StateGraded, StateOverdue}
}

// IsLate reports whether a hand-in at submittedAt misses the deadline. Late
// hand-ins are never rejected here, even when the assignment disallows them.
func IsLate(assignment models.Assignment, submittedAt time.Time) bool {
	return assignment.IsPastDue(submittedAt)
}

// DeriveStatus maps an assignment, the student's submission (nil when absent)
// and the current time to a lifecycle state.
func DeriveStatus(assignment models.Assignment, submission *models.Submission, now time.Time) LifecycleState {
	if submission == nil || submission.SubmittedAt == nil {
		if assignment.IsPastDue(now) {
			return StateOverdue
		}
		return StateNoSubmission
	}

	if submission.IsGraded() {
		return StateGraded
	}

	if submission.IsLate {
		return StateSubmittedLate
	}
	return StateSubmittedOnTime
}
