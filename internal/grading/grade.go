package grading

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

const gradePrecision = 2

var hundred = decimal.NewFromInt(100)

// GradeOptions carries the per-submission inputs of ComputeGrade.
type GradeOptions struct {
	IsLate       bool
	RubricScores models.RubricScores
}

// GradeResult is the outcome of grading a single submission.
type GradeResult struct {
	RawScore       float64 `json:"raw_score"`
	Grade          float64 `json:"grade"`
	Percentage     int     `json:"percentage"`
	RubricAverage  float64 `json:"rubric_average"`
	PenaltyApplied bool    `json:"penalty_applied"`
}

// ComputeGrade turns a teacher-entered raw score into the effective grade.
// Out-of-range scores are rejected rather than clamped. The late penalty is
// applied only when the assignment allows late work and defines a penalty.
func ComputeGrade(assignment models.Assignment, rawScore float64, opts GradeOptions) (GradeResult, error) {
	if !validPoints(assignment.Points) {
		return GradeResult{}, &ValidationError{Field: "points", Reason: "assignment points must be greater than zero"}
	}
	if math.IsNaN(rawScore) || math.IsInf(rawScore, 0) {
		return GradeResult{}, &ValidationError{Field: "raw_score", Reason: "must be a finite number"}
	}
	if rawScore < 0 || rawScore > assignment.Points {
		return GradeResult{}, &ValidationError{
			Field:  "raw_score",
			Reason: "must be between 0 and " + decimal.NewFromFloat(assignment.Points).String(),
		}
	}
	if err := opts.RubricScores.Validate(); err != nil {
		return GradeResult{}, err
	}
	if !validPenalty(assignment.LatePenaltyPercent) {
		return GradeResult{}, &ValidationError{Field: "late_penalty_percent", Reason: "must be between 0 and 100"}
	}

	raw := decimal.NewFromFloat(rawScore)
	grade := raw
	penalized := opts.IsLate && assignment.AllowLateSubmissions && assignment.LatePenaltyPercent > 0
	if penalized {
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(assignment.LatePenaltyPercent).Div(hundred))
		grade = raw.Mul(factor)
	}
	grade = grade.Round(gradePrecision)

	result := GradeResult{
		RawScore:       rawScore,
		Grade:          grade.InexactFloat64(),
		PenaltyApplied: penalized,
		RubricAverage:  RubricAverage(opts.RubricScores),
	}
	result.Percentage, _ = Percentage(assignment.Points, result.Grade)

	return result, nil
}

// Percentage expresses grade as a whole-number share of points, rounded half-up.
// ok is false when points cannot be used as a denominator.
func Percentage(points, grade float64) (int, bool) {
	if !validPoints(points) || math.IsNaN(grade) || math.IsInf(grade, 0) {
		return 0, false
	}
	ratio := decimal.NewFromFloat(grade).Mul(hundred).Div(decimal.NewFromFloat(points))
	return int(ratio.Round(0).IntPart()), true
}

// RubricAverage is the arithmetic mean of the ratings, or 0 without ratings.
// It is informational and never substituted for the grade.
func RubricAverage(scores models.RubricScores) float64 {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, value := range scores {
		total += value
	}
	return float64(total) / float64(len(scores))
}

func validPoints(points float64) bool {
	return !math.IsNaN(points) && !math.IsInf(points, 0) && points > 0
}

func validPenalty(percent float64) bool {
	return !math.IsNaN(percent) && percent >= 0 && percent <= 100
}
