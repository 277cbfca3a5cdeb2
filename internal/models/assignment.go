package models

import (
	"math"
	"time"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeEssay          QuestionType = "essay"
	QuestionTypeFileUpload     QuestionType = "file_upload"
)

// Valid reports whether the question type is known.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse, QuestionTypeShortAnswer, QuestionTypeEssay, QuestionTypeFileUpload:
		return true
	default:
		return false
	}
}

// IsChoice reports whether answers are picked from a fixed list of options.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Assignment is a graded piece of coursework authored by a teacher.
type Assignment struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	CourseID             uint       `gorm:"not null;index" json:"course_id"`
	ModuleID             *uint      `gorm:"index" json:"module_id"`
	Title                string     `gorm:"size:255;not null" json:"title"`
	Description          string     `gorm:"type:text" json:"description"`
	DueAt                time.Time  `gorm:"not null" json:"due_at"`
	Points               float64    `gorm:"not null" json:"points"`
	AllowLateSubmissions bool       `gorm:"not null" json:"allow_late_submissions"`
	LatePenaltyPercent   float64    `gorm:"not null" json:"late_penalty_percent"`
	MaxAttempts          int        `gorm:"not null" json:"max_attempts"`
	IsActive             bool       `gorm:"not null" json:"is_active"`
	AssignmentFile       string     `gorm:"size:512" json:"assignment_file"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	Questions            []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

// Question is a single prompt inside an assignment.
type Question struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	AssignmentID uint         `gorm:"not null;uniqueIndex:idx_question_assignment_order" json:"assignment_id"`
	Text         string       `gorm:"type:text;not null" json:"text"`
	QuestionType QuestionType `gorm:"size:32;not null" json:"question_type"`
	Points       float64      `gorm:"not null" json:"points"`
	IsRequired   bool         `gorm:"not null" json:"is_required"`
	Order        int          `gorm:"column:sort_order;not null;uniqueIndex:idx_question_assignment_order" json:"order"`
	Answers      []Answer     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
}

// Answer is a selectable option for choice questions.
type Answer struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null" json:"is_correct"`
	Order      int    `gorm:"column:sort_order;not null" json:"order"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueAt)
}

// QuestionByID looks up a question owned by the assignment.
func (a Assignment) QuestionByID(id uint) (Question, bool) {
	for _, question := range a.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// Validate checks the authoring invariants of an assignment and its questions.
func (a Assignment) Validate() error {
	if math.IsNaN(a.Points) || math.IsInf(a.Points, 0) || a.Points <= 0 {
		return invalid("points", "must be greater than zero")
	}
	if math.IsNaN(a.LatePenaltyPercent) || a.LatePenaltyPercent < 0 || a.LatePenaltyPercent > 100 {
		return invalid("late_penalty_percent", "must be between 0 and 100")
	}
	if a.MaxAttempts < 1 {
		return invalid("max_attempts", "must be at least 1")
	}

	seen := make(map[int]struct{}, len(a.Questions))
	for _, question := range a.Questions {
		if _, dup := seen[question.Order]; dup {
			return invalid("questions", "duplicate order %d", question.Order)
		}
		seen[question.Order] = struct{}{}

		if err := question.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the invariants of a single question.
func (q Question) Validate() error {
	if !q.QuestionType.Valid() {
		return invalid("question_type", "unknown type %q", q.QuestionType)
	}
	if math.IsNaN(q.Points) || q.Points < 0 {
		return invalid("points", "must not be negative")
	}
	if len(q.Answers) > 0 && !q.QuestionType.IsChoice() {
		return invalid("answers", "only allowed for choice questions")
	}
	return nil
}

// HasAnswer reports whether answerID is one of the question's options.
func (q Question) HasAnswer(answerID uint) bool {
	for _, answer := range q.Answers {
		if answer.ID == answerID {
			return true
		}
	}
	return false
}
