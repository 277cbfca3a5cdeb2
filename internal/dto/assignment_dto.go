package dto

import (
	"time"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

const isoLayout = time.RFC3339

// AnswerRequest describes a selectable option of a choice question.
type AnswerRequest struct {
	Text      string `json:"text" validate:"required,max=1000"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order" validate:"gte=0"`
}

// QuestionRequest describes a question authored with an assignment.
type QuestionRequest struct {
	Text         string          `json:"text" validate:"required,max=5000"`
	QuestionType string          `json:"question_type" validate:"required,oneof=multiple_choice true_false short_answer essay file_upload"`
	Points       float64         `json:"points" validate:"gte=0"`
	IsRequired   bool            `json:"is_required"`
	Order        int             `json:"order" validate:"gte=0"`
	Answers      []AnswerRequest `json:"answers" validate:"omitempty,dive"`
}

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	ModuleID             *uint             `json:"module_id" validate:"omitempty,gt=0"`
	Title                string            `json:"title" validate:"required,min=3,max=255"`
	Description          string            `json:"description" validate:"omitempty,max=10000"`
	DueAt                string            `json:"due_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Points               float64           `json:"points" validate:"gt=0"`
	AllowLateSubmissions bool              `json:"allow_late_submissions"`
	LatePenaltyPercent   float64           `json:"late_penalty_percent" validate:"gte=0,lte=100"`
	MaxAttempts          int               `json:"max_attempts" validate:"omitempty,gte=1"`
	IsActive             *bool             `json:"is_active"`
	AssignmentFile       string            `json:"assignment_file" validate:"omitempty,url"`
	Questions            []QuestionRequest `json:"questions" validate:"omitempty,dive"`
}

// AssignmentUpdateRequest describes an administrative edit of an assignment.
type AssignmentUpdateRequest struct {
	Title                *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description          *string  `json:"description" validate:"omitempty,max=10000"`
	DueAt                *string  `json:"due_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Points               *float64 `json:"points" validate:"omitempty,gt=0"`
	AllowLateSubmissions *bool    `json:"allow_late_submissions"`
	LatePenaltyPercent   *float64 `json:"late_penalty_percent" validate:"omitempty,gte=0,lte=100"`
	MaxAttempts          *int     `json:"max_attempts" validate:"omitempty,gte=1"`
	IsActive             *bool    `json:"is_active"`
	AssignmentFile       *string  `json:"assignment_file" validate:"omitempty,url"`
}

// AnswerOption is the serialized form of an answer option.
type AnswerOption struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order"`
}

// QuestionItem is the serialized form of a question.
type QuestionItem struct {
	ID           uint           `json:"id"`
	Text         string         `json:"text"`
	QuestionType string         `json:"question_type"`
	Points       float64        `json:"points"`
	IsRequired   bool           `json:"is_required"`
	Order        int            `json:"order"`
	Answers      []AnswerOption `json:"answers"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID                   uint           `json:"id"`
	CourseID             uint           `json:"course_id"`
	ModuleID             *uint          `json:"module_id"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	DueAt                time.Time      `json:"due_at"`
	Points               float64        `json:"points"`
	AllowLateSubmissions bool           `json:"allow_late_submissions"`
	LatePenaltyPercent   float64        `json:"late_penalty_percent"`
	MaxAttempts          int            `json:"max_attempts"`
	IsActive             bool           `json:"is_active"`
	AssignmentFile       string         `json:"assignment_file"`
	Questions            []QuestionItem `json:"questions"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	questions := make([]QuestionItem, 0, len(model.Questions))
	for _, question := range model.Questions {
		answers := make([]AnswerOption, 0, len(question.Answers))
		for _, answer := range question.Answers {
			answers = append(answers, AnswerOption{
				ID:        answer.ID,
				Text:      answer.Text,
				IsCorrect: answer.IsCorrect,
				Order:     answer.Order,
			})
		}
		questions = append(questions, QuestionItem{
			ID:           question.ID,
			Text:         question.Text,
			QuestionType: string(question.QuestionType),
			Points:       question.Points,
			IsRequired:   question.IsRequired,
			Order:        question.Order,
			Answers:      answers,
		})
	}

	return AssignmentResponse{
		ID:                   model.ID,
		CourseID:             model.CourseID,
		ModuleID:             model.ModuleID,
		Title:                model.Title,
		Description:          model.Description,
		DueAt:                model.DueAt,
		Points:               model.Points,
		AllowLateSubmissions: model.AllowLateSubmissions,
		LatePenaltyPercent:   model.LatePenaltyPercent,
		MaxAttempts:          model.MaxAttempts,
		IsActive:             model.IsActive,
		AssignmentFile:       model.AssignmentFile,
		Questions:            questions,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// ParseDueAt parses an RFC3339 due date.
func ParseDueAt(value string) (time.Time, error) {
	return time.Parse(isoLayout, value)
}
