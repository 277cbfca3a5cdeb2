package dto

import (
	"time"

	"github.com/noah-isme/gema-gradebook/internal/grading"
	"github.com/noah-isme/gema-gradebook/internal/models"
)

// ResponseRequest is one answer inside a submission payload.
type ResponseRequest struct {
	QuestionID       uint    `json:"question_id" validate:"required,gt=0"`
	TextAnswer       *string `json:"text_answer" validate:"omitempty,max=20000"`
	SelectedAnswerID *uint   `json:"selected_answer_id" validate:"omitempty,gt=0"`
	FileAnswer       *string `json:"file_answer" validate:"omitempty,url"`
}

// SubmissionCreateRequest describes the payload for handing in an assignment.
type SubmissionCreateRequest struct {
	StudentID uint              `json:"student_id" validate:"required,gt=0"`
	Responses []ResponseRequest `json:"responses" validate:"omitempty,dive"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=pending submitted graded"`
}

// ResponseItem is the serialized form of a question response.
type ResponseItem struct {
	ID               uint     `json:"id"`
	QuestionID       uint     `json:"question_id"`
	QuestionType     string   `json:"question_type"`
	TextAnswer       *string  `json:"text_answer,omitempty"`
	SelectedAnswerID *uint    `json:"selected_answer_id,omitempty"`
	FileAnswer       *string  `json:"file_answer,omitempty"`
	PointsEarned     *float64 `json:"points_earned"`
}

// SubmissionGradeHistoryResponse serializes grading history entries.
type SubmissionGradeHistoryResponse struct {
	RawScore       float64   `json:"raw_score"`
	Grade          float64   `json:"grade"`
	PenaltyApplied bool      `json:"penalty_applied"`
	Feedback       string    `json:"feedback"`
	GradedBy       uint      `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint      `json:"id"`
	CourseID uint      `json:"course_id"`
	Title    string    `json:"title"`
	DueAt    time.Time `json:"due_at"`
	Points   float64   `json:"points"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID             uint                             `json:"id"`
	AssignmentID   uint                             `json:"assignment_id"`
	StudentID      uint                             `json:"student_id"`
	Attempt        int                              `json:"attempt"`
	Status         string                           `json:"status"`
	LifecycleState string                           `json:"lifecycle_state,omitempty"`
	SubmittedAt    *time.Time                       `json:"submitted_at"`
	IsLate         bool                             `json:"is_late"`
	Grade          *float64                         `json:"grade"`
	RawScore       *float64                         `json:"raw_score"`
	Percentage     *int                             `json:"percentage"`
	Feedback       *string                          `json:"feedback"`
	RubricScores   map[string]int                   `json:"rubric_scores"`
	RubricAverage  float64                          `json:"rubric_average"`
	GradedBy       *uint                            `json:"graded_by"`
	GradedAt       *time.Time                       `json:"graded_at"`
	Responses      []ResponseItem                   `json:"responses"`
	History        []SubmissionGradeHistoryResponse `json:"history,omitempty"`
	Assignment     *AssignmentLite                  `json:"assignment,omitempty"`
	CreatedAt      time.Time                        `json:"created_at"`
	UpdatedAt      time.Time                        `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO. Derived fields
// are filled in when the assignment association is loaded.
func NewSubmissionResponse(model models.Submission, now time.Time) SubmissionResponse {
	rubric := model.Rubric()
	if rubric == nil {
		rubric = models.RubricScores{}
	}

	response := SubmissionResponse{
		ID:            model.ID,
		AssignmentID:  model.AssignmentID,
		StudentID:     model.StudentID,
		Attempt:       model.Attempt,
		Status:        string(model.Status),
		SubmittedAt:   model.SubmittedAt,
		IsLate:        model.IsLate,
		Grade:         model.Grade,
		RawScore:      model.RawScore,
		Feedback:      model.Feedback,
		RubricScores:  rubric,
		RubricAverage: grading.RubricAverage(rubric),
		GradedBy:      model.GradedBy,
		GradedAt:      model.GradedAt,
		Responses:     make([]ResponseItem, 0, len(model.Responses)),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	for _, item := range model.Responses {
		response.Responses = append(response.Responses, ResponseItem{
			ID:               item.ID,
			QuestionID:       item.QuestionID,
			QuestionType:     string(item.QuestionType),
			TextAnswer:       item.TextAnswer,
			SelectedAnswerID: item.SelectedAnswerID,
			FileAnswer:       item.FileAnswer,
			PointsEarned:     item.PointsEarned,
		})
	}

	if model.Assignment.ID != 0 {
		response.Assignment = &AssignmentLite{
			ID:       model.Assignment.ID,
			CourseID: model.Assignment.CourseID,
			Title:    model.Assignment.Title,
			DueAt:    model.Assignment.DueAt,
			Points:   model.Assignment.Points,
		}
		response.LifecycleState = string(grading.DeriveStatus(model.Assignment, &model, now))
		if model.Grade != nil {
			if percentage, ok := grading.Percentage(model.Assignment.Points, *model.Grade); ok {
				response.Percentage = &percentage
			}
		}
	}

	if len(model.History) > 0 {
		history := make([]SubmissionGradeHistoryResponse, 0, len(model.History))
		for _, entry := range model.History {
			history = append(history, SubmissionGradeHistoryResponse{
				RawScore:       entry.RawScore,
				Grade:          entry.Grade,
				PenaltyApplied: entry.PenaltyApplied,
				Feedback:       entry.Feedback,
				GradedBy:       entry.GradedBy,
				GradedAt:       entry.GradedAt,
			})
		}
		response.History = history
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission, now time.Time) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission, now))
	}

	return responses
}
