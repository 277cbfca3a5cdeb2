package models

import "strings"

// ResponseKind identifies which payload variant of a question response is active.
type ResponseKind string

const (
	ResponseKindText   ResponseKind = "text"
	ResponseKindChoice ResponseKind = "choice"
	ResponseKindFile   ResponseKind = "file"
)

// KindFor maps a question type to the response variant it accepts.
func KindFor(t QuestionType) ResponseKind {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return ResponseKindChoice
	case QuestionTypeFileUpload:
		return ResponseKindFile
	default:
		return ResponseKindText
	}
}

// QuestionResponse is a student's answer to one question. Exactly one of
// TextAnswer, SelectedAnswerID and FileAnswer is set, chosen by QuestionType.
type QuestionResponse struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	SubmissionID     uint         `gorm:"not null;index" json:"submission_id"`
	QuestionID       uint         `gorm:"not null;index" json:"question_id"`
	QuestionType     QuestionType `gorm:"size:32;not null" json:"question_type"`
	TextAnswer       *string      `gorm:"type:text" json:"text_answer"`
	SelectedAnswerID *uint        `json:"selected_answer_id"`
	FileAnswer       *string      `gorm:"size:512" json:"file_answer"`
	PointsEarned     *float64     `json:"points_earned"`
}

// ResponsePayload carries the raw, possibly ambiguous, answer fields.
type ResponsePayload struct {
	Text             *string
	SelectedAnswerID *uint
	FileURL          *string
}

func (p ResponsePayload) populated() []ResponseKind {
	kinds := make([]ResponseKind, 0, 1)
	if p.Text != nil {
		kinds = append(kinds, ResponseKindText)
	}
	if p.SelectedAnswerID != nil {
		kinds = append(kinds, ResponseKindChoice)
	}
	if p.FileURL != nil {
		kinds = append(kinds, ResponseKindFile)
	}
	return kinds
}

// NewQuestionResponse builds a response for question, rejecting payloads whose
// populated variant does not match the question type.
func NewQuestionResponse(question Question, payload ResponsePayload) (QuestionResponse, error) {
	if !question.QuestionType.Valid() {
		return QuestionResponse{}, invalid("question_type", "unknown type %q", question.QuestionType)
	}

	kinds := payload.populated()
	switch {
	case len(kinds) == 0:
		return QuestionResponse{}, invalid("response", "question %d has no answer", question.ID)
	case len(kinds) > 1:
		return QuestionResponse{}, invalid("response", "question %d has more than one answer field", question.ID)
	}

	want := KindFor(question.QuestionType)
	if kinds[0] != want {
		return QuestionResponse{}, invalid("response", "question %d of type %s expects a %s answer", question.ID, question.QuestionType, want)
	}

	response := QuestionResponse{
		QuestionID:   question.ID,
		QuestionType: question.QuestionType,
	}

	switch want {
	case ResponseKindChoice:
		if len(question.Answers) > 0 && !question.HasAnswer(*payload.SelectedAnswerID) {
			return QuestionResponse{}, invalid("selected_answer_id", "answer %d does not belong to question %d", *payload.SelectedAnswerID, question.ID)
		}
		selected := *payload.SelectedAnswerID
		response.SelectedAnswerID = &selected
	case ResponseKindFile:
		url := strings.TrimSpace(*payload.FileURL)
		if url == "" {
			return QuestionResponse{}, invalid("file_answer", "must not be empty")
		}
		response.FileAnswer = &url
	default:
		text := *payload.Text
		response.TextAnswer = &text
	}

	return response, nil
}

// Kind returns the active payload variant.
func (r QuestionResponse) Kind() ResponseKind {
	return KindFor(r.QuestionType)
}

// Validate re-checks the single-variant invariant on a stored response.
func (r QuestionResponse) Validate() error {
	payload := ResponsePayload{Text: r.TextAnswer, SelectedAnswerID: r.SelectedAnswerID, FileURL: r.FileAnswer}
	kinds := payload.populated()
	if len(kinds) != 1 || kinds[0] != r.Kind() {
		return invalid("response", "question %d response does not match type %s", r.QuestionID, r.QuestionType)
	}
	if r.PointsEarned != nil && *r.PointsEarned < 0 {
		return invalid("points_earned", "must not be negative")
	}
	return nil
}
