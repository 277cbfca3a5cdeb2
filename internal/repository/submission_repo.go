package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// ErrDuplicateAttempt indicates another hand-in already took the attempt number.
var ErrDuplicateAttempt = errors.New("attempt already recorded for this student")

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	Status       *string
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error)
	LatestByAssignments(ctx context.Context, assignmentIDs []uint) (map[uint][]models.Submission, error)
	LatestForStudent(ctx context.Context, studentID uint, assignmentIDs []uint) (map[uint]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	CreateHistory(ctx context.Context, history *models.SubmissionGradeHistory) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Responses", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Order("id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("graded_at ASC").Order("id ASC") }).
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Count(&count).Error
	return count, err
}

// LatestByAssignments returns, per assignment, the latest attempt of every student.
func (r *submissionRepository) LatestByAssignments(ctx context.Context, assignmentIDs []uint) (map[uint][]models.Submission, error) {
	result := make(map[uint][]models.Submission, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return result, nil
	}

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id IN ?", assignmentIDs).
		Order("assignment_id ASC").
		Order("student_id ASC").
		Order("attempt DESC").
		Order("id DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	type key struct{ assignmentID, studentID uint }
	seen := make(map[key]struct{}, len(submissions))
	for _, submission := range submissions {
		k := key{submission.AssignmentID, submission.StudentID}
		if _, exists := seen[k]; exists {
			continue
		}
		seen[k] = struct{}{}
		result[submission.AssignmentID] = append(result[submission.AssignmentID], submission)
	}

	return result, nil
}

// LatestForStudent returns the student's latest attempt per assignment.
func (r *submissionRepository) LatestForStudent(ctx context.Context, studentID uint, assignmentIDs []uint) (map[uint]models.Submission, error) {
	result := make(map[uint]models.Submission, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return result, nil
	}

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id IN ?", studentID, assignmentIDs).
		Order("attempt DESC").
		Order("id DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	for _, submission := range submissions {
		if _, exists := result[submission.AssignmentID]; !exists {
			result[submission.AssignmentID] = submission
		}
	}

	return result, nil
}

// Create inserts the submission with its responses in one transaction.
// A clash on (assignment, student, attempt) is reported as ErrDuplicateAttempt.
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	err := r.db.WithContext(ctx).Omit("Assignment", "Student", "History").Create(submission).Error
	if err != nil && r.isDuplicateKey(err) {
		return ErrDuplicateAttempt
	}
	return err
}

func (r *submissionRepository) isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if translator, ok := r.db.Dialector.(gorm.ErrorTranslator); ok {
		return errors.Is(translator.Translate(err), gorm.ErrDuplicatedKey)
	}
	return false
}

// Update saves the submission row; responses and history are not touched.
func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}

func (r *submissionRepository) CreateHistory(ctx context.Context, history *models.SubmissionGradeHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}
