package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// EnrollmentRepository answers course membership questions.
type EnrollmentRepository interface {
	CountByCourse(ctx context.Context, courseID uint) (int64, error)
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
	Enroll(ctx context.Context, courseID, studentID uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs the enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CourseEnrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CourseEnrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) Enroll(ctx context.Context, courseID, studentID uint) error {
	enrollment := models.CourseEnrollment{CourseID: courseID, StudentID: studentID}
	return r.db.WithContext(ctx).
		Where(models.CourseEnrollment{CourseID: courseID, StudentID: studentID}).
		FirstOrCreate(&enrollment).Error
}
