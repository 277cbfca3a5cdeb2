package models

import "time"

// Student represents a learner that can submit assignments.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CourseEnrollment links a student to a course.
type CourseEnrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"course_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

// All returns every model managed by the gradebook, in migration order.
func All() []interface{} {
	return []interface{}{
		&Student{},
		&CourseEnrollment{},
		&Assignment{},
		&Question{},
		&Answer{},
		&Submission{},
		&QuestionResponse{},
		&SubmissionGradeHistory{},
	}
}
