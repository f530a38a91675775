package repositories

import (
	"context"

	"github.com/campus-hq/academics-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository interface for user account operations
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// StudentRepository interface for student profile operations
type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	GetByID(ctx context.Context, tx *gorm.DB, userID string) (*models.Student, error)
	GetByIDWithUser(ctx context.Context, tx *gorm.DB, userID string) (*models.Student, error)
	Update(ctx context.Context, tx *gorm.DB, student *models.Student) error
	Delete(ctx context.Context, tx *gorm.DB, userID string) error

	List(ctx context.Context, tx *gorm.DB, filters StudentFilters) ([]*models.Student, int64, error)
	GetByProgram(ctx context.Context, tx *gorm.DB, program string, filters StudentFilters) ([]*models.Student, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters StudentFilters) ([]*models.Student, int64, error)

	ExistsByID(ctx context.Context, tx *gorm.DB, userID string) (bool, error)
}

// LecturerRepository interface for lecturer profile operations
type LecturerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lecturer *models.Lecturer) error
	GetByID(ctx context.Context, tx *gorm.DB, userID string) (*models.Lecturer, error)
	GetByIDWithUser(ctx context.Context, tx *gorm.DB, userID string) (*models.Lecturer, error)
	Update(ctx context.Context, tx *gorm.DB, lecturer *models.Lecturer) error
	Delete(ctx context.Context, tx *gorm.DB, userID string) error

	List(ctx context.Context, tx *gorm.DB, filters LecturerFilters) ([]*models.Lecturer, int64, error)
	GetByDepartment(ctx context.Context, tx *gorm.DB, department string) ([]*models.Lecturer, error)

	ExistsByID(ctx context.Context, tx *gorm.DB, userID string) (bool, error)
}

// SemesterRepository interface for semester operations
type SemesterRepository interface {
	Create(ctx context.Context, tx *gorm.DB, semester *models.Semester) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Semester, error)
	GetCurrent(ctx context.Context, tx *gorm.DB) (*models.Semester, error)
	Update(ctx context.Context, tx *gorm.DB, semester *models.Semester) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB) ([]*models.Semester, error)

	// SetCurrent marks one semester as current and clears the flag on all
	// others in the same statement scope.
	SetCurrent(ctx context.Context, tx *gorm.DB, id uint) error
}

// CourseRepository interface for course catalog operations
type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters CourseFilters) ([]*models.Course, int64, error)
	GetByLecturer(ctx context.Context, tx *gorm.DB, lecturerID string, semesterID uint) ([]*models.Course, error)

	GetStats(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) (*CourseStats, error)

	ExistsByCode(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error)
}

// AllocationRepository interface for lecturer-course allocations
type AllocationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, allocation *models.CourseAllocation) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CourseAllocation, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	GetByLecturer(ctx context.Context, tx *gorm.DB, lecturerID string, semesterID uint) ([]*models.CourseAllocation, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) ([]*models.CourseAllocation, error)

	Exists(ctx context.Context, tx *gorm.DB, lecturerID string, courseID, semesterID uint) (bool, error)
}

// EnrollmentRepository interface for student course enrollment
type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	Get(ctx context.Context, tx *gorm.DB, studentID string, courseID, semesterID uint) (*models.Enrollment, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, semesterID uint) ([]*models.Enrollment, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) ([]*models.Enrollment, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) (int64, error)

	Exists(ctx context.Context, tx *gorm.DB, studentID string, courseID, semesterID uint) (bool, error)
}
