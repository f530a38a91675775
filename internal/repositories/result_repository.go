package repositories

import (
	"context"

	"github.com/campus-hq/academics-service/internal/models"
	"gorm.io/gorm"
)

// ScoreRepository interface for per-enrollment score records
type ScoreRepository interface {
	Create(ctx context.Context, tx *gorm.DB, record *models.ScoreRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ScoreRecord, error)
	GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) (*models.ScoreRecord, error)
	Get(ctx context.Context, tx *gorm.DB, studentID string, courseID, semesterID uint) (*models.ScoreRecord, error)
	Update(ctx context.Context, tx *gorm.DB, record *models.ScoreRecord) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters ScoreFilters) ([]*models.ScoreRecord, int64, error)

	// GetByStudentSemester returns the student's records for one semester
	// with course preloaded, for GPA computation and result sheets.
	GetByStudentSemester(ctx context.Context, tx *gorm.DB, studentID string, semesterID uint) ([]*models.ScoreRecord, error)

	// GetByStudent returns every record the student has across semesters,
	// with course preloaded, for CGPA computation.
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.ScoreRecord, error)

	GetByCourseSemester(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) ([]*models.ScoreRecord, error)
}
