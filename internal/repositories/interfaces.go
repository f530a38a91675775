package repositories

import (
	"time"

	"github.com/campus-hq/academics-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Query  string // Search query for name or email
	Limit  int
	Offset int
}

type StudentFilters struct {
	Level      *models.StudentLevel `json:"level"`
	Program    *string              `json:"program"`
	Query      string               `json:"query"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
	SortBy     string               `json:"sort_by"` // "created_at", "program", "level"
	SortOrder  string               `json:"sort_order"`
}

type LecturerFilters struct {
	Department *string `json:"department"`
	Query      string  `json:"query"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	SortBy     string  `json:"sort_by"`
	SortOrder  string  `json:"sort_order"`
}

type CourseFilters struct {
	Level     *models.StudentLevel `json:"level"`
	Program   *string              `json:"program"`
	Term      *models.SemesterTerm `json:"term"`
	Query     string               `json:"query"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"` // "created_at", "title", "code"
	SortOrder string               `json:"sort_order"`
}

type QuizFilters struct {
	Status    *models.QuizStatus   `json:"status"`
	Category  *models.QuizCategory `json:"category"`
	CourseID  *uint                `json:"course_id"`
	CreatedBy *string              `json:"created_by"`
	Query     string               `json:"query"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`
	SortOrder string               `json:"sort_order"`
}

type QuestionFilters struct {
	Type       *models.QuestionType `json:"type"`
	CategoryID *uint                `json:"category_id"`
	CreatedBy  *string              `json:"created_by"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
	SortBy     string               `json:"sort_by"`
	SortOrder  string               `json:"sort_order"`
}

type SittingFilters struct {
	Status    *models.SittingStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	QuizID    *uint                 `json:"quiz_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScoreFilters struct {
	StudentID  *string `json:"student_id"`
	CourseID   *uint   `json:"course_id"`
	SemesterID *uint   `json:"semester_id"`
	Graded     *bool   `json:"graded"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	SortBy     string  `json:"sort_by"`
	SortOrder  string  `json:"sort_order"`
}

// ===== SHARED HELPER STRUCTS =====

// SittingValidation is the outcome of the start-eligibility check.
type SittingValidation struct {
	CanStart bool   `json:"can_start"`
	Reason   string `json:"reason,omitempty"`
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizStats struct {
	TotalSittings     int     `json:"total_sittings"`
	CompletedSittings int     `json:"completed_sittings"`
	AveragePercent    float64 `json:"average_percent"`
	PassRate          float64 `json:"pass_rate"`
	QuestionCount     int     `json:"question_count"`
	MaxScore          int     `json:"max_score"`
}

type SittingStats struct {
	TotalSittings   int                           `json:"total_sittings"`
	StatusBreakdown map[models.SittingStatus]int  `json:"status_breakdown"`
	AveragePercent  float64                       `json:"average_percent"`
	PassRate        float64                       `json:"pass_rate"`
	CompletionRate  float64                       `json:"completion_rate"`
}

type CourseStats struct {
	EnrolledCount  int     `json:"enrolled_count"`
	GradedCount    int     `json:"graded_count"`
	AverageTotal   float64 `json:"average_total"`
	PassRate       float64 `json:"pass_rate"`
}
