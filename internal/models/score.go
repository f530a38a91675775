package models

import (
	"time"
)

type GradeLetter string

const (
	GradeAPlus GradeLetter = "A+"
	GradeA     GradeLetter = "A"
	GradeAMin  GradeLetter = "A-"
	GradeBPlus GradeLetter = "B+"
	GradeB     GradeLetter = "B"
	GradeBMin  GradeLetter = "B-"
	GradeCPlus GradeLetter = "C+"
	GradeC     GradeLetter = "C"
	GradeCMin  GradeLetter = "C-"
	GradeD     GradeLetter = "D"
	GradeF     GradeLetter = "F"
)

type GradeComment string

const (
	CommentPass    GradeComment = "pass"
	CommentWarning GradeComment = "pass_with_warning"
	CommentFail    GradeComment = "fail"
)

// ScoreRecord holds the component scores one student earned in one course
// for one semester. Components are pointers: nil means the lecturer has not
// submitted that score yet, which is distinct from zero.
type ScoreRecord struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	EnrollmentID uint   `json:"enrollment_id" gorm:"not null;uniqueIndex"`
	StudentID    string `json:"student_id" gorm:"not null;index;size:255"`
	CourseID     uint   `json:"course_id" gorm:"not null;index"`
	SemesterID   uint   `json:"semester_id" gorm:"not null;index"`

	// Component scores, each bounded by the configured maximum
	Attendance *float64 `json:"attendance"`
	Assignment *float64 `json:"assignment"`
	MidExam    *float64 `json:"mid_exam"`
	Quiz       *float64 `json:"quiz"`
	FinalExam  *float64 `json:"final_exam"`

	// Derived grade fields. Recomputed from the components on every write;
	// never mutated independently.
	Total   *float64     `json:"total"`
	Average *float64     `json:"average"`
	Point   *float64     `json:"point"`
	Letter  *GradeLetter `json:"letter" gorm:"size:3"`
	Comment *GradeComment `json:"comment" gorm:"size:20"`

	GradedBy *string    `json:"graded_by" gorm:"size:255"`
	GradedAt *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Enrollment Enrollment `json:"enrollment" gorm:"foreignKey:EnrollmentID"`
	Student    Student    `json:"student" gorm:"foreignKey:StudentID"`
	Course     Course     `json:"course" gorm:"foreignKey:CourseID"`
	Semester   Semester   `json:"semester" gorm:"foreignKey:SemesterID"`
}

func (ScoreRecord) TableName() string {
	return "score_records"
}

// Grade is the derived value computed from a ScoreRecord and a GradeConfig.
// It is never stored on its own; the derived columns on ScoreRecord are a
// persisted snapshot of the latest computation.
type Grade struct {
	Total   float64      `json:"total"`
	Average float64      `json:"average"`
	Point   float64      `json:"point"`
	Letter  GradeLetter  `json:"letter"`
	Comment GradeComment `json:"comment"`
}

// SemesterResult aggregates one student's grades for a semester.
type SemesterResult struct {
	StudentID  string        `json:"student_id"`
	SemesterID uint          `json:"semester_id"`
	Records    []ScoreRecord `json:"records"`
	GPA        float64       `json:"gpa"`
	CGPA       float64       `json:"cgpa"`
	TotalCredits int         `json:"total_credits"`
}
