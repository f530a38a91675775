package models

import (
	"time"

	"gorm.io/gorm"
)

type SemesterTerm string

const (
	TermFirst  SemesterTerm = "first"
	TermSecond SemesterTerm = "second"
)

type Semester struct {
	ID      uint         `json:"id" gorm:"primaryKey"`
	Session string       `json:"session" gorm:"not null;size:20;index"` // e.g. "2025/2026"
	Term    SemesterTerm `json:"term" gorm:"not null;index" validate:"required,oneof=first second"`

	IsCurrent bool       `json:"is_current" gorm:"default:false;index"`
	NextBegin *time.Time `json:"next_semester_begins"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Semester) TableName() string {
	return "semesters"
}

type Course struct {
	ID      uint         `json:"id" gorm:"primaryKey"`
	Slug    string       `json:"slug" gorm:"uniqueIndex;not null;size:220"`
	Title   string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Code    string       `json:"code" gorm:"uniqueIndex;not null;size:20" validate:"required,min=2,max=20"`
	Credit  int          `json:"credit" gorm:"not null" validate:"required,min=1,max=10"`
	Summary *string      `json:"summary" gorm:"type:text" validate:"omitempty,max=2000"`
	Level   StudentLevel `json:"level" gorm:"not null;default:bachelor;index"`
	Program string       `json:"program" gorm:"not null;size:100;index"`
	Term    SemesterTerm `json:"term" gorm:"not null;index"`

	// Elective courses may be dropped after enrollment; compulsory may not.
	IsElective bool `json:"is_elective" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Allocations []CourseAllocation `json:"allocations" gorm:"foreignKey:CourseID"`
	Quizzes     []Quiz             `json:"quizzes" gorm:"foreignKey:CourseID"`

	// Computed fields (not stored)
	EnrolledCount int `json:"enrolled_count" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseAllocation assigns a course to a lecturer for a semester.
type CourseAllocation struct {
	ID         uint   `json:"id" gorm:"primaryKey;uniqueIndex:idx_alloc,composite:lecturer_course_semester"`
	LecturerID string `json:"lecturer_id" gorm:"not null;index;size:255"`
	CourseID   uint   `json:"course_id" gorm:"not null;index"`
	SemesterID uint   `json:"semester_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Lecturer Lecturer `json:"lecturer" gorm:"foreignKey:LecturerID"`
	Course   Course   `json:"course" gorm:"foreignKey:CourseID"`
	Semester Semester `json:"semester" gorm:"foreignKey:SemesterID"`
}

func (CourseAllocation) TableName() string {
	return "course_allocations"
}

// Enrollment records a student taking a course in a semester. The score
// record for the pair is created alongside it and removed on drop.
type Enrollment struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	StudentID  string `json:"student_id" gorm:"not null;index;uniqueIndex:idx_enrollment;size:255"`
	CourseID   uint   `json:"course_id" gorm:"not null;index;uniqueIndex:idx_enrollment"`
	SemesterID uint   `json:"semester_id" gorm:"not null;index;uniqueIndex:idx_enrollment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student  Student  `json:"student" gorm:"foreignKey:StudentID"`
	Course   Course   `json:"course" gorm:"foreignKey:CourseID"`
	Semester Semester `json:"semester" gorm:"foreignKey:SemesterID"`
	Score    *ScoreRecord `json:"score" gorm:"foreignKey:EnrollmentID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
