package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleStudent  UserRole = "student"
	RoleLecturer UserRole = "lecturer"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"-"`

	// Profile info
	AvatarURL *string `json:"avatar_url" gorm:"size:500"`
	Phone     *string `json:"phone" gorm:"size:30"`

	// Status
	EmailVerified bool `json:"email_verified" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

type StudentLevel string

const (
	LevelBachelor StudentLevel = "bachelor"
	LevelMaster   StudentLevel = "master"
)

// Student is the academic profile attached to a user account with the
// student role.
type Student struct {
	UserID  string       `json:"user_id" gorm:"primaryKey;size:255"`
	Level   StudentLevel `json:"level" gorm:"not null;default:bachelor;index"`
	Program string       `json:"program" gorm:"not null;size:100;index"`

	// Admission info
	AdmissionSemesterID *uint `json:"admission_semester_id" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User              User      `json:"user" gorm:"foreignKey:UserID"`
	AdmissionSemester *Semester `json:"admission_semester" gorm:"foreignKey:AdmissionSemesterID"`

	// Computed fields (not stored)
	CGPA *float64 `json:"cgpa" gorm:"-"`
}

func (Student) TableName() string {
	return "students"
}

// Lecturer is the academic profile attached to a user account with the
// lecturer role.
type Lecturer struct {
	UserID     string  `json:"user_id" gorm:"primaryKey;size:255"`
	Department string  `json:"department" gorm:"not null;size:100;index"`
	Title      *string `json:"title" gorm:"size:50"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User        User               `json:"user" gorm:"foreignKey:UserID"`
	Allocations []CourseAllocation `json:"allocations" gorm:"foreignKey:LecturerID"`
}

func (Lecturer) TableName() string {
	return "lecturers"
}
