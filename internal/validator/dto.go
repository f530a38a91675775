package validator

import (
	"encoding/json"

	"github.com/campus-hq/academics-service/internal/models"
)

// ===== ACCOUNT DTOs =====

// StudentCreateRequest creates the user record and the student profile in
// one call.
type StudentCreateRequest struct {
	ID                  string              `json:"id" validate:"required,max=255"`
	FullName            string              `json:"full_name" validate:"required,min=2,max=150"`
	Email               string              `json:"email" validate:"required,email"`
	Phone               *string             `json:"phone" validate:"omitempty,max=30"`
	Level               models.StudentLevel `json:"level" validate:"required,oneof=bachelor master"`
	Program             string              `json:"program" validate:"required,max=150"`
	AdmissionSemesterID *uint               `json:"admission_semester_id"`
}

type StudentUpdateRequest struct {
	FullName *string              `json:"full_name" validate:"omitempty,min=2,max=150"`
	Phone    *string              `json:"phone" validate:"omitempty,max=30"`
	Level    *models.StudentLevel `json:"level" validate:"omitempty,oneof=bachelor master"`
	Program  *string              `json:"program" validate:"omitempty,max=150"`
}

type LecturerCreateRequest struct {
	ID         string  `json:"id" validate:"required,max=255"`
	FullName   string  `json:"full_name" validate:"required,min=2,max=150"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	Department string  `json:"department" validate:"required,max=150"`
	Title      *string `json:"title" validate:"omitempty,max=100"`
}

type LecturerUpdateRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=2,max=150"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	Department *string `json:"department" validate:"omitempty,max=150"`
	Title      *string `json:"title" validate:"omitempty,max=100"`
}

// ===== CATALOG DTOs =====

type SemesterCreateRequest struct {
	Session string              `json:"session" validate:"required,semester_session"`
	Term    models.SemesterTerm `json:"term" validate:"required,oneof=first second"`
}

type CourseCreateRequest struct {
	Title      string              `json:"title" validate:"required,min=2,max=200"`
	Code       string              `json:"code" validate:"required,course_code"`
	Credit     int                 `json:"credit" validate:"required,min=1,max=10"`
	Summary    *string             `json:"summary" validate:"omitempty,max=2000"`
	Level      models.StudentLevel `json:"level" validate:"required,oneof=bachelor master"`
	Program    string              `json:"program" validate:"required,max=150"`
	Term       models.SemesterTerm `json:"term" validate:"required,oneof=first second"`
	IsElective bool                `json:"is_elective"`
}

type CourseUpdateRequest struct {
	Title      *string              `json:"title" validate:"omitempty,min=2,max=200"`
	Credit     *int                 `json:"credit" validate:"omitempty,min=1,max=10"`
	Summary    *string              `json:"summary" validate:"omitempty,max=2000"`
	Level      *models.StudentLevel `json:"level" validate:"omitempty,oneof=bachelor master"`
	Program    *string              `json:"program" validate:"omitempty,max=150"`
	Term       *models.SemesterTerm `json:"term" validate:"omitempty,oneof=first second"`
	IsElective *bool                `json:"is_elective"`
}

type AllocateCourseRequest struct {
	LecturerID string `json:"lecturer_id" validate:"required"`
	CourseID   uint   `json:"course_id" validate:"required"`
	SemesterID uint   `json:"semester_id" validate:"required"`
}

type EnrollRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

// ===== SCORE DTOs =====

// ScoreSubmitRequest carries the component scores a lecturer enters for one
// enrollment. Absent components stay unsubmitted.
type ScoreSubmitRequest struct {
	Attendance *float64 `json:"attendance" validate:"omitempty,min=0"`
	Assignment *float64 `json:"assignment" validate:"omitempty,min=0"`
	MidExam    *float64 `json:"mid_exam" validate:"omitempty,min=0"`
	Quiz       *float64 `json:"quiz" validate:"omitempty,min=0"`
	FinalExam  *float64 `json:"final_exam" validate:"omitempty,min=0"`
}

// ===== QUIZ DTOs =====

type QuizCreateRequest struct {
	CourseID           uint                    `json:"course_id" validate:"required"`
	Title              string                  `json:"title" validate:"required,min=1,max=200"`
	Description        *string                 `json:"description" validate:"omitempty,max=2000"`
	Category           models.QuizCategory     `json:"category" validate:"omitempty,oneof=assignment exam practice"`
	RandomizeOrder     bool                    `json:"randomize_order"`
	ShowCorrectAnswers models.ShowAnswersMode  `json:"show_correct_answers" validate:"omitempty,oneof=immediate end"`
	PassMark           float64                 `json:"pass_mark" validate:"pass_mark"`
	MaxAttempts        int                     `json:"max_attempts" validate:"max_attempts"`
	Questions          []QuizQuestionRequest   `json:"questions" validate:"omitempty,dive"`
}

type QuizUpdateRequest struct {
	Title              *string                 `json:"title" validate:"omitempty,min=1,max=200"`
	Description        *string                 `json:"description" validate:"omitempty,max=2000"`
	Category           *models.QuizCategory    `json:"category" validate:"omitempty,oneof=assignment exam practice"`
	RandomizeOrder     *bool                   `json:"randomize_order"`
	ShowCorrectAnswers *models.ShowAnswersMode `json:"show_correct_answers" validate:"omitempty,oneof=immediate end"`
	PassMark           *float64                `json:"pass_mark" validate:"omitempty,pass_mark"`
	MaxAttempts        *int                    `json:"max_attempts" validate:"omitempty,max_attempts"`
}

type QuizQuestionRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
	Order      int  `json:"order" validate:"required,min=1"`
	Points     *int `json:"points" validate:"omitempty,points_range"`
}

type QuestionCreateRequest struct {
	Type        models.QuestionType `json:"type" validate:"required,question_type"`
	Text        string              `json:"text" validate:"required,min=1,max=2000"`
	Content     json.RawMessage     `json:"content" validate:"required"`
	Points      int                 `json:"points" validate:"required,points_range"`
	CategoryID  *uint               `json:"category_id"`
	Explanation *string             `json:"explanation" validate:"omitempty,max=1000"`
}

type QuestionUpdateRequest struct {
	Text        *string         `json:"text" validate:"omitempty,min=1,max=2000"`
	Content     json.RawMessage `json:"content"`
	Points      *int            `json:"points" validate:"omitempty,points_range"`
	CategoryID  *uint           `json:"category_id"`
	Explanation *string         `json:"explanation" validate:"omitempty,max=1000"`
}

type CategoryCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// ===== SITTING DTOs =====

// StartSittingRequest starts a sitting for an authenticated student or an
// anonymous session. Callers without an account omit both fields on the
// first start and get a session token back; they pass the token on later
// starts and resumes.
type StartSittingRequest struct {
	QuizID       uint    `json:"quiz_id" validate:"required"`
	SessionToken *string `json:"session_token" validate:"omitempty,max=64"`
}

type AnswerRequest struct {
	QuestionID uint            `json:"question_id" validate:"required"`
	Answer     json.RawMessage `json:"answer" validate:"required"`
}

type ResumeSittingRequest struct {
	QuizID       uint    `json:"quiz_id" validate:"required"`
	SessionToken *string `json:"session_token" validate:"omitempty,max=64"`
}
