package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type CreateStudentRequest = validator.StudentCreateRequest
type UpdateStudentRequest = validator.StudentUpdateRequest
type CreateLecturerRequest = validator.LecturerCreateRequest
type UpdateLecturerRequest = validator.LecturerUpdateRequest
type CreateSemesterRequest = validator.SemesterCreateRequest
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type AllocateCourseRequest = validator.AllocateCourseRequest
type SubmitScoreRequest = validator.ScoreSubmitRequest
type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest
type QuizQuestionRequest = validator.QuizQuestionRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type CreateCategoryRequest = validator.CategoryCreateRequest
type StartSittingRequest = validator.StartSittingRequest
type AnswerRequest = validator.AnswerRequest

type StudentResponse struct {
	*models.Student
	CGPA float64 `json:"cgpa"`
}

type StudentListResponse struct {
	Students []*models.Student `json:"students"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
}

type LecturerListResponse struct {
	Lecturers []*models.Lecturer `json:"lecturers"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Size      int                `json:"size"`
}

type CourseResponse struct {
	*models.Course
	EnrolledCount int `json:"enrolled_count"`
}

type CourseListResponse struct {
	Courses []*CourseResponse `json:"courses"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

type ScoreResponse struct {
	*models.ScoreRecord
	Grade *models.Grade `json:"grade,omitempty"`
}

type QuizResponse struct {
	*models.Quiz
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanTake   bool `json:"can_take"`
}

type QuizListResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
}

type QuestionResponse struct {
	*models.Question
	InUse bool `json:"in_use"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

// SittingQuestion is one question as shown to the taker: the correct answer
// is stripped; explanation rides along only when reveal policy allows it.
type SittingQuestion struct {
	QuestionID uint                `json:"question_id"`
	Type       models.QuestionType `json:"type"`
	Text       string              `json:"text"`
	Content    json.RawMessage     `json:"content"`
	Points     int                 `json:"points"`
	Index      int                 `json:"index"`
	IsLast     bool                `json:"is_last"`
	Answered   bool                `json:"answered"`
}

type SittingResponse struct {
	*models.Sitting
	SessionToken *string          `json:"session_token,omitempty"`
	CanResume    bool             `json:"can_resume"`
	NextQuestion *SittingQuestion `json:"next_question,omitempty"`
}

// AnswerResult is what the taker learns right after answering. Correct and
// Explanation stay nil unless the quiz reveals answers immediately.
type AnswerResult struct {
	QuestionID   uint             `json:"question_id"`
	Correct      *bool            `json:"correct,omitempty"`
	Explanation  *string          `json:"explanation,omitempty"`
	Score        float64          `json:"score"`
	MaxScore     float64          `json:"max_score"`
	AnsweredAt   time.Time        `json:"answered_at"`
	NextQuestion *SittingQuestion `json:"next_question,omitempty"`
	Remaining    int              `json:"remaining"`
}

// SittingResult is the finalized outcome returned by Complete and by reads
// of completed sittings.
type SittingResult struct {
	SittingID   uint                   `json:"sitting_id"`
	QuizID      uint                   `json:"quiz_id"`
	Score       float64                `json:"score"`
	MaxScore    int                    `json:"max_score"`
	Percent     float64                `json:"percent"`
	Passed      bool                   `json:"passed"`
	CompletedAt time.Time              `json:"completed_at"`
	Answers     []models.SittingAnswer `json:"answers,omitempty"`
}

type ProgressResponse struct {
	UserID     string             `json:"user_id"`
	Categories []CategoryProgress `json:"categories"`
}

type CategoryProgress struct {
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Possible    float64 `json:"possible"`
	SuccessRate float64 `json:"success_rate"`
}

type EnrollmentResponse struct {
	*models.Enrollment
	Score *ScoreResponse `json:"score,omitempty"`
}

// ===== SERVICE INTERFACES =====

type StudentService interface {
	Create(ctx context.Context, req *CreateStudentRequest) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*StudentResponse, error)
	Update(ctx context.Context, id string, req *UpdateStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters repositories.StudentFilters) (*StudentListResponse, error)

	// Results
	GetSemesterResult(ctx context.Context, studentID string, semesterID uint) (*models.SemesterResult, error)
	GetCGPA(ctx context.Context, studentID string) (float64, error)
}

type LecturerService interface {
	Create(ctx context.Context, req *CreateLecturerRequest) (*models.Lecturer, error)
	GetByID(ctx context.Context, id string) (*models.Lecturer, error)
	Update(ctx context.Context, id string, req *UpdateLecturerRequest) (*models.Lecturer, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters repositories.LecturerFilters) (*LecturerListResponse, error)
	GetCourses(ctx context.Context, lecturerID string, semesterID uint) ([]*models.Course, error)
}

type CourseService interface {
	// Semesters
	CreateSemester(ctx context.Context, req *CreateSemesterRequest) (*models.Semester, error)
	GetCurrentSemester(ctx context.Context) (*models.Semester, error)
	SetCurrentSemester(ctx context.Context, semesterID uint) error
	ListSemesters(ctx context.Context) ([]*models.Semester, error)

	// Courses
	Create(ctx context.Context, req *CreateCourseRequest) (*models.Course, error)
	GetByID(ctx context.Context, id uint) (*CourseResponse, error)
	GetBySlug(ctx context.Context, slug string) (*CourseResponse, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error)

	// Allocation
	Allocate(ctx context.Context, req *AllocateCourseRequest) error
	Deallocate(ctx context.Context, lecturerID string, courseID, semesterID uint) error

	// Enrollment: add/drop against the current semester
	Enroll(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error)
	Drop(ctx context.Context, studentID string, courseID uint) error
	GetEnrollments(ctx context.Context, studentID string, semesterID uint) ([]*EnrollmentResponse, error)
	GetCourseRoster(ctx context.Context, courseID, semesterID uint) ([]*models.Enrollment, error)
}

type ScoreService interface {
	// Submit creates or updates the score record for one enrollment,
	// recomputes the derived grade and publishes the change.
	Submit(ctx context.Context, enrollmentID uint, req *SubmitScoreRequest, gradedBy string) (*ScoreResponse, error)
	GetByEnrollment(ctx context.Context, enrollmentID uint) (*ScoreResponse, error)
	Get(ctx context.Context, studentID string, courseID, semesterID uint) (*ScoreResponse, error)
	Delete(ctx context.Context, enrollmentID uint) error
	GetGradebook(ctx context.Context, courseID, semesterID uint) ([]*ScoreResponse, error)

	// Grade policy
	GradeConfig() GradeConfig
}

type QuizService interface {
	// Quiz CRUD
	Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint) (*QuizResponse, error)
	GetBySlug(ctx context.Context, slug string) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error)
	GetByCourse(ctx context.Context, courseID uint, filters repositories.QuizFilters) (*QuizListResponse, error)

	// Lifecycle
	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error

	// Question management
	AddQuestion(ctx context.Context, quizID uint, req *QuizQuestionRequest, userID string) error
	RemoveQuestion(ctx context.Context, quizID, questionID uint, userID string) error
	ReorderQuestions(ctx context.Context, quizID uint, questionIDs []uint, userID string) error

	// Question bank
	CreateQuestion(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error)
	GetQuestion(ctx context.Context, id uint) (*QuestionResponse, error)
	UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error)
	DeleteQuestion(ctx context.Context, id uint, userID string) error
	ListQuestions(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error)

	// Categories
	CreateCategory(ctx context.Context, req *CreateCategoryRequest, creatorID string) (*models.QuestionCategory, error)
	ListCategories(ctx context.Context) ([]*models.QuestionCategory, error)

	// Statistics
	GetStats(ctx context.Context, id uint) (*repositories.QuizStats, error)
}

// SittingService drives the quiz-taking state machine. Callers identify
// themselves either by studentID (authenticated) or by the session token a
// prior Start issued (anonymous); exactly one of the two is set.
type SittingService interface {
	Start(ctx context.Context, req *StartSittingRequest, studentID *string) (*SittingResponse, error)
	Answer(ctx context.Context, sittingID uint, req *AnswerRequest, studentID *string, sessionToken *string) (*AnswerResult, error)
	Resume(ctx context.Context, quizID uint, studentID *string, sessionToken *string) (*SittingResponse, error)
	Complete(ctx context.Context, sittingID uint, studentID *string, sessionToken *string) (*SittingResult, error)
	Abandon(ctx context.Context, sittingID uint, studentID *string, sessionToken *string) error

	GetByID(ctx context.Context, id uint) (*SittingResponse, error)
	GetResult(ctx context.Context, sittingID uint) (*SittingResult, error)
	GetByStudent(ctx context.Context, studentID string, filters repositories.SittingFilters) ([]*models.Sitting, int64, error)
	GetByQuiz(ctx context.Context, quizID uint, filters repositories.SittingFilters) ([]*models.Sitting, int64, error)

	GetProgress(ctx context.Context, userID string) (*ProgressResponse, error)
	GetStats(ctx context.Context, quizID uint) (*repositories.SittingStats, error)
}

// ReportService renders read-only xlsx exports over finalized grades and
// sittings.
type ReportService interface {
	CourseGradebook(ctx context.Context, courseID, semesterID uint) (*excelize.File, error)
	StudentResultSheet(ctx context.Context, studentID string, semesterID uint) (*excelize.File, error)
	QuizResultSheet(ctx context.Context, quizID uint) (*excelize.File, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Student() StudentService
	Lecturer() LecturerService
	Course() CourseService
	Score() ScoreService
	Quiz() QuizService
	Sitting() SittingService
	Report() ReportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
