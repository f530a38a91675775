package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether err means the record does not exist,
// regardless of which repository produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrSessionNotFound)
}

// Repository aggregates all entity repositories behind a single surface so
// services can take one dependency and run transactions across entities.
type Repository interface {
	// Academic domain
	User() UserRepository
	Student() StudentRepository
	Lecturer() LecturerRepository
	Semester() SemesterRepository
	Course() CourseRepository
	Allocation() AllocationRepository
	Enrollment() EnrollmentRepository

	// Result domain
	Score() ScoreRepository

	// Quiz domain
	Quiz() QuizRepository
	Question() QuestionRepository
	QuestionCategory() QuestionCategoryRepository
	QuizQuestion() QuizQuestionRepository
	Sitting() SittingRepository
	Progress() ProgressRepository

	// Anonymous quiz session tokens
	Session() SessionStore

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
