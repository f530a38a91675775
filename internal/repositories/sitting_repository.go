package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/campus-hq/academics-service/internal/models"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when an anonymous session token is unknown
// or has expired.
var ErrSessionNotFound = errors.New("session not found")

// SittingRepository interface for quiz sitting operations
type SittingRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, sitting *models.Sitting) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Sitting, error)
	GetByIDWithQuiz(ctx context.Context, tx *gorm.DB, id uint) (*models.Sitting, error)
	Update(ctx context.Context, tx *gorm.DB, sitting *models.Sitting) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters SittingFilters) ([]*models.Sitting, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters SittingFilters) ([]*models.Sitting, int64, error)
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters SittingFilters) ([]*models.Sitting, int64, error)

	// Active sitting lookup: the single sitting for this user (or session
	// token) and quiz that is still resumable, nil when none exists.
	GetActiveByStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (*models.Sitting, error)
	GetActiveBySession(ctx context.Context, tx *gorm.DB, quizID uint, sessionToken string) (*models.Sitting, error)

	// Attempt accounting
	CountCompletedByStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (int64, error)
	CountCompletedBySession(ctx context.Context, tx *gorm.DB, quizID uint, sessionToken string) (int64, error)
	CountByStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (int64, error)

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, quizID uint) (*SittingStats, error)
}

// ProgressRepository interface for per-category success-rate accumulation
type ProgressRepository interface {
	Get(ctx context.Context, tx *gorm.DB, userID, category string) (*models.CategoryProgress, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.CategoryProgress, error)

	// AddScore upserts the user's row for the category and adds score and
	// possible to the running totals atomically.
	AddScore(ctx context.Context, tx *gorm.DB, userID, category string, score, possible float64) error
}

// Session is an anonymous quiz-taking identity. Once it expires the taker
// cannot resume any sitting created under it.
type Session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore issues and resolves opaque anonymous session tokens.
type SessionStore interface {
	// Create issues a new token with the store's configured TTL.
	Create(ctx context.Context) (*Session, error)

	// Get returns the session for the token, or ErrSessionNotFound when the
	// token is unknown or expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Touch extends the session's TTL, keeping active takers alive.
	Touch(ctx context.Context, token string) error

	Delete(ctx context.Context, token string) error
}
