package repositories

import (
	"context"

	"github.com/campus-hq/academics-service/internal/models"
	"gorm.io/gorm"
)

// QuizRepository interface for quiz-specific operations
type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters QuizFilters) ([]*models.Quiz, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Status management
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.QuizStatus) error

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*QuizStats, error)

	// Validation and checks
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error)
	HasQuestions(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

// QuestionRepository interface for question-specific operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDWithCategory(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters QuestionFilters) ([]*models.Question, int64, error)
	GetByCategory(ctx context.Context, tx *gorm.DB, categoryID uint, filters QuestionFilters) ([]*models.Question, error)
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error)

	// Validation and checks
	IsUsedInQuizzes(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

// QuestionCategoryRepository interface for question category operations
type QuestionCategoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, category *models.QuestionCategory) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionCategory, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.QuestionCategory, error)
	Update(ctx context.Context, tx *gorm.DB, category *models.QuestionCategory) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB) ([]*models.QuestionCategory, error)
	ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error)
}

// QuizQuestionRepository interface for the quiz-question join
type QuizQuestionRepository interface {
	Add(ctx context.Context, tx *gorm.DB, quizQuestion *models.QuizQuestion) error
	AddBatch(ctx context.Context, tx *gorm.DB, quizQuestions []*models.QuizQuestion) error
	Remove(ctx context.Context, tx *gorm.DB, quizID, questionID uint) error

	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.QuizQuestion, error)
	GetByQuizOrdered(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.QuizQuestion, error)
	UpdateOrder(ctx context.Context, tx *gorm.DB, quizID uint, questionIDs []uint) error
	UpdatePoints(ctx context.Context, tx *gorm.DB, quizID, questionID uint, points int) error

	CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error)
	TotalPoints(ctx context.Context, tx *gorm.DB, quizID uint) (int, error)
	Exists(ctx context.Context, tx *gorm.DB, quizID, questionID uint) (bool, error)
}
