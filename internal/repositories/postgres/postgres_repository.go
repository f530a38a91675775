package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/campus-hq/academics-service/internal/cache"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/repositories/session"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	user             repositories.UserRepository
	student          repositories.StudentRepository
	lecturer         repositories.LecturerRepository
	semester         repositories.SemesterRepository
	course           repositories.CourseRepository
	allocation       repositories.AllocationRepository
	enrollment       repositories.EnrollmentRepository
	score            repositories.ScoreRepository
	quiz             repositories.QuizRepository
	question         repositories.QuestionRepository
	questionCategory repositories.QuestionCategoryRepository
	quizQuestion     repositories.QuizQuestionRepository
	sitting          repositories.SittingRepository
	progress         repositories.ProgressRepository
	session          repositories.SessionStore
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	SessionTTL  time.Duration
}

// NewPostgreSQLRepository creates a new repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	repo.user = NewUserPostgreSQL(config.DB)
	repo.student = NewStudentPostgreSQL(config.DB)
	repo.lecturer = NewLecturerPostgreSQL(config.DB)
	repo.semester = NewSemesterPostgreSQL(config.DB)
	repo.course = NewCoursePostgreSQL(config.DB, config.RedisClient)
	repo.allocation = NewAllocationPostgreSQL(config.DB)
	repo.enrollment = NewEnrollmentPostgreSQL(config.DB)
	repo.score = NewScorePostgreSQL(config.DB, config.RedisClient)
	repo.quiz = NewQuizPostgreSQL(config.DB, config.RedisClient)
	repo.question = NewQuestionPostgreSQL(config.DB, config.RedisClient)
	repo.questionCategory = NewQuestionCategoryPostgreSQL(config.DB)
	repo.quizQuestion = NewQuizQuestionPostgreSQL(config.DB)
	repo.sitting = NewSittingPostgreSQL(config.DB, config.RedisClient)
	repo.progress = NewProgressPostgreSQL(config.DB)

	// Anonymous session tokens live in Redis only
	repo.session = session.NewRedisSessionStore(config.RedisClient, config.SessionTTL)

	return repo
}

func (r *PostgreSQLRepository) User() repositories.UserRepository             { return r.user }
func (r *PostgreSQLRepository) Student() repositories.StudentRepository      { return r.student }
func (r *PostgreSQLRepository) Lecturer() repositories.LecturerRepository    { return r.lecturer }
func (r *PostgreSQLRepository) Semester() repositories.SemesterRepository    { return r.semester }
func (r *PostgreSQLRepository) Course() repositories.CourseRepository        { return r.course }
func (r *PostgreSQLRepository) Allocation() repositories.AllocationRepository {
	return r.allocation
}
func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository {
	return r.enrollment
}
func (r *PostgreSQLRepository) Score() repositories.ScoreRepository   { return r.score }
func (r *PostgreSQLRepository) Quiz() repositories.QuizRepository     { return r.quiz }
func (r *PostgreSQLRepository) Question() repositories.QuestionRepository {
	return r.question
}
func (r *PostgreSQLRepository) QuestionCategory() repositories.QuestionCategoryRepository {
	return r.questionCategory
}
func (r *PostgreSQLRepository) QuizQuestion() repositories.QuizQuestionRepository {
	return r.quizQuestion
}
func (r *PostgreSQLRepository) Sitting() repositories.SittingRepository   { return r.sitting }
func (r *PostgreSQLRepository) Progress() repositories.ProgressRepository { return r.progress }
func (r *PostgreSQLRepository) Session() repositories.SessionStore        { return r.session }

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}

		txRepo.user = NewUserPostgreSQL(tx)
		txRepo.student = NewStudentPostgreSQL(tx)
		txRepo.lecturer = NewLecturerPostgreSQL(tx)
		txRepo.semester = NewSemesterPostgreSQL(tx)
		txRepo.course = NewCoursePostgreSQL(tx, r.redisClient)
		txRepo.allocation = NewAllocationPostgreSQL(tx)
		txRepo.enrollment = NewEnrollmentPostgreSQL(tx)
		txRepo.score = NewScorePostgreSQL(tx, r.redisClient)
		txRepo.quiz = NewQuizPostgreSQL(tx, r.redisClient)
		txRepo.question = NewQuestionPostgreSQL(tx, r.redisClient)
		txRepo.questionCategory = NewQuestionCategoryPostgreSQL(tx)
		txRepo.quizQuestion = NewQuizQuestionPostgreSQL(tx)
		txRepo.sitting = NewSittingPostgreSQL(tx, r.redisClient)
		txRepo.progress = NewProgressPostgreSQL(tx)

		// Session store is external to the database transaction
		txRepo.session = r.session

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize initializes all repositories and connections
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("Redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
