package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/campus-hq/academics-service/internal/events"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/validator"
	"gorm.io/gorm"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db          *gorm.DB
	repo        repositories.Repository
	logger      *slog.Logger
	validator   *validator.Validator
	publisher   events.EventPublisher
	gradeConfig GradeConfig

	// Service instances
	studentService  StudentService
	lecturerService LecturerService
	courseService   CourseService
	scoreService    ScoreService
	quizService     QuizService
	sittingService  SittingService
	reportService   ReportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies. The
// grade config is shared by every service that computes or renders grades,
// so the whole process grades under one policy.
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, gradeConfig GradeConfig) ServiceManager {
	return &serviceManager{
		db:          db,
		repo:        repo,
		logger:      logger,
		validator:   validator,
		publisher:   publisher,
		gradeConfig: gradeConfig,
	}
}

// NewDefaultServiceManager creates a service manager with the standard
// grading policy.
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ServiceManager {
	return NewServiceManager(db, repo, logger, validator, publisher, DefaultGradeConfig())
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.gradeConfig.Validate(); err != nil {
		return fmt.Errorf("invalid grade config: %w", err)
	}

	sm.studentService = NewStudentService(sm.db, sm.repo, sm.logger, sm.validator, sm.gradeConfig)
	sm.lecturerService = NewLecturerService(sm.db, sm.repo, sm.logger, sm.validator)
	sm.courseService = NewCourseService(sm.db, sm.repo, sm.logger, sm.validator, sm.publisher)
	sm.scoreService = NewScoreService(sm.db, sm.repo, sm.logger, sm.validator, sm.publisher, sm.gradeConfig)
	sm.quizService = NewQuizService(sm.db, sm.repo, sm.logger, sm.validator)
	sm.sittingService = NewSittingService(sm.db, sm.repo, sm.logger, sm.validator, sm.publisher)
	sm.reportService = NewReportService(sm.db, sm.repo, sm.logger, sm.gradeConfig)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.studentService
}

func (sm *serviceManager) Lecturer() LecturerService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.lecturerService
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.courseService
}

func (sm *serviceManager) Score() ScoreService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.scoreService
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.quizService
}

func (sm *serviceManager) Sitting() SittingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.sittingService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.reportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
