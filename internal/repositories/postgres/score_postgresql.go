package postgres

import (
	"context"

	"github.com/campus-hq/academics-service/internal/cache"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ScorePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewScorePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ScoreRepository {
	return &ScorePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *ScorePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *ScorePostgreSQL) Create(ctx context.Context, tx *gorm.DB, record *models.ScoreRecord) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}
	cache.InvalidateScoreCache(ctx, s.cacheManager, record.StudentID)
	return nil
}

func (s *ScorePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ScoreRecord, error) {
	db := s.getDB(tx)
	var record models.ScoreRecord
	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *ScorePostgreSQL) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) (*models.ScoreRecord, error) {
	db := s.getDB(tx)
	var record models.ScoreRecord
	if err := db.WithContext(ctx).First(&record, "enrollment_id = ?", enrollmentID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *ScorePostgreSQL) Get(ctx context.Context, tx *gorm.DB, studentID string, courseID, semesterID uint) (*models.ScoreRecord, error) {
	db := s.getDB(tx)
	var record models.ScoreRecord
	if err := db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND semester_id = ?", studentID, courseID, semesterID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *ScorePostgreSQL) Update(ctx context.Context, tx *gorm.DB, record *models.ScoreRecord) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Save(record).Error; err != nil {
		return err
	}
	cache.InvalidateScoreCache(ctx, s.cacheManager, record.StudentID)
	return nil
}

func (s *ScorePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Delete(&models.ScoreRecord{}, id).Error
}

func (s *ScorePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ScoreFilters) ([]*models.ScoreRecord, int64, error) {
	db := s.getDB(tx)
	var records []*models.ScoreRecord
	var total int64

	query := db.WithContext(ctx).Model(&models.ScoreRecord{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Course").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (s *ScorePostgreSQL) GetByStudentSemester(ctx context.Context, tx *gorm.DB, studentID string, semesterID uint) ([]*models.ScoreRecord, error) {
	db := s.getDB(tx)
	var records []*models.ScoreRecord
	if err := db.WithContext(ctx).
		Where("student_id = ? AND semester_id = ?", studentID, semesterID).
		Preload("Course").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *ScorePostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.ScoreRecord, error) {
	db := s.getDB(tx)
	var records []*models.ScoreRecord
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Course").
		Preload("Semester").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *ScorePostgreSQL) GetByCourseSemester(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) ([]*models.ScoreRecord, error) {
	db := s.getDB(tx)
	var records []*models.ScoreRecord
	if err := db.WithContext(ctx).
		Where("course_id = ? AND semester_id = ?", courseID, semesterID).
		Preload("Student.User").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *ScorePostgreSQL) applyFilters(query *gorm.DB, filters repositories.ScoreFilters) *gorm.DB {
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.SemesterID != nil {
		query = query.Where("semester_id = ?", *filters.SemesterID)
	}
	if filters.Graded != nil {
		if *filters.Graded {
			query = query.Where("total IS NOT NULL")
		} else {
			query = query.Where("total IS NULL")
		}
	}
	return query
}
