package postgres

import (
	"context"
	"fmt"

	"github.com/campus-hq/academics-service/internal/cache"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type SemesterPostgreSQL struct {
	db *gorm.DB
}

func NewSemesterPostgreSQL(db *gorm.DB) repositories.SemesterRepository {
	return &SemesterPostgreSQL{db: db}
}

func (s *SemesterPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SemesterPostgreSQL) Create(ctx context.Context, tx *gorm.DB, semester *models.Semester) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Create(semester).Error
}

func (s *SemesterPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Semester, error) {
	db := s.getDB(tx)
	var semester models.Semester
	if err := db.WithContext(ctx).First(&semester, id).Error; err != nil {
		return nil, err
	}
	return &semester, nil
}

func (s *SemesterPostgreSQL) GetCurrent(ctx context.Context, tx *gorm.DB) (*models.Semester, error) {
	db := s.getDB(tx)
	var semester models.Semester
	if err := db.WithContext(ctx).First(&semester, "is_current = ?", true).Error; err != nil {
		return nil, err
	}
	return &semester, nil
}

func (s *SemesterPostgreSQL) Update(ctx context.Context, tx *gorm.DB, semester *models.Semester) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Save(semester).Error
}

func (s *SemesterPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Semester{}, id).Error
}

func (s *SemesterPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Semester, error) {
	db := s.getDB(tx)
	var semesters []*models.Semester
	if err := db.WithContext(ctx).Order("session DESC, term DESC").Find(&semesters).Error; err != nil {
		return nil, err
	}
	return semesters, nil
}

func (s *SemesterPostgreSQL) SetCurrent(ctx context.Context, tx *gorm.DB, id uint) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Model(&models.Semester{}).
			Where("is_current = ?", true).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return inner.Model(&models.Semester{}).
			Where("id = ?", id).
			Update("is_current", true).Error
	})
}

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Create(course).Error; err != nil {
		return err
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID)
	return nil
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	db := c.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		if err := db.WithContext(ctx).First(&dbCourse, id).Error; err != nil {
			return nil, err
		}
		return &dbCourse, nil
	})

	return &course, err
}

func (c *CoursePostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error) {
	db := c.getDB(tx)
	var course models.Course
	if err := db.WithContext(ctx).First(&course, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Course, error) {
	db := c.getDB(tx)
	var course models.Course
	if err := db.WithContext(ctx).First(&course, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Save(course).Error; err != nil {
		return err
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID)
	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Course{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, id)
	return nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	db := c.getDB(tx)
	var courses []*models.Course
	var total int64

	query := db.WithContext(ctx).Model(&models.Course{})
	query = c.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (c *CoursePostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.Query = query
	return c.List(ctx, tx, filters)
}

func (c *CoursePostgreSQL) GetByLecturer(ctx context.Context, tx *gorm.DB, lecturerID string, semesterID uint) ([]*models.Course, error) {
	db := c.getDB(tx)
	var courses []*models.Course
	if err := db.WithContext(ctx).
		Joins("JOIN course_allocations ON course_allocations.course_id = courses.id").
		Where("course_allocations.lecturer_id = ? AND course_allocations.semester_id = ?", lecturerID, semesterID).
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *CoursePostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) (*repositories.CourseStats, error) {
	db := c.getDB(tx)
	stats := &repositories.CourseStats{}

	var enrolled int64
	if err := db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND semester_id = ?", courseID, semesterID).
		Count(&enrolled).Error; err != nil {
		return nil, err
	}
	stats.EnrolledCount = int(enrolled)

	type gradeAgg struct {
		GradedCount  int64
		AverageTotal float64
		PassedCount  int64
	}
	var agg gradeAgg
	err := db.WithContext(ctx).Model(&models.ScoreRecord{}).
		Select("COUNT(*) AS graded_count, COALESCE(AVG(total), 0) AS average_total, COUNT(*) FILTER (WHERE comment != ?) AS passed_count", models.CommentFail).
		Where("course_id = ? AND semester_id = ? AND total IS NOT NULL", courseID, semesterID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	stats.GradedCount = int(agg.GradedCount)
	stats.AverageTotal = agg.AverageTotal
	if agg.GradedCount > 0 {
		stats.PassRate = float64(agg.PassedCount) / float64(agg.GradedCount) * 100
	}

	return stats, nil
}

func (c *CoursePostgreSQL) ExistsByCode(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error) {
	db := c.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Course{}).Where("code = ?", code)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (c *CoursePostgreSQL) applyFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.Program != nil {
		query = query.Where("program = ?", *filters.Program)
	}
	if filters.Term != nil {
		query = query.Where("term = ?", *filters.Term)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("title ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	return query
}

type AllocationPostgreSQL struct {
	db *gorm.DB
}

func NewAllocationPostgreSQL(db *gorm.DB) repositories.AllocationRepository {
	return &AllocationPostgreSQL{db: db}
}

func (a *AllocationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AllocationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, allocation *models.CourseAllocation) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(allocation).Error
}

func (a *AllocationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CourseAllocation, error) {
	db := a.getDB(tx)
	var allocation models.CourseAllocation
	if err := db.WithContext(ctx).
		Preload("Course").
		Preload("Lecturer.User").
		First(&allocation, id).Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (a *AllocationPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Delete(&models.CourseAllocation{}, id).Error
}

func (a *AllocationPostgreSQL) GetByLecturer(ctx context.Context, tx *gorm.DB, lecturerID string, semesterID uint) ([]*models.CourseAllocation, error) {
	db := a.getDB(tx)
	var allocations []*models.CourseAllocation
	if err := db.WithContext(ctx).
		Where("lecturer_id = ? AND semester_id = ?", lecturerID, semesterID).
		Preload("Course").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func (a *AllocationPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) ([]*models.CourseAllocation, error) {
	db := a.getDB(tx)
	var allocations []*models.CourseAllocation
	if err := db.WithContext(ctx).
		Where("course_id = ? AND semester_id = ?", courseID, semesterID).
		Preload("Lecturer.User").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func (a *AllocationPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, lecturerID string, courseID, semesterID uint) (bool, error) {
	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.CourseAllocation{}).
		Where("lecturer_id = ? AND course_id = ? AND semester_id = ?", lecturerID, courseID, semesterID).
		Count(&count).Error
	return count > 0, err
}

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	db := e.getDB(tx)
	return db.WithContext(ctx).Create(enrollment).Error
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	db := e.getDB(tx)
	var enrollment models.Enrollment
	if err := db.WithContext(ctx).
		Preload("Course").
		Preload("Semester").
		First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) Get(ctx context.Context, tx *gorm.DB, studentID string, courseID, semesterID uint) (*models.Enrollment, error) {
	db := e.getDB(tx)
	var enrollment models.Enrollment
	if err := db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND semester_id = ?", studentID, courseID, semesterID).
		First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Enrollment{}, id).Error
}

func (e *EnrollmentPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, semesterID uint) ([]*models.Enrollment, error) {
	db := e.getDB(tx)
	var enrollments []*models.Enrollment
	query := db.WithContext(ctx).Where("student_id = ?", studentID)
	if semesterID > 0 {
		query = query.Where("semester_id = ?", semesterID)
	}
	if err := query.
		Preload("Course").
		Preload("Semester").
		Preload("Score").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) ([]*models.Enrollment, error) {
	db := e.getDB(tx)
	var enrollments []*models.Enrollment
	if err := db.WithContext(ctx).
		Where("course_id = ? AND semester_id = ?", courseID, semesterID).
		Preload("Student.User").
		Preload("Score").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID, semesterID uint) (int64, error) {
	db := e.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND semester_id = ?", courseID, semesterID).
		Count(&count).Error
	return count, err
}

func (e *EnrollmentPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, studentID string, courseID, semesterID uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND semester_id = ?", studentID, courseID, semesterID).
		Count(&count).Error
	return count > 0, err
}
