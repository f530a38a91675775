package postgres

import (
	"context"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"gorm.io/gorm"
)

type StudentPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (s *StudentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Create(student).Error
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, userID string) (*models.Student, error) {
	db := s.getDB(tx)
	var student models.Student
	if err := db.WithContext(ctx).First(&student, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByIDWithUser(ctx context.Context, tx *gorm.DB, userID string) (*models.Student, error) {
	db := s.getDB(tx)
	var student models.Student
	if err := db.WithContext(ctx).
		Preload("User").
		Preload("AdmissionSemester").
		First(&student, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *StudentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Save(student).Error
}

func (s *StudentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, userID string) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Student{}, "user_id = ?", userID).Error
}

func (s *StudentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	db := s.getDB(tx)
	var students []*models.Student
	var total int64

	query := db.WithContext(ctx).Model(&models.Student{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("User").Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (s *StudentPostgreSQL) GetByProgram(ctx context.Context, tx *gorm.DB, program string, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	filters.Program = &program
	return s.List(ctx, tx, filters)
}

func (s *StudentPostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	filters.Query = query
	return s.List(ctx, tx, filters)
}

func (s *StudentPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, userID string) (bool, error) {
	db := s.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Student{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

func (s *StudentPostgreSQL) applyFilters(query *gorm.DB, filters repositories.StudentFilters) *gorm.DB {
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.Program != nil {
		query = query.Where("program = ?", *filters.Program)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Joins("JOIN users ON users.id = students.user_id").
			Where("users.full_name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
	}
	return query
}

type LecturerPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewLecturerPostgreSQL(db *gorm.DB) repositories.LecturerRepository {
	return &LecturerPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (l *LecturerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

func (l *LecturerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lecturer *models.Lecturer) error {
	db := l.getDB(tx)
	return db.WithContext(ctx).Create(lecturer).Error
}

func (l *LecturerPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, userID string) (*models.Lecturer, error) {
	db := l.getDB(tx)
	var lecturer models.Lecturer
	if err := db.WithContext(ctx).First(&lecturer, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &lecturer, nil
}

func (l *LecturerPostgreSQL) GetByIDWithUser(ctx context.Context, tx *gorm.DB, userID string) (*models.Lecturer, error) {
	db := l.getDB(tx)
	var lecturer models.Lecturer
	if err := db.WithContext(ctx).
		Preload("User").
		First(&lecturer, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &lecturer, nil
}

func (l *LecturerPostgreSQL) Update(ctx context.Context, tx *gorm.DB, lecturer *models.Lecturer) error {
	db := l.getDB(tx)
	return db.WithContext(ctx).Save(lecturer).Error
}

func (l *LecturerPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, userID string) error {
	db := l.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Lecturer{}, "user_id = ?", userID).Error
}

func (l *LecturerPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.LecturerFilters) ([]*models.Lecturer, int64, error) {
	db := l.getDB(tx)
	var lecturers []*models.Lecturer
	var total int64

	query := db.WithContext(ctx).Model(&models.Lecturer{})
	if filters.Department != nil {
		query = query.Where("department = ?", *filters.Department)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Joins("JOIN users ON users.id = lecturers.user_id").
			Where("users.full_name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = l.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("User").Find(&lecturers).Error; err != nil {
		return nil, 0, err
	}

	return lecturers, total, nil
}

func (l *LecturerPostgreSQL) GetByDepartment(ctx context.Context, tx *gorm.DB, department string) ([]*models.Lecturer, error) {
	db := l.getDB(tx)
	var lecturers []*models.Lecturer
	if err := db.WithContext(ctx).
		Where("department = ?", department).
		Preload("User").
		Find(&lecturers).Error; err != nil {
		return nil, err
	}
	return lecturers, nil
}

func (l *LecturerPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, userID string) (bool, error) {
	db := l.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Lecturer{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}
