package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/validator"
	"gorm.io/gorm"
)

type studentService struct {
	db          *gorm.DB
	repo        repositories.Repository
	logger      *slog.Logger
	validator   *validator.Validator
	gradeConfig GradeConfig
}

func NewStudentService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, cfg GradeConfig) StudentService {
	return &studentService{
		db:          db,
		repo:        repo,
		logger:      logger,
		validator:   v,
		gradeConfig: cfg,
	}
}

func (s *studentService) Create(ctx context.Context, req *CreateStudentRequest) (*models.Student, error) {
	s.logger.Info("Creating student", "id", req.ID, "email", req.Email)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	taken, err := s.repo.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, req.Email)
	}

	if req.AdmissionSemesterID != nil {
		if _, err := s.repo.Semester().GetByID(ctx, nil, *req.AdmissionSemesterID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrSemesterNotFound
			}
			return nil, fmt.Errorf("failed to get semester: %w", err)
		}
	}

	student := &models.Student{
		UserID:              req.ID,
		Level:               req.Level,
		Program:             req.Program,
		AdmissionSemesterID: req.AdmissionSemesterID,
	}

	// Account and profile are created together or not at all.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		user := &models.User{
			ID:       req.ID,
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
			Role:     models.RoleStudent,
		}
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := txRepo.Student().Create(ctx, nil, student); err != nil {
			return fmt.Errorf("failed to create student profile: %w", err)
		}
		student.User = *user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student created", "student_id", student.UserID)
	return student, nil
}

func (s *studentService) GetByID(ctx context.Context, id string) (*StudentResponse, error) {
	student, err := s.repo.Student().GetByIDWithUser(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	cgpa, err := s.GetCGPA(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StudentResponse{Student: student, CGPA: cgpa}, nil
}

func (s *studentService) Update(ctx context.Context, id string, req *UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student, err := s.repo.Student().GetByIDWithUser(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	if req.Level != nil {
		student.Level = *req.Level
	}
	if req.Program != nil {
		student.Program = *req.Program
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if req.FullName != nil || req.Phone != nil {
			if req.FullName != nil {
				student.User.FullName = *req.FullName
			}
			if req.Phone != nil {
				student.User.Phone = req.Phone
			}
			if err := txRepo.User().Update(ctx, nil, &student.User); err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}
		if err := txRepo.Student().Update(ctx, nil, student); err != nil {
			return fmt.Errorf("failed to update student profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student updated", "student_id", id)
	return student, nil
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Student().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to get student: %w", err)
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Student().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete student profile: %w", err)
		}
		return txRepo.User().Delete(ctx, nil, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Student deleted", "student_id", id)
	return nil
}

func (s *studentService) List(ctx context.Context, filters repositories.StudentFilters) (*StudentListResponse, error) {
	students, total, err := s.repo.Student().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return &StudentListResponse{
		Students: students,
		Total:    total,
		Page:     pageFromOffset(filters.Offset, filters.Limit),
		Size:     filters.Limit,
	}, nil
}

// GetSemesterResult assembles one student's semester: every score record
// with the grade recomputed, plus the GPA over gradeable courses.
func (s *studentService) GetSemesterResult(ctx context.Context, studentID string, semesterID uint) (*models.SemesterResult, error) {
	if _, err := s.repo.Student().GetByID(ctx, nil, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	records, err := s.repo.Score().GetByStudentSemester(ctx, nil, studentID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get score records: %w", err)
	}

	result := &models.SemesterResult{
		StudentID:  studentID,
		SemesterID: semesterID,
	}

	grades := make([]CourseGrade, 0, len(records))
	for _, record := range records {
		grade, err := CalculateGrade(record, s.gradeConfig)
		if err != nil {
			if IsWithheld(err) {
				result.Records = append(result.Records, *record)
				continue
			}
			return nil, err
		}

		record.Total = &grade.Total
		record.Point = &grade.Point
		record.Letter = &grade.Letter
		record.Comment = &grade.Comment
		result.Records = append(result.Records, *record)

		grades = append(grades, CourseGrade{Credit: record.Course.Credit, Point: grade.Point})
		result.TotalCredits += record.Course.Credit
	}

	result.GPA = CalculateGPA(grades)

	cgpa, err := s.GetCGPA(ctx, studentID)
	if err != nil {
		return nil, err
	}
	result.CGPA = cgpa

	return result, nil
}

// GetCGPA computes the credit-weighted average over every gradeable record
// the student has, across all semesters. Withheld courses are skipped.
func (s *studentService) GetCGPA(ctx context.Context, studentID string) (float64, error) {
	records, err := s.repo.Score().GetByStudent(ctx, nil, studentID)
	if err != nil {
		return 0, fmt.Errorf("failed to get score records: %w", err)
	}

	grades := make([]CourseGrade, 0, len(records))
	for _, record := range records {
		grade, err := CalculateGrade(record, s.gradeConfig)
		if err != nil {
			if IsWithheld(err) {
				continue
			}
			return 0, err
		}
		grades = append(grades, CourseGrade{Credit: record.Course.Credit, Point: grade.Point})
	}
	return CalculateGPA(grades), nil
}

// ===== LECTURERS =====

type lecturerService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewLecturerService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator) LecturerService {
	return &lecturerService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *lecturerService) Create(ctx context.Context, req *CreateLecturerRequest) (*models.Lecturer, error) {
	s.logger.Info("Creating lecturer", "id", req.ID, "email", req.Email)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	taken, err := s.repo.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, req.Email)
	}

	lecturer := &models.Lecturer{
		UserID:     req.ID,
		Department: req.Department,
		Title:      req.Title,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		user := &models.User{
			ID:       req.ID,
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
			Role:     models.RoleLecturer,
		}
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := txRepo.Lecturer().Create(ctx, nil, lecturer); err != nil {
			return fmt.Errorf("failed to create lecturer profile: %w", err)
		}
		lecturer.User = *user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lecturer created", "lecturer_id", lecturer.UserID)
	return lecturer, nil
}

func (s *lecturerService) GetByID(ctx context.Context, id string) (*models.Lecturer, error) {
	lecturer, err := s.repo.Lecturer().GetByIDWithUser(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLecturerNotFound
		}
		return nil, fmt.Errorf("failed to get lecturer: %w", err)
	}
	return lecturer, nil
}

func (s *lecturerService) Update(ctx context.Context, id string, req *UpdateLecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lecturer, err := s.repo.Lecturer().GetByIDWithUser(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLecturerNotFound
		}
		return nil, fmt.Errorf("failed to get lecturer: %w", err)
	}

	if req.Department != nil {
		lecturer.Department = *req.Department
	}
	if req.Title != nil {
		lecturer.Title = req.Title
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if req.FullName != nil || req.Phone != nil {
			if req.FullName != nil {
				lecturer.User.FullName = *req.FullName
			}
			if req.Phone != nil {
				lecturer.User.Phone = req.Phone
			}
			if err := txRepo.User().Update(ctx, nil, &lecturer.User); err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}
		return txRepo.Lecturer().Update(ctx, nil, lecturer)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lecturer updated", "lecturer_id", id)
	return lecturer, nil
}

func (s *lecturerService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Lecturer().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLecturerNotFound
		}
		return fmt.Errorf("failed to get lecturer: %w", err)
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Lecturer().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete lecturer profile: %w", err)
		}
		return txRepo.User().Delete(ctx, nil, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Lecturer deleted", "lecturer_id", id)
	return nil
}

func (s *lecturerService) List(ctx context.Context, filters repositories.LecturerFilters) (*LecturerListResponse, error) {
	lecturers, total, err := s.repo.Lecturer().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list lecturers: %w", err)
	}
	return &LecturerListResponse{
		Lecturers: lecturers,
		Total:     total,
		Page:      pageFromOffset(filters.Offset, filters.Limit),
		Size:      filters.Limit,
	}, nil
}

func (s *lecturerService) GetCourses(ctx context.Context, lecturerID string, semesterID uint) ([]*models.Course, error) {
	if _, err := s.repo.Lecturer().GetByID(ctx, nil, lecturerID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLecturerNotFound
		}
		return nil, fmt.Errorf("failed to get lecturer: %w", err)
	}
	return s.repo.Course().GetByLecturer(ctx, nil, lecturerID, semesterID)
}
