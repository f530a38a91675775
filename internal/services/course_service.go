package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campus-hq/academics-service/internal/events"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/validator"
	"gorm.io/gorm"
)

type courseService struct {
	db             *gorm.DB
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewCourseService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) CourseService {
	return &courseService{
		db:             db,
		repo:           repo,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
	}
}

// ===== SEMESTERS =====

func (s *courseService) CreateSemester(ctx context.Context, req *CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	semester := &models.Semester{
		Session: req.Session,
		Term:    req.Term,
	}
	if err := s.repo.Semester().Create(ctx, nil, semester); err != nil {
		return nil, fmt.Errorf("failed to create semester: %w", err)
	}

	s.logger.Info("Semester created", "semester_id", semester.ID, "session", semester.Session, "term", semester.Term)
	return semester, nil
}

func (s *courseService) GetCurrentSemester(ctx context.Context) (*models.Semester, error) {
	semester, err := s.repo.Semester().GetCurrent(ctx, nil)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSemesterNotFound
		}
		return nil, fmt.Errorf("failed to get current semester: %w", err)
	}
	return semester, nil
}

func (s *courseService) SetCurrentSemester(ctx context.Context, semesterID uint) error {
	if _, err := s.repo.Semester().GetByID(ctx, nil, semesterID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSemesterNotFound
		}
		return fmt.Errorf("failed to get semester: %w", err)
	}

	if err := s.repo.Semester().SetCurrent(ctx, nil, semesterID); err != nil {
		return fmt.Errorf("failed to set current semester: %w", err)
	}

	s.logger.Info("Current semester changed", "semester_id", semesterID)
	return nil
}

func (s *courseService) ListSemesters(ctx context.Context) ([]*models.Semester, error) {
	semesters, err := s.repo.Semester().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list semesters: %w", err)
	}
	return semesters, nil
}

// ===== COURSES =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest) (*models.Course, error) {
	s.logger.Info("Creating course", "code", req.Code, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.Course().ExistsByCode(ctx, nil, req.Code, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check course code: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrCourseCodeTaken, req.Code)
	}

	slug, err := uniqueSlug(slugify(req.Code+" "+req.Title), func(slug string) (bool, error) {
		_, err := s.repo.Course().GetBySlug(ctx, nil, slug)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	course := &models.Course{
		Slug:       slug,
		Title:      req.Title,
		Code:       req.Code,
		Credit:     req.Credit,
		Summary:    req.Summary,
		Level:      req.Level,
		Program:    req.Program,
		Term:       req.Term,
		IsElective: req.IsElective,
	}
	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "code", course.Code)
	return course, nil
}

func (s *courseService) GetByID(ctx context.Context, id uint) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return s.buildCourseResponse(ctx, course)
}

func (s *courseService) GetBySlug(ctx context.Context, slug string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetBySlug(ctx, nil, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return s.buildCourseResponse(ctx, course)
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Credit != nil {
		course.Credit = *req.Credit
	}
	if req.Summary != nil {
		course.Summary = req.Summary
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Program != nil {
		course.Program = *req.Program
	}
	if req.Term != nil {
		course.Term = *req.Term
	}
	if req.IsElective != nil {
		course.IsElective = *req.IsElective
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", id)
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id uint) error {
	semester, err := s.repo.Semester().GetCurrent(ctx, nil)
	if err != nil && !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to get current semester: %w", err)
	}

	if semester != nil {
		count, err := s.repo.Enrollment().CountByCourse(ctx, nil, id, semester.ID)
		if err != nil {
			return fmt.Errorf("failed to count enrollments: %w", err)
		}
		if count > 0 {
			return NewBusinessRuleError(
				"course_has_enrollments",
				"course with active enrollments cannot be deleted",
				map[string]interface{}{"course_id": id, "enrolled": count},
			)
		}
	}

	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id)
	return nil
}

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	responses := make([]*CourseResponse, 0, len(courses))
	for _, course := range courses {
		resp, err := s.buildCourseResponse(ctx, course)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return &CourseListResponse{
		Courses: responses,
		Total:   total,
		Page:    pageFromOffset(filters.Offset, filters.Limit),
		Size:    filters.Limit,
	}, nil
}

func (s *courseService) buildCourseResponse(ctx context.Context, course *models.Course) (*CourseResponse, error) {
	resp := &CourseResponse{Course: course}

	semester, err := s.repo.Semester().GetCurrent(ctx, nil)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return resp, nil
		}
		return nil, fmt.Errorf("failed to get current semester: %w", err)
	}

	count, err := s.repo.Enrollment().CountByCourse(ctx, nil, course.ID, semester.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	resp.EnrolledCount = int(count)
	return resp, nil
}

// ===== ALLOCATION =====

func (s *courseService) Allocate(ctx context.Context, req *AllocateCourseRequest) error {
	s.logger.Info("Allocating course",
		"lecturer_id", req.LecturerID,
		"course_id", req.CourseID,
		"semester_id", req.SemesterID)

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if _, err := s.repo.Lecturer().GetByID(ctx, nil, req.LecturerID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLecturerNotFound
		}
		return fmt.Errorf("failed to get lecturer: %w", err)
	}
	if _, err := s.repo.Course().GetByID(ctx, nil, req.CourseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}
	if _, err := s.repo.Semester().GetByID(ctx, nil, req.SemesterID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSemesterNotFound
		}
		return fmt.Errorf("failed to get semester: %w", err)
	}

	exists, err := s.repo.Allocation().Exists(ctx, nil, req.LecturerID, req.CourseID, req.SemesterID)
	if err != nil {
		return fmt.Errorf("failed to check allocation: %w", err)
	}
	if exists {
		return NewBusinessRuleError(
			"already_allocated",
			"lecturer already teaches this course this semester",
			map[string]interface{}{"lecturer_id": req.LecturerID, "course_id": req.CourseID},
		)
	}

	allocation := &models.CourseAllocation{
		LecturerID: req.LecturerID,
		CourseID:   req.CourseID,
		SemesterID: req.SemesterID,
	}
	if err := s.repo.Allocation().Create(ctx, nil, allocation); err != nil {
		return fmt.Errorf("failed to create allocation: %w", err)
	}
	return nil
}

func (s *courseService) Deallocate(ctx context.Context, lecturerID string, courseID, semesterID uint) error {
	allocations, err := s.repo.Allocation().GetByLecturer(ctx, nil, lecturerID, semesterID)
	if err != nil {
		return fmt.Errorf("failed to get allocations: %w", err)
	}

	for _, allocation := range allocations {
		if allocation.CourseID == courseID {
			if err := s.repo.Allocation().Delete(ctx, nil, allocation.ID); err != nil {
				return fmt.Errorf("failed to delete allocation: %w", err)
			}
			s.logger.Info("Course deallocated",
				"lecturer_id", lecturerID,
				"course_id", courseID,
				"semester_id", semesterID)
			return nil
		}
	}
	return ErrNotAllocated
}

// ===== ENROLLMENT =====

// Enroll registers the student on the course for the current semester.
func (s *courseService) Enroll(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error) {
	s.logger.Info("Enrolling student", "student_id", studentID, "course_id", courseID)

	semester, err := s.GetCurrentSemester(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Student().GetByID(ctx, nil, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	exists, err := s.repo.Enrollment().Exists(ctx, nil, studentID, courseID, semester.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if exists {
		return nil, ErrEnrollmentExists
	}

	enrollment := &models.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		SemesterID: semester.ID,
	}
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Enrollment().Create(ctx, nil, enrollment)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	s.publishEnrollmentEvent(ctx, events.EventEnrollmentAdded, studentID, courseID, semester.ID)

	s.logger.Info("Student enrolled",
		"student_id", studentID,
		"course_id", courseID,
		"course_code", course.Code,
		"semester_id", semester.ID)
	return enrollment, nil
}

// Drop removes the student's current-semester enrollment together with any
// score record already entered for it.
func (s *courseService) Drop(ctx context.Context, studentID string, courseID uint) error {
	s.logger.Info("Dropping enrollment", "student_id", studentID, "course_id", courseID)

	semester, err := s.GetCurrentSemester(ctx)
	if err != nil {
		return err
	}

	enrollment, err := s.repo.Enrollment().Get(ctx, nil, studentID, courseID, semester.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		record, err := txRepo.Score().GetByEnrollment(ctx, nil, enrollment.ID)
		if err == nil {
			if err := txRepo.Score().Delete(ctx, nil, record.ID); err != nil {
				return fmt.Errorf("failed to delete score record: %w", err)
			}
		} else if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get score record: %w", err)
		}
		return txRepo.Enrollment().Delete(ctx, nil, enrollment.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to drop enrollment: %w", err)
	}

	s.publishEnrollmentEvent(ctx, events.EventEnrollmentDropped, studentID, courseID, semester.ID)

	s.logger.Info("Enrollment dropped", "student_id", studentID, "course_id", courseID)
	return nil
}

func (s *courseService) GetEnrollments(ctx context.Context, studentID string, semesterID uint) ([]*EnrollmentResponse, error) {
	enrollments, err := s.repo.Enrollment().GetByStudent(ctx, nil, studentID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollments: %w", err)
	}

	responses := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		resp := &EnrollmentResponse{Enrollment: enrollment}
		if enrollment.Score != nil {
			resp.Score = &ScoreResponse{ScoreRecord: enrollment.Score}
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *courseService) GetCourseRoster(ctx context.Context, courseID, semesterID uint) ([]*models.Enrollment, error) {
	roster, err := s.repo.Enrollment().GetByCourse(ctx, nil, courseID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course roster: %w", err)
	}
	return roster, nil
}

func (s *courseService) publishEnrollmentEvent(ctx context.Context, eventType, studentID string, courseID, semesterID uint) {
	if s.eventPublisher == nil {
		return
	}
	event := events.Event{
		Type: eventType,
		Data: events.EnrollmentEvent{
			StudentID:  studentID,
			CourseID:   courseID,
			SemesterID: semesterID,
		},
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish enrollment event", "type", eventType, "error", err)
	}
}
