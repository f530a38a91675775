package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campus-hq/academics-service/internal/events"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/validator"
	"gorm.io/gorm"
)

type scoreService struct {
	db             *gorm.DB
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	gradeConfig    GradeConfig
}

func NewScoreService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, cfg GradeConfig) ScoreService {
	return &scoreService{
		db:             db,
		repo:           repo,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
		gradeConfig:    cfg,
	}
}

func (s *scoreService) GradeConfig() GradeConfig {
	return s.gradeConfig
}

// Submit writes the component scores for one enrollment and recomputes the
// derived grade snapshot in the same transaction.
func (s *scoreService) Submit(ctx context.Context, enrollmentID uint, req *SubmitScoreRequest, gradedBy string) (*ScoreResponse, error) {
	s.logger.Info("Submitting score",
		"enrollment_id", enrollmentID,
		"graded_by", gradedBy)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validateComponents(req); errs.HasErrors() {
		return nil, &errs
	}

	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, enrollmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	var record *models.ScoreRecord
	var grade *models.Grade

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		record, err = txRepo.Score().GetByEnrollment(ctx, nil, enrollmentID)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get score record: %w", err)
			}
			record = &models.ScoreRecord{
				EnrollmentID: enrollmentID,
				StudentID:    enrollment.StudentID,
				CourseID:     enrollment.CourseID,
				SemesterID:   enrollment.SemesterID,
			}
		}

		applyComponents(record, req)

		grade, err = s.recompute(record)
		if err != nil {
			return err
		}

		now := time.Now()
		record.GradedBy = &gradedBy
		record.GradedAt = &now

		if record.ID == 0 {
			return txRepo.Score().Create(ctx, nil, record)
		}
		return txRepo.Score().Update(ctx, nil, record)
	})
	if err != nil {
		return nil, err
	}

	s.publishScoreEvent(ctx, record, grade)

	s.logger.Info("Score submitted",
		"enrollment_id", enrollmentID,
		"student_id", record.StudentID,
		"total", derefFloat(record.Total))

	return &ScoreResponse{ScoreRecord: record, Grade: grade}, nil
}

func (s *scoreService) GetByEnrollment(ctx context.Context, enrollmentID uint) (*ScoreResponse, error) {
	record, err := s.repo.Score().GetByEnrollment(ctx, nil, enrollmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScoreRecordNotFound
		}
		return nil, fmt.Errorf("failed to get score record: %w", err)
	}
	return s.respond(record)
}

func (s *scoreService) Get(ctx context.Context, studentID string, courseID, semesterID uint) (*ScoreResponse, error) {
	record, err := s.repo.Score().Get(ctx, nil, studentID, courseID, semesterID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScoreRecordNotFound
		}
		return nil, fmt.Errorf("failed to get score record: %w", err)
	}
	return s.respond(record)
}

func (s *scoreService) Delete(ctx context.Context, enrollmentID uint) error {
	record, err := s.repo.Score().GetByEnrollment(ctx, nil, enrollmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrScoreRecordNotFound
		}
		return fmt.Errorf("failed to get score record: %w", err)
	}
	return s.repo.Score().Delete(ctx, nil, record.ID)
}

func (s *scoreService) GetGradebook(ctx context.Context, courseID, semesterID uint) ([]*ScoreResponse, error) {
	records, err := s.repo.Score().GetByCourseSemester(ctx, nil, courseID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get gradebook: %w", err)
	}

	responses := make([]*ScoreResponse, 0, len(records))
	for _, record := range records {
		resp, err := s.respond(record)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// respond recomputes the grade on read so the reported grade always matches
// the current components and policy, regardless of the stored snapshot.
func (s *scoreService) respond(record *models.ScoreRecord) (*ScoreResponse, error) {
	grade, err := CalculateGrade(record, s.gradeConfig)
	if err != nil {
		if IsWithheld(err) {
			return &ScoreResponse{ScoreRecord: record}, nil
		}
		return nil, err
	}
	return &ScoreResponse{ScoreRecord: record, Grade: grade}, nil
}

// recompute refreshes the persisted derived columns from the components.
// Withheld grades clear the snapshot rather than storing a stale one.
func (s *scoreService) recompute(record *models.ScoreRecord) (*models.Grade, error) {
	grade, err := CalculateGrade(record, s.gradeConfig)
	if err != nil {
		if IsWithheld(err) {
			record.Total = nil
			record.Average = nil
			record.Point = nil
			record.Letter = nil
			record.Comment = nil
			return nil, nil
		}
		return nil, err
	}

	record.Total = &grade.Total
	record.Average = &grade.Average
	record.Point = &grade.Point
	record.Letter = &grade.Letter
	record.Comment = &grade.Comment
	return grade, nil
}

func (s *scoreService) validateComponents(req *SubmitScoreRequest) ValidationErrors {
	var errs ValidationErrors
	check := func(comp ScoreComponent, value *float64) {
		if value == nil {
			return
		}
		if *value < 0 {
			errs.Add(string(comp), "score must not be negative", *value)
			return
		}
		if max := s.gradeConfig.ComponentMax(comp); *value > max {
			errs.Add(string(comp), fmt.Sprintf("score exceeds configured maximum %v", max), *value)
		}
	}
	check(ComponentAttendance, req.Attendance)
	check(ComponentAssignment, req.Assignment)
	check(ComponentMidExam, req.MidExam)
	check(ComponentQuiz, req.Quiz)
	check(ComponentFinalExam, req.FinalExam)
	return errs
}

func (s *scoreService) publishScoreEvent(ctx context.Context, record *models.ScoreRecord, grade *models.Grade) {
	if s.eventPublisher == nil {
		return
	}

	eventType := events.EventScoreUpdated
	payload := events.GradeComputedEvent{
		EnrollmentID: record.EnrollmentID,
		StudentID:    record.StudentID,
		CourseID:     record.CourseID,
		SemesterID:   record.SemesterID,
	}
	if grade != nil {
		eventType = events.EventGradeComputed
		payload.Total = grade.Total
		payload.Point = grade.Point
		payload.Letter = string(grade.Letter)
		payload.Comment = string(grade.Comment)
	}

	if err := s.eventPublisher.Publish(ctx, events.Event{Type: eventType, Data: payload}); err != nil {
		s.logger.Warn("Failed to publish score event",
			"enrollment_id", record.EnrollmentID,
			"error", err)
	}
}

// applyComponents copies only the components present in the request, so a
// partial submission never clears scores entered earlier.
func applyComponents(record *models.ScoreRecord, req *SubmitScoreRequest) {
	if req.Attendance != nil {
		record.Attendance = req.Attendance
	}
	if req.Assignment != nil {
		record.Assignment = req.Assignment
	}
	if req.MidExam != nil {
		record.MidExam = req.MidExam
	}
	if req.Quiz != nil {
		record.Quiz = req.Quiz
	}
	if req.FinalExam != nil {
		record.FinalExam = req.FinalExam
	}
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// IsWithheld reports whether the error is the grade-withheld condition.
func IsWithheld(err error) bool {
	return errors.Is(err, ErrGradeWithheld)
}
