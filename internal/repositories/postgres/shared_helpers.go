package postgres

import (
	"context"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountCompletedSittings counts completed sittings by student for a quiz
func (h *SharedHelpers) CountCompletedSittings(ctx context.Context, quizID uint, studentID string) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Sitting{}).
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, models.SittingCompleted).
		Count(&count).Error
	return count, err
}

// GetQuizBasicInfo gets the fields needed for eligibility checks
func (h *SharedHelpers) GetQuizBasicInfo(ctx context.Context, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := h.db.WithContext(ctx).
		Select("id, status, max_attempts, pass_mark, randomize_order, show_correct_answers").
		First(&quiz, quizID).Error
	return &quiz, err
}

// ValidateSittingEligibility checks if a student can start a new sitting
func (h *SharedHelpers) ValidateSittingEligibility(ctx context.Context, quizID uint, studentID string) (*repositories.SittingValidation, error) {
	validation := &repositories.SittingValidation{CanStart: true}

	quiz, err := h.GetQuizBasicInfo(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if quiz.Status != models.QuizPublished {
		validation.CanStart = false
		validation.Reason = "Quiz is not published"
		return validation, nil
	}

	if quiz.MaxAttempts > 0 {
		completed, err := h.CountCompletedSittings(ctx, quizID, studentID)
		if err != nil {
			return nil, err
		}
		if completed >= int64(quiz.MaxAttempts) {
			validation.CanStart = false
			validation.Reason = "Maximum attempts reached"
			return validation, nil
		}
	}

	return validation, nil
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"code":       true,
		"status":     true,
		"program":    true,
		"level":      true,
		"percent":    true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
