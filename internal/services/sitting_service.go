package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/campus-hq/academics-service/internal/events"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type sittingService struct {
	db             *gorm.DB
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewSittingService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) SittingService {
	return &sittingService{
		db:             db,
		repo:           repo,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
	}
}

// Start begins a new sitting, or hands back the active one if the caller
// already has a resumable attempt on this quiz.
func (s *sittingService) Start(ctx context.Context, req *StartSittingRequest, studentID *string) (*SittingResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.Status != models.QuizPublished {
		return nil, ErrQuizNotPublished
	}
	if len(quiz.Questions) == 0 {
		return nil, ErrQuizHasNoQuestions
	}

	identity, err := s.resolveIdentity(ctx, studentID, req.SessionToken, true)
	if err != nil {
		return nil, err
	}

	// A resumable attempt beats starting a fresh one.
	active, err := s.findActive(ctx, quiz.ID, identity)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if active.Status == models.SittingAbandoned {
			active.Status = models.SittingInProgress
			if err := s.repo.Sitting().Update(ctx, nil, active); err != nil {
				return nil, fmt.Errorf("failed to reactivate sitting: %w", err)
			}
		}
		return s.buildResponse(ctx, active, quiz, identity)
	}

	completed, err := s.countCompleted(ctx, quiz.ID, identity)
	if err != nil {
		return nil, err
	}
	if completed >= int64(quiz.MaxAttempts) {
		return nil, ErrAttemptLimitExceeded
	}

	order, maxScore := materializeOrder(quiz)
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question order: %w", err)
	}

	now := time.Now()
	sitting := &models.Sitting{
		QuizID:         quiz.ID,
		StudentID:      identity.studentID,
		SessionToken:   identity.sessionToken,
		AttemptNumber:  int(completed) + 1,
		Status:         models.SittingInProgress,
		QuestionOrder:  orderJSON,
		Answers:        datatypes.JSON("[]"),
		TotalQuestions: len(order),
		MaxScore:       maxScore,
		StartedAt:      &now,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Sitting().Create(ctx, nil, sitting)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sitting: %w", err)
	}

	s.publishEvent(ctx, events.EventSittingStarted, events.SittingStartedEvent{
		SittingID:     sitting.ID,
		QuizID:        quiz.ID,
		StudentID:     identity.studentID,
		AttemptNumber: sitting.AttemptNumber,
	})

	s.logger.Info("Sitting started",
		"sitting_id", sitting.ID,
		"quiz_id", quiz.ID,
		"attempt", sitting.AttemptNumber,
		"anonymous", identity.studentID == nil)

	return s.buildResponse(ctx, sitting, quiz, identity)
}

// Answer records one answer durably and grades it when the question type
// allows. Completed sittings reject with ErrSittingCompleted.
func (s *sittingService) Answer(ctx context.Context, sittingID uint, req *AnswerRequest, studentID *string, sessionToken *string) (*AnswerResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	sitting, quiz, err := s.loadOwnedSitting(ctx, sittingID, studentID, sessionToken)
	if err != nil {
		return nil, err
	}

	switch sitting.Status {
	case models.SittingCompleted:
		return nil, fmt.Errorf("%w: sitting %d", ErrSittingCompleted, sittingID)
	case models.SittingInProgress:
	default:
		return nil, NewInvalidStateError("sitting", sittingID, string(sitting.Status), "answer")
	}

	order, err := decodeOrder(sitting.QuestionOrder)
	if err != nil {
		return nil, err
	}
	answers, err := decodeAnswers(sitting.Answers)
	if err != nil {
		return nil, err
	}

	if !containsID(order, req.QuestionID) {
		return nil, ErrQuestionNotInSitting
	}
	for _, a := range answers {
		if a.QuestionID == req.QuestionID {
			return nil, ErrAlreadyAnswered
		}
	}

	question, err := s.repo.Question().GetByIDWithCategory(ctx, nil, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	points, err := s.effectivePoints(ctx, quiz.ID, question)
	if err != nil {
		return nil, err
	}

	score, correct, err := gradeAnswer(question, req.Answer, points)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	answer := models.SittingAnswer{
		QuestionID: req.QuestionID,
		Given:      req.Answer,
		Correct:    correct,
		Score:      score,
		MaxScore:   points,
		AnsweredAt: now,
	}
	answers = append(answers, answer)

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	sitting.Answers = answersJSON
	sitting.QuestionsAnswered = len(answers)
	sitting.CurrentScore += score
	sitting.CurrentIndex = nextUnansweredIndex(order, answers)

	// The answer sequence must be durable before the caller learns anything;
	// progress accounting rides in the same transaction.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Sitting().Update(ctx, nil, sitting); err != nil {
			return fmt.Errorf("failed to persist answer: %w", err)
		}
		if correct != nil {
			userKey := progressUser(sitting)
			category := progressCategory(question)
			if err := txRepo.Progress().AddScore(ctx, nil, userKey, category, score, float64(points)); err != nil {
				return fmt.Errorf("failed to update category progress: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &AnswerResult{
		QuestionID: req.QuestionID,
		Score:      score,
		MaxScore:   float64(points),
		AnsweredAt: now,
		Remaining:  sitting.TotalQuestions - sitting.QuestionsAnswered,
	}

	// Correctness and explanation leak only under the immediate reveal
	// policy, and only for auto-marked questions.
	if quiz.ShowCorrectAnswers == models.ShowAnswersImmediate && correct != nil {
		result.Correct = correct
		result.Explanation = question.Explanation
	}

	if result.Remaining > 0 {
		next, err := s.questionAt(ctx, quiz, order, answers, sitting.CurrentIndex)
		if err != nil {
			return nil, err
		}
		result.NextQuestion = next
	}

	return result, nil
}

// Resume finds the caller's non-completed sitting on the quiz and puts it
// back in progress. An unknown or expired session token means there is
// nothing to resume.
func (s *sittingService) Resume(ctx context.Context, quizID uint, studentID *string, sessionToken *string) (*SittingResponse, error) {
	identity, err := s.resolveIdentity(ctx, studentID, sessionToken, false)
	if err != nil {
		return nil, err
	}

	sitting, err := s.findActive(ctx, quizID, identity)
	if err != nil {
		return nil, err
	}
	if sitting == nil {
		return nil, ErrSittingNotFound
	}

	if sitting.Status == models.SittingAbandoned {
		sitting.Status = models.SittingInProgress
		if err := s.repo.Sitting().Update(ctx, nil, sitting); err != nil {
			return nil, fmt.Errorf("failed to resume sitting: %w", err)
		}
	}

	if identity.sessionToken != nil {
		// Keep the anonymous session alive while the taker works.
		if err := s.repo.Session().Touch(ctx, *identity.sessionToken); err != nil && !repositories.IsNotFoundError(err) {
			s.logger.Warn("Failed to extend session", "error", err)
		}
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, sitting.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	return s.buildResponse(ctx, sitting, quiz, identity)
}

// Complete finalizes the sitting. All questions must be answered; after
// this the sitting never changes again.
func (s *sittingService) Complete(ctx context.Context, sittingID uint, studentID *string, sessionToken *string) (*SittingResult, error) {
	sitting, quiz, err := s.loadOwnedSitting(ctx, sittingID, studentID, sessionToken)
	if err != nil {
		return nil, err
	}

	if sitting.Status == models.SittingCompleted {
		return nil, fmt.Errorf("%w: sitting %d", ErrSittingCompleted, sittingID)
	}
	if sitting.QuestionsAnswered < sitting.TotalQuestions {
		return nil, NewBusinessRuleError(
			"sitting_incomplete",
			fmt.Sprintf("%d of %d questions answered", sitting.QuestionsAnswered, sitting.TotalQuestions),
			map[string]interface{}{
				"sitting_id": sittingID,
				"answered":   sitting.QuestionsAnswered,
				"total":      sitting.TotalQuestions,
			},
		)
	}

	percent := 0.0
	if sitting.MaxScore > 0 {
		percent = sitting.CurrentScore / float64(sitting.MaxScore) * 100
	}
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	now := time.Now()
	sitting.Status = models.SittingCompleted
	sitting.Percent = percent
	sitting.Passed = percent >= quiz.PassMark
	sitting.CompletedAt = &now

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Sitting().Update(ctx, nil, sitting)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize sitting: %w", err)
	}

	s.publishEvent(ctx, events.EventSittingCompleted, events.SittingCompletedEvent{
		SittingID: sitting.ID,
		QuizID:    sitting.QuizID,
		StudentID: sitting.StudentID,
		Percent:   percent,
		Passed:    sitting.Passed,
	})

	s.logger.Info("Sitting completed",
		"sitting_id", sitting.ID,
		"quiz_id", sitting.QuizID,
		"percent", percent,
		"passed", sitting.Passed)

	return s.buildResult(sitting)
}

// Abandon parks an in-progress sitting; it stays resumable while the
// identifying session lasts.
func (s *sittingService) Abandon(ctx context.Context, sittingID uint, studentID *string, sessionToken *string) error {
	sitting, _, err := s.loadOwnedSitting(ctx, sittingID, studentID, sessionToken)
	if err != nil {
		return err
	}

	if sitting.Status != models.SittingInProgress {
		return NewInvalidStateError("sitting", sittingID, string(sitting.Status), "abandon")
	}

	sitting.Status = models.SittingAbandoned
	if err := s.repo.Sitting().Update(ctx, nil, sitting); err != nil {
		return fmt.Errorf("failed to abandon sitting: %w", err)
	}
	return nil
}

func (s *sittingService) GetByID(ctx context.Context, id uint) (*SittingResponse, error) {
	sitting, err := s.repo.Sitting().GetByIDWithQuiz(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSittingNotFound
		}
		return nil, fmt.Errorf("failed to get sitting: %w", err)
	}
	return &SittingResponse{
		Sitting:   sitting,
		CanResume: sitting.Status == models.SittingInProgress || sitting.Status == models.SittingAbandoned,
	}, nil
}

func (s *sittingService) GetResult(ctx context.Context, sittingID uint) (*SittingResult, error) {
	sitting, err := s.repo.Sitting().GetByID(ctx, nil, sittingID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSittingNotFound
		}
		return nil, fmt.Errorf("failed to get sitting: %w", err)
	}
	if sitting.Status != models.SittingCompleted {
		return nil, NewInvalidStateError("sitting", sittingID, string(sitting.Status), "get_result")
	}
	return s.buildResult(sitting)
}

func (s *sittingService) GetByStudent(ctx context.Context, studentID string, filters repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	return s.repo.Sitting().GetByStudent(ctx, nil, studentID, filters)
}

func (s *sittingService) GetByQuiz(ctx context.Context, quizID uint, filters repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	return s.repo.Sitting().GetByQuiz(ctx, nil, quizID, filters)
}

func (s *sittingService) GetProgress(ctx context.Context, userID string) (*ProgressResponse, error) {
	records, err := s.repo.Progress().GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	resp := &ProgressResponse{UserID: userID}
	for _, rec := range records {
		resp.Categories = append(resp.Categories, CategoryProgress{
			Category:    rec.Category,
			Score:       rec.Score,
			Possible:    rec.Possible,
			SuccessRate: rec.SuccessRate(),
		})
	}
	return resp, nil
}

func (s *sittingService) GetStats(ctx context.Context, quizID uint) (*repositories.SittingStats, error) {
	return s.repo.Sitting().GetStats(ctx, nil, quizID)
}

func (s *sittingService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.Event{Type: eventType, Data: data}); err != nil {
		s.logger.Warn("Failed to publish sitting event", "type", eventType, "error", err)
	}
}
