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

type quizService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuizService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator) QuizService {
	return &quizService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// ===== QUIZ CRUD =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "creator_id", creatorID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Course().GetByID(ctx, nil, req.CourseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	slug, err := uniqueSlug(slugify(req.Title), func(slug string) (bool, error) {
		return s.repo.Quiz().ExistsBySlug(ctx, nil, slug, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	quiz := &models.Quiz{
		Slug:               slug,
		CourseID:           req.CourseID,
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Status:             models.QuizDraft,
		RandomizeOrder:     req.RandomizeOrder,
		ShowCorrectAnswers: req.ShowCorrectAnswers,
		PassMark:           req.PassMark,
		MaxAttempts:        req.MaxAttempts,
		CreatedBy:          creatorID,
		Version:            1,
	}
	if quiz.Category == "" {
		quiz.Category = models.CategoryPractice
	}
	if quiz.ShowCorrectAnswers == "" {
		quiz.ShowCorrectAnswers = models.ShowAnswersAtEnd
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Quiz().Create(ctx, nil, quiz); err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		if len(req.Questions) > 0 {
			links, err := s.buildQuestionLinks(ctx, quiz.ID, req.Questions)
			if err != nil {
				return err
			}
			if err := txRepo.QuizQuestion().AddBatch(ctx, nil, links); err != nil {
				return fmt.Errorf("failed to attach questions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "slug", quiz.Slug)
	return s.GetByID(ctx, quiz.ID)
}

func (s *quizService) GetByID(ctx context.Context, id uint) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return s.buildQuizResponse(ctx, quiz)
}

// GetBySlug serves the public take-a-quiz entry point, so drafts stay
// hidden; authors reach their drafts by ID.
func (s *quizService) GetBySlug(ctx context.Context, slug string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetBySlug(ctx, nil, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.Status == models.QuizDraft {
		return nil, ErrQuizNotFound
	}
	return s.buildQuizResponse(ctx, quiz)
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error) {
	s.logger.Info("Updating quiz", "quiz_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getOwnedQuiz(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}
	if quiz.Status == models.QuizArchived {
		return nil, NewInvalidStateError("quiz", id, string(quiz.Status), "update")
	}

	applyQuizUpdates(quiz, req)
	quiz.Version++

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz updated", "quiz_id", id, "version", quiz.Version)
	return s.buildQuizResponse(ctx, quiz)
}

func (s *quizService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting quiz", "quiz_id", id, "user_id", userID)

	quiz, err := s.getOwnedQuiz(ctx, id, userID, "delete")
	if err != nil {
		return err
	}

	stats, err := s.repo.Sitting().GetStats(ctx, nil, quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to get sitting stats: %w", err)
	}
	if stats != nil && stats.TotalSittings > 0 {
		return NewBusinessRuleError(
			"quiz_has_sittings",
			"quiz with recorded sittings can only be archived",
			map[string]interface{}{"quiz_id": id, "sittings": stats.TotalSittings},
		)
	}

	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", id)
	return nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error) {
	quizzes, total, err := s.repo.Quiz().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return s.buildQuizListResponse(ctx, quizzes, total, filters)
}

func (s *quizService) GetByCourse(ctx context.Context, courseID uint, filters repositories.QuizFilters) (*QuizListResponse, error) {
	quizzes, total, err := s.repo.Quiz().GetByCourse(ctx, nil, courseID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list course quizzes: %w", err)
	}
	return s.buildQuizListResponse(ctx, quizzes, total, filters)
}

// ===== LIFECYCLE =====

func (s *quizService) Publish(ctx context.Context, id uint, userID string) error {
	return s.transition(ctx, id, userID, models.QuizPublished)
}

func (s *quizService) Archive(ctx context.Context, id uint, userID string) error {
	return s.transition(ctx, id, userID, models.QuizArchived)
}

func (s *quizService) transition(ctx context.Context, id uint, userID string, next models.QuizStatus) error {
	s.logger.Info("Changing quiz status", "quiz_id", id, "user_id", userID, "next", next)

	quiz, err := s.getOwnedQuiz(ctx, id, userID, string(next))
	if err != nil {
		return err
	}

	count, err := s.repo.QuizQuestion().CountByQuiz(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateQuizStatusTransition(quiz.Status, next, int(count)); errs.HasErrors() {
		return errs
	}

	if err := s.repo.Quiz().UpdateStatus(ctx, nil, id, next); err != nil {
		return fmt.Errorf("failed to update quiz status: %w", err)
	}

	s.logger.Info("Quiz status changed", "quiz_id", id, "status", next)
	return nil
}

// ===== QUESTION MANAGEMENT =====

func (s *quizService) AddQuestion(ctx context.Context, quizID uint, req *QuizQuestionRequest, userID string) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	quiz, err := s.getOwnedQuiz(ctx, quizID, userID, "add_question")
	if err != nil {
		return err
	}
	if quiz.Status != models.QuizDraft {
		return NewInvalidStateError("quiz", quizID, string(quiz.Status), "add_question")
	}

	if _, err := s.repo.Question().GetByID(ctx, nil, req.QuestionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	exists, err := s.repo.QuizQuestion().Exists(ctx, nil, quizID, req.QuestionID)
	if err != nil {
		return fmt.Errorf("failed to check quiz question: %w", err)
	}
	if exists {
		return NewBusinessRuleError(
			"question_already_attached",
			"question is already part of this quiz",
			map[string]interface{}{"quiz_id": quizID, "question_id": req.QuestionID},
		)
	}

	link := &models.QuizQuestion{
		QuizID:     quizID,
		QuestionID: req.QuestionID,
		Order:      req.Order,
		Points:     req.Points,
	}
	if err := s.repo.QuizQuestion().Add(ctx, nil, link); err != nil {
		return fmt.Errorf("failed to add question to quiz: %w", err)
	}

	s.logger.Info("Question added to quiz", "quiz_id", quizID, "question_id", req.QuestionID)
	return nil
}

func (s *quizService) RemoveQuestion(ctx context.Context, quizID, questionID uint, userID string) error {
	quiz, err := s.getOwnedQuiz(ctx, quizID, userID, "remove_question")
	if err != nil {
		return err
	}
	if quiz.Status != models.QuizDraft {
		return NewInvalidStateError("quiz", quizID, string(quiz.Status), "remove_question")
	}

	exists, err := s.repo.QuizQuestion().Exists(ctx, nil, quizID, questionID)
	if err != nil {
		return fmt.Errorf("failed to check quiz question: %w", err)
	}
	if !exists {
		return ErrQuestionNotFound
	}

	if err := s.repo.QuizQuestion().Remove(ctx, nil, quizID, questionID); err != nil {
		return fmt.Errorf("failed to remove question from quiz: %w", err)
	}

	s.logger.Info("Question removed from quiz", "quiz_id", quizID, "question_id", questionID)
	return nil
}

func (s *quizService) ReorderQuestions(ctx context.Context, quizID uint, questionIDs []uint, userID string) error {
	quiz, err := s.getOwnedQuiz(ctx, quizID, userID, "reorder_questions")
	if err != nil {
		return err
	}
	if quiz.Status != models.QuizDraft {
		return NewInvalidStateError("quiz", quizID, string(quiz.Status), "reorder_questions")
	}

	count, err := s.repo.QuizQuestion().CountByQuiz(ctx, nil, quizID)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if int64(len(questionIDs)) != count {
		return NewValidationError("question_ids",
			fmt.Sprintf("reorder must list all %d questions", count), len(questionIDs))
	}

	if err := s.repo.QuizQuestion().UpdateOrder(ctx, nil, quizID, questionIDs); err != nil {
		return fmt.Errorf("failed to reorder questions: %w", err)
	}

	s.logger.Info("Quiz questions reordered", "quiz_id", quizID)
	return nil
}

// ===== QUESTION BANK =====

func (s *quizService) CreateQuestion(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error) {
	s.logger.Info("Creating question", "creator_id", creatorID, "type", req.Type)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateQuestionContent(req.Type, req.Content); errs.HasErrors() {
		return nil, errs
	}

	if req.CategoryID != nil {
		if _, err := s.repo.QuestionCategory().GetByID(ctx, nil, *req.CategoryID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
	}

	question := &models.Question{
		Type:        req.Type,
		Text:        req.Text,
		Points:      req.Points,
		Content:     []byte(req.Content),
		CategoryID:  req.CategoryID,
		Explanation: req.Explanation,
		CreatedBy:   creatorID,
	}
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created", "question_id", question.ID)
	return s.buildQuestionResponse(ctx, question)
}

func (s *quizService) GetQuestion(ctx context.Context, id uint) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByIDWithCategory(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return s.buildQuestionResponse(ctx, question)
}

func (s *quizService) UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error) {
	s.logger.Info("Updating question", "question_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "question", "update", "not the question owner")
	}

	// Editing content under a published quiz would change live sittings.
	used, err := s.repo.Question().IsUsedInQuizzes(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check question usage: %w", err)
	}
	if used && len(req.Content) > 0 {
		return nil, fmt.Errorf("%w: question %d", ErrQuestionInUse, id)
	}

	if len(req.Content) > 0 {
		if errs := s.validator.GetBusinessValidator().ValidateQuestionContent(question.Type, req.Content); errs.HasErrors() {
			return nil, errs
		}
		question.Content = []byte(req.Content)
	}
	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.CategoryID != nil {
		question.CategoryID = req.CategoryID
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return s.buildQuestionResponse(ctx, question)
}

func (s *quizService) DeleteQuestion(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting question", "question_id", id, "user_id", userID)

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.CreatedBy != userID {
		return NewPermissionError(userID, id, "question", "delete", "not the question owner")
	}

	used, err := s.repo.Question().IsUsedInQuizzes(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check question usage: %w", err)
	}
	if used {
		return fmt.Errorf("%w: question %d", ErrQuestionInUse, id)
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func (s *quizService) ListQuestions(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error) {
	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	responses := make([]*QuestionResponse, 0, len(questions))
	for _, question := range questions {
		resp, err := s.buildQuestionResponse(ctx, question)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return &QuestionListResponse{
		Questions: responses,
		Total:     total,
		Page:      pageFromOffset(filters.Offset, filters.Limit),
		Size:      filters.Limit,
	}, nil
}

// ===== CATEGORIES =====

func (s *quizService) CreateCategory(ctx context.Context, req *CreateCategoryRequest, creatorID string) (*models.QuestionCategory, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.QuestionCategory().ExistsByName(ctx, nil, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return nil, NewBusinessRuleError(
			"category_name_taken",
			fmt.Sprintf("category %q already exists", req.Name),
			map[string]interface{}{"name": req.Name},
		)
	}

	category := &models.QuestionCategory{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
	}
	if err := s.repo.QuestionCategory().Create(ctx, nil, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("Question category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

func (s *quizService) ListCategories(ctx context.Context) ([]*models.QuestionCategory, error) {
	categories, err := s.repo.QuestionCategory().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ===== STATISTICS =====

func (s *quizService) GetStats(ctx context.Context, id uint) (*repositories.QuizStats, error) {
	if _, err := s.repo.Quiz().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return s.repo.Quiz().GetStats(ctx, nil, id)
}
