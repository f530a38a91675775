package services

import (
	"context"
	"fmt"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
)

// getOwnedQuiz loads the quiz and enforces ownership for mutating actions.
func (s *quizService) getOwnedQuiz(ctx context.Context, id uint, userID, action string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "quiz", action, "not the quiz owner")
	}
	return quiz, nil
}

// buildQuestionLinks resolves the requested questions and turns them into
// join rows. Unknown question ids fail the whole batch.
func (s *quizService) buildQuestionLinks(ctx context.Context, quizID uint, reqs []QuizQuestionRequest) ([]*models.QuizQuestion, error) {
	ids := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.QuestionID)
	}

	questions, err := s.repo.Question().GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve questions: %w", err)
	}
	found := make(map[uint]bool, len(questions))
	for _, q := range questions {
		found[q.ID] = true
	}

	links := make([]*models.QuizQuestion, 0, len(reqs))
	for _, r := range reqs {
		if !found[r.QuestionID] {
			return nil, fmt.Errorf("%w: question %d", ErrQuestionNotFound, r.QuestionID)
		}
		links = append(links, &models.QuizQuestion{
			QuizID:     quizID,
			QuestionID: r.QuestionID,
			Order:      r.Order,
			Points:     r.Points,
		})
	}
	return links, nil
}

func applyQuizUpdates(quiz *models.Quiz, req *UpdateQuizRequest) {
	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.Category != nil {
		quiz.Category = *req.Category
	}
	if req.RandomizeOrder != nil {
		quiz.RandomizeOrder = *req.RandomizeOrder
	}
	if req.ShowCorrectAnswers != nil {
		quiz.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}
	if req.PassMark != nil {
		quiz.PassMark = *req.PassMark
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
}

func (s *quizService) buildQuizResponse(ctx context.Context, quiz *models.Quiz) (*QuizResponse, error) {
	count, err := s.repo.QuizQuestion().CountByQuiz(ctx, nil, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	quiz.QuestionsCount = int(count)

	maxScore, err := s.repo.QuizQuestion().TotalPoints(ctx, nil, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to total points: %w", err)
	}
	quiz.MaxScore = maxScore

	stats, err := s.repo.Sitting().GetStats(ctx, nil, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sitting stats: %w", err)
	}
	if stats != nil {
		quiz.SittingCount = stats.TotalSittings
		quiz.AvgPercent = stats.AveragePercent
	}

	return &QuizResponse{
		Quiz:      quiz,
		CanEdit:   quiz.Status != models.QuizArchived,
		CanDelete: quiz.SittingCount == 0,
		CanTake:   quiz.Status == models.QuizPublished && quiz.QuestionsCount > 0,
	}, nil
}

func (s *quizService) buildQuizListResponse(ctx context.Context, quizzes []*models.Quiz, total int64, filters repositories.QuizFilters) (*QuizListResponse, error) {
	responses := make([]*QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		resp, err := s.buildQuizResponse(ctx, quiz)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return &QuizListResponse{
		Quizzes: responses,
		Total:   total,
		Page:    pageFromOffset(filters.Offset, filters.Limit),
		Size:    filters.Limit,
	}, nil
}

func (s *quizService) buildQuestionResponse(ctx context.Context, question *models.Question) (*QuestionResponse, error) {
	used, err := s.repo.Question().IsUsedInQuizzes(ctx, nil, question.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check question usage: %w", err)
	}
	return &QuestionResponse{Question: question, InUse: used}, nil
}

// pageFromOffset converts offset/limit pagination into a 1-based page
// number for responses.
func pageFromOffset(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}
