package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"gorm.io/datatypes"
)

// sittingIdentity is who a sitting belongs to: exactly one of the two
// fields is set.
type sittingIdentity struct {
	studentID    *string
	sessionToken *string
}

// resolveIdentity turns the caller's credentials into a sitting identity.
// Anonymous callers without a token get a fresh Redis session when
// issueSession is set; an unknown or expired token is ErrSessionExpired on
// Start and ErrSittingNotFound on Resume paths (the caller maps it).
func (s *sittingService) resolveIdentity(ctx context.Context, studentID *string, sessionToken *string, issueSession bool) (sittingIdentity, error) {
	if studentID != nil {
		return sittingIdentity{studentID: studentID}, nil
	}

	if sessionToken != nil {
		_, err := s.repo.Session().Get(ctx, *sessionToken)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				if issueSession {
					return sittingIdentity{}, ErrSessionExpired
				}
				return sittingIdentity{}, ErrSittingNotFound
			}
			return sittingIdentity{}, fmt.Errorf("failed to resolve session: %w", err)
		}
		return sittingIdentity{sessionToken: sessionToken}, nil
	}

	if !issueSession {
		return sittingIdentity{}, ErrSittingNotFound
	}

	session, err := s.repo.Session().Create(ctx)
	if err != nil {
		return sittingIdentity{}, fmt.Errorf("failed to create session: %w", err)
	}
	return sittingIdentity{sessionToken: &session.Token}, nil
}

func (s *sittingService) findActive(ctx context.Context, quizID uint, identity sittingIdentity) (*models.Sitting, error) {
	if identity.studentID != nil {
		return s.repo.Sitting().GetActiveByStudent(ctx, nil, quizID, *identity.studentID)
	}
	return s.repo.Sitting().GetActiveBySession(ctx, nil, quizID, *identity.sessionToken)
}

func (s *sittingService) countCompleted(ctx context.Context, quizID uint, identity sittingIdentity) (int64, error) {
	if identity.studentID != nil {
		return s.repo.Sitting().CountCompletedByStudent(ctx, nil, quizID, *identity.studentID)
	}
	return s.repo.Sitting().CountCompletedBySession(ctx, nil, quizID, *identity.sessionToken)
}

// loadOwnedSitting loads the sitting with its quiz and verifies the caller
// owns it. Anonymous ownership also requires the session to still exist.
func (s *sittingService) loadOwnedSitting(ctx context.Context, sittingID uint, studentID *string, sessionToken *string) (*models.Sitting, *models.Quiz, error) {
	sitting, err := s.repo.Sitting().GetByIDWithQuiz(ctx, nil, sittingID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrSittingNotFound
		}
		return nil, nil, fmt.Errorf("failed to get sitting: %w", err)
	}

	switch {
	case studentID != nil:
		if sitting.StudentID == nil || *sitting.StudentID != *studentID {
			return nil, nil, ErrSittingNotFound
		}
	case sessionToken != nil:
		if sitting.SessionToken == nil || *sitting.SessionToken != *sessionToken {
			return nil, nil, ErrSittingNotFound
		}
		if _, err := s.repo.Session().Get(ctx, *sessionToken); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, nil, ErrSittingNotFound
			}
			return nil, nil, fmt.Errorf("failed to resolve session: %w", err)
		}
	default:
		return nil, nil, ErrSittingNotFound
	}

	return sitting, &sitting.Quiz, nil
}

// materializeOrder fixes the question sequence for one attempt and returns
// it together with the attempt's maximum score.
func materializeOrder(quiz *models.Quiz) ([]uint, int) {
	order := make([]uint, 0, len(quiz.Questions))
	maxScore := 0
	for _, qq := range quiz.Questions {
		order = append(order, qq.QuestionID)
		maxScore += quizQuestionPoints(&qq)
	}

	if quiz.RandomizeOrder {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order, maxScore
}

func quizQuestionPoints(qq *models.QuizQuestion) int {
	if qq.Points != nil {
		return *qq.Points
	}
	return qq.Question.Points
}

// effectivePoints returns the quiz-level point override when one exists,
// the question's own points otherwise.
func (s *sittingService) effectivePoints(ctx context.Context, quizID uint, question *models.Question) (int, error) {
	links, err := s.repo.QuizQuestion().GetByQuiz(ctx, nil, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to get quiz questions: %w", err)
	}
	for _, link := range links {
		if link.QuestionID == question.ID {
			if link.Points != nil {
				return *link.Points, nil
			}
			return question.Points, nil
		}
	}
	return question.Points, nil
}

// gradeAnswer marks one answer. Multiple choice and true/false are marked
// against the stored content; essays come back ungraded (nil correctness,
// zero score) for later manual review.
func gradeAnswer(question *models.Question, given json.RawMessage, points int) (float64, *bool, error) {
	switch question.Type {
	case models.MultipleChoice:
		return gradeMultipleChoice(question, given, points)
	case models.TrueFalse:
		return gradeTrueFalse(question, given, points)
	case models.Essay:
		return 0, nil, nil
	default:
		return 0, nil, NewValidationError("type", "unknown question type", string(question.Type))
	}
}

func gradeMultipleChoice(question *models.Question, given json.RawMessage, points int) (float64, *bool, error) {
	var content models.MultipleChoiceContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		return 0, nil, fmt.Errorf("malformed multiple choice content for question %d: %w", question.ID, err)
	}

	selected, err := decodeSelection(given)
	if err != nil {
		return 0, nil, err
	}

	correct := sameSet(selected, content.CorrectAnswers)
	score := 0.0
	if correct {
		score = float64(points)
	}
	return score, &correct, nil
}

func gradeTrueFalse(question *models.Question, given json.RawMessage, points int) (float64, *bool, error) {
	var content models.TrueFalseContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		return 0, nil, fmt.Errorf("malformed true/false content for question %d: %w", question.ID, err)
	}

	var answer bool
	if err := json.Unmarshal(given, &answer); err != nil {
		return 0, nil, NewValidationError("answer", "true/false answer must be a boolean", string(given))
	}

	correct := answer == content.CorrectAnswer
	score := 0.0
	if correct {
		score = float64(points)
	}
	return score, &correct, nil
}

// decodeSelection accepts either a single option id or a list of them.
func decodeSelection(given json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(given, &single); err == nil {
		return []string{single}, nil
	}
	var many []string
	if err := json.Unmarshal(given, &many); err == nil {
		return many, nil
	}
	return nil, NewValidationError("answer", "answer must be an option id or a list of option ids", string(given))
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[strings.TrimSpace(v)] = true
	}
	for _, v := range b {
		if !set[strings.TrimSpace(v)] {
			return false
		}
	}
	return true
}

func decodeOrder(raw datatypes.JSON) ([]uint, error) {
	var order []uint
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("malformed question order: %w", err)
	}
	return order, nil
}

func decodeAnswers(raw datatypes.JSON) ([]models.SittingAnswer, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var answers []models.SittingAnswer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("malformed answer sequence: %w", err)
	}
	return answers, nil
}

func containsID(order []uint, id uint) bool {
	for _, v := range order {
		if v == id {
			return true
		}
	}
	return false
}

// nextUnansweredIndex finds the position of the first question in order that
// has no answer yet; len(order) when everything is answered.
func nextUnansweredIndex(order []uint, answers []models.SittingAnswer) int {
	answered := make(map[uint]bool, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = true
	}
	for i, id := range order {
		if !answered[id] {
			return i
		}
	}
	return len(order)
}

// progressUser keys category progress: account id for students, session
// token for anonymous takers.
func progressUser(sitting *models.Sitting) string {
	if sitting.StudentID != nil {
		return *sitting.StudentID
	}
	if sitting.SessionToken != nil {
		return *sitting.SessionToken
	}
	return ""
}

func progressCategory(question *models.Question) string {
	if question.Category != nil {
		return question.Category.Name
	}
	return "uncategorized"
}

// questionAt builds the taker-facing view of the question at position index
// in the order, with the stored correct answer stripped.
func (s *sittingService) questionAt(ctx context.Context, quiz *models.Quiz, order []uint, answers []models.SittingAnswer, index int) (*SittingQuestion, error) {
	if index < 0 || index >= len(order) {
		return nil, nil
	}

	question, err := s.repo.Question().GetByID(ctx, nil, order[index])
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

	answered := false
	for _, a := range answers {
		if a.QuestionID == question.ID {
			answered = true
			break
		}
	}

	return &SittingQuestion{
		QuestionID: question.ID,
		Type:       question.Type,
		Text:       question.Text,
		Content:    stripCorrectAnswers(question),
		Points:     points,
		Index:      index,
		IsLast:     index == len(order)-1,
		Answered:   answered,
	}, nil
}

// stripCorrectAnswers rebuilds the content payload without the fields that
// would give the answer away.
func stripCorrectAnswers(question *models.Question) json.RawMessage {
	switch question.Type {
	case models.MultipleChoice:
		var content models.MultipleChoiceContent
		if err := json.Unmarshal(question.Content, &content); err != nil {
			return nil
		}
		sanitized := struct {
			Options         []models.MCOption  `json:"options"`
			MultipleCorrect bool               `json:"multiple_correct"`
			ChoiceOrder     models.ChoiceOrder `json:"choice_order"`
		}{content.Options, content.MultipleCorrect, content.ChoiceOrder}
		if content.ChoiceOrder == models.ChoiceOrderRandom {
			rand.Shuffle(len(sanitized.Options), func(i, j int) {
				sanitized.Options[i], sanitized.Options[j] = sanitized.Options[j], sanitized.Options[i]
			})
		}
		out, err := json.Marshal(sanitized)
		if err != nil {
			return nil
		}
		return out

	case models.TrueFalse:
		var content models.TrueFalseContent
		if err := json.Unmarshal(question.Content, &content); err != nil {
			return nil
		}
		sanitized := struct {
			TrueLabel  *string `json:"true_label"`
			FalseLabel *string `json:"false_label"`
		}{content.TrueLabel, content.FalseLabel}
		out, err := json.Marshal(sanitized)
		if err != nil {
			return nil
		}
		return out

	default:
		return json.RawMessage(question.Content)
	}
}

// buildResponse assembles the taker's view of a sitting, including the next
// question to answer and, for anonymous takers, the session token they need
// for every later call.
func (s *sittingService) buildResponse(ctx context.Context, sitting *models.Sitting, quiz *models.Quiz, identity sittingIdentity) (*SittingResponse, error) {
	resp := &SittingResponse{
		Sitting:      sitting,
		SessionToken: identity.sessionToken,
		CanResume:    sitting.Status == models.SittingInProgress || sitting.Status == models.SittingAbandoned,
	}

	if sitting.Status == models.SittingInProgress {
		order, err := decodeOrder(sitting.QuestionOrder)
		if err != nil {
			return nil, err
		}
		answers, err := decodeAnswers(sitting.Answers)
		if err != nil {
			return nil, err
		}
		index := nextUnansweredIndex(order, answers)
		if index < len(order) {
			next, err := s.questionAt(ctx, quiz, order, answers, index)
			if err != nil {
				return nil, err
			}
			resp.NextQuestion = next
		}
	}

	return resp, nil
}

func (s *sittingService) buildResult(sitting *models.Sitting) (*SittingResult, error) {
	answers, err := decodeAnswers(sitting.Answers)
	if err != nil {
		return nil, err
	}

	result := &SittingResult{
		SittingID: sitting.ID,
		QuizID:    sitting.QuizID,
		Score:     sitting.CurrentScore,
		MaxScore:  sitting.MaxScore,
		Percent:   sitting.Percent,
		Passed:    sitting.Passed,
		Answers:   answers,
	}
	if sitting.CompletedAt != nil {
		result.CompletedAt = *sitting.CompletedAt
	}
	return result, nil
}
