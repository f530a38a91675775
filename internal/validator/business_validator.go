package validator

import (
	"encoding/json"
	"fmt"

	"github.com/campus-hq/academics-service/internal/models"
)

// BusinessValidator checks the cross-field and state rules that struct
// tags cannot express.
type BusinessValidator struct {
	validator *Validator
}

func NewBusinessValidator(v *Validator) *BusinessValidator {
	return &BusinessValidator{validator: v}
}

// ValidateQuestionContent checks the type-specific content payload of a
// question.
func (bv *BusinessValidator) ValidateQuestionContent(questionType models.QuestionType, content json.RawMessage) ValidationErrors {
	var errors ValidationErrors

	switch questionType {
	case models.MultipleChoice:
		var mc models.MultipleChoiceContent
		if err := json.Unmarshal(content, &mc); err != nil {
			return ValidationErrors{{Field: "content", Message: "invalid multiple choice content", Rule: "content_shape"}}
		}
		if len(mc.Options) < 2 {
			errors = append(errors, ValidationError{
				Field: "content.options", Message: "multiple choice needs at least 2 options",
				Value: len(mc.Options), Rule: "business_logic",
			})
		}
		if len(mc.CorrectAnswers) == 0 {
			errors = append(errors, ValidationError{
				Field: "content.correct_answers", Message: "at least one correct answer is required",
				Rule: "business_logic",
			})
		}
		if !mc.MultipleCorrect && len(mc.CorrectAnswers) > 1 {
			errors = append(errors, ValidationError{
				Field: "content.correct_answers", Message: "single-answer question lists several correct answers",
				Value: len(mc.CorrectAnswers), Rule: "business_logic",
			})
		}
		optionIDs := make(map[string]bool, len(mc.Options))
		for _, opt := range mc.Options {
			optionIDs[opt.ID] = true
		}
		for _, correct := range mc.CorrectAnswers {
			if !optionIDs[correct] {
				errors = append(errors, ValidationError{
					Field: "content.correct_answers", Message: fmt.Sprintf("correct answer %q is not an option", correct),
					Value: correct, Rule: "business_logic",
				})
			}
		}

	case models.TrueFalse:
		var tf models.TrueFalseContent
		if err := json.Unmarshal(content, &tf); err != nil {
			return ValidationErrors{{Field: "content", Message: "invalid true/false content", Rule: "content_shape"}}
		}

	case models.Essay:
		var essay models.EssayContent
		if err := json.Unmarshal(content, &essay); err != nil {
			return ValidationErrors{{Field: "content", Message: "invalid essay content", Rule: "content_shape"}}
		}
		if essay.MinWords != nil && essay.MaxWords != nil && *essay.MinWords > *essay.MaxWords {
			errors = append(errors, ValidationError{
				Field: "content.min_words", Message: "min words exceeds max words",
				Value: *essay.MinWords, Rule: "business_logic",
			})
		}

	default:
		errors = append(errors, ValidationError{
			Field: "type", Message: "unknown question type",
			Value: questionType, Rule: "business_logic",
		})
	}

	return errors
}

// ValidateQuizStatusTransition enforces the quiz lifecycle:
// draft → published → archived, plus draft → archived.
func (bv *BusinessValidator) ValidateQuizStatusTransition(current, next models.QuizStatus, questionCount int) ValidationErrors {
	allowed := map[models.QuizStatus][]models.QuizStatus{
		models.QuizDraft:     {models.QuizPublished, models.QuizArchived},
		models.QuizPublished: {models.QuizArchived},
		models.QuizArchived:  {},
	}

	var errors ValidationErrors
	ok := false
	for _, s := range allowed[current] {
		if s == next {
			ok = true
			break
		}
	}
	if !ok {
		errors = append(errors, ValidationError{
			Field: "status", Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
			Value: next, Rule: "status_transition",
		})
	}

	if next == models.QuizPublished && questionCount == 0 {
		errors = append(errors, ValidationError{
			Field: "questions", Message: "quiz must have at least one question before publishing",
			Value: questionCount, Rule: "business_logic",
		})
	}

	return errors
}

// ValidateScoreComponents checks every submitted component against its
// configured maximum.
func (bv *BusinessValidator) ValidateScoreComponents(req *ScoreSubmitRequest, maxima map[string]float64) ValidationErrors {
	var errors ValidationErrors

	check := func(name string, value *float64) {
		if value == nil {
			return
		}
		if *value < 0 {
			errors = append(errors, ValidationError{
				Field: name, Message: "score must not be negative", Value: *value, Rule: "score_range",
			})
			return
		}
		if max, ok := maxima[name]; ok && *value > max {
			errors = append(errors, ValidationError{
				Field: name, Message: fmt.Sprintf("score exceeds maximum %v", max), Value: *value, Rule: "score_range",
			})
		}
	}

	check("attendance", req.Attendance)
	check("assignment", req.Assignment)
	check("mid_exam", req.MidExam)
	check("quiz", req.Quiz)
	check("final_exam", req.FinalExam)

	return errors
}
