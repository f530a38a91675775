package validator

import (
	"regexp"
	"time"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	courseCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	sessionPattern    = regexp.MustCompile(`^\d{4}/\d{4}$`)
)

// registerDomainRules wires the custom struct-tag rules used across DTOs.
func registerDomainRules(v *validator.Validate) {
	v.RegisterValidation("pass_mark", func(fl validator.FieldLevel) bool {
		mark := fl.Field().Float()
		return mark >= 0 && mark <= 100
	})

	v.RegisterValidation("max_attempts", func(fl validator.FieldLevel) bool {
		attempts := fl.Field().Int()
		return attempts >= 1 && attempts <= 10
	})

	v.RegisterValidation("score_value", func(fl validator.FieldLevel) bool {
		score := fl.Field().Float()
		return score >= 0 && score <= 100
	})

	v.RegisterValidation("course_code", func(fl validator.FieldLevel) bool {
		return courseCodePattern.MatchString(fl.Field().String())
	})

	v.RegisterValidation("semester_session", func(fl validator.FieldLevel) bool {
		return sessionPattern.MatchString(fl.Field().String())
	})

	v.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		date, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return date.After(time.Now())
	})

	v.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.MultipleChoice, models.TrueFalse, models.Essay:
			return true
		}
		return false
	})

	v.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})
}
