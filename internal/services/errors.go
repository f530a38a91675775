package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP statuses with errors.Is.
var (
	// Academic domain
	ErrStudentNotFound    = errors.New("student not found")
	ErrLecturerNotFound   = errors.New("lecturer not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSemesterNotFound   = errors.New("semester not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseCodeTaken    = errors.New("course code already in use")
	ErrEmailTaken         = errors.New("email already in use")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrEnrollmentExists   = errors.New("student already enrolled in course for semester")
	ErrNotAllocated       = errors.New("lecturer not allocated to course")

	// Result domain
	ErrScoreRecordNotFound = errors.New("score record not found")
	ErrGradeWithheld       = errors.New("grade withheld: not all score components submitted")

	// Quiz domain
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuizNotPublished     = errors.New("quiz is not published")
	ErrQuizHasNoQuestions   = errors.New("quiz has no questions")
	ErrQuizSlugTaken        = errors.New("quiz slug already in use")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionInUse        = errors.New("question is used in quizzes")
	ErrCategoryNotFound     = errors.New("question category not found")
	ErrSittingNotFound      = errors.New("sitting not found")
	ErrSittingCompleted     = errors.New("sitting is already completed")
	ErrSittingNotResumable  = errors.New("sitting cannot be resumed")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded for quiz")
	ErrSessionExpired       = errors.New("anonymous session expired or unknown")
	ErrQuestionNotInSitting = errors.New("question is not part of the sitting")
	ErrAlreadyAnswered      = errors.New("question already answered in this sitting")

	// Access control
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ValidationErrors aggregates several field failures into one error.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("validation failed with %d errors", len(e.Errors))
}

func (e *ValidationErrors) Add(field, message string, value interface{}) {
	e.Errors = append(e.Errors, ValidationError{Field: field, Message: message, Value: value})
}

func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// BusinessRuleError signals a domain rule violation with a stable code the
// client can branch on.
type BusinessRuleError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBusinessRuleError(code, message string, details map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Code: code, Message: message, Details: details}
}

// PermissionError carries who tried what on which resource.
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// InvalidStateError signals an operation that is illegal in the entity's
// current lifecycle state.
type InvalidStateError struct {
	Entity       string `json:"entity"`
	EntityID     uint   `json:"entity_id"`
	CurrentState string `json:"current_state"`
	Action       string `json:"action"`
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in state %s", e.Action, e.Entity, e.EntityID, e.CurrentState)
}

func NewInvalidStateError(entity string, entityID uint, currentState, action string) *InvalidStateError {
	return &InvalidStateError{
		Entity:       entity,
		EntityID:     entityID,
		CurrentState: currentState,
		Action:       action,
	}
}
