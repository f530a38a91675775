package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
	"github.com/campus-hq/academics-service/internal/validator"
)

// ErrorResponse is the uniform error body returned by every endpoint.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler shares: logging and the
// service-error to HTTP-status mapping.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.LoggerFromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

// parseIDParam parses a positive uint path parameter. It writes the 400
// response itself and returns 0 so callers can bail with a plain check.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: fmt.Sprintf("invalid %s parameter", name),
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// handleServiceError translates service-layer errors into HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Field-level validation failures, both flavors
	var fieldErrs *services.ValidationErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: "request failed validation",
			Details: fieldErrs.Errors,
		})
		return
	}
	var fieldErr *services.ValidationError
	if errors.As(err, &fieldErr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: fieldErr.Message,
			Details: []services.ValidationError{*fieldErr},
		})
		return
	}
	var tagErrs validator.ValidationErrors
	if errors.As(err, &tagErrs) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: "request failed validation",
			Details: tagErrs,
		})
		return
	}

	var ruleErr *services.BusinessRuleError
	if errors.As(err, &ruleErr) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   ruleErr.Code,
			Message: ruleErr.Message,
			Details: ruleErr.Details,
		})
		return
	}

	var stateErr *services.InvalidStateError
	if errors.As(err, &stateErr) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_state",
			Message: stateErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrStudentNotFound),
		errors.Is(err, services.ErrLecturerNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrSemesterNotFound),
		errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrEnrollmentNotFound),
		errors.Is(err, services.ErrScoreRecordNotFound),
		errors.Is(err, services.ErrQuizNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrSittingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrCourseCodeTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrEnrollmentExists),
		errors.Is(err, services.ErrNotAllocated),
		errors.Is(err, services.ErrQuizSlugTaken),
		errors.Is(err, services.ErrQuestionInUse),
		errors.Is(err, services.ErrQuizNotPublished),
		errors.Is(err, services.ErrQuizHasNoQuestions),
		errors.Is(err, services.ErrSittingCompleted),
		errors.Is(err, services.ErrSittingNotResumable),
		errors.Is(err, services.ErrAttemptLimitExceeded),
		errors.Is(err, services.ErrQuestionNotInSitting),
		errors.Is(err, services.ErrAlreadyAnswered):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	default:
		utils.LoggerFromContext(c.Request.Context(), h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an unexpected error occurred",
		})
	}
}

// parseLimitOffset reads pagination query parameters with sane bounds.
func parseLimitOffset(c *gin.Context) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
