package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
	"github.com/campus-hq/academics-service/internal/validator"
)

type ScoreHandler struct {
	BaseHandler
	scoreService services.ScoreService
	validator    *validator.Validator
}

func NewScoreHandler(
	scoreService services.ScoreService,
	validator *validator.Validator,
	logger utils.Logger,
) *ScoreHandler {
	return &ScoreHandler{
		BaseHandler:  NewBaseHandler(logger),
		scoreService: scoreService,
		validator:    validator,
	}
}

// SubmitScore records component scores for one enrollment and recomputes
// the derived grade. Components absent from the body keep their previous
// values.
// @Summary Submit scores
// @Tags scores
// @Accept json
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Param scores body services.SubmitScoreRequest true "Component scores"
// @Success 200 {object} services.ScoreResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /enrollments/{id}/score [put]
func (h *ScoreHandler) SubmitScore(c *gin.Context) {
	enrollmentID := h.parseIDParam(c, "id")
	if enrollmentID == 0 {
		return
	}

	var req services.SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	gradedBy, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Submitting scores", "enrollment_id", enrollmentID, "graded_by", gradedBy)

	score, err := h.scoreService.Submit(c.Request.Context(), enrollmentID, &req, gradedBy)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, score)
}

// GetScore returns the score record and derived grade for one enrollment
// @Summary Get score
// @Tags scores
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Success 200 {object} services.ScoreResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id}/score [get]
func (h *ScoreHandler) GetScore(c *gin.Context) {
	enrollmentID := h.parseIDParam(c, "id")
	if enrollmentID == 0 {
		return
	}

	h.LogRequest(c, "Getting score", "enrollment_id", enrollmentID)

	score, err := h.scoreService.GetByEnrollment(c.Request.Context(), enrollmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, score)
}

// DeleteScore removes the score record for one enrollment
// @Summary Delete score
// @Tags scores
// @Param id path uint true "Enrollment ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id}/score [delete]
func (h *ScoreHandler) DeleteScore(c *gin.Context) {
	enrollmentID := h.parseIDParam(c, "id")
	if enrollmentID == 0 {
		return
	}

	h.LogRequest(c, "Deleting score", "enrollment_id", enrollmentID)

	if err := h.scoreService.Delete(c.Request.Context(), enrollmentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetGradebook returns every score record for a course and semester with
// derived grades.
// @Summary Get gradebook
// @Tags scores
// @Produce json
// @Param id path uint true "Course ID"
// @Param semester_id query uint true "Semester ID"
// @Success 200 {array} services.ScoreResponse
// @Router /courses/{id}/gradebook [get]
func (h *ScoreHandler) GetGradebook(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	semesterID := parseUintQuery(c, "semester_id")
	if semesterID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "semester_id query parameter is required",
		})
		return
	}

	h.LogRequest(c, "Getting gradebook", "course_id", courseID, "semester_id", semesterID)

	gradebook, err := h.scoreService.GetGradebook(c.Request.Context(), courseID, semesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gradebook)
}

// GetGradePolicy exposes the grading policy in effect: component maxima,
// letter boundaries, point values and comment thresholds.
// @Summary Get grade policy
// @Tags scores
// @Produce json
// @Success 200 {object} services.GradeConfig
// @Router /grade-policy [get]
func (h *ScoreHandler) GetGradePolicy(c *gin.Context) {
	c.JSON(http.StatusOK, h.scoreService.GradeConfig())
}
