package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
	"github.com/campus-hq/academics-service/internal/validator"
)

// SessionTokenHeader carries the opaque token that identifies an anonymous
// quiz taker across requests.
const SessionTokenHeader = "X-Session-Token"

type SittingHandler struct {
	BaseHandler
	sittingService services.SittingService
	validator      *validator.Validator
}

func NewSittingHandler(
	sittingService services.SittingService,
	validator *validator.Validator,
	logger utils.Logger,
) *SittingHandler {
	return &SittingHandler{
		BaseHandler:    NewBaseHandler(logger),
		sittingService: sittingService,
		validator:      validator,
	}
}

// sittingIdentity resolves who is taking the quiz. An authenticated student
// owns sittings by user ID; everyone else is identified by the session token
// header. At most one of the two return values is non-nil.
func sittingIdentity(c *gin.Context) (studentID *string, sessionToken *string) {
	if userID, err := GetUserIDFromContext(c); err == nil {
		if role, err := GetUserRoleFromContext(c); err == nil && role == models.RoleStudent {
			return &userID, nil
		}
	}
	if token := c.GetHeader(SessionTokenHeader); token != "" {
		return nil, &token
	}
	return nil, nil
}

// ===== TAKING =====

// StartSitting opens a new sitting on a published quiz
// @Summary Start sitting
// @Tags sittings
// @Accept json
// @Produce json
// @Param sitting body services.StartSittingRequest true "Quiz to start"
// @Success 201 {object} services.SittingResponse
// @Failure 409 {object} ErrorResponse
// @Router /sittings/start [post]
func (h *SittingHandler) StartSitting(c *gin.Context) {
	h.LogRequest(c, "Starting sitting")

	var req services.StartSittingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID, sessionToken := sittingIdentity(c)
	if req.SessionToken == nil && sessionToken != nil {
		req.SessionToken = sessionToken
	}

	sitting, err := h.sittingService.Start(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sitting)
}

// AnswerQuestion records an answer inside an in-progress sitting
// @Summary Answer question
// @Tags sittings
// @Accept json
// @Produce json
// @Param id path uint true "Sitting ID"
// @Param answer body services.AnswerRequest true "Answer payload"
// @Success 200 {object} services.AnswerResult
// @Failure 409 {object} ErrorResponse
// @Router /sittings/{id}/answer [post]
func (h *SittingHandler) AnswerQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Answering question", "sitting_id", id)

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID, sessionToken := sittingIdentity(c)

	result, err := h.sittingService.Answer(c.Request.Context(), id, &req, studentID, sessionToken)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResumeSitting reopens the caller's in-progress sitting on a quiz
// @Summary Resume sitting
// @Tags sittings
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.SittingResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id}/resume [post]
func (h *SittingHandler) ResumeSitting(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Resuming sitting", "quiz_id", quizID)

	studentID, sessionToken := sittingIdentity(c)

	sitting, err := h.sittingService.Resume(c.Request.Context(), quizID, studentID, sessionToken)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sitting)
}

// CompleteSitting finalizes a sitting and returns the scored result
// @Summary Complete sitting
// @Tags sittings
// @Produce json
// @Param id path uint true "Sitting ID"
// @Success 200 {object} services.SittingResult
// @Failure 409 {object} ErrorResponse
// @Router /sittings/{id}/complete [post]
func (h *SittingHandler) CompleteSitting(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Completing sitting", "sitting_id", id)

	studentID, sessionToken := sittingIdentity(c)

	result, err := h.sittingService.Complete(c.Request.Context(), id, studentID, sessionToken)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AbandonSitting discards a sitting without scoring it
// @Summary Abandon sitting
// @Tags sittings
// @Param id path uint true "Sitting ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /sittings/{id}/abandon [post]
func (h *SittingHandler) AbandonSitting(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Abandoning sitting", "sitting_id", id)

	studentID, sessionToken := sittingIdentity(c)

	if err := h.sittingService.Abandon(c.Request.Context(), id, studentID, sessionToken); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Sitting abandoned"})
}

// ===== REVIEW =====

// GetSitting retrieves a sitting by ID
// @Summary Get sitting
// @Tags sittings
// @Produce json
// @Param id path uint true "Sitting ID"
// @Success 200 {object} services.SittingResponse
// @Failure 404 {object} ErrorResponse
// @Router /sittings/{id} [get]
func (h *SittingHandler) GetSitting(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting sitting", "sitting_id", id)

	sitting, err := h.sittingService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sitting)
}

// GetSittingResult retrieves the scored result of a completed sitting
// @Summary Get sitting result
// @Tags sittings
// @Produce json
// @Param id path uint true "Sitting ID"
// @Success 200 {object} services.SittingResult
// @Failure 404 {object} ErrorResponse
// @Router /sittings/{id}/result [get]
func (h *SittingHandler) GetSittingResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting sitting result", "sitting_id", id)

	result, err := h.sittingService.GetResult(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStudentSittings lists a student's sittings
// @Summary Get student sittings
// @Tags sittings
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} map[string]interface{}
// @Router /students/{id}/sittings [get]
func (h *SittingHandler) GetStudentSittings(c *gin.Context) {
	studentID := c.Param("id")
	h.LogRequest(c, "Getting student sittings", "student_id", studentID)

	sittings, total, err := h.sittingService.GetByStudent(c.Request.Context(), studentID, h.sittingFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sittings": sittings,
		"total":    total,
	})
}

// GetQuizSittings lists sittings taken on a quiz
// @Summary Get quiz sittings
// @Tags sittings
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Router /quizzes/{id}/sittings [get]
func (h *SittingHandler) GetQuizSittings(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Getting quiz sittings", "quiz_id", quizID)

	sittings, total, err := h.sittingService.GetByQuiz(c.Request.Context(), quizID, h.sittingFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sittings": sittings,
		"total":    total,
	})
}

// GetSittingStats returns aggregate sitting statistics for a quiz
// @Summary Get sitting stats
// @Tags sittings
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} repositories.SittingStats
// @Router /quizzes/{id}/sittings/stats [get]
func (h *SittingHandler) GetSittingStats(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Getting sitting stats", "quiz_id", quizID)

	stats, err := h.sittingService.GetStats(c.Request.Context(), quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetProgress returns the calling student's quiz progress overview
// @Summary Get own progress
// @Tags sittings
// @Produce json
// @Success 200 {object} services.ProgressResponse
// @Failure 401 {object} ErrorResponse
// @Router /students/me/progress [get]
func (h *SittingHandler) GetProgress(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Getting student progress", "student_id", userID)

	progress, err := h.sittingService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *SittingHandler) sittingFilters(c *gin.Context) repositories.SittingFilters {
	limit, offset := parseLimitOffset(c)
	filters := repositories.SittingFilters{
		Limit:  limit,
		Offset: offset,
	}
	if status := c.Query("status"); status != "" {
		s := models.SittingStatus(status)
		filters.Status = &s
	}
	return filters
}
