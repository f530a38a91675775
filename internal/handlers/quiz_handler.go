package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
	"github.com/campus-hq/academics-service/internal/validator"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
	validator   *validator.Validator
}

func NewQuizHandler(
	quizService services.QuizService,
	validator *validator.Validator,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
		validator:   validator,
	}
}

// ===== QUIZ CRUD =====

// CreateQuiz creates a draft quiz, optionally with an initial question list
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.CreateQuizRequest true "Quiz data"
// @Success 201 {object} services.QuizResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	h.LogRequest(c, "Creating quiz")

	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz retrieves a quiz by ID
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting quiz", "quiz_id", id)

	quiz, err := h.quizService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetQuizBySlug retrieves a quiz by its URL slug
// @Summary Get quiz by slug
// @Tags quizzes
// @Produce json
// @Param slug path string true "Quiz slug"
// @Success 200 {object} services.QuizResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/slug/{slug} [get]
func (h *QuizHandler) GetQuizBySlug(c *gin.Context) {
	slug := c.Param("slug")
	h.LogRequest(c, "Getting quiz by slug", "slug", slug)

	quiz, err := h.quizService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// UpdateQuiz updates quiz settings; archived quizzes are immutable
// @Summary Update quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param quiz body services.UpdateQuizRequest true "Update data"
// @Success 200 {object} services.QuizResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating quiz", "quiz_id", id)

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz removes a quiz that has no sittings
// @Summary Delete quiz
// @Tags quizzes
// @Param id path uint true "Quiz ID"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", id)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListQuizzes lists quizzes with optional filters
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param course_id query uint false "Filter by course"
// @Param query query string false "Search in title"
// @Success 200 {object} services.QuizListResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	h.LogRequest(c, "Listing quizzes")

	filters := h.quizFilters(c)

	quizzes, err := h.quizService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// GetCourseQuizzes lists quizzes attached to a course
// @Summary Get course quizzes
// @Tags quizzes
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.QuizListResponse
// @Router /courses/{id}/quizzes [get]
func (h *QuizHandler) GetCourseQuizzes(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	h.LogRequest(c, "Getting course quizzes", "course_id", courseID)

	quizzes, err := h.quizService.GetByCourse(c.Request.Context(), courseID, h.quizFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) quizFilters(c *gin.Context) repositories.QuizFilters {
	limit, offset := parseLimitOffset(c)
	filters := repositories.QuizFilters{
		Query:  c.Query("query"),
		Limit:  limit,
		Offset: offset,
	}
	if status := c.Query("status"); status != "" {
		s := models.QuizStatus(status)
		filters.Status = &s
	}
	if category := c.Query("category"); category != "" {
		cat := models.QuizCategory(category)
		filters.Category = &cat
	}
	if courseID := parseUintQuery(c, "course_id"); courseID != 0 {
		filters.CourseID = &courseID
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		filters.CreatedBy = &createdBy
	}
	return filters
}

// ===== LIFECYCLE =====

// PublishQuiz moves a draft quiz with at least one question to published
// @Summary Publish quiz
// @Tags quizzes
// @Param id path uint true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{id}/publish [post]
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	h.transition(c, "Publishing quiz", h.quizService.Publish)
}

// ArchiveQuiz retires a quiz; archived quizzes cannot be taken or edited
// @Summary Archive quiz
// @Tags quizzes
// @Param id path uint true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{id}/archive [post]
func (h *QuizHandler) ArchiveQuiz(c *gin.Context) {
	h.transition(c, "Archiving quiz", h.quizService.Archive)
}

func (h *QuizHandler) transition(c *gin.Context, msg string, fn func(ctx context.Context, id uint, userID string) error) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, msg, "quiz_id", id)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	if err := fn(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz status updated"})
}

// ===== QUIZ QUESTION MANAGEMENT =====

// AddQuizQuestion attaches a question to a draft quiz
// @Summary Add question to quiz
// @Tags quizzes
// @Accept json
// @Param id path uint true "Quiz ID"
// @Param question body services.QuizQuestionRequest true "Question attachment"
// @Success 201 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuizQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Adding question to quiz", "quiz_id", id)

	var req services.QuizQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.AddQuestion(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Message: "Question added to quiz"})
}

// RemoveQuizQuestion detaches a question from a draft quiz
// @Summary Remove question from quiz
// @Tags quizzes
// @Param id path uint true "Quiz ID"
// @Param question_id path uint true "Question ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/questions/{question_id} [delete]
func (h *QuizHandler) RemoveQuizQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	h.LogRequest(c, "Removing question from quiz", "quiz_id", id, "question_id", questionID)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.RemoveQuestion(c.Request.Context(), id, questionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReorderQuizQuestions replaces the question order of a draft quiz
// @Summary Reorder quiz questions
// @Tags quizzes
// @Accept json
// @Param id path uint true "Quiz ID"
// @Param order body object true "Question ID order"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{id}/questions/reorder [put]
func (h *QuizHandler) ReorderQuizQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Reordering quiz questions", "quiz_id", id)

	var req struct {
		QuestionIDs []uint `json:"question_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.ReorderQuestions(c.Request.Context(), id, req.QuestionIDs, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Questions reordered"})
}

// GetQuizStats returns aggregate sitting statistics for a quiz
// @Summary Get quiz stats
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} repositories.QuizStats
// @Router /quizzes/{id}/stats [get]
func (h *QuizHandler) GetQuizStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting quiz stats", "quiz_id", id)

	stats, err := h.quizService.GetStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ===== QUESTION BANK =====

// CreateQuestion adds a question to the shared question bank
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} services.QuestionResponse
// @Failure 422 {object} ErrorResponse
// @Router /questions [post]
func (h *QuizHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	question, err := h.quizService.CreateQuestion(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion retrieves a bank question with its category
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} services.QuestionResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuizHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting question", "question_id", id)

	question, err := h.quizService.GetQuestion(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// UpdateQuestion edits a bank question; content edits are rejected while
// the question is attached to any quiz.
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Update data"
// @Success 200 {object} services.QuestionResponse
// @Failure 409 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	question, err := h.quizService.UpdateQuestion(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes an unused bank question
// @Summary Delete question
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	if err := h.quizService.DeleteQuestion(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListQuestions lists bank questions with optional filters
// @Summary List questions
// @Tags questions
// @Produce json
// @Param type query string false "Filter by question type"
// @Param category_id query uint false "Filter by category"
// @Success 200 {object} services.QuestionListResponse
// @Router /questions [get]
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	h.LogRequest(c, "Listing questions")

	limit, offset := parseLimitOffset(c)
	filters := repositories.QuestionFilters{
		Limit:  limit,
		Offset: offset,
	}
	if qtype := c.Query("type"); qtype != "" {
		t := models.QuestionType(qtype)
		filters.Type = &t
	}
	if categoryID := parseUintQuery(c, "category_id"); categoryID != 0 {
		filters.CategoryID = &categoryID
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		filters.CreatedBy = &createdBy
	}

	questions, err := h.quizService.ListQuestions(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// ===== CATEGORIES =====

// CreateCategory adds a question category
// @Summary Create category
// @Tags questions
// @Accept json
// @Produce json
// @Param category body services.CreateCategoryRequest true "Category data"
// @Success 201 {object} models.QuestionCategory
// @Failure 409 {object} ErrorResponse
// @Router /question-categories [post]
func (h *QuizHandler) CreateCategory(c *gin.Context) {
	h.LogRequest(c, "Creating question category")

	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	category, err := h.quizService.CreateCategory(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// ListCategories lists question categories
// @Summary List categories
// @Tags questions
// @Produce json
// @Success 200 {array} models.QuestionCategory
// @Router /question-categories [get]
func (h *QuizHandler) ListCategories(c *gin.Context) {
	h.LogRequest(c, "Listing question categories")

	categories, err := h.quizService.ListCategories(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}
