package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
	"github.com/campus-hq/academics-service/internal/validator"
)

type LecturerHandler struct {
	BaseHandler
	lecturerService services.LecturerService
	validator       *validator.Validator
}

func NewLecturerHandler(
	lecturerService services.LecturerService,
	validator *validator.Validator,
	logger utils.Logger,
) *LecturerHandler {
	return &LecturerHandler{
		BaseHandler:     NewBaseHandler(logger),
		lecturerService: lecturerService,
		validator:       validator,
	}
}

// CreateLecturer registers a new lecturer account with its profile
// @Summary Create lecturer
// @Tags lecturers
// @Accept json
// @Produce json
// @Param lecturer body services.CreateLecturerRequest true "Lecturer data"
// @Success 201 {object} models.Lecturer
// @Failure 409 {object} ErrorResponse
// @Router /lecturers [post]
func (h *LecturerHandler) CreateLecturer(c *gin.Context) {
	h.LogRequest(c, "Creating lecturer")

	var req services.CreateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	lecturer, err := h.lecturerService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lecturer)
}

// GetLecturer retrieves a lecturer profile
// @Summary Get lecturer
// @Tags lecturers
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 200 {object} models.Lecturer
// @Failure 404 {object} ErrorResponse
// @Router /lecturers/{id} [get]
func (h *LecturerHandler) GetLecturer(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Getting lecturer", "lecturer_id", id)

	lecturer, err := h.lecturerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lecturer)
}

// UpdateLecturer updates a lecturer profile
// @Summary Update lecturer
// @Tags lecturers
// @Accept json
// @Produce json
// @Param id path string true "Lecturer ID"
// @Param lecturer body services.UpdateLecturerRequest true "Update data"
// @Success 200 {object} models.Lecturer
// @Failure 404 {object} ErrorResponse
// @Router /lecturers/{id} [put]
func (h *LecturerHandler) UpdateLecturer(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Updating lecturer", "lecturer_id", id)

	var req services.UpdateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	lecturer, err := h.lecturerService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lecturer)
}

// DeleteLecturer removes a lecturer account and profile
// @Summary Delete lecturer
// @Tags lecturers
// @Param id path string true "Lecturer ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /lecturers/{id} [delete]
func (h *LecturerHandler) DeleteLecturer(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting lecturer", "lecturer_id", id)

	if err := h.lecturerService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListLecturers lists lecturers with optional filters
// @Summary List lecturers
// @Tags lecturers
// @Produce json
// @Param department query string false "Filter by department"
// @Param query query string false "Search in name and email"
// @Success 200 {object} services.LecturerListResponse
// @Router /lecturers [get]
func (h *LecturerHandler) ListLecturers(c *gin.Context) {
	h.LogRequest(c, "Listing lecturers")

	limit, offset := parseLimitOffset(c)
	filters := repositories.LecturerFilters{
		Query:  c.Query("query"),
		Limit:  limit,
		Offset: offset,
	}
	if department := c.Query("department"); department != "" {
		filters.Department = &department
	}

	lecturers, err := h.lecturerService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lecturers)
}

// GetLecturerCourses returns the courses allocated to a lecturer for a
// semester.
// @Summary Get lecturer courses
// @Tags lecturers
// @Produce json
// @Param id path string true "Lecturer ID"
// @Param semester_id query uint true "Semester ID"
// @Success 200 {array} models.Course
// @Failure 404 {object} ErrorResponse
// @Router /lecturers/{id}/courses [get]
func (h *LecturerHandler) GetLecturerCourses(c *gin.Context) {
	id := c.Param("id")
	semesterID := parseUintQuery(c, "semester_id")
	if semesterID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "semester_id query parameter is required",
		})
		return
	}

	h.LogRequest(c, "Getting lecturer courses", "lecturer_id", id, "semester_id", semesterID)

	courses, err := h.lecturerService.GetCourses(c.Request.Context(), id, semesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}
