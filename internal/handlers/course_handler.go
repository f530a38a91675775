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

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
	validator     *validator.Validator
}

func NewCourseHandler(
	courseService services.CourseService,
	validator *validator.Validator,
	logger utils.Logger,
) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
		validator:     validator,
	}
}

// ===== SEMESTERS =====

// CreateSemester opens a new academic semester
// @Summary Create semester
// @Tags semesters
// @Accept json
// @Produce json
// @Param semester body services.CreateSemesterRequest true "Semester data"
// @Success 201 {object} models.Semester
// @Router /semesters [post]
func (h *CourseHandler) CreateSemester(c *gin.Context) {
	h.LogRequest(c, "Creating semester")

	var req services.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	semester, err := h.courseService.CreateSemester(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, semester)
}

// ListSemesters lists every semester
// @Summary List semesters
// @Tags semesters
// @Produce json
// @Success 200 {array} models.Semester
// @Router /semesters [get]
func (h *CourseHandler) ListSemesters(c *gin.Context) {
	h.LogRequest(c, "Listing semesters")

	semesters, err := h.courseService.ListSemesters(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, semesters)
}

// GetCurrentSemester returns the semester marked current
// @Summary Get current semester
// @Tags semesters
// @Produce json
// @Success 200 {object} models.Semester
// @Failure 404 {object} ErrorResponse
// @Router /semesters/current [get]
func (h *CourseHandler) GetCurrentSemester(c *gin.Context) {
	h.LogRequest(c, "Getting current semester")

	semester, err := h.courseService.GetCurrentSemester(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, semester)
}

// SetCurrentSemester marks one semester as current
// @Summary Set current semester
// @Tags semesters
// @Param id path uint true "Semester ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /semesters/{id}/current [put]
func (h *CourseHandler) SetCurrentSemester(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Setting current semester", "semester_id", id)

	if err := h.courseService.SetCurrentSemester(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Current semester updated"})
}

// ===== COURSES =====

// CreateCourse adds a course to the catalog
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} models.Course
// @Failure 409 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	h.LogRequest(c, "Creating course")

	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse retrieves a course with its current enrollment count
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting course", "course_id", id)

	course, err := h.courseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// GetCourseBySlug retrieves a course by its URL slug
// @Summary Get course by slug
// @Tags courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/slug/{slug} [get]
func (h *CourseHandler) GetCourseBySlug(c *gin.Context) {
	slug := c.Param("slug")
	h.LogRequest(c, "Getting course by slug", "slug", slug)

	course, err := h.courseService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// UpdateCourse updates catalog fields of a course
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param course body services.UpdateCourseRequest true "Update data"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", id)

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse removes a course that has no current enrollments
// @Summary Delete course
// @Tags courses
// @Param id path uint true "Course ID"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", id)

	if err := h.courseService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListCourses lists catalog courses with optional filters
// @Summary List courses
// @Tags courses
// @Produce json
// @Param program query string false "Filter by program"
// @Param level query string false "Filter by level"
// @Param term query string false "Filter by term"
// @Param query query string false "Search in title and code"
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	h.LogRequest(c, "Listing courses")

	limit, offset := parseLimitOffset(c)
	filters := repositories.CourseFilters{
		Query:  c.Query("query"),
		Limit:  limit,
		Offset: offset,
	}
	if program := c.Query("program"); program != "" {
		filters.Program = &program
	}
	if level := c.Query("level"); level != "" {
		l := models.StudentLevel(level)
		filters.Level = &l
	}
	if term := c.Query("term"); term != "" {
		t := models.SemesterTerm(term)
		filters.Term = &t
	}

	courses, err := h.courseService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// ===== ALLOCATION =====

// AllocateCourse assigns a course to a lecturer for a semester
// @Summary Allocate course
// @Tags courses
// @Accept json
// @Param allocation body services.AllocateCourseRequest true "Allocation data"
// @Success 201 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /allocations [post]
func (h *CourseHandler) AllocateCourse(c *gin.Context) {
	h.LogRequest(c, "Allocating course")

	var req services.AllocateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.courseService.Allocate(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Message: "Course allocated"})
}

// DeallocateCourse removes a lecturer's course allocation
// @Summary Deallocate course
// @Tags courses
// @Param lecturer_id path string true "Lecturer ID"
// @Param course_id query uint true "Course ID"
// @Param semester_id query uint true "Semester ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /allocations/{lecturer_id} [delete]
func (h *CourseHandler) DeallocateCourse(c *gin.Context) {
	lecturerID := c.Param("lecturer_id")
	courseID := parseUintQuery(c, "course_id")
	semesterID := parseUintQuery(c, "semester_id")
	if courseID == 0 || semesterID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "course_id and semester_id query parameters are required",
		})
		return
	}

	h.LogRequest(c, "Deallocating course", "lecturer_id", lecturerID, "course_id", courseID)

	if err := h.courseService.Deallocate(c.Request.Context(), lecturerID, courseID, semesterID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== ENROLLMENT =====

// Enroll adds the calling student to a course in the current semester
// @Summary Enroll in course
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 201 {object} models.Enrollment
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	studentID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Enrolling student", "student_id", studentID, "course_id", courseID)

	enrollment, err := h.courseService.Enroll(c.Request.Context(), studentID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// Drop removes the calling student from a course in the current semester,
// deleting any score record alongside.
// @Summary Drop course
// @Tags enrollments
// @Param id path uint true "Course ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/enroll [delete]
func (h *CourseHandler) Drop(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	studentID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Dropping course", "student_id", studentID, "course_id", courseID)

	if err := h.courseService.Drop(c.Request.Context(), studentID, courseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetEnrollments lists a student's enrollments for a semester
// @Summary Get student enrollments
// @Tags enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param semester_id query uint true "Semester ID"
// @Success 200 {array} services.EnrollmentResponse
// @Router /students/{id}/enrollments [get]
func (h *CourseHandler) GetEnrollments(c *gin.Context) {
	studentID := c.Param("id")
	semesterID := parseUintQuery(c, "semester_id")
	if semesterID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "semester_id query parameter is required",
		})
		return
	}

	h.LogRequest(c, "Getting enrollments", "student_id", studentID, "semester_id", semesterID)

	enrollments, err := h.courseService.GetEnrollments(c.Request.Context(), studentID, semesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// GetCourseRoster lists students enrolled in a course for a semester
// @Summary Get course roster
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Param semester_id query uint true "Semester ID"
// @Success 200 {array} models.Enrollment
// @Router /courses/{id}/roster [get]
func (h *CourseHandler) GetCourseRoster(c *gin.Context) {
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

	h.LogRequest(c, "Getting course roster", "course_id", courseID, "semester_id", semesterID)

	roster, err := h.courseService.GetCourseRoster(c.Request.Context(), courseID, semesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}
