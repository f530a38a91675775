package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
	"github.com/campus-hq/academics-service/internal/validator"
)

type StudentHandler struct {
	BaseHandler
	studentService services.StudentService
	validator      *validator.Validator
}

func NewStudentHandler(
	studentService services.StudentService,
	validator *validator.Validator,
	logger utils.Logger,
) *StudentHandler {
	return &StudentHandler{
		BaseHandler:    NewBaseHandler(logger),
		studentService: studentService,
		validator:      validator,
	}
}

// CreateStudent registers a new student account with its academic profile
// @Summary Create student
// @Tags students
// @Accept json
// @Produce json
// @Param student body services.CreateStudentRequest true "Student data"
// @Success 201 {object} models.Student
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	h.LogRequest(c, "Creating student")

	var req services.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// GetStudent retrieves a student profile with CGPA
// @Summary Get student
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} services.StudentResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Getting student", "student_id", id)

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// UpdateStudent updates a student profile
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param student body services.UpdateStudentRequest true "Update data"
// @Success 200 {object} models.Student
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [put]
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Updating student", "student_id", id)

	var req services.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// DeleteStudent removes a student account and profile
// @Summary Delete student
// @Tags students
// @Param id path string true "Student ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [delete]
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting student", "student_id", id)

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListStudents lists students with optional filters
// @Summary List students
// @Tags students
// @Produce json
// @Param program query string false "Filter by program"
// @Param level query string false "Filter by level"
// @Param query query string false "Search in name and email"
// @Success 200 {object} services.StudentListResponse
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	h.LogRequest(c, "Listing students")

	limit, offset := parseLimitOffset(c)
	filters := repositories.StudentFilters{
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

	students, err := h.studentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}

// GetSemesterResult returns one student's result for a semester: per-course
// grades plus GPA, CGPA and credit totals.
// @Summary Get semester result
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Param semester_id path uint true "Semester ID"
// @Success 200 {object} models.SemesterResult
// @Failure 404 {object} ErrorResponse
// @Router /students/{id}/results/{semester_id} [get]
func (h *StudentHandler) GetSemesterResult(c *gin.Context) {
	id := c.Param("id")
	semesterID := h.parseIDParam(c, "semester_id")
	if semesterID == 0 {
		return
	}

	h.LogRequest(c, "Getting semester result", "student_id", id, "semester_id", semesterID)

	result, err := h.studentService.GetSemesterResult(c.Request.Context(), id, semesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCGPA returns a student's cumulative GPA across all semesters
// @Summary Get CGPA
// @Tags students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} map[string]float64
// @Failure 404 {object} ErrorResponse
// @Router /students/{id}/cgpa [get]
func (h *StudentHandler) GetCGPA(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Getting CGPA", "student_id", id)

	cgpa, err := h.studentService.GetCGPA(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"student_id": id, "cgpa": cgpa})
}

// studentIDForResults resolves which student the caller may read: students
// only see themselves, lecturers and admins may name anyone.
func studentIDForResults(c *gin.Context, pathID string) (string, bool) {
	role, err := GetUserRoleFromContext(c)
	if err != nil {
		return "", false
	}
	if role == models.RoleStudent {
		userID, err := GetUserIDFromContext(c)
		if err != nil || userID != pathID {
			return "", false
		}
	}
	return pathID, true
}

// RequireSelfOrStaff blocks students from reading other students' records.
func (h *StudentHandler) RequireSelfOrStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := studentIDForResults(c, c.Param("id")); !ok {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "forbidden",
				Message: "students may only access their own records",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func parseUintQuery(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
