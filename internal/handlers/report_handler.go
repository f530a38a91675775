package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
	}
}

// CourseGradebookReport streams a course gradebook as an xlsx download
// @Summary Download course gradebook
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Course ID"
// @Param semester_id query uint true "Semester ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /reports/courses/{id}/gradebook [get]
func (h *ReportHandler) CourseGradebookReport(c *gin.Context) {
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

	h.LogRequest(c, "Exporting course gradebook", "course_id", courseID, "semester_id", semesterID)

	file, err := h.reportService.CourseGradebook(c.Request.Context(), courseID, semesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendXLSX(c, file, fmt.Sprintf("gradebook-%d-%d.xlsx", courseID, semesterID))
}

// StudentResultReport streams a student semester result sheet as xlsx
// @Summary Download student result sheet
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Student ID"
// @Param semester_id path uint true "Semester ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /reports/students/{id}/results/{semester_id} [get]
func (h *ReportHandler) StudentResultReport(c *gin.Context) {
	studentID := c.Param("id")
	semesterID := h.parseIDParam(c, "semester_id")
	if semesterID == 0 {
		return
	}

	h.LogRequest(c, "Exporting student result sheet", "student_id", studentID, "semester_id", semesterID)

	file, err := h.reportService.StudentResultSheet(c.Request.Context(), studentID, semesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendXLSX(c, file, fmt.Sprintf("result-%s-%d.xlsx", studentID, semesterID))
}

// QuizResultReport streams completed quiz sittings as xlsx
// @Summary Download quiz results
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Quiz ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /reports/quizzes/{id}/results [get]
func (h *ReportHandler) QuizResultReport(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	h.LogRequest(c, "Exporting quiz results", "quiz_id", quizID)

	file, err := h.reportService.QuizResultSheet(c.Request.Context(), quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendXLSX(c, file, fmt.Sprintf("quiz-results-%d.xlsx", quizID))
}

func (h *ReportHandler) sendXLSX(c *gin.Context, file *excelize.File, filename string) {
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if _, err := file.WriteTo(c.Writer); err != nil {
		// Headers are already out at this point, so just record the failure.
		h.logger.Error("Failed to stream xlsx report", "filename", filename, "error", err)
	}
}
