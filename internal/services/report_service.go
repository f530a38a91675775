package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type reportService struct {
	db          *gorm.DB
	repo        repositories.Repository
	logger      *slog.Logger
	gradeConfig GradeConfig
}

func NewReportService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, cfg GradeConfig) ReportService {
	return &reportService{
		db:          db,
		repo:        repo,
		logger:      logger,
		gradeConfig: cfg,
	}
}

// CourseGradebook exports one sheet with a row per enrolled student and
// their component scores plus the derived grade.
func (s *reportService) CourseGradebook(ctx context.Context, courseID, semesterID uint) (*excelize.File, error) {
	s.logger.Info("Exporting course gradebook", "course_id", courseID, "semester_id", semesterID)

	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	records, err := s.repo.Score().GetByCourseSemester(ctx, nil, courseID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get score records: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Gradebook"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	title := fmt.Sprintf("%s - %s", course.Code, course.Title)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, fmt.Errorf("failed to write title: %w", err)
	}

	headers := []string{"Student ID", "Attendance", "Assignment", "Mid Exam", "Quiz", "Final Exam", "Total", "Letter", "Point", "Remark"}
	if err := writeRow(f, sheet, 2, headers); err != nil {
		return nil, err
	}

	for i, record := range records {
		row := []interface{}{
			record.StudentID,
			cellFloat(record.Attendance),
			cellFloat(record.Assignment),
			cellFloat(record.MidExam),
			cellFloat(record.Quiz),
			cellFloat(record.FinalExam),
		}

		grade, err := CalculateGrade(record, s.gradeConfig)
		if err != nil {
			if !IsWithheld(err) {
				return nil, err
			}
			row = append(row, "", "", "", "withheld")
		} else {
			row = append(row, grade.Total, string(grade.Letter), grade.Point, string(grade.Comment))
		}

		if err := writeRowValues(f, sheet, i+3, row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// StudentResultSheet exports one student's semester result, one row per
// course, with GPA and CGPA summary rows at the bottom.
func (s *reportService) StudentResultSheet(ctx context.Context, studentID string, semesterID uint) (*excelize.File, error) {
	s.logger.Info("Exporting student result sheet", "student_id", studentID, "semester_id", semesterID)

	student, err := s.repo.Student().GetByIDWithUser(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	semester, err := s.repo.Semester().GetByID(ctx, nil, semesterID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSemesterNotFound
		}
		return nil, fmt.Errorf("failed to get semester: %w", err)
	}

	records, err := s.repo.Score().GetByStudentSemester(ctx, nil, studentID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get score records: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Result"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetCellValue(sheet, "A1", student.User.FullName); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellValue(sheet, "A2", fmt.Sprintf("%s %s semester", semester.Session, semester.Term)); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	headers := []string{"Course", "Code", "Credit", "Total", "Letter", "Point", "Remark"}
	if err := writeRow(f, sheet, 4, headers); err != nil {
		return nil, err
	}

	grades := make([]CourseGrade, 0, len(records))
	row := 5
	for _, record := range records {
		cells := []interface{}{record.Course.Title, record.Course.Code, record.Course.Credit}

		grade, err := CalculateGrade(record, s.gradeConfig)
		if err != nil {
			if !IsWithheld(err) {
				return nil, err
			}
			cells = append(cells, "", "", "", "withheld")
		} else {
			cells = append(cells, grade.Total, string(grade.Letter), grade.Point, string(grade.Comment))
			grades = append(grades, CourseGrade{Credit: record.Course.Credit, Point: grade.Point})
		}

		if err := writeRowValues(f, sheet, row, cells); err != nil {
			return nil, err
		}
		row++
	}

	cgpa, err := s.cgpa(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if err := writeRowValues(f, sheet, row+1, []interface{}{"GPA", CalculateGPA(grades)}); err != nil {
		return nil, err
	}
	if err := writeRowValues(f, sheet, row+2, []interface{}{"CGPA", cgpa}); err != nil {
		return nil, err
	}

	return f, nil
}

// QuizResultSheet exports every completed sitting of a quiz.
func (s *reportService) QuizResultSheet(ctx context.Context, quizID uint) (*excelize.File, error) {
	s.logger.Info("Exporting quiz result sheet", "quiz_id", quizID)

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	completed := models.SittingCompleted
	sittings, _, err := s.repo.Sitting().GetByQuiz(ctx, nil, quizID, repositories.SittingFilters{
		Status: &completed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get sittings: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Sittings"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetCellValue(sheet, "A1", quiz.Title); err != nil {
		return nil, fmt.Errorf("failed to write title: %w", err)
	}

	headers := []string{"Taker", "Attempt", "Score", "Max Score", "Percent", "Passed", "Completed At"}
	if err := writeRow(f, sheet, 2, headers); err != nil {
		return nil, err
	}

	for i, sitting := range sittings {
		taker := "anonymous"
		if sitting.StudentID != nil {
			taker = *sitting.StudentID
		}
		completedAt := ""
		if sitting.CompletedAt != nil {
			completedAt = sitting.CompletedAt.Format("2006-01-02 15:04:05")
		}

		cells := []interface{}{
			taker,
			sitting.AttemptNumber,
			sitting.CurrentScore,
			sitting.MaxScore,
			sitting.Percent,
			sitting.Passed,
			completedAt,
		}
		if err := writeRowValues(f, sheet, i+3, cells); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func (s *reportService) cgpa(ctx context.Context, studentID string) (float64, error) {
	records, err := s.repo.Score().GetByStudent(ctx, nil, studentID)
	if err != nil {
		return 0, fmt.Errorf("failed to get score records: %w", err)
	}

	grades := make([]CourseGrade, 0, len(records))
	for _, record := range records {
		grade, err := CalculateGrade(record, s.gradeConfig)
		if err != nil {
			if IsWithheld(err) {
				continue
			}
			return 0, err
		}
		grades = append(grades, CourseGrade{Credit: record.Course.Credit, Point: grade.Point})
	}
	return CalculateGPA(grades), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return writeRowValues(f, sheet, row, cells)
}

func writeRowValues(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

// cellFloat renders an optional score: empty cell when unsubmitted.
func cellFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
