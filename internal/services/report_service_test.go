package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"gorm.io/gorm"
)

// ===== COURSE / STUDENT / SEMESTER FAKES =====

type fakeCourseRepo struct{ f *fakeRepo }

func (r *fakeCourseRepo) Create(_ context.Context, _ *gorm.DB, course *models.Course) error {
	r.f.courses[course.ID] = course
	return nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Course, error) {
	course, ok := r.f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *course
	return &copied, nil
}

func (r *fakeCourseRepo) GetBySlug(_ context.Context, _ *gorm.DB, slug string) (*models.Course, error) {
	for _, course := range r.f.courses {
		if course.Slug == slug {
			copied := *course
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCourseRepo) GetByCode(_ context.Context, _ *gorm.DB, code string) (*models.Course, error) {
	for _, course := range r.f.courses {
		if course.Code == code {
			copied := *course
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCourseRepo) Update(_ context.Context, _ *gorm.DB, course *models.Course) error {
	if _, ok := r.f.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *course
	r.f.courses[course.ID] = &copied
	return nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	delete(r.f.courses, id)
	return nil
}

func (r *fakeCourseRepo) List(_ context.Context, _ *gorm.DB, _ repositories.CourseFilters) ([]*models.Course, int64, error) {
	return nil, 0, nil
}

func (r *fakeCourseRepo) Search(_ context.Context, _ *gorm.DB, _ string, _ repositories.CourseFilters) ([]*models.Course, int64, error) {
	return nil, 0, nil
}

func (r *fakeCourseRepo) GetByLecturer(_ context.Context, _ *gorm.DB, _ string, _ uint) ([]*models.Course, error) {
	return nil, nil
}

func (r *fakeCourseRepo) GetStats(_ context.Context, _ *gorm.DB, _, _ uint) (*repositories.CourseStats, error) {
	return nil, nil
}

func (r *fakeCourseRepo) ExistsByCode(_ context.Context, _ *gorm.DB, code string, excludeID *uint) (bool, error) {
	for _, course := range r.f.courses {
		if course.Code == code && (excludeID == nil || course.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

type fakeStudentRepo struct{ f *fakeRepo }

func (r *fakeStudentRepo) Create(_ context.Context, _ *gorm.DB, student *models.Student) error {
	r.f.students[student.UserID] = student
	return nil
}

func (r *fakeStudentRepo) GetByID(_ context.Context, _ *gorm.DB, userID string) (*models.Student, error) {
	student, ok := r.f.students[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *student
	return &copied, nil
}

func (r *fakeStudentRepo) GetByIDWithUser(ctx context.Context, tx *gorm.DB, userID string) (*models.Student, error) {
	return r.GetByID(ctx, tx, userID)
}

func (r *fakeStudentRepo) Update(_ context.Context, _ *gorm.DB, student *models.Student) error {
	if _, ok := r.f.students[student.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *student
	r.f.students[student.UserID] = &copied
	return nil
}

func (r *fakeStudentRepo) Delete(_ context.Context, _ *gorm.DB, userID string) error {
	delete(r.f.students, userID)
	return nil
}

func (r *fakeStudentRepo) List(_ context.Context, _ *gorm.DB, _ repositories.StudentFilters) ([]*models.Student, int64, error) {
	return nil, 0, nil
}

func (r *fakeStudentRepo) GetByProgram(_ context.Context, _ *gorm.DB, _ string, _ repositories.StudentFilters) ([]*models.Student, int64, error) {
	return nil, 0, nil
}

func (r *fakeStudentRepo) Search(_ context.Context, _ *gorm.DB, _ string, _ repositories.StudentFilters) ([]*models.Student, int64, error) {
	return nil, 0, nil
}

func (r *fakeStudentRepo) ExistsByID(_ context.Context, _ *gorm.DB, userID string) (bool, error) {
	_, ok := r.f.students[userID]
	return ok, nil
}

type fakeSemesterRepo struct{ f *fakeRepo }

func (r *fakeSemesterRepo) Create(_ context.Context, _ *gorm.DB, semester *models.Semester) error {
	r.f.semesters[semester.ID] = semester
	return nil
}

func (r *fakeSemesterRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Semester, error) {
	semester, ok := r.f.semesters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *semester
	return &copied, nil
}

func (r *fakeSemesterRepo) GetCurrent(_ context.Context, _ *gorm.DB) (*models.Semester, error) {
	for _, semester := range r.f.semesters {
		if semester.IsCurrent {
			copied := *semester
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSemesterRepo) Update(_ context.Context, _ *gorm.DB, semester *models.Semester) error {
	if _, ok := r.f.semesters[semester.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *semester
	r.f.semesters[semester.ID] = &copied
	return nil
}

func (r *fakeSemesterRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	delete(r.f.semesters, id)
	return nil
}

func (r *fakeSemesterRepo) List(_ context.Context, _ *gorm.DB) ([]*models.Semester, error) {
	var out []*models.Semester
	for _, semester := range r.f.semesters {
		copied := *semester
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeSemesterRepo) SetCurrent(_ context.Context, _ *gorm.DB, id uint) error {
	if _, ok := r.f.semesters[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, semester := range r.f.semesters {
		semester.IsCurrent = semester.ID == id
	}
	return nil
}

// ===== TESTS =====

func newTestReportService(f *fakeRepo, cfg GradeConfig) ReportService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReportService(nil, f, logger, cfg)
}

func TestReportService_CourseGradebook(t *testing.T) {
	f := newFakeRepo()
	f.courses[2] = &models.Course{ID: 2, Code: "MTH101", Title: "Calculus", Credit: 3}
	f.scores[1] = &models.ScoreRecord{
		ID: 1, EnrollmentID: 1, StudentID: "student-1", CourseID: 2, SemesterID: 3,
		Attendance: floatPtr(9), Assignment: floatPtr(8), MidExam: floatPtr(27),
		Quiz: floatPtr(8), FinalExam: floatPtr(38),
	}
	f.scores[2] = &models.ScoreRecord{
		ID: 2, EnrollmentID: 2, StudentID: "student-2", CourseID: 2, SemesterID: 3,
		Attendance: floatPtr(5), Assignment: floatPtr(5), MidExam: floatPtr(20),
		Quiz: floatPtr(5),
	}

	svc := newTestReportService(f, DefaultGradeConfig())

	book, err := svc.CourseGradebook(context.Background(), 2, 3)
	if err != nil {
		t.Fatalf("CourseGradebook: %v", err)
	}

	want := map[string]string{
		"A1": "MTH101 - Calculus",
		"A2": "Student ID",
		"G2": "Total",
		"A3": "student-1",
		"G3": "90",
		"H3": "A+",
		"I3": "4",
		"J3": "pass",
		"A4": "student-2",
		"F4": "", // final exam not submitted
		"G4": "35",
		"H4": "F",
		"J4": "fail",
	}
	for cell, expected := range want {
		got, err := book.GetCellValue("Gradebook", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != expected {
			t.Errorf("cell %s = %q, want %q", cell, got, expected)
		}
	}
}

func TestReportService_CourseGradebook_WithholdPolicy(t *testing.T) {
	f := newFakeRepo()
	f.courses[2] = &models.Course{ID: 2, Code: "MTH101", Title: "Calculus", Credit: 3}
	f.scores[1] = &models.ScoreRecord{
		ID: 1, EnrollmentID: 1, StudentID: "student-1", CourseID: 2, SemesterID: 3,
		Attendance: floatPtr(5), Assignment: floatPtr(5), MidExam: floatPtr(20),
	}

	cfg := DefaultGradeConfig()
	cfg.MissingPolicy = MissingWithhold
	svc := newTestReportService(f, cfg)

	book, err := svc.CourseGradebook(context.Background(), 2, 3)
	if err != nil {
		t.Fatalf("CourseGradebook: %v", err)
	}

	remark, err := book.GetCellValue("Gradebook", "J3")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if remark != "withheld" {
		t.Errorf("remark = %q, want %q", remark, "withheld")
	}
	for _, cell := range []string{"G3", "H3", "I3"} {
		got, err := book.GetCellValue("Gradebook", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != "" {
			t.Errorf("cell %s = %q, want empty for withheld row", cell, got)
		}
	}
}

func TestReportService_CourseGradebook_UnknownCourse(t *testing.T) {
	svc := newTestReportService(newFakeRepo(), DefaultGradeConfig())

	_, err := svc.CourseGradebook(context.Background(), 99, 3)
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestReportService_StudentResultSheet(t *testing.T) {
	f := newFakeRepo()
	f.students["student-1"] = &models.Student{
		UserID: "student-1",
		User:   models.User{ID: "student-1", FullName: "Ada Obi"},
	}
	f.semesters[3] = &models.Semester{ID: 3, Session: "2025/2026", Term: models.TermFirst}
	f.scores[1] = &models.ScoreRecord{
		ID: 1, EnrollmentID: 1, StudentID: "student-1", CourseID: 2, SemesterID: 3,
		Attendance: floatPtr(9), Assignment: floatPtr(8), MidExam: floatPtr(27),
		Quiz: floatPtr(8), FinalExam: floatPtr(38),
		Course: models.Course{ID: 2, Code: "MTH101", Title: "Calculus", Credit: 3},
	}
	f.scores[2] = &models.ScoreRecord{
		ID: 2, EnrollmentID: 2, StudentID: "student-1", CourseID: 4, SemesterID: 3,
		Attendance: floatPtr(5), Assignment: floatPtr(5), MidExam: floatPtr(15),
		Quiz: floatPtr(5), FinalExam: floatPtr(25),
		Course: models.Course{ID: 4, Code: "PHY102", Title: "Mechanics", Credit: 2},
	}

	svc := newTestReportService(f, DefaultGradeConfig())

	book, err := svc.StudentResultSheet(context.Background(), "student-1", 3)
	if err != nil {
		t.Fatalf("StudentResultSheet: %v", err)
	}

	// 90 on 3 credits (A+, 4.0) and 55 on 2 credits (C, 2.0): GPA 3.2.
	want := map[string]string{
		"A1": "Ada Obi",
		"A2": "2025/2026 first semester",
		"A4": "Course",
		"A5": "Calculus",
		"B5": "MTH101",
		"D5": "90",
		"E5": "A+",
		"A6": "Mechanics",
		"D6": "55",
		"E6": "C",
		"A8": "GPA",
		"B8": "3.2",
		"A9": "CGPA",
		"B9": "3.2",
	}
	for cell, expected := range want {
		got, err := book.GetCellValue("Result", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != expected {
			t.Errorf("cell %s = %q, want %q", cell, got, expected)
		}
	}
}

func TestReportService_StudentResultSheet_UnknownStudent(t *testing.T) {
	f := newFakeRepo()
	f.semesters[3] = &models.Semester{ID: 3, Session: "2025/2026", Term: models.TermFirst}
	svc := newTestReportService(f, DefaultGradeConfig())

	_, err := svc.StudentResultSheet(context.Background(), "ghost", 3)
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("err = %v, want ErrStudentNotFound", err)
	}
}

func TestReportService_QuizResultSheet(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)

	completedAt := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	f.sittings[1] = &models.Sitting{
		ID: 1, QuizID: 10, StudentID: strPtr("student-1"), AttemptNumber: 1,
		Status:       models.SittingCompleted,
		CurrentScore: 3, MaxScore: 4, Percent: 75, Passed: true,
		CompletedAt: &completedAt,
	}
	f.sittings[2] = &models.Sitting{
		ID: 2, QuizID: 10, StudentID: strPtr("student-2"), AttemptNumber: 1,
		Status: models.SittingInProgress,
	}

	svc := newTestReportService(f, DefaultGradeConfig())

	book, err := svc.QuizResultSheet(context.Background(), 10)
	if err != nil {
		t.Fatalf("QuizResultSheet: %v", err)
	}

	want := map[string]string{
		"A1": "Midterm practice",
		"A2": "Taker",
		"A3": "student-1",
		"C3": "3",
		"D3": "4",
		"E3": "75",
		"F3": "TRUE",
		"G3": "2026-03-10 14:30:00",
		"A4": "", // in-progress sitting is excluded
	}
	for cell, expected := range want {
		got, err := book.GetCellValue("Sittings", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != expected {
			t.Errorf("cell %s = %q, want %q", cell, got, expected)
		}
	}
}

func TestReportService_QuizResultSheet_AnonymousTaker(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)

	completedAt := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	f.sittings[1] = &models.Sitting{
		ID: 1, QuizID: 10, SessionToken: strPtr("session-1"), AttemptNumber: 1,
		Status:       models.SittingCompleted,
		CurrentScore: 1, MaxScore: 4, Percent: 25, Passed: false,
		CompletedAt: &completedAt,
	}

	svc := newTestReportService(f, DefaultGradeConfig())

	book, err := svc.QuizResultSheet(context.Background(), 10)
	if err != nil {
		t.Fatalf("QuizResultSheet: %v", err)
	}

	taker, err := book.GetCellValue("Sittings", "A3")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if taker != "anonymous" {
		t.Errorf("taker = %q, want %q", taker, "anonymous")
	}
}
