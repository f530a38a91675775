package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/campus-hq/academics-service/internal/events"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/validator"
	"gorm.io/gorm"
)

type fakeEnrollmentRepo struct{ f *fakeRepo }

func (r *fakeEnrollmentRepo) Create(_ context.Context, _ *gorm.DB, enrollment *models.Enrollment) error {
	r.f.enrollments[enrollment.ID] = enrollment
	return nil
}

func (r *fakeEnrollmentRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Enrollment, error) {
	enrollment, ok := r.f.enrollments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (r *fakeEnrollmentRepo) Get(_ context.Context, _ *gorm.DB, studentID string, courseID, semesterID uint) (*models.Enrollment, error) {
	for _, e := range r.f.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && e.SemesterID == semesterID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEnrollmentRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	delete(r.f.enrollments, id)
	return nil
}

func (r *fakeEnrollmentRepo) GetByStudent(_ context.Context, _ *gorm.DB, _ string, _ uint) ([]*models.Enrollment, error) {
	return nil, nil
}
func (r *fakeEnrollmentRepo) GetByCourse(_ context.Context, _ *gorm.DB, _, _ uint) ([]*models.Enrollment, error) {
	return nil, nil
}
func (r *fakeEnrollmentRepo) CountByCourse(_ context.Context, _ *gorm.DB, _, _ uint) (int64, error) {
	return 0, nil
}
func (r *fakeEnrollmentRepo) Exists(_ context.Context, _ *gorm.DB, _ string, _, _ uint) (bool, error) {
	return false, nil
}

type fakeScoreRepo struct{ f *fakeRepo }

func (r *fakeScoreRepo) Create(_ context.Context, _ *gorm.DB, record *models.ScoreRecord) error {
	r.f.nextScoreID++
	record.ID = r.f.nextScoreID
	stored := *record
	r.f.scores[record.ID] = &stored
	return nil
}

func (r *fakeScoreRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.ScoreRecord, error) {
	record, ok := r.f.scores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (r *fakeScoreRepo) GetByEnrollment(_ context.Context, _ *gorm.DB, enrollmentID uint) (*models.ScoreRecord, error) {
	for _, record := range r.f.scores {
		if record.EnrollmentID == enrollmentID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeScoreRepo) Get(_ context.Context, _ *gorm.DB, studentID string, courseID, semesterID uint) (*models.ScoreRecord, error) {
	for _, record := range r.f.scores {
		if record.StudentID == studentID && record.CourseID == courseID && record.SemesterID == semesterID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeScoreRepo) Update(_ context.Context, _ *gorm.DB, record *models.ScoreRecord) error {
	if _, ok := r.f.scores[record.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *record
	r.f.scores[record.ID] = &stored
	return nil
}

func (r *fakeScoreRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	delete(r.f.scores, id)
	return nil
}

func (r *fakeScoreRepo) List(_ context.Context, _ *gorm.DB, _ repositories.ScoreFilters) ([]*models.ScoreRecord, int64, error) {
	return nil, 0, nil
}

func (r *fakeScoreRepo) GetByStudentSemester(_ context.Context, _ *gorm.DB, studentID string, semesterID uint) ([]*models.ScoreRecord, error) {
	var out []*models.ScoreRecord
	for _, record := range r.f.scores {
		if record.StudentID == studentID && record.SemesterID == semesterID {
			out = append(out, record)
		}
	}
	sortScoreRecords(out)
	return out, nil
}

func (r *fakeScoreRepo) GetByStudent(_ context.Context, _ *gorm.DB, studentID string) ([]*models.ScoreRecord, error) {
	var out []*models.ScoreRecord
	for _, record := range r.f.scores {
		if record.StudentID == studentID {
			out = append(out, record)
		}
	}
	sortScoreRecords(out)
	return out, nil
}

func (r *fakeScoreRepo) GetByCourseSemester(_ context.Context, _ *gorm.DB, courseID, semesterID uint) ([]*models.ScoreRecord, error) {
	var out []*models.ScoreRecord
	for _, record := range r.f.scores {
		if record.CourseID == courseID && record.SemesterID == semesterID {
			out = append(out, record)
		}
	}
	sortScoreRecords(out)
	return out, nil
}

func sortScoreRecords(records []*models.ScoreRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

func newTestScoreService(f *fakeRepo, cfg GradeConfig) (ScoreService, *events.MockEventPublisher) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	return NewScoreService(nil, f, logger, validator.New(), publisher, cfg), publisher
}

func seedEnrollment(f *fakeRepo) *models.Enrollment {
	enrollment := &models.Enrollment{ID: 1, StudentID: "student-1", CourseID: 2, SemesterID: 3}
	f.enrollments[1] = enrollment
	return enrollment
}

func TestScoreService_Submit_ComputesGrade(t *testing.T) {
	f := newFakeRepo()
	seedEnrollment(f)
	svc, publisher := newTestScoreService(f, DefaultGradeConfig())
	ctx := context.Background()

	// 9 + 8 + 25 + 8 + 40 = 90 on the default scale.
	req := &SubmitScoreRequest{
		Attendance: floatPtr(9),
		Assignment: floatPtr(8),
		MidExam:    floatPtr(25),
		Quiz:       floatPtr(8),
		FinalExam:  floatPtr(40),
	}

	resp, err := svc.Submit(ctx, 1, req, "lecturer-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.Grade == nil {
		t.Fatal("expected a computed grade")
	}
	if resp.Grade.Total != 90 || resp.Grade.Letter != models.GradeAPlus {
		t.Errorf("grade = %.1f %s, want 90 A+", resp.Grade.Total, resp.Grade.Letter)
	}
	if resp.GradedBy == nil || *resp.GradedBy != "lecturer-1" {
		t.Error("grader not recorded")
	}

	// The derived snapshot is persisted alongside the components.
	stored := f.scores[resp.ScoreRecord.ID]
	if stored.Total == nil || *stored.Total != 90 {
		t.Errorf("stored total = %v, want 90", stored.Total)
	}
	if stored.Letter == nil || *stored.Letter != models.GradeAPlus {
		t.Errorf("stored letter = %v, want A+", stored.Letter)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventGradeComputed {
		t.Fatalf("published = %v, want one grade_computed event", published)
	}
}

func TestScoreService_Submit_PartialKeepsEarlierComponents(t *testing.T) {
	f := newFakeRepo()
	seedEnrollment(f)
	svc, _ := newTestScoreService(f, DefaultGradeConfig())
	ctx := context.Background()

	if _, err := svc.Submit(ctx, 1, &SubmitScoreRequest{Attendance: floatPtr(10)}, "lecturer-1"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	resp, err := svc.Submit(ctx, 1, &SubmitScoreRequest{FinalExam: floatPtr(45)}, "lecturer-1")
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	if resp.Attendance == nil || *resp.Attendance != 10 {
		t.Error("second submission clobbered the attendance score")
	}
	if resp.FinalExam == nil || *resp.FinalExam != 45 {
		t.Error("final exam score not applied")
	}
	if len(f.scores) != 1 {
		t.Errorf("%d score records stored, want 1 per enrollment", len(f.scores))
	}
	// Zero-filled default policy: 10 + 0 + 0 + 0 + 45.
	if resp.Grade == nil || resp.Grade.Total != 55 {
		t.Errorf("grade = %+v, want total 55", resp.Grade)
	}
}

func TestScoreService_Submit_WithholdPolicy(t *testing.T) {
	f := newFakeRepo()
	seedEnrollment(f)
	cfg := DefaultGradeConfig()
	cfg.MissingPolicy = MissingWithhold
	svc, publisher := newTestScoreService(f, cfg)
	ctx := context.Background()

	resp, err := svc.Submit(ctx, 1, &SubmitScoreRequest{Attendance: floatPtr(10)}, "lecturer-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.Grade != nil {
		t.Errorf("grade = %+v, want withheld until all components are in", resp.Grade)
	}

	stored := f.scores[resp.ScoreRecord.ID]
	if stored.Total != nil || stored.Letter != nil {
		t.Error("withheld grade must not leave a stale snapshot")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventScoreUpdated {
		t.Fatalf("published = %v, want one score_updated event", published)
	}
}

func TestScoreService_Submit_RejectsOutOfRange(t *testing.T) {
	f := newFakeRepo()
	seedEnrollment(f)
	svc, publisher := newTestScoreService(f, DefaultGradeConfig())
	ctx := context.Background()

	// Attendance max is 10 on the default scale.
	_, err := svc.Submit(ctx, 1, &SubmitScoreRequest{Attendance: floatPtr(11)}, "lecturer-1")
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	if len(verrs.Errors) != 1 || verrs.Errors[0].Field != "attendance" {
		t.Errorf("errors = %+v, want one attendance error", verrs.Errors)
	}
	if len(f.scores) != 0 {
		t.Error("rejected submission must not persist anything")
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("rejected submission must not publish events")
	}
}

func TestScoreService_Submit_UnknownEnrollment(t *testing.T) {
	f := newFakeRepo()
	svc, _ := newTestScoreService(f, DefaultGradeConfig())

	_, err := svc.Submit(context.Background(), 404, &SubmitScoreRequest{Attendance: floatPtr(5)}, "lecturer-1")
	if !errors.Is(err, ErrEnrollmentNotFound) {
		t.Fatalf("err = %v, want ErrEnrollmentNotFound", err)
	}
}

func TestScoreService_GetByEnrollment(t *testing.T) {
	f := newFakeRepo()
	seedEnrollment(f)
	svc, _ := newTestScoreService(f, DefaultGradeConfig())
	ctx := context.Background()

	t.Run("missing record", func(t *testing.T) {
		_, err := svc.GetByEnrollment(ctx, 1)
		if !errors.Is(err, ErrScoreRecordNotFound) {
			t.Fatalf("err = %v, want ErrScoreRecordNotFound", err)
		}
	})

	t.Run("grade recomputed on read", func(t *testing.T) {
		if _, err := svc.Submit(ctx, 1, &SubmitScoreRequest{
			Attendance: floatPtr(5), Assignment: floatPtr(5), MidExam: floatPtr(15),
			Quiz: floatPtr(5), FinalExam: floatPtr(20),
		}, "lecturer-1"); err != nil {
			t.Fatalf("Submit: %v", err)
		}

		resp, err := svc.GetByEnrollment(ctx, 1)
		if err != nil {
			t.Fatalf("GetByEnrollment: %v", err)
		}
		if resp.Grade == nil || resp.Grade.Total != 50 {
			t.Errorf("grade = %+v, want total 50", resp.Grade)
		}
		if resp.Grade.Comment != models.CommentPass {
			t.Errorf("comment = %s, want pass at exactly the pass threshold", resp.Grade.Comment)
		}
	})
}

func TestScoreService_GetGradebook(t *testing.T) {
	f := newFakeRepo()
	f.enrollments[1] = &models.Enrollment{ID: 1, StudentID: "student-1", CourseID: 2, SemesterID: 3}
	f.enrollments[2] = &models.Enrollment{ID: 2, StudentID: "student-2", CourseID: 2, SemesterID: 3}
	svc, _ := newTestScoreService(f, DefaultGradeConfig())
	ctx := context.Background()

	for id := uint(1); id <= 2; id++ {
		if _, err := svc.Submit(ctx, id, &SubmitScoreRequest{
			Attendance: floatPtr(8), Assignment: floatPtr(8), MidExam: floatPtr(20),
			Quiz: floatPtr(8), FinalExam: floatPtr(30),
		}, "lecturer-1"); err != nil {
			t.Fatalf("Submit(%d): %v", id, err)
		}
	}

	book, err := svc.GetGradebook(ctx, 2, 3)
	if err != nil {
		t.Fatalf("GetGradebook: %v", err)
	}
	if len(book) != 2 {
		t.Fatalf("gradebook has %d rows, want 2", len(book))
	}
	for _, row := range book {
		if row.Grade == nil || row.Grade.Total != 74 {
			t.Errorf("row %s grade = %+v, want total 74", row.StudentID, row.Grade)
		}
	}
}
