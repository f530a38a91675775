package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/campus-hq/academics-service/internal/events"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ===== IN-MEMORY REPOSITORY FAKE =====

type fakeRepo struct {
	quizzes     map[uint]*models.Quiz
	questions   map[uint]*models.Question
	links       []*models.QuizQuestion
	sittings    map[uint]*models.Sitting
	progress    map[string]*models.CategoryProgress
	sessions    map[string]bool
	enrollments map[uint]*models.Enrollment
	scores      map[uint]*models.ScoreRecord
	courses     map[uint]*models.Course
	students    map[string]*models.Student
	semesters   map[uint]*models.Semester

	nextSittingID uint
	nextSessionID int
	nextScoreID   uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		quizzes:     make(map[uint]*models.Quiz),
		questions:   make(map[uint]*models.Question),
		sittings:    make(map[uint]*models.Sitting),
		progress:    make(map[string]*models.CategoryProgress),
		sessions:    make(map[string]bool),
		enrollments: make(map[uint]*models.Enrollment),
		scores:      make(map[uint]*models.ScoreRecord),
		courses:     make(map[uint]*models.Course),
		students:    make(map[string]*models.Student),
		semesters:   make(map[uint]*models.Semester),
	}
}

func (f *fakeRepo) User() repositories.UserRepository                         { return nil }
func (f *fakeRepo) Student() repositories.StudentRepository                   { return &fakeStudentRepo{f} }
func (f *fakeRepo) Lecturer() repositories.LecturerRepository                 { return nil }
func (f *fakeRepo) Semester() repositories.SemesterRepository                 { return &fakeSemesterRepo{f} }
func (f *fakeRepo) Course() repositories.CourseRepository                     { return &fakeCourseRepo{f} }
func (f *fakeRepo) Allocation() repositories.AllocationRepository             { return nil }
func (f *fakeRepo) QuestionCategory() repositories.QuestionCategoryRepository { return nil }

func (f *fakeRepo) Enrollment() repositories.EnrollmentRepository { return &fakeEnrollmentRepo{f} }
func (f *fakeRepo) Score() repositories.ScoreRepository           { return &fakeScoreRepo{f} }

func (f *fakeRepo) Quiz() repositories.QuizRepository                 { return &fakeQuizRepo{f} }
func (f *fakeRepo) Question() repositories.QuestionRepository         { return &fakeQuestionRepo{f} }
func (f *fakeRepo) QuizQuestion() repositories.QuizQuestionRepository { return &fakeQuizQuestionRepo{f} }
func (f *fakeRepo) Sitting() repositories.SittingRepository           { return &fakeSittingRepo{f} }
func (f *fakeRepo) Progress() repositories.ProgressRepository         { return &fakeProgressRepo{f} }
func (f *fakeRepo) Session() repositories.SessionStore                { return &fakeSessionStore{f} }

func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

type fakeQuizRepo struct{ f *fakeRepo }

func (r *fakeQuizRepo) Create(_ context.Context, _ *gorm.DB, quiz *models.Quiz) error {
	r.f.quizzes[quiz.ID] = quiz
	return nil
}

func (r *fakeQuizRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Quiz, error) {
	quiz, ok := r.f.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (r *fakeQuizRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	quiz, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	quiz.Questions = nil
	for _, link := range r.f.links {
		if link.QuizID == id {
			withQuestion := *link
			withQuestion.Question = *r.f.questions[link.QuestionID]
			quiz.Questions = append(quiz.Questions, withQuestion)
		}
	}
	return quiz, nil
}

func (r *fakeQuizRepo) GetBySlug(_ context.Context, _ *gorm.DB, slug string) (*models.Quiz, error) {
	for _, quiz := range r.f.quizzes {
		if quiz.Slug == slug {
			return quiz, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeQuizRepo) Update(_ context.Context, _ *gorm.DB, _ *models.Quiz) error { return nil }
func (r *fakeQuizRepo) Delete(_ context.Context, _ *gorm.DB, _ uint) error         { return nil }
func (r *fakeQuizRepo) List(_ context.Context, _ *gorm.DB, _ repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	return nil, 0, nil
}
func (r *fakeQuizRepo) GetByCourse(_ context.Context, _ *gorm.DB, _ uint, _ repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	return nil, 0, nil
}
func (r *fakeQuizRepo) GetByCreator(_ context.Context, _ *gorm.DB, _ string, _ repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	return nil, 0, nil
}
func (r *fakeQuizRepo) Search(_ context.Context, _ *gorm.DB, _ string, _ repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	return nil, 0, nil
}
func (r *fakeQuizRepo) UpdateStatus(_ context.Context, _ *gorm.DB, _ uint, _ models.QuizStatus) error {
	return nil
}
func (r *fakeQuizRepo) GetStats(_ context.Context, _ *gorm.DB, _ uint) (*repositories.QuizStats, error) {
	return nil, nil
}
func (r *fakeQuizRepo) ExistsBySlug(_ context.Context, _ *gorm.DB, _ string, _ *uint) (bool, error) {
	return false, nil
}
func (r *fakeQuizRepo) HasQuestions(_ context.Context, _ *gorm.DB, _ uint) (bool, error) {
	return false, nil
}

type fakeQuestionRepo struct{ f *fakeRepo }

func (r *fakeQuestionRepo) Create(_ context.Context, _ *gorm.DB, q *models.Question) error {
	r.f.questions[q.ID] = q
	return nil
}

func (r *fakeQuestionRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Question, error) {
	q, ok := r.f.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (r *fakeQuestionRepo) GetByIDWithCategory(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeQuestionRepo) Update(_ context.Context, _ *gorm.DB, _ *models.Question) error {
	return nil
}
func (r *fakeQuestionRepo) Delete(_ context.Context, _ *gorm.DB, _ uint) error { return nil }
func (r *fakeQuestionRepo) CreateBatch(_ context.Context, _ *gorm.DB, _ []*models.Question) error {
	return nil
}
func (r *fakeQuestionRepo) GetByIDs(_ context.Context, _ *gorm.DB, _ []uint) ([]*models.Question, error) {
	return nil, nil
}
func (r *fakeQuestionRepo) List(_ context.Context, _ *gorm.DB, _ repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return nil, 0, nil
}
func (r *fakeQuestionRepo) GetByCreator(_ context.Context, _ *gorm.DB, _ string, _ repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return nil, 0, nil
}
func (r *fakeQuestionRepo) GetByCategory(_ context.Context, _ *gorm.DB, _ uint, _ repositories.QuestionFilters) ([]*models.Question, error) {
	return nil, nil
}
func (r *fakeQuestionRepo) GetByQuiz(_ context.Context, _ *gorm.DB, _ uint) ([]*models.Question, error) {
	return nil, nil
}
func (r *fakeQuestionRepo) IsUsedInQuizzes(_ context.Context, _ *gorm.DB, id uint) (bool, error) {
	for _, link := range r.f.links {
		if link.QuestionID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeQuizQuestionRepo struct{ f *fakeRepo }

func (r *fakeQuizQuestionRepo) Add(_ context.Context, _ *gorm.DB, link *models.QuizQuestion) error {
	r.f.links = append(r.f.links, link)
	return nil
}
func (r *fakeQuizQuestionRepo) AddBatch(_ context.Context, _ *gorm.DB, links []*models.QuizQuestion) error {
	r.f.links = append(r.f.links, links...)
	return nil
}
func (r *fakeQuizQuestionRepo) Remove(_ context.Context, _ *gorm.DB, _, _ uint) error { return nil }

func (r *fakeQuizQuestionRepo) GetByQuiz(_ context.Context, _ *gorm.DB, quizID uint) ([]*models.QuizQuestion, error) {
	var out []*models.QuizQuestion
	for _, link := range r.f.links {
		if link.QuizID == quizID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (r *fakeQuizQuestionRepo) GetByQuizOrdered(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.QuizQuestion, error) {
	return r.GetByQuiz(ctx, tx, quizID)
}
func (r *fakeQuizQuestionRepo) UpdateOrder(_ context.Context, _ *gorm.DB, _ uint, _ []uint) error {
	return nil
}
func (r *fakeQuizQuestionRepo) UpdatePoints(_ context.Context, _ *gorm.DB, _, _ uint, _ int) error {
	return nil
}
func (r *fakeQuizQuestionRepo) CountByQuiz(_ context.Context, _ *gorm.DB, quizID uint) (int64, error) {
	var n int64
	for _, link := range r.f.links {
		if link.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (r *fakeQuizQuestionRepo) TotalPoints(_ context.Context, _ *gorm.DB, quizID uint) (int, error) {
	total := 0
	for _, link := range r.f.links {
		if link.QuizID == quizID {
			if link.Points != nil {
				total += *link.Points
			} else if q, ok := r.f.questions[link.QuestionID]; ok {
				total += q.Points
			}
		}
	}
	return total, nil
}

func (r *fakeQuizQuestionRepo) Exists(_ context.Context, _ *gorm.DB, quizID, questionID uint) (bool, error) {
	for _, link := range r.f.links {
		if link.QuizID == quizID && link.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

type fakeSittingRepo struct{ f *fakeRepo }

func (r *fakeSittingRepo) Create(_ context.Context, _ *gorm.DB, sitting *models.Sitting) error {
	r.f.nextSittingID++
	sitting.ID = r.f.nextSittingID
	stored := *sitting
	r.f.sittings[sitting.ID] = &stored
	return nil
}

func (r *fakeSittingRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Sitting, error) {
	sitting, ok := r.f.sittings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sitting
	return &copied, nil
}

func (r *fakeSittingRepo) GetByIDWithQuiz(ctx context.Context, tx *gorm.DB, id uint) (*models.Sitting, error) {
	sitting, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if quiz, ok := r.f.quizzes[sitting.QuizID]; ok {
		sitting.Quiz = *quiz
	}
	return sitting, nil
}

func (r *fakeSittingRepo) Update(_ context.Context, _ *gorm.DB, sitting *models.Sitting) error {
	if _, ok := r.f.sittings[sitting.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *sitting
	r.f.sittings[sitting.ID] = &stored
	return nil
}

func (r *fakeSittingRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	delete(r.f.sittings, id)
	return nil
}

func (r *fakeSittingRepo) List(_ context.Context, _ *gorm.DB, _ repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	return nil, 0, nil
}
func (r *fakeSittingRepo) GetByStudent(_ context.Context, _ *gorm.DB, _ string, _ repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	return nil, 0, nil
}
func (r *fakeSittingRepo) GetByQuiz(_ context.Context, _ *gorm.DB, quizID uint, filters repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	var result []*models.Sitting
	for _, s := range r.f.sittings {
		if s.QuizID != quizID {
			continue
		}
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		copied := *s
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}

func (r *fakeSittingRepo) GetActiveByStudent(_ context.Context, _ *gorm.DB, quizID uint, studentID string) (*models.Sitting, error) {
	for _, s := range r.f.sittings {
		if s.QuizID == quizID && s.StudentID != nil && *s.StudentID == studentID && isResumable(s.Status) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSittingRepo) GetActiveBySession(_ context.Context, _ *gorm.DB, quizID uint, token string) (*models.Sitting, error) {
	for _, s := range r.f.sittings {
		if s.QuizID == quizID && s.SessionToken != nil && *s.SessionToken == token && isResumable(s.Status) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func isResumable(status models.SittingStatus) bool {
	return status == models.SittingInProgress || status == models.SittingAbandoned
}

func (r *fakeSittingRepo) CountCompletedByStudent(_ context.Context, _ *gorm.DB, quizID uint, studentID string) (int64, error) {
	var n int64
	for _, s := range r.f.sittings {
		if s.QuizID == quizID && s.StudentID != nil && *s.StudentID == studentID && s.Status == models.SittingCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeSittingRepo) CountCompletedBySession(_ context.Context, _ *gorm.DB, quizID uint, token string) (int64, error) {
	var n int64
	for _, s := range r.f.sittings {
		if s.QuizID == quizID && s.SessionToken != nil && *s.SessionToken == token && s.Status == models.SittingCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeSittingRepo) CountByStudent(_ context.Context, _ *gorm.DB, _ uint, _ string) (int64, error) {
	return 0, nil
}
func (r *fakeSittingRepo) GetStats(_ context.Context, _ *gorm.DB, _ uint) (*repositories.SittingStats, error) {
	return nil, nil
}

type fakeProgressRepo struct{ f *fakeRepo }

func progressKey(userID, category string) string { return userID + "|" + category }

func (r *fakeProgressRepo) Get(_ context.Context, _ *gorm.DB, userID, category string) (*models.CategoryProgress, error) {
	rec, ok := r.f.progress[progressKey(userID, category)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeProgressRepo) GetByUser(_ context.Context, _ *gorm.DB, userID string) ([]*models.CategoryProgress, error) {
	var out []*models.CategoryProgress
	for _, rec := range r.f.progress {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) AddScore(_ context.Context, _ *gorm.DB, userID, category string, score, possible float64) error {
	key := progressKey(userID, category)
	rec, ok := r.f.progress[key]
	if !ok {
		rec = &models.CategoryProgress{UserID: userID, Category: category}
		r.f.progress[key] = rec
	}
	rec.Score += score
	rec.Possible += possible
	return nil
}

type fakeSessionStore struct{ f *fakeRepo }

func (s *fakeSessionStore) Create(_ context.Context) (*repositories.Session, error) {
	s.f.nextSessionID++
	token := fmt.Sprintf("session-%d", s.f.nextSessionID)
	s.f.sessions[token] = true
	return &repositories.Session{Token: token, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *fakeSessionStore) Get(_ context.Context, token string) (*repositories.Session, error) {
	if !s.f.sessions[token] {
		return nil, repositories.ErrSessionNotFound
	}
	return &repositories.Session{Token: token}, nil
}

func (s *fakeSessionStore) Touch(_ context.Context, token string) error {
	if !s.f.sessions[token] {
		return repositories.ErrSessionNotFound
	}
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, token string) error {
	delete(s.f.sessions, token)
	return nil
}

// ===== FIXTURES =====

func mcContent(t *testing.T, correct []string) datatypes.JSON {
	t.Helper()
	content, err := json.Marshal(models.MultipleChoiceContent{
		Options: []models.MCOption{
			{ID: "a", Text: "first", Order: 1},
			{ID: "b", Text: "second", Order: 2},
			{ID: "c", Text: "third", Order: 3},
		},
		CorrectAnswers: correct,
	})
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return content
}

func tfContent(t *testing.T, correct bool) datatypes.JSON {
	t.Helper()
	content, err := json.Marshal(models.TrueFalseContent{CorrectAnswer: correct})
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return content
}

// seedQuiz installs a published 3-question quiz worth 1+1+2 = 4 points.
func seedQuiz(t *testing.T, f *fakeRepo) *models.Quiz {
	t.Helper()

	category := &models.QuestionCategory{ID: 1, Name: "algebra"}
	f.questions[1] = &models.Question{
		ID: 1, Type: models.MultipleChoice, Text: "pick a", Points: 1,
		Content: mcContent(t, []string{"a"}), CategoryID: &category.ID, Category: category,
		CreatedBy: "lecturer-1",
	}
	f.questions[2] = &models.Question{
		ID: 2, Type: models.MultipleChoice, Text: "pick b", Points: 1,
		Content: mcContent(t, []string{"b"}), CategoryID: &category.ID, Category: category,
	}
	f.questions[3] = &models.Question{
		ID: 3, Type: models.TrueFalse, Text: "true?", Points: 2,
		Content: tfContent(t, true),
	}

	f.links = []*models.QuizQuestion{
		{ID: 1, QuizID: 10, QuestionID: 1, Order: 1},
		{ID: 2, QuizID: 10, QuestionID: 2, Order: 2},
		{ID: 3, QuizID: 10, QuestionID: 3, Order: 3},
	}

	quiz := &models.Quiz{
		ID:                 10,
		Slug:               "midterm-practice",
		CourseID:           1,
		Title:              "Midterm practice",
		Status:             models.QuizPublished,
		ShowCorrectAnswers: models.ShowAnswersImmediate,
		PassMark:           50,
		MaxAttempts:        2,
		CreatedBy:          "lecturer-1",
	}
	f.quizzes[10] = quiz
	return quiz
}

func newTestSittingService(f *fakeRepo) (SittingService, *events.MockEventPublisher) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	return NewSittingService(nil, f, logger, validator.New(), publisher), publisher
}

func strPtr(s string) *string { return &s }

// ===== TESTS =====

func TestSittingService_StartAndCompleteRun(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc, publisher := newTestSittingService(f)
	ctx := context.Background()
	student := strPtr("student-1")

	started, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != models.SittingInProgress {
		t.Fatalf("status = %s, want in_progress", started.Status)
	}
	if started.TotalQuestions != 3 || started.MaxScore != 4 {
		t.Fatalf("got %d questions worth %d, want 3 worth 4", started.TotalQuestions, started.MaxScore)
	}
	if started.NextQuestion == nil {
		t.Fatal("expected a next question on a fresh sitting")
	}

	// Right, wrong, right: 1 + 0 + 2 of 4 = 75%.
	answers := map[uint]json.RawMessage{
		1: json.RawMessage(`"a"`),
		2: json.RawMessage(`"c"`),
		3: json.RawMessage(`true`),
	}
	for questionID, given := range answers {
		res, err := svc.Answer(ctx, started.ID, &AnswerRequest{QuestionID: questionID, Answer: given}, student, nil)
		if err != nil {
			t.Fatalf("Answer(%d): %v", questionID, err)
		}
		if res.Correct == nil {
			t.Fatalf("Answer(%d): correctness should be revealed immediately", questionID)
		}
	}

	result, err := svc.Complete(ctx, started.ID, student, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.Score != 3 || result.Percent != 75 {
		t.Errorf("score = %.1f percent = %.1f, want 3 and 75", result.Score, result.Percent)
	}
	if !result.Passed {
		t.Error("75%% against a pass mark of 50 should pass")
	}

	// Per-category progress accumulated only for the two algebra questions.
	progress, err := svc.GetProgress(ctx, "student-1")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	var algebra *CategoryProgress
	for i := range progress.Categories {
		if progress.Categories[i].Category == "algebra" {
			algebra = &progress.Categories[i]
		}
	}
	if algebra == nil {
		t.Fatal("expected algebra progress")
	}
	if algebra.Score != 1 || algebra.Possible != 2 {
		t.Errorf("algebra progress = %.1f/%.1f, want 1/2", algebra.Score, algebra.Possible)
	}

	published := publisher.GetPublishedEvents()
	var types []string
	for _, e := range published {
		types = append(types, e.Type)
	}
	if len(types) != 2 || types[0] != events.EventSittingStarted || types[1] != events.EventSittingCompleted {
		t.Errorf("published events = %v", types)
	}
}

func TestSittingService_Start_AttemptLimit(t *testing.T) {
	f := newFakeRepo()
	quiz := seedQuiz(t, f)
	quiz.MaxAttempts = 1
	svc, _ := newTestSittingService(f)
	ctx := context.Background()
	student := strPtr("student-1")

	now := time.Now()
	f.nextSittingID = 1
	f.sittings[1] = &models.Sitting{
		ID: 1, QuizID: 10, StudentID: student, AttemptNumber: 1,
		Status: models.SittingCompleted, CompletedAt: &now,
	}

	_, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
	if !errors.Is(err, ErrAttemptLimitExceeded) {
		t.Fatalf("err = %v, want ErrAttemptLimitExceeded", err)
	}
}

func TestSittingService_Start_ReusesActiveSitting(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc, _ := newTestSittingService(f)
	ctx := context.Background()
	student := strPtr("student-1")

	first, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	second, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second start created sitting %d, want the active %d back", second.ID, first.ID)
	}
	if len(f.sittings) != 1 {
		t.Errorf("%d sittings stored, want 1", len(f.sittings))
	}
}

func TestSittingService_Start_Anonymous(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc, _ := newTestSittingService(f)
	ctx := context.Background()

	started, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.SessionToken == nil || *started.SessionToken == "" {
		t.Fatal("anonymous start must issue a session token")
	}
	if started.StudentID != nil {
		t.Error("anonymous sitting must not carry a student id")
	}

	// Same token resumes the same sitting.
	resumed, err := svc.Resume(ctx, 10, nil, started.SessionToken)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.ID != started.ID {
		t.Errorf("resumed sitting %d, want %d", resumed.ID, started.ID)
	}
}

func TestSittingService_Resume_ExpiredSession(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc, _ := newTestSittingService(f)
	ctx := context.Background()

	started, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	delete(f.sessions, *started.SessionToken)

	_, err = svc.Resume(ctx, 10, nil, started.SessionToken)
	if !errors.Is(err, ErrSittingNotFound) {
		t.Fatalf("err = %v, want ErrSittingNotFound", err)
	}
}

func TestSittingService_Answer_Validation(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc, _ := newTestSittingService(f)
	ctx := context.Background()
	student := strPtr("student-1")

	started, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	t.Run("question not in sitting", func(t *testing.T) {
		_, err := svc.Answer(ctx, started.ID, &AnswerRequest{QuestionID: 99, Answer: json.RawMessage(`"a"`)}, student, nil)
		if !errors.Is(err, ErrQuestionNotInSitting) {
			t.Errorf("err = %v, want ErrQuestionNotInSitting", err)
		}
	})

	t.Run("duplicate answer", func(t *testing.T) {
		req := &AnswerRequest{QuestionID: 1, Answer: json.RawMessage(`"a"`)}
		if _, err := svc.Answer(ctx, started.ID, req, student, nil); err != nil {
			t.Fatalf("first answer: %v", err)
		}
		_, err := svc.Answer(ctx, started.ID, req, student, nil)
		if !errors.Is(err, ErrAlreadyAnswered) {
			t.Errorf("err = %v, want ErrAlreadyAnswered", err)
		}
	})

	t.Run("another student's sitting", func(t *testing.T) {
		_, err := svc.Answer(ctx, started.ID, &AnswerRequest{QuestionID: 2, Answer: json.RawMessage(`"b"`)}, strPtr("student-2"), nil)
		if !errors.Is(err, ErrSittingNotFound) {
			t.Errorf("err = %v, want ErrSittingNotFound", err)
		}
	})
}

func TestSittingService_CompletedIsTerminal(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc, _ := newTestSittingService(f)
	ctx := context.Background()
	student := strPtr("student-1")

	started, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for questionID, given := range map[uint]json.RawMessage{1: json.RawMessage(`"a"`), 2: json.RawMessage(`"b"`), 3: json.RawMessage(`true`)} {
		if _, err := svc.Answer(ctx, started.ID, &AnswerRequest{QuestionID: questionID, Answer: given}, student, nil); err != nil {
			t.Fatalf("Answer(%d): %v", questionID, err)
		}
	}
	if _, err := svc.Complete(ctx, started.ID, student, nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if _, err := svc.Answer(ctx, started.ID, &AnswerRequest{QuestionID: 1, Answer: json.RawMessage(`"a"`)}, student, nil); !errors.Is(err, ErrSittingCompleted) {
		t.Errorf("Answer after completion: err = %v, want ErrSittingCompleted", err)
	}
	if _, err := svc.Complete(ctx, started.ID, student, nil); !errors.Is(err, ErrSittingCompleted) {
		t.Errorf("double Complete: err = %v, want ErrSittingCompleted", err)
	}
	if err := svc.Abandon(ctx, started.ID, student, nil); err == nil {
		t.Error("Abandon after completion should fail")
	}
}

func TestSittingService_Complete_RequiresAllAnswers(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc, _ := newTestSittingService(f)
	ctx := context.Background()
	student := strPtr("student-1")

	started, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Answer(ctx, started.ID, &AnswerRequest{QuestionID: 1, Answer: json.RawMessage(`"a"`)}, student, nil); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	_, err = svc.Complete(ctx, started.ID, student, nil)
	var ruleErr *BusinessRuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("err = %v, want BusinessRuleError", err)
	}
	if ruleErr.Code != "sitting_incomplete" {
		t.Errorf("code = %s, want sitting_incomplete", ruleErr.Code)
	}
}

func TestSittingService_AbandonAndResume(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc, _ := newTestSittingService(f)
	ctx := context.Background()
	student := strPtr("student-1")

	started, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Answer(ctx, started.ID, &AnswerRequest{QuestionID: 1, Answer: json.RawMessage(`"a"`)}, student, nil); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := svc.Abandon(ctx, started.ID, student, nil); err != nil {
		t.Fatalf("Abandon: %v", err)
	}

	resumed, err := svc.Resume(ctx, 10, student, nil)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.ID != started.ID {
		t.Fatalf("resumed sitting %d, want %d", resumed.ID, started.ID)
	}
	if resumed.Status != models.SittingInProgress {
		t.Errorf("status = %s, want in_progress", resumed.Status)
	}
	if resumed.QuestionsAnswered != 1 {
		t.Errorf("answered = %d, want the earlier answer preserved", resumed.QuestionsAnswered)
	}
	if resumed.NextQuestion == nil || resumed.NextQuestion.QuestionID == 1 {
		t.Error("next question should skip the already answered one")
	}
}

func TestSittingService_Start_RejectsUnreadyQuiz(t *testing.T) {
	f := newFakeRepo()
	quiz := seedQuiz(t, f)
	svc, _ := newTestSittingService(f)
	ctx := context.Background()
	student := strPtr("student-1")

	t.Run("draft", func(t *testing.T) {
		quiz.Status = models.QuizDraft
		_, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
		if !errors.Is(err, ErrQuizNotPublished) {
			t.Errorf("err = %v, want ErrQuizNotPublished", err)
		}
	})

	t.Run("no questions", func(t *testing.T) {
		quiz.Status = models.QuizPublished
		f.links = nil
		_, err := svc.Start(ctx, &StartSittingRequest{QuizID: 10}, student)
		if !errors.Is(err, ErrQuizHasNoQuestions) {
			t.Errorf("err = %v, want ErrQuizHasNoQuestions", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Start(ctx, &StartSittingRequest{QuizID: 404}, student)
		if !errors.Is(err, ErrQuizNotFound) {
			t.Errorf("err = %v, want ErrQuizNotFound", err)
		}
	})
}

// ===== HELPER TESTS =====

func TestGradeAnswer(t *testing.T) {
	mc := &models.Question{ID: 1, Type: models.MultipleChoice, Points: 2}
	mc.Content = []byte(`{"options":[{"id":"a","text":"a"},{"id":"b","text":"b"}],"correct_answers":["a","b"],"multiple_correct":true}`)
	tf := &models.Question{ID: 2, Type: models.TrueFalse, Points: 1}
	tf.Content = []byte(`{"correct_answer":false}`)
	essay := &models.Question{ID: 3, Type: models.Essay, Points: 5}

	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name        string
		question    *models.Question
		given       string
		wantScore   float64
		wantCorrect *bool
		wantErr     bool
	}{
		{name: "multi select exact match", question: mc, given: `["b","a"]`, wantScore: 2, wantCorrect: boolPtr(true)},
		{name: "multi select partial", question: mc, given: `["a"]`, wantScore: 0, wantCorrect: boolPtr(false)},
		{name: "true false correct", question: tf, given: `false`, wantScore: 1, wantCorrect: boolPtr(true)},
		{name: "true false wrong", question: tf, given: `true`, wantScore: 0, wantCorrect: boolPtr(false)},
		{name: "true false non boolean", question: tf, given: `"yes"`, wantErr: true},
		{name: "essay is not auto marked", question: essay, given: `"my long answer"`, wantScore: 0, wantCorrect: nil},
		{name: "mc malformed selection", question: mc, given: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, correct, err := gradeAnswer(tt.question, json.RawMessage(tt.given), tt.question.Points)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if score != tt.wantScore {
				t.Errorf("score = %.1f, want %.1f", score, tt.wantScore)
			}
			switch {
			case tt.wantCorrect == nil && correct != nil:
				t.Errorf("correct = %v, want nil", *correct)
			case tt.wantCorrect != nil && (correct == nil || *correct != *tt.wantCorrect):
				t.Errorf("correct = %v, want %v", correct, *tt.wantCorrect)
			}
		})
	}
}

func TestMaterializeOrder(t *testing.T) {
	override := 10
	quiz := &models.Quiz{
		Questions: []models.QuizQuestion{
			{QuestionID: 1, Order: 1, Question: models.Question{ID: 1, Points: 2}},
			{QuestionID: 2, Order: 2, Points: &override, Question: models.Question{ID: 2, Points: 3}},
			{QuestionID: 3, Order: 3, Question: models.Question{ID: 3, Points: 1}},
		},
	}

	order, maxScore := materializeOrder(quiz)
	if len(order) != 3 {
		t.Fatalf("order length = %d, want 3", len(order))
	}
	// Point override on question 2 replaces its base points: 2 + 10 + 1.
	if maxScore != 13 {
		t.Errorf("maxScore = %d, want 13", maxScore)
	}
	if order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("unshuffled order = %v, want [1 2 3]", order)
	}

	quiz.RandomizeOrder = true
	shuffled, _ := materializeOrder(quiz)
	seen := map[uint]bool{}
	for _, id := range shuffled {
		seen[id] = true
	}
	if len(seen) != 3 || !seen[1] || !seen[2] || !seen[3] {
		t.Errorf("shuffled order %v lost questions", shuffled)
	}
}

func TestNextUnansweredIndex(t *testing.T) {
	order := []uint{5, 7, 9}
	tests := []struct {
		name     string
		answered []uint
		want     int
	}{
		{name: "none answered", answered: nil, want: 0},
		{name: "first answered", answered: []uint{5}, want: 1},
		{name: "middle gap", answered: []uint{5, 9}, want: 1},
		{name: "all answered", answered: []uint{5, 7, 9}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var answers []models.SittingAnswer
			for _, id := range tt.answered {
				answers = append(answers, models.SittingAnswer{QuestionID: id})
			}
			if got := nextUnansweredIndex(order, answers); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStripCorrectAnswers(t *testing.T) {
	question := &models.Question{Type: models.MultipleChoice}
	question.Content = []byte(`{"options":[{"id":"a","text":"a"}],"correct_answers":["a"],"multiple_correct":false}`)

	stripped := stripCorrectAnswers(question)
	var decoded map[string]interface{}
	if err := json.Unmarshal(stripped, &decoded); err != nil {
		t.Fatalf("unmarshal stripped content: %v", err)
	}
	if _, leaked := decoded["correct_answers"]; leaked {
		t.Error("correct answers leaked to the taker")
	}
	if _, ok := decoded["options"]; !ok {
		t.Error("options missing from stripped content")
	}
}
