package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
	"github.com/campus-hq/academics-service/internal/validator"
)

type fakeSittingService struct {
	startReq       *services.StartSittingRequest
	startStudentID *string
}

func (f *fakeSittingService) Start(ctx context.Context, req *services.StartSittingRequest, studentID *string) (*services.SittingResponse, error) {
	f.startReq = req
	f.startStudentID = studentID
	return &services.SittingResponse{Sitting: &models.Sitting{QuizID: req.QuizID}}, nil
}

func (f *fakeSittingService) Answer(ctx context.Context, sittingID uint, req *services.AnswerRequest, studentID *string, sessionToken *string) (*services.AnswerResult, error) {
	return nil, services.ErrSittingNotFound
}

func (f *fakeSittingService) Resume(ctx context.Context, quizID uint, studentID *string, sessionToken *string) (*services.SittingResponse, error) {
	return nil, services.ErrSittingNotFound
}

func (f *fakeSittingService) Complete(ctx context.Context, sittingID uint, studentID *string, sessionToken *string) (*services.SittingResult, error) {
	return nil, services.ErrSittingNotFound
}

func (f *fakeSittingService) Abandon(ctx context.Context, sittingID uint, studentID *string, sessionToken *string) error {
	return services.ErrSittingNotFound
}

func (f *fakeSittingService) GetByID(ctx context.Context, id uint) (*services.SittingResponse, error) {
	return nil, services.ErrSittingNotFound
}

func (f *fakeSittingService) GetResult(ctx context.Context, sittingID uint) (*services.SittingResult, error) {
	return nil, services.ErrSittingNotFound
}

func (f *fakeSittingService) GetByStudent(ctx context.Context, studentID string, filters repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	return nil, 0, nil
}

func (f *fakeSittingService) GetByQuiz(ctx context.Context, quizID uint, filters repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	return nil, 0, nil
}

func (f *fakeSittingService) GetProgress(ctx context.Context, userID string) (*services.ProgressResponse, error) {
	return &services.ProgressResponse{UserID: userID}, nil
}

func (f *fakeSittingService) GetStats(ctx context.Context, quizID uint) (*repositories.SittingStats, error) {
	return &repositories.SittingStats{}, nil
}

func newTestSittingHandler(svc *fakeSittingService) *SittingHandler {
	logger := utils.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return NewSittingHandler(svc, validator.New(), logger)
}

func startSittingContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/sittings/start", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func TestStartSitting_AnonymousHeaderToken(t *testing.T) {
	svc := &fakeSittingService{}
	h := newTestSittingHandler(svc)

	c, rec := startSittingContext(t, `{"quiz_id": 10}`)
	c.Request.Header.Set(SessionTokenHeader, "tok-abc")

	h.StartSitting(c)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if svc.startStudentID != nil {
		t.Errorf("studentID = %v, want nil for anonymous caller", *svc.startStudentID)
	}
	if svc.startReq.SessionToken == nil || *svc.startReq.SessionToken != "tok-abc" {
		t.Errorf("session token = %v, want header token carried into request", svc.startReq.SessionToken)
	}
}

func TestStartSitting_BodyTokenWinsOverHeader(t *testing.T) {
	svc := &fakeSittingService{}
	h := newTestSittingHandler(svc)

	c, rec := startSittingContext(t, `{"quiz_id": 10, "session_token": "tok-body"}`)
	c.Request.Header.Set(SessionTokenHeader, "tok-header")

	h.StartSitting(c)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if svc.startReq.SessionToken == nil || *svc.startReq.SessionToken != "tok-body" {
		t.Errorf("session token = %v, want body token to take precedence", svc.startReq.SessionToken)
	}
}

func TestStartSitting_AuthenticatedStudent(t *testing.T) {
	svc := &fakeSittingService{}
	h := newTestSittingHandler(svc)

	c, rec := startSittingContext(t, `{"quiz_id": 10}`)
	c.Set("user_id", "student-1")
	c.Set("user_role", models.RoleStudent)

	h.StartSitting(c)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if svc.startStudentID == nil || *svc.startStudentID != "student-1" {
		t.Errorf("studentID = %v, want student-1", svc.startStudentID)
	}
	if svc.startReq.SessionToken != nil {
		t.Errorf("session token = %q, want nil for authenticated student", *svc.startReq.SessionToken)
	}
}

func TestStartSitting_NoTokenNoUser(t *testing.T) {
	svc := &fakeSittingService{}
	h := newTestSittingHandler(svc)

	c, rec := startSittingContext(t, `{"quiz_id": 10}`)

	h.StartSitting(c)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if svc.startStudentID != nil || svc.startReq.SessionToken != nil {
		t.Errorf("first anonymous start must reach the service with no identity, got studentID=%v token=%v",
			svc.startStudentID, svc.startReq.SessionToken)
	}
}
