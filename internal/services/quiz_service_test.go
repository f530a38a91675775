package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/validator"
)

func newTestQuizService(f *fakeRepo) QuizService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewQuizService(nil, f, logger, validator.New())
}

func TestQuizService_Update_Permissions(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc := newTestQuizService(f)
	ctx := context.Background()

	title := "Renamed"

	t.Run("owner can update", func(t *testing.T) {
		resp, err := svc.Update(ctx, 10, &UpdateQuizRequest{Title: &title}, "lecturer-1")
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if resp.Title != "Renamed" {
			t.Errorf("title = %s, want Renamed", resp.Title)
		}
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		_, err := svc.Update(ctx, 10, &UpdateQuizRequest{Title: &title}, "lecturer-2")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("err = %v, want a permission error", err)
		}
	})

	t.Run("archived quiz is immutable", func(t *testing.T) {
		f.quizzes[10].Status = models.QuizArchived
		_, err := svc.Update(ctx, 10, &UpdateQuizRequest{Title: &title}, "lecturer-1")
		var stateErr *InvalidStateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("err = %v, want InvalidStateError", err)
		}
	})
}

func TestQuizService_StatusTransitions(t *testing.T) {
	f := newFakeRepo()
	quiz := seedQuiz(t, f)
	svc := newTestQuizService(f)
	ctx := context.Background()

	t.Run("published to draft is impossible", func(t *testing.T) {
		// Publish on an already published quiz is not an allowed transition.
		err := svc.Publish(ctx, 10, "lecturer-1")
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("err = %v, want ValidationErrors", err)
		}
	})

	t.Run("draft publishes with questions", func(t *testing.T) {
		quiz.Status = models.QuizDraft
		if err := svc.Publish(ctx, 10, "lecturer-1"); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	})

	t.Run("publish without questions is rejected", func(t *testing.T) {
		quiz.Status = models.QuizDraft
		saved := f.links
		f.links = nil
		defer func() { f.links = saved }()

		err := svc.Publish(ctx, 10, "lecturer-1")
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("err = %v, want ValidationErrors", err)
		}
	})

	t.Run("archive is terminal", func(t *testing.T) {
		quiz.Status = models.QuizArchived
		err := svc.Archive(ctx, 10, "lecturer-1")
		if err == nil {
			t.Fatal("archiving an archived quiz should fail")
		}
	})
}

func TestQuizService_AddQuestion(t *testing.T) {
	f := newFakeRepo()
	quiz := seedQuiz(t, f)
	quiz.Status = models.QuizDraft
	svc := newTestQuizService(f)
	ctx := context.Background()

	f.questions[4] = &models.Question{ID: 4, Type: models.TrueFalse, Text: "extra", Points: 1, Content: tfContent(t, false), CreatedBy: "lecturer-1"}

	t.Run("draft accepts a new question", func(t *testing.T) {
		err := svc.AddQuestion(ctx, 10, &QuizQuestionRequest{QuestionID: 4, Order: 4}, "lecturer-1")
		if err != nil {
			t.Fatalf("AddQuestion: %v", err)
		}
		if len(f.links) != 4 {
			t.Errorf("%d links, want 4", len(f.links))
		}
	})

	t.Run("unknown question", func(t *testing.T) {
		err := svc.AddQuestion(ctx, 10, &QuizQuestionRequest{QuestionID: 99, Order: 5}, "lecturer-1")
		if !errors.Is(err, ErrQuestionNotFound) {
			t.Errorf("err = %v, want ErrQuestionNotFound", err)
		}
	})

	t.Run("published quiz rejects structure changes", func(t *testing.T) {
		quiz.Status = models.QuizPublished
		err := svc.AddQuestion(ctx, 10, &QuizQuestionRequest{QuestionID: 1, Order: 5}, "lecturer-1")
		var stateErr *InvalidStateError
		if !errors.As(err, &stateErr) {
			t.Errorf("err = %v, want InvalidStateError", err)
		}
	})
}

func TestQuizService_CreateQuestion_ContentRules(t *testing.T) {
	f := newFakeRepo()
	svc := newTestQuizService(f)
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name:    "valid multiple choice",
			content: `{"options":[{"id":"a","text":"a"},{"id":"b","text":"b"}],"correct_answers":["a"],"multiple_correct":false}`,
		},
		{
			name:    "single option",
			content: `{"options":[{"id":"a","text":"a"}],"correct_answers":["a"]}`,
			wantErr: true,
		},
		{
			name:    "correct answer not an option",
			content: `{"options":[{"id":"a","text":"a"},{"id":"b","text":"b"}],"correct_answers":["z"]}`,
			wantErr: true,
		},
		{
			name:    "several answers on a single-answer question",
			content: `{"options":[{"id":"a","text":"a"},{"id":"b","text":"b"}],"correct_answers":["a","b"],"multiple_correct":false}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateQuestion(ctx, &CreateQuestionRequest{
				Type:    models.MultipleChoice,
				Text:    "pick one",
				Content: []byte(tt.content),
				Points:  2,
			}, "lecturer-1")
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestQuizService_DeleteQuestion_InUse(t *testing.T) {
	f := newFakeRepo()
	seedQuiz(t, f)
	svc := newTestQuizService(f)
	ctx := context.Background()

	// Question 1 is attached to quiz 10; the fake reports usage from links.
	err := svc.DeleteQuestion(ctx, 1, "lecturer-1")
	if !errors.Is(err, ErrQuestionInUse) {
		t.Fatalf("err = %v, want ErrQuestionInUse", err)
	}
}

func TestQuizService_GetBySlug_HidesDrafts(t *testing.T) {
	f := newFakeRepo()
	quiz := seedQuiz(t, f)
	svc := newTestQuizService(f)
	ctx := context.Background()

	t.Run("published quiz is visible", func(t *testing.T) {
		resp, err := svc.GetBySlug(ctx, "midterm-practice")
		if err != nil {
			t.Fatalf("GetBySlug: %v", err)
		}
		if resp.ID != 10 {
			t.Errorf("quiz ID = %d, want 10", resp.ID)
		}
	})

	t.Run("draft quiz reads as not found", func(t *testing.T) {
		quiz.Status = models.QuizDraft
		defer func() { quiz.Status = models.QuizPublished }()

		_, err := svc.GetBySlug(ctx, "midterm-practice")
		if !errors.Is(err, ErrQuizNotFound) {
			t.Fatalf("err = %v, want ErrQuizNotFound", err)
		}
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		_, err := svc.GetBySlug(ctx, "no-such-quiz")
		if !errors.Is(err, ErrQuizNotFound) {
			t.Fatalf("err = %v, want ErrQuizNotFound", err)
		}
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Midterm Practice", want: "midterm-practice"},
		{in: "  CSC 101: Intro!  ", want: "csc-101-intro"},
		{in: "---", want: ""},
		{in: "Already-Slugged", want: "already-slugged"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"quiz": true, "quiz-2": true}
	got, err := uniqueSlug("quiz", func(slug string) (bool, error) {
		return taken[slug], nil
	})
	if err != nil {
		t.Fatalf("uniqueSlug: %v", err)
	}
	if got != "quiz-3" {
		t.Errorf("got %q, want quiz-3", got)
	}
}
