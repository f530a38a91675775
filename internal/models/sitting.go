package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type SittingStatus string

const (
	SittingNotStarted SittingStatus = "not_started"
	SittingInProgress SittingStatus = "in_progress"
	SittingCompleted  SittingStatus = "completed"
	SittingAbandoned  SittingStatus = "abandoned"
)

// Sitting is one attempt at a quiz by one user or anonymous session. The
// question order is materialized at start (shuffled per attempt when the
// quiz is configured for it) and never changes afterwards. Once Status is
// completed the row is immutable.
type Sitting struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	QuizID        uint          `json:"quiz_id" gorm:"not null;index"`
	StudentID     *string       `json:"student_id" gorm:"index;size:255"`
	SessionToken  *string       `json:"session_token" gorm:"index;size:64"` // anonymous takers only
	AttemptNumber int           `json:"attempt_number" gorm:"not null"`
	Status        SittingStatus `json:"status" gorm:"not null;default:not_started;index"`

	// Materialized question order ([]uint) and the ordered answer sequence
	// ([]SittingAnswer), both JSONB
	QuestionOrder datatypes.JSON `json:"question_order" gorm:"type:jsonb"`
	Answers       datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	// Progress
	CurrentIndex      int `json:"current_index"`
	QuestionsAnswered int `json:"questions_answered"`
	TotalQuestions    int `json:"total_questions"`

	// Scoring
	CurrentScore float64 `json:"current_score"`
	MaxScore     int     `json:"max_score"`
	Percent      float64 `json:"percent"`
	Passed       bool    `json:"passed"`

	// Timing
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz    Quiz     `json:"quiz" gorm:"foreignKey:QuizID"`
	Student *Student `json:"student" gorm:"foreignKey:StudentID"`
}

func (Sitting) TableName() string {
	return "sittings"
}

// SittingAnswer is one entry of the Answers sequence. Correct is nil for
// essay questions, which are never auto-marked.
type SittingAnswer struct {
	QuestionID uint            `json:"question_id"`
	Given      json.RawMessage `json:"given"`
	Correct    *bool           `json:"correct"`
	Score      float64         `json:"score"`
	MaxScore   int             `json:"max_score"`
	AnsweredAt time.Time       `json:"answered_at"`
}

// CategoryProgress accumulates one user's per-topic success rate: Score of
// Possible points earned across all answered questions in the category.
type CategoryProgress struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_category;size:255"`
	Category string `json:"category" gorm:"not null;uniqueIndex:idx_user_category;size:100"`

	Score    float64 `json:"score"`
	Possible float64 `json:"possible"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CategoryProgress) TableName() string {
	return "category_progress"
}

// SuccessRate returns the percentage of possible points earned, 0 when
// nothing has been recorded yet.
func (p CategoryProgress) SuccessRate() float64 {
	if p.Possible <= 0 {
		return 0
	}
	rate := p.Score / p.Possible * 100
	if rate > 100 {
		rate = 100
	}
	return rate
}
