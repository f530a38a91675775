package events

import (
	"context"
	"time"
)

const eventSource = "academics-service"

// Event types published by the service.
const (
	EventGradeComputed     = "result.grade_computed"
	EventScoreUpdated      = "result.score_updated"
	EventSittingStarted    = "quiz.sitting_started"
	EventSittingCompleted  = "quiz.sitting_completed"
	EventEnrollmentAdded   = "course.enrollment_added"
	EventEnrollmentDropped = "course.enrollment_dropped"
)

// Event is the envelope for every message published to the event bus.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// EventPublisher publishes domain events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// GradeComputedEvent is emitted whenever a score record's derived grade is
// recomputed and persisted.
type GradeComputedEvent struct {
	EnrollmentID uint    `json:"enrollment_id"`
	StudentID    string  `json:"student_id"`
	CourseID     uint    `json:"course_id"`
	SemesterID   uint    `json:"semester_id"`
	Total        float64 `json:"total"`
	Point        float64 `json:"point"`
	Letter       string  `json:"letter"`
	Comment      string  `json:"comment"`
}

// SittingStartedEvent is emitted when a new quiz attempt begins.
type SittingStartedEvent struct {
	SittingID     uint    `json:"sitting_id"`
	QuizID        uint    `json:"quiz_id"`
	StudentID     *string `json:"student_id,omitempty"`
	AttemptNumber int     `json:"attempt_number"`
}

// SittingCompletedEvent is emitted when a quiz sitting is finalized.
type SittingCompletedEvent struct {
	SittingID uint    `json:"sitting_id"`
	QuizID    uint    `json:"quiz_id"`
	StudentID *string `json:"student_id,omitempty"`
	Percent   float64 `json:"percent"`
	Passed    bool    `json:"passed"`
}

// EnrollmentEvent is emitted for both add and drop.
type EnrollmentEvent struct {
	StudentID  string `json:"student_id"`
	CourseID   uint   `json:"course_id"`
	SemesterID uint   `json:"semester_id"`
}
