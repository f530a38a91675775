package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
	QuizArchived  QuizStatus = "archived"
)

type QuizCategory string

const (
	CategoryAssignment QuizCategory = "assignment"
	CategoryExam       QuizCategory = "exam"
	CategoryPractice   QuizCategory = "practice"
)

// ShowAnswersMode controls when correctness and explanations are revealed
// to the taker: after each answered question, or only once the sitting is
// complete.
type ShowAnswersMode string

const (
	ShowAnswersImmediate ShowAnswersMode = "immediate"
	ShowAnswersAtEnd     ShowAnswersMode = "end"
)

type Quiz struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Slug        string       `json:"slug" gorm:"uniqueIndex;not null;size:220"`
	CourseID    uint         `json:"course_id" gorm:"not null;index"`
	Title       string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string      `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Category    QuizCategory `json:"category" gorm:"not null;default:practice;index" validate:"omitempty,oneof=assignment exam practice"`
	Status      QuizStatus   `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft published archived"`

	// Taking behavior
	RandomizeOrder     bool            `json:"randomize_order" gorm:"not null;default:false"`
	ShowCorrectAnswers ShowAnswersMode `json:"show_correct_answers" gorm:"not null;default:end" validate:"omitempty,oneof=immediate end"`
	PassMark           float64         `json:"pass_mark" gorm:"not null;default:50" validate:"min=0,max=100"`
	MaxAttempts        int             `json:"max_attempts" gorm:"not null;default:1" validate:"min=1,max=10"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Version int `json:"version" gorm:"default:1"`

	// Relations
	Course    Course         `json:"course" gorm:"foreignKey:CourseID"`
	Questions []QuizQuestion `json:"questions" gorm:"foreignKey:QuizID"`
	Sittings  []Sitting      `json:"sittings" gorm:"foreignKey:QuizID"`
	Creator   User           `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionsCount int     `json:"questions_count" gorm:"-"`
	MaxScore       int     `json:"max_score" gorm:"-"`
	SittingCount   int     `json:"sitting_count" gorm:"-"`
	AvgPercent     float64 `json:"avg_percent" gorm:"-"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Essay          QuestionType = "essay"
)

// ChoiceOrder controls how a multiple-choice question presents its options.
type ChoiceOrder string

const (
	ChoiceOrderContent ChoiceOrder = "content"
	ChoiceOrderRandom  ChoiceOrder = "random"
	ChoiceOrderNone    ChoiceOrder = "none"
)

type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	Type   QuestionType `json:"type" gorm:"not null;index"`
	Text   string       `json:"text" gorm:"type:text;not null" validate:"required"`
	Points int          `json:"points" gorm:"default:1" validate:"min=1,max=100"`

	// Content stored as JSONB; shape, including the answer key, depends
	// on Type (MultipleChoiceContent, TrueFalseContent, EssayContent)
	Content datatypes.JSON `json:"content" gorm:"type:jsonb"`

	// Categorization for per-topic progress reporting
	CategoryID *uint `json:"category_id" gorm:"index"`

	// Metadata
	Explanation *string   `json:"explanation" gorm:"type:text"`
	CreatedBy   string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Category *QuestionCategory `json:"category" gorm:"foreignKey:CategoryID"`
	Creator  User              `json:"creator" gorm:"foreignKey:CreatedBy"`
}

func (Question) TableName() string {
	return "questions"
}

// QuizQuestion - Many-to-many relationship with ordering and point override
type QuizQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuizID     uint `json:"quiz_id" gorm:"not null;index;uniqueIndex:idx_quiz_question"`
	QuestionID uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_quiz_question"`

	Order  int  `json:"order" gorm:"not null"`
	Points *int `json:"points"` // Overrides Question.Points when set

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz     Quiz     `json:"quiz" gorm:"foreignKey:QuizID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

type QuestionCategory struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"uniqueIndex;not null;size:100" validate:"required,max=100"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:CategoryID"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
}

func (QuestionCategory) TableName() string {
	return "question_categories"
}

// ===== QUESTION CONTENT SCHEMAS =====

type MultipleChoiceContent struct {
	Options         []MCOption  `json:"options" validate:"min=2,max=10"`
	CorrectAnswers  []string    `json:"correct_answers" validate:"min=1"`
	MultipleCorrect bool        `json:"multiple_correct"`
	ChoiceOrder     ChoiceOrder `json:"choice_order"`
}

type MCOption struct {
	ID    string `json:"id"`
	Text  string `json:"text" validate:"required"`
	Order int    `json:"order"`
}

type TrueFalseContent struct {
	CorrectAnswer bool    `json:"correct_answer"`
	TrueLabel     *string `json:"true_label"` // Custom labels
	FalseLabel    *string `json:"false_label"`
}

type EssayContent struct {
	MinWords     *int    `json:"min_words"`
	MaxWords     *int    `json:"max_words"`
	SampleAnswer *string `json:"sample_answer"`
}
