package services

import (
	"fmt"
	"math"

	"github.com/campus-hq/academics-service/internal/models"
)

// ScoreComponent names one part of a course score.
type ScoreComponent string

const (
	ComponentAttendance ScoreComponent = "attendance"
	ComponentAssignment ScoreComponent = "assignment"
	ComponentMidExam    ScoreComponent = "mid_exam"
	ComponentQuiz       ScoreComponent = "quiz"
	ComponentFinalExam  ScoreComponent = "final_exam"
)

// ScoreComponents lists every component in grading order.
var ScoreComponents = []ScoreComponent{
	ComponentAttendance,
	ComponentAssignment,
	ComponentMidExam,
	ComponentQuiz,
	ComponentFinalExam,
}

// MissingScorePolicy decides what to do with components that have not been
// submitted yet.
type MissingScorePolicy string

const (
	// MissingWithhold refuses to produce a grade until every component has
	// a value.
	MissingWithhold MissingScorePolicy = "withhold"
	// MissingZeroFill counts unsubmitted components as zero.
	MissingZeroFill MissingScorePolicy = "zero_fill"
)

// AverageMode decides how the average field is derived from the total.
type AverageMode string

const (
	// AverageIsTotal reports the total itself as the average.
	AverageIsTotal AverageMode = "total"
	// AveragePerComponent divides the total by the number of components
	// that carry a value.
	AveragePerComponent AverageMode = "per_component"
)

// GradeBoundary maps a minimum total (inclusive) to a letter. Boundaries are
// evaluated top-down, so they must be sorted by descending Min.
type GradeBoundary struct {
	Min    float64            `json:"min"`
	Letter models.GradeLetter `json:"letter"`
}

// GradeConfig is the institution grading policy. It is passed explicitly
// into every computation; there is no global grading state.
type GradeConfig struct {
	// Weights multiply each component before summing. A missing entry
	// means weight 1.
	Weights map[ScoreComponent]float64 `json:"weights"`
	// Maxima bound each submitted component score.
	Maxima map[ScoreComponent]float64 `json:"maxima"`

	Boundaries []GradeBoundary                `json:"boundaries"`
	Points     map[models.GradeLetter]float64 `json:"points"`

	// Comment bands: total >= PassThreshold is a pass, total < FailThreshold
	// is a fail, everything between is a pass with warning. FailThreshold ==
	// PassThreshold removes the warning band.
	PassThreshold float64 `json:"pass_threshold"`
	FailThreshold float64 `json:"fail_threshold"`

	AverageMode   AverageMode        `json:"average_mode"`
	MissingPolicy MissingScorePolicy `json:"missing_policy"`
}

// DefaultGradeConfig returns the standard policy: five components out of
// 100, eleven-letter scale from 90 A+ down to 45 D, pass at 50 with a
// warning band over the D range.
func DefaultGradeConfig() GradeConfig {
	return GradeConfig{
		Weights: map[ScoreComponent]float64{},
		Maxima: map[ScoreComponent]float64{
			ComponentAttendance: 10,
			ComponentAssignment: 10,
			ComponentMidExam:    30,
			ComponentQuiz:       10,
			ComponentFinalExam:  50,
		},
		Boundaries: []GradeBoundary{
			{Min: 90, Letter: models.GradeAPlus},
			{Min: 85, Letter: models.GradeA},
			{Min: 80, Letter: models.GradeAMin},
			{Min: 75, Letter: models.GradeBPlus},
			{Min: 70, Letter: models.GradeB},
			{Min: 65, Letter: models.GradeBMin},
			{Min: 60, Letter: models.GradeCPlus},
			{Min: 55, Letter: models.GradeC},
			{Min: 50, Letter: models.GradeCMin},
			{Min: 45, Letter: models.GradeD},
			{Min: 0, Letter: models.GradeF},
		},
		Points: map[models.GradeLetter]float64{
			models.GradeAPlus: 4.0,
			models.GradeA:     4.0,
			models.GradeAMin:  3.75,
			models.GradeBPlus: 3.5,
			models.GradeB:     3.0,
			models.GradeBMin:  2.75,
			models.GradeCPlus: 2.5,
			models.GradeC:     2.0,
			models.GradeCMin:  1.75,
			models.GradeD:     1.0,
			models.GradeF:     0.0,
		},
		PassThreshold: 50,
		FailThreshold: 45,
		AverageMode:   AverageIsTotal,
		MissingPolicy: MissingZeroFill,
	}
}

// Validate rejects configs whose comment bands would leave gaps or overlap,
// or whose boundary table is not usable.
func (c GradeConfig) Validate() error {
	if c.FailThreshold > c.PassThreshold {
		return NewValidationError("fail_threshold",
			"fail threshold must not exceed pass threshold: the bands would overlap", c.FailThreshold)
	}
	if c.FailThreshold < 0 {
		return NewValidationError("fail_threshold", "fail threshold must not be negative", c.FailThreshold)
	}
	if len(c.Boundaries) == 0 {
		return NewValidationError("boundaries", "at least one grade boundary is required", nil)
	}
	for i := 1; i < len(c.Boundaries); i++ {
		if c.Boundaries[i].Min >= c.Boundaries[i-1].Min {
			return NewValidationError("boundaries",
				fmt.Sprintf("boundaries must be strictly descending, %v >= %v at index %d",
					c.Boundaries[i].Min, c.Boundaries[i-1].Min, i), c.Boundaries[i].Min)
		}
	}
	if last := c.Boundaries[len(c.Boundaries)-1]; last.Min != 0 {
		return NewValidationError("boundaries",
			"the last boundary must start at 0 so every total maps to a letter", last.Min)
	}
	for _, b := range c.Boundaries {
		if _, ok := c.Points[b.Letter]; !ok {
			return NewValidationError("points",
				fmt.Sprintf("no point value configured for letter %s", b.Letter), string(b.Letter))
		}
	}
	switch c.MissingPolicy {
	case MissingWithhold, MissingZeroFill:
	default:
		return NewValidationError("missing_policy", "unknown missing score policy", string(c.MissingPolicy))
	}
	switch c.AverageMode {
	case AverageIsTotal, AveragePerComponent:
	default:
		return NewValidationError("average_mode", "unknown average mode", string(c.AverageMode))
	}
	return nil
}

// ComponentMax returns the configured maximum for a component, or 0 when
// the component is not part of the policy.
func (c GradeConfig) ComponentMax(comp ScoreComponent) float64 {
	return c.Maxima[comp]
}

func (c GradeConfig) weight(comp ScoreComponent) float64 {
	if w, ok := c.Weights[comp]; ok {
		return w
	}
	return 1
}

// componentValue reads one component off the record.
func componentValue(record *models.ScoreRecord, comp ScoreComponent) *float64 {
	switch comp {
	case ComponentAttendance:
		return record.Attendance
	case ComponentAssignment:
		return record.Assignment
	case ComponentMidExam:
		return record.MidExam
	case ComponentQuiz:
		return record.Quiz
	case ComponentFinalExam:
		return record.FinalExam
	}
	return nil
}

// CalculateGrade derives a Grade from the record's component scores under
// the given policy. It is a pure function: no I/O, no clock, identical
// inputs always produce the identical Grade.
//
// Missing components follow cfg.MissingPolicy: Withhold returns
// ErrGradeWithheld, ZeroFill counts them as zero. A submitted component
// above its configured maximum is a ValidationError.
func CalculateGrade(record *models.ScoreRecord, cfg GradeConfig) (*models.Grade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	total := 0.0
	graded := 0
	for _, comp := range ScoreComponents {
		value := componentValue(record, comp)
		if value == nil {
			if cfg.MissingPolicy == MissingWithhold {
				return nil, fmt.Errorf("%w: %s not submitted", ErrGradeWithheld, comp)
			}
			continue
		}
		if *value < 0 {
			return nil, NewValidationError(string(comp), "score must not be negative", *value)
		}
		if max := cfg.ComponentMax(comp); *value > max {
			return nil, NewValidationError(string(comp),
				fmt.Sprintf("score exceeds configured maximum %v", max), *value)
		}
		total += *value * cfg.weight(comp)
		graded++
	}

	average := total
	if cfg.AverageMode == AveragePerComponent && graded > 0 {
		average = total / float64(graded)
	}

	letter := models.GradeF
	for _, b := range cfg.Boundaries {
		if total >= b.Min {
			letter = b.Letter
			break
		}
	}

	var comment models.GradeComment
	switch {
	case total >= cfg.PassThreshold:
		comment = models.CommentPass
	case total < cfg.FailThreshold:
		comment = models.CommentFail
	default:
		comment = models.CommentWarning
	}

	return &models.Grade{
		Total:   total,
		Average: average,
		Point:   cfg.Points[letter],
		Letter:  letter,
		Comment: comment,
	}, nil
}

// CourseGrade pairs a computed grade with the credit weight of its course,
// the inputs GPA aggregation needs.
type CourseGrade struct {
	Credit int
	Point  float64
}

// CalculateGPA returns the credit-weighted grade point average rounded to
// two places, zero when no credits are present.
func CalculateGPA(grades []CourseGrade) float64 {
	totalPoints := 0.0
	totalCredits := 0
	for _, g := range grades {
		totalPoints += float64(g.Credit) * g.Point
		totalCredits += g.Credit
	}
	if totalCredits == 0 {
		return 0
	}
	return roundTo2(totalPoints / float64(totalCredits))
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
