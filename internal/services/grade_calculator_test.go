package services

import (
	"errors"
	"testing"

	"github.com/campus-hq/academics-service/internal/models"
)

func floatPtr(v float64) *float64 {
	return &v
}

func fullRecord(attendance, assignment, mid, quiz, final float64) *models.ScoreRecord {
	return &models.ScoreRecord{
		Attendance: floatPtr(attendance),
		Assignment: floatPtr(assignment),
		MidExam:    floatPtr(mid),
		Quiz:       floatPtr(quiz),
		FinalExam:  floatPtr(final),
	}
}

func TestCalculateGrade(t *testing.T) {
	cfg := DefaultGradeConfig()

	tests := []struct {
		name        string
		record      *models.ScoreRecord
		wantTotal   float64
		wantLetter  models.GradeLetter
		wantComment models.GradeComment
		wantPoint   float64
	}{
		{
			name:        "top of the scale",
			record:      fullRecord(10, 10, 28, 10, 48),
			wantTotal:   106,
			wantLetter:  models.GradeAPlus,
			wantComment: models.CommentPass,
			wantPoint:   4.0,
		},
		{
			name:        "solid pass",
			record:      fullRecord(8, 9, 18, 0, 35),
			wantTotal:   70,
			wantLetter:  models.GradeB,
			wantComment: models.CommentPass,
			wantPoint:   3.0,
		},
		{
			name:        "warning band",
			record:      fullRecord(5, 5, 12, 3, 22),
			wantTotal:   47,
			wantLetter:  models.GradeD,
			wantComment: models.CommentWarning,
			wantPoint:   1.0,
		},
		{
			name:        "fail",
			record:      fullRecord(2, 3, 8, 2, 15),
			wantTotal:   30,
			wantLetter:  models.GradeF,
			wantComment: models.CommentFail,
			wantPoint:   0.0,
		},
		{
			name:        "exactly on a boundary",
			record:      fullRecord(10, 10, 30, 10, 30),
			wantTotal:   90,
			wantLetter:  models.GradeAPlus,
			wantComment: models.CommentPass,
			wantPoint:   4.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grade, err := CalculateGrade(tt.record, cfg)
			if err != nil {
				t.Fatalf("CalculateGrade() error = %v", err)
			}
			if grade.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", grade.Total, tt.wantTotal)
			}
			if grade.Letter != tt.wantLetter {
				t.Errorf("Letter = %v, want %v", grade.Letter, tt.wantLetter)
			}
			if grade.Comment != tt.wantComment {
				t.Errorf("Comment = %v, want %v", grade.Comment, tt.wantComment)
			}
			if grade.Point != tt.wantPoint {
				t.Errorf("Point = %v, want %v", grade.Point, tt.wantPoint)
			}
		})
	}
}

func TestCalculateGrade_PassAtConfiguredThreshold(t *testing.T) {
	// attendance=8/10, assignment=9/10, mid=18/30, final=35/50 → total 70,
	// pass threshold 60 → pass.
	cfg := DefaultGradeConfig()
	cfg.PassThreshold = 60
	cfg.FailThreshold = 50

	record := &models.ScoreRecord{
		Attendance: floatPtr(8),
		Assignment: floatPtr(9),
		MidExam:    floatPtr(18),
		FinalExam:  floatPtr(35),
	}

	grade, err := CalculateGrade(record, cfg)
	if err != nil {
		t.Fatalf("CalculateGrade() error = %v", err)
	}
	if grade.Total != 70 {
		t.Errorf("Total = %v, want 70", grade.Total)
	}
	if grade.Comment != models.CommentPass {
		t.Errorf("Comment = %v, want pass", grade.Comment)
	}
}

func TestCalculateGrade_Purity(t *testing.T) {
	cfg := DefaultGradeConfig()
	record := fullRecord(7, 8, 20, 6, 33)

	first, err := CalculateGrade(record, cfg)
	if err != nil {
		t.Fatalf("CalculateGrade() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := CalculateGrade(record, cfg)
		if err != nil {
			t.Fatalf("CalculateGrade() error = %v", err)
		}
		if *again != *first {
			t.Fatalf("run %d produced %+v, first run produced %+v", i, again, first)
		}
	}
}

func TestCalculateGrade_TotalMonotonic(t *testing.T) {
	cfg := DefaultGradeConfig()

	base := fullRecord(5, 5, 15, 5, 25)
	baseGrade, err := CalculateGrade(base, cfg)
	if err != nil {
		t.Fatalf("CalculateGrade() error = %v", err)
	}

	bumps := []*models.ScoreRecord{
		fullRecord(6, 5, 15, 5, 25),
		fullRecord(5, 6, 15, 5, 25),
		fullRecord(5, 5, 16, 5, 25),
		fullRecord(5, 5, 15, 6, 25),
		fullRecord(5, 5, 15, 5, 26),
	}
	for i, record := range bumps {
		grade, err := CalculateGrade(record, cfg)
		if err != nil {
			t.Fatalf("CalculateGrade() error = %v", err)
		}
		if grade.Total < baseGrade.Total {
			t.Errorf("raising component %d lowered total: %v < %v", i, grade.Total, baseGrade.Total)
		}
	}
}

func TestCalculateGrade_MissingPolicy(t *testing.T) {
	record := &models.ScoreRecord{
		Attendance: floatPtr(8),
		Assignment: floatPtr(9),
		MidExam:    floatPtr(18),
		FinalExam:  floatPtr(35),
		// quiz not submitted
	}

	t.Run("withhold refuses to grade", func(t *testing.T) {
		cfg := DefaultGradeConfig()
		cfg.MissingPolicy = MissingWithhold

		_, err := CalculateGrade(record, cfg)
		if !errors.Is(err, ErrGradeWithheld) {
			t.Fatalf("error = %v, want ErrGradeWithheld", err)
		}
	})

	t.Run("zero fill counts missing as zero", func(t *testing.T) {
		cfg := DefaultGradeConfig()
		cfg.MissingPolicy = MissingZeroFill

		grade, err := CalculateGrade(record, cfg)
		if err != nil {
			t.Fatalf("CalculateGrade() error = %v", err)
		}
		if grade.Total != 70 {
			t.Errorf("Total = %v, want 70", grade.Total)
		}
	})
}

func TestCalculateGrade_RangeValidation(t *testing.T) {
	cfg := DefaultGradeConfig()

	t.Run("component over maximum", func(t *testing.T) {
		record := fullRecord(11, 5, 15, 5, 25)
		_, err := CalculateGrade(record, cfg)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("error = %v, want *ValidationError", err)
		}
		if vErr.Field != string(ComponentAttendance) {
			t.Errorf("Field = %s, want attendance", vErr.Field)
		}
	})

	t.Run("negative component", func(t *testing.T) {
		record := fullRecord(5, -1, 15, 5, 25)
		_, err := CalculateGrade(record, cfg)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("error = %v, want *ValidationError", err)
		}
	})
}

func TestGradeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GradeConfig)
		wantErr bool
	}{
		{name: "default config is valid", mutate: func(c *GradeConfig) {}},
		{
			name:    "fail above pass overlaps bands",
			mutate:  func(c *GradeConfig) { c.FailThreshold = 60; c.PassThreshold = 50 },
			wantErr: true,
		},
		{
			name:    "equal thresholds drop the warning band",
			mutate:  func(c *GradeConfig) { c.FailThreshold = 50; c.PassThreshold = 50 },
			wantErr: false,
		},
		{
			name:    "no boundaries",
			mutate:  func(c *GradeConfig) { c.Boundaries = nil },
			wantErr: true,
		},
		{
			name: "boundaries not descending",
			mutate: func(c *GradeConfig) {
				c.Boundaries = []GradeBoundary{
					{Min: 50, Letter: models.GradeC},
					{Min: 90, Letter: models.GradeAPlus},
					{Min: 0, Letter: models.GradeF},
				}
			},
			wantErr: true,
		},
		{
			name: "gap at the bottom of the scale",
			mutate: func(c *GradeConfig) {
				c.Boundaries = []GradeBoundary{
					{Min: 90, Letter: models.GradeAPlus},
					{Min: 45, Letter: models.GradeD},
				}
			},
			wantErr: true,
		},
		{
			name: "letter without a point value",
			mutate: func(c *GradeConfig) {
				delete(c.Points, models.GradeD)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGradeConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCalculateGrade_CommentBandsPartition(t *testing.T) {
	cfg := DefaultGradeConfig()

	// Every total in [0, 100] must land in exactly one band.
	for total := 0.0; total <= 100; total += 0.5 {
		var comment models.GradeComment
		switch {
		case total >= cfg.PassThreshold:
			comment = models.CommentPass
		case total < cfg.FailThreshold:
			comment = models.CommentFail
		default:
			comment = models.CommentWarning
		}
		if comment == "" {
			t.Fatalf("total %v has no comment band", total)
		}
	}
}

func TestCalculateGrade_AverageModes(t *testing.T) {
	record := &models.ScoreRecord{
		Attendance: floatPtr(8),
		Assignment: floatPtr(9),
		MidExam:    floatPtr(18),
		FinalExam:  floatPtr(35),
	}

	t.Run("average is total", func(t *testing.T) {
		cfg := DefaultGradeConfig()
		cfg.AverageMode = AverageIsTotal
		grade, err := CalculateGrade(record, cfg)
		if err != nil {
			t.Fatalf("CalculateGrade() error = %v", err)
		}
		if grade.Average != grade.Total {
			t.Errorf("Average = %v, want %v", grade.Average, grade.Total)
		}
	})

	t.Run("average per graded component", func(t *testing.T) {
		cfg := DefaultGradeConfig()
		cfg.AverageMode = AveragePerComponent
		grade, err := CalculateGrade(record, cfg)
		if err != nil {
			t.Fatalf("CalculateGrade() error = %v", err)
		}
		if grade.Average != 70.0/4 {
			t.Errorf("Average = %v, want %v", grade.Average, 70.0/4)
		}
	})
}

func TestCalculateGPA(t *testing.T) {
	tests := []struct {
		name   string
		grades []CourseGrade
		want   float64
	}{
		{name: "no courses", grades: nil, want: 0},
		{
			name: "single course",
			grades: []CourseGrade{
				{Credit: 3, Point: 4.0},
			},
			want: 4.0,
		},
		{
			name: "credit weighted",
			grades: []CourseGrade{
				{Credit: 3, Point: 4.0},
				{Credit: 2, Point: 2.0},
			},
			want: 3.2,
		},
		{
			name: "rounded to two places",
			grades: []CourseGrade{
				{Credit: 3, Point: 4.0},
				{Credit: 3, Point: 3.5},
				{Credit: 3, Point: 2.75},
			},
			want: 3.42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateGPA(tt.grades); got != tt.want {
				t.Errorf("CalculateGPA() = %v, want %v", got, tt.want)
			}
		})
	}
}
