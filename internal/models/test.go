package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question types supported by assessments.
const (
	QuestionTypeMCQ         = "MCQ"
	QuestionTypeTrueFalse   = "True/False"
	QuestionTypeShortAnswer = "Short Answer"
	QuestionTypeLongAnswer  = "Long Answer"
)

// Test lifecycle states.
const (
	TestStatusDraft     = "Draft"
	TestStatusPublished = "Published"
	TestStatusCompleted = "Completed"
)

// Result outcomes.
const (
	ResultStatusPass = "Pass"
	ResultStatusFail = "Fail"
)

// Test is a timed assessment targeted at one standard.
type Test struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Title           string       `gorm:"size:255;not null" json:"title"`
	Description     string       `gorm:"type:text" json:"description"`
	Subject         string       `gorm:"size:128" json:"subject"`
	Standard        string       `gorm:"size:32;index;not null" json:"standard"`
	DurationMinutes int          `gorm:"not null" json:"duration_minutes"`
	TotalMarks      float64      `gorm:"not null" json:"total_marks"`
	PassingMarks    float64      `gorm:"not null" json:"passing_marks"`
	Status          string       `gorm:"size:16;index;not null;default:Draft" json:"status"`
	CreatedBy       uint         `json:"created_by"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Questions       []Question   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
	Results         []TestResult `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"results,omitempty"`
}

// Question is a single item in a test.
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	TestID        uint                        `gorm:"index;not null" json:"test_id"`
	Position      int                         `gorm:"not null" json:"position"`
	Type          string                      `gorm:"size:32;not null" json:"type"`
	Text          string                      `gorm:"type:text;not null" json:"text"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer string                      `gorm:"size:512" json:"correct_answer"`
	Marks         float64                     `gorm:"not null" json:"marks"`
}

// IsObjective reports whether the question is graded automatically.
func (q Question) IsObjective() bool {
	return q.Type == QuestionTypeMCQ || q.Type == QuestionTypeTrueFalse
}

// TestResult is a student's single submission for a test.
type TestResult struct {
	ID               uint                              `gorm:"primaryKey" json:"id"`
	TestID           uint                              `gorm:"uniqueIndex:idx_test_results_test_student;not null" json:"test_id"`
	StudentID        uint                              `gorm:"uniqueIndex:idx_test_results_test_student;index;not null" json:"student_id"`
	MarksObtained    float64                           `gorm:"not null" json:"marks_obtained"`
	Status           string                            `gorm:"size:8;not null" json:"status"`
	TimeSpentSeconds int                               `json:"time_spent_seconds"`
	Answers          datatypes.JSONSlice[AnswerRecord] `json:"answers"`
	Violations       datatypes.JSONSlice[Violation]    `json:"violations"`
	SubmittedAt      time.Time                         `gorm:"not null" json:"submitted_at"`
	Version          int                               `gorm:"not null;default:0" json:"version"`
	UpdatedAt        time.Time                         `json:"updated_at"`
}

// AnswerRecord stores one submitted answer and the marks awarded for it.
type AnswerRecord struct {
	QuestionID   uint    `json:"question_id"`
	QuestionText string  `json:"question_text,omitempty"`
	Answer       string  `json:"answer"`
	Awarded      float64 `json:"awarded"`
	IsCorrect    *bool   `json:"is_correct,omitempty"`
	Graded       bool    `json:"graded"`
}

// Violation is an advisory proctoring event captured by the client.
type Violation struct {
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	QuestionIndex int       `json:"question_index"`
}

// ResultStatusFor derives pass/fail from marks.
func ResultStatusFor(marksObtained, passingMarks float64) string {
	if marksObtained >= passingMarks {
		return ResultStatusPass
	}
	return ResultStatusFail
}
