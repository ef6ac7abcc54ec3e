package dto

import (
	"time"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// QuestionInput describes one question when an admin creates a test.
type QuestionInput struct {
	Type          string   `json:"type" validate:"required,oneof='MCQ' 'True/False' 'Short Answer' 'Long Answer'"`
	Text          string   `json:"text" validate:"required,max=2000"`
	Options       []string `json:"options" validate:"omitempty,max=10,dive,required,max=500"`
	CorrectAnswer string   `json:"correctAnswer" validate:"omitempty,max=512"`
	Marks         float64  `json:"marks" validate:"required,gt=0"`
}

// CreateTestRequest creates a draft test.
type CreateTestRequest struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Description     string          `json:"description" validate:"omitempty,max=5000"`
	Subject         string          `json:"subject" validate:"omitempty,max=128"`
	Standard        string          `json:"standard" validate:"required,max=20"`
	DurationMinutes int             `json:"durationMinutes" validate:"required,min=1,max=600"`
	PassingMarks    float64         `json:"passingMarks" validate:"gte=0"`
	Questions       []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// UpdateTestStatusRequest moves a test along its lifecycle.
type UpdateTestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Published Completed"`
}

// QuestionView is a question as shown to a student, without the correct answer.
type QuestionView struct {
	ID      uint     `json:"id"`
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
	Marks   float64  `json:"marks"`
}

// TestView is the student-facing shape of a test. Results and answers are never included.
type TestView struct {
	ID              uint           `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Subject         string         `json:"subject"`
	Standard        string         `json:"standard"`
	DurationMinutes int            `json:"durationMinutes"`
	TotalMarks      float64        `json:"totalMarks"`
	PassingMarks    float64        `json:"passingMarks"`
	Status          string         `json:"status"`
	Questions       []QuestionView `json:"questions"`
}

// NewTestView strips correct answers and results from a test.
func NewTestView(test models.Test) TestView {
	questions := make([]QuestionView, 0, len(test.Questions))
	for _, q := range test.Questions {
		questions = append(questions, QuestionView{
			ID:      q.ID,
			Type:    q.Type,
			Text:    q.Text,
			Options: []string(q.Options),
			Marks:   q.Marks,
		})
	}
	return TestView{
		ID:              test.ID,
		Title:           test.Title,
		Description:     test.Description,
		Subject:         test.Subject,
		Standard:        test.Standard,
		DurationMinutes: test.DurationMinutes,
		TotalMarks:      test.TotalMarks,
		PassingMarks:    test.PassingMarks,
		Status:          test.Status,
		Questions:       questions,
	}
}

// TestSummary is a list entry for available tests.
type TestSummary struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	Subject         string  `json:"subject"`
	Standard        string  `json:"standard"`
	DurationMinutes int     `json:"durationMinutes"`
	TotalMarks      float64 `json:"totalMarks"`
	QuestionCount   int     `json:"questionCount"`
	Status          string  `json:"status"`
	Attempted       bool    `json:"attempted"`
}

// AdminTestResponse is the staff view of a test including correct answers.
type AdminTestResponse struct {
	ID              uint              `json:"id"`
	Title           string            `json:"title"`
	Standard        string            `json:"standard"`
	DurationMinutes int               `json:"durationMinutes"`
	TotalMarks      float64           `json:"totalMarks"`
	PassingMarks    float64           `json:"passingMarks"`
	Status          string            `json:"status"`
	Questions       []models.Question `json:"questions"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// NewAdminTestResponse maps a test for staff endpoints.
func NewAdminTestResponse(test models.Test) AdminTestResponse {
	return AdminTestResponse{
		ID:              test.ID,
		Title:           test.Title,
		Standard:        test.Standard,
		DurationMinutes: test.DurationMinutes,
		TotalMarks:      test.TotalMarks,
		PassingMarks:    test.PassingMarks,
		Status:          test.Status,
		Questions:       test.Questions,
		CreatedAt:       test.CreatedAt,
	}
}

// AnswerInput is one submitted answer. QuestionID may be omitted when QuestionText is given.
type AnswerInput struct {
	QuestionID   uint   `json:"questionId"`
	QuestionText string `json:"questionText" validate:"omitempty,max=2000"`
	Answer       string `json:"answer" validate:"max=10000"`
}

// ViolationInput is one proctoring event reported by the client.
type ViolationInput struct {
	Type          string    `json:"type" validate:"required,max=64"`
	OccurredAt    time.Time `json:"timestamp"`
	QuestionIndex int       `json:"questionIndex" validate:"gte=0"`
}

// SubmitTestRequest is a student's completed attempt.
type SubmitTestRequest struct {
	Answers          []AnswerInput    `json:"answers" validate:"max=500,dive"`
	Violations       []ViolationInput `json:"violations" validate:"max=1000,dive"`
	TimeSpentSeconds int              `json:"timeSpent" validate:"gte=0"`
}

// SubmitTestResponse summarises the graded attempt.
type SubmitTestResponse struct {
	ResultID        uint    `json:"resultId"`
	MarksObtained   float64 `json:"marksObtained"`
	TotalMarks      float64 `json:"totalMarks"`
	PassingMarks    float64 `json:"passingMarks"`
	Status          string  `json:"status"`
	ViolationsCount int     `json:"violationsCount"`
}

// TestResultResponse is a stored result, optionally labelled with the student.
type TestResultResponse struct {
	ID               uint                  `json:"id"`
	TestID           uint                  `json:"testId"`
	StudentID        uint                  `json:"studentId"`
	StudentName      string                `json:"studentName,omitempty"`
	RegistrationID   string                `json:"registrationId,omitempty"`
	MarksObtained    float64               `json:"marksObtained"`
	Status           string                `json:"status"`
	TimeSpentSeconds int                   `json:"timeSpent"`
	Answers          []models.AnswerRecord `json:"answers"`
	Violations       []models.Violation    `json:"violations"`
	SubmittedAt      time.Time             `json:"submittedAt"`
}

// NewTestResultResponse maps a stored result.
func NewTestResultResponse(result models.TestResult) TestResultResponse {
	return TestResultResponse{
		ID:               result.ID,
		TestID:           result.TestID,
		StudentID:        result.StudentID,
		MarksObtained:    result.MarksObtained,
		Status:           result.Status,
		TimeSpentSeconds: result.TimeSpentSeconds,
		Answers:          []models.AnswerRecord(result.Answers),
		Violations:       []models.Violation(result.Violations),
		SubmittedAt:      result.SubmittedAt,
	}
}

// GradeAnswerRequest sets manual marks for one answer.
type GradeAnswerRequest struct {
	QuestionID uint    `json:"questionId" validate:"required"`
	Marks      float64 `json:"marks" validate:"gte=0"`
}
