package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/models"
	"github.com/noah-isme/risetutor-api/internal/observability"
	"github.com/noah-isme/risetutor-api/internal/repository"
	"github.com/noah-isme/risetutor-api/pkg/events"
)

var (
	// ErrForbidden indicates the caller may not access the resource.
	ErrForbidden = errors.New("access to this resource is not allowed")
	// ErrTestNotFound indicates the test does not exist.
	ErrTestNotFound = errors.New("test not found")
	// ErrTestNotAvailable indicates the test is not open for attempts.
	ErrTestNotAvailable = errors.New("test is not available")
	// ErrAlreadySubmitted indicates the student already attempted the test.
	ErrAlreadySubmitted = errors.New("test already submitted")
	// ErrResultNotFound indicates no result exists for the lookup.
	ErrResultNotFound = errors.New("test result not found")
	// ErrInvalidQuestion indicates a question definition is inconsistent.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidStatusTransition indicates the lifecycle move is not allowed.
	ErrInvalidStatusTransition = errors.New("invalid test status transition")
	// ErrAnswerNotGradable indicates the answer is graded automatically or absent.
	ErrAnswerNotGradable = errors.New("answer cannot be graded manually")
	// ErrMarksOutOfRange indicates manual marks exceed the question's weight.
	ErrMarksOutOfRange = errors.New("marks out of range")
	// ErrGradeConflict indicates the result kept changing while a grade was being applied.
	ErrGradeConflict = errors.New("result was modified concurrently, retry grading")
)

// maxGradeAttempts bounds the reread-and-retry loop when concurrent grades collide.
const maxGradeAttempts = 3

// StudentIdentity is the caller of student test operations.
type StudentIdentity struct {
	ID       uint
	Standard string
}

// TestService exposes assessments to students.
type TestService interface {
	ListAvailable(ctx context.Context, student StudentIdentity) ([]dto.TestSummary, error)
	Fetch(ctx context.Context, testID uint, student StudentIdentity) (dto.TestView, error)
	Submit(ctx context.Context, testID uint, student StudentIdentity, req dto.SubmitTestRequest) (dto.SubmitTestResponse, error)
	MyResult(ctx context.Context, testID uint, student StudentIdentity) (dto.TestResultResponse, error)
}

// TestAdminService exposes assessment authoring and grading to staff.
type TestAdminService interface {
	Create(ctx context.Context, adminID uint, req dto.CreateTestRequest) (dto.AdminTestResponse, error)
	Get(ctx context.Context, testID uint) (dto.AdminTestResponse, error)
	UpdateStatus(ctx context.Context, adminID, testID uint, req dto.UpdateTestStatusRequest) (dto.AdminTestResponse, error)
	ListResults(ctx context.Context, testID uint) ([]dto.TestResultResponse, error)
	GradeAnswer(ctx context.Context, adminID, testID, resultID uint, req dto.GradeAnswerRequest) (dto.TestResultResponse, error)
}

type testService struct {
	tests     repository.TestRepository
	results   repository.TestResultRepository
	students  repository.StudentRepository
	publisher events.Publisher
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewTestService constructs the student-facing assessment service.
func NewTestService(tests repository.TestRepository, results repository.TestResultRepository, students repository.StudentRepository, publisher events.Publisher, validator *validator.Validate, logger zerolog.Logger) TestService {
	return newTestService(tests, results, students, publisher, validator, logger)
}

// NewTestAdminService constructs the staff assessment service. Authoring and
// grading actions are written to the activity recorder when one is given.
func NewTestAdminService(tests repository.TestRepository, results repository.TestResultRepository, students repository.StudentRepository, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) TestAdminService {
	svc := newTestService(tests, results, students, nil, validator, logger)
	svc.activity = activity
	return svc
}

func newTestService(tests repository.TestRepository, results repository.TestResultRepository, students repository.StudentRepository, publisher events.Publisher, validator *validator.Validate, logger zerolog.Logger) *testService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &testService{
		tests:     tests,
		results:   results,
		students:  students,
		publisher: publisher,
		validator: validator,
		sanitizer: newTextSanitizer(),
		logger:    logger.With().Str("component", "test_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/risetutor-api/internal/service/test"),
		now:       time.Now,
	}
}

func (s *testService) ListAvailable(ctx context.Context, student StudentIdentity) ([]dto.TestSummary, error) {
	ctx, span := s.tracer.Start(ctx, "tests.list_available", trace.WithAttributes(attribute.String("test.standard", student.Standard)))
	defer span.End()

	tests, err := s.tests.ListByStandard(ctx, student.Standard, models.TestStatusPublished)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	attempted, err := s.results.AttemptedTestIDs(ctx, student.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	items := make([]dto.TestSummary, 0, len(tests))
	for _, test := range tests {
		_, done := attempted[test.ID]
		items = append(items, dto.TestSummary{
			ID:              test.ID,
			Title:           test.Title,
			Subject:         test.Subject,
			Standard:        test.Standard,
			DurationMinutes: test.DurationMinutes,
			TotalMarks:      test.TotalMarks,
			QuestionCount:   len(test.Questions),
			Status:          test.Status,
			Attempted:       done,
		})
	}

	return items, nil
}

func (s *testService) Fetch(ctx context.Context, testID uint, student StudentIdentity) (dto.TestView, error) {
	ctx, span := s.tracer.Start(ctx, "tests.fetch", trace.WithAttributes(attribute.Int64("test.id", int64(testID))))
	defer span.End()

	test, err := s.attemptable(ctx, testID, student)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.TestView{}, err
	}

	return dto.NewTestView(test), nil
}

func (s *testService) Submit(ctx context.Context, testID uint, student StudentIdentity, req dto.SubmitTestRequest) (dto.SubmitTestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "tests.submit", trace.WithAttributes(
		attribute.Int64("test.id", int64(testID)),
		attribute.Int64("student.id", int64(student.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.SubmitTestResponse{}, err
	}

	test, err := s.attemptable(ctx, testID, student)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.SubmitTestResponse{}, err
	}

	answers, obtained := gradeSubmission(test.Questions, req.Answers)
	violations := make([]models.Violation, 0, len(req.Violations))
	for _, v := range req.Violations {
		violations = append(violations, models.Violation{
			Type:          strings.TrimSpace(v.Type),
			OccurredAt:    v.OccurredAt.UTC(),
			QuestionIndex: v.QuestionIndex,
		})
	}

	now := s.now().UTC()
	result := models.TestResult{
		TestID:           test.ID,
		StudentID:        student.ID,
		MarksObtained:    obtained,
		Status:           models.ResultStatusFor(obtained, test.PassingMarks),
		TimeSpentSeconds: req.TimeSpentSeconds,
		Answers:          datatypes.NewJSONSlice(answers),
		Violations:       datatypes.NewJSONSlice(violations),
		SubmittedAt:      now,
	}
	if err := s.results.Insert(ctx, &result); err != nil {
		if errors.Is(err, repository.ErrResultExists) {
			span.SetStatus(codes.Error, "already submitted")
			return dto.SubmitTestResponse{}, ErrAlreadySubmitted
		}
		span.RecordError(err)
		return dto.SubmitTestResponse{}, err
	}

	observability.TestSubmissions().WithLabelValues(result.Status).Inc()
	if err := s.publisher.Publish(ctx, events.SubjectTestSubmitted, map[string]interface{}{
		"testId":        test.ID,
		"studentId":     student.ID,
		"marksObtained": result.MarksObtained,
		"status":        result.Status,
		"violations":    len(violations),
		"submittedAt":   now,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("test_id", test.ID).Msg("failed to publish submission event")
	}

	s.logger.Info().
		Uint("test_id", test.ID).
		Uint("student_id", student.ID).
		Float64("marks", result.MarksObtained).
		Int("violations", len(violations)).
		Msg("test submitted")

	return dto.SubmitTestResponse{
		ResultID:        result.ID,
		MarksObtained:   result.MarksObtained,
		TotalMarks:      test.TotalMarks,
		PassingMarks:    test.PassingMarks,
		Status:          result.Status,
		ViolationsCount: len(violations),
	}, nil
}

func (s *testService) MyResult(ctx context.Context, testID uint, student StudentIdentity) (dto.TestResultResponse, error) {
	result, err := s.results.GetByTestAndStudent(ctx, testID, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestResultResponse{}, ErrResultNotFound
		}
		return dto.TestResultResponse{}, err
	}
	return dto.NewTestResultResponse(result), nil
}

// attemptable loads a test the student may still open or submit.
func (s *testService) attemptable(ctx context.Context, testID uint, student StudentIdentity) (models.Test, error) {
	test, err := s.load(ctx, testID)
	if err != nil {
		return models.Test{}, err
	}
	if test.Standard != student.Standard {
		return models.Test{}, ErrForbidden
	}
	if test.Status != models.TestStatusPublished {
		return models.Test{}, ErrTestNotAvailable
	}

	submitted, err := s.results.Exists(ctx, test.ID, student.ID)
	if err != nil {
		return models.Test{}, err
	}
	if submitted {
		return models.Test{}, ErrAlreadySubmitted
	}
	return test, nil
}

func (s *testService) load(ctx context.Context, testID uint) (models.Test, error) {
	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Test{}, ErrTestNotFound
		}
		return models.Test{}, err
	}
	return test, nil
}

func (s *testService) Create(ctx context.Context, adminID uint, req dto.CreateTestRequest) (dto.AdminTestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "tests.create")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.AdminTestResponse{}, err
	}

	questions := make([]models.Question, 0, len(req.Questions))
	var total float64
	for idx, input := range req.Questions {
		question, err := s.buildQuestion(idx, input)
		if err != nil {
			span.SetStatus(codes.Error, "invalid question")
			return dto.AdminTestResponse{}, err
		}
		total += question.Marks
		questions = append(questions, question)
	}
	if req.PassingMarks > total {
		return dto.AdminTestResponse{}, fmt.Errorf("%w: passing marks exceed total marks %.2f", ErrInvalidQuestion, total)
	}

	test := models.Test{
		Title:           cleanText(s.sanitizer, req.Title),
		Description:     cleanText(s.sanitizer, req.Description),
		Subject:         cleanText(s.sanitizer, req.Subject),
		Standard:        strings.TrimSpace(req.Standard),
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      total,
		PassingMarks:    req.PassingMarks,
		Status:          models.TestStatusDraft,
		CreatedBy:       adminID,
		Questions:       questions,
	}
	if err := s.tests.Create(ctx, &test); err != nil {
		span.RecordError(err)
		return dto.AdminTestResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    adminID,
		Action:     models.ActivityTestCreated,
		EntityType: models.ActivityEntityTest,
		EntityID:   uintPtr(test.ID),
		Metadata:   map[string]interface{}{"title": test.Title, "standard": test.Standard, "total_marks": test.TotalMarks},
	})
	s.logger.Info().Uint("test_id", test.ID).Str("standard", test.Standard).Int("questions", len(questions)).Msg("test created")
	return dto.NewAdminTestResponse(test), nil
}

func (s *testService) buildQuestion(idx int, input dto.QuestionInput) (models.Question, error) {
	question := models.Question{
		Position:      idx + 1,
		Type:          input.Type,
		Text:          strings.TrimSpace(input.Text),
		CorrectAnswer: strings.TrimSpace(input.CorrectAnswer),
		Marks:         input.Marks,
	}
	invalid := func(reason string) error {
		return fmt.Errorf("%w: question %d %s", ErrInvalidQuestion, idx+1, reason)
	}

	switch input.Type {
	case models.QuestionTypeMCQ:
		options := make([]string, 0, len(input.Options))
		found := false
		for _, option := range input.Options {
			option = strings.TrimSpace(option)
			options = append(options, option)
			if option == question.CorrectAnswer {
				found = true
			}
		}
		if len(options) < 2 {
			return models.Question{}, invalid("needs at least two options")
		}
		if question.CorrectAnswer == "" || !found {
			return models.Question{}, invalid("correct answer must be one of the options")
		}
		question.Options = datatypes.NewJSONSlice(options)
	case models.QuestionTypeTrueFalse:
		if question.CorrectAnswer != "True" && question.CorrectAnswer != "False" {
			return models.Question{}, invalid("correct answer must be True or False")
		}
		question.Options = datatypes.NewJSONSlice([]string{"True", "False"})
	default:
		question.Options = datatypes.NewJSONSlice([]string{})
	}

	return question, nil
}

func (s *testService) Get(ctx context.Context, testID uint) (dto.AdminTestResponse, error) {
	test, err := s.load(ctx, testID)
	if err != nil {
		return dto.AdminTestResponse{}, err
	}
	return dto.NewAdminTestResponse(test), nil
}

func (s *testService) UpdateStatus(ctx context.Context, adminID, testID uint, req dto.UpdateTestStatusRequest) (dto.AdminTestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "tests.update_status")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.AdminTestResponse{}, err
	}

	test, err := s.load(ctx, testID)
	if err != nil {
		return dto.AdminTestResponse{}, err
	}

	from := models.TestStatusDraft
	if req.Status == models.TestStatusCompleted {
		from = models.TestStatusPublished
	}
	if test.Status != from {
		return dto.AdminTestResponse{}, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, test.Status, req.Status)
	}

	if err := s.tests.UpdateStatus(ctx, testID, from, req.Status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminTestResponse{}, ErrInvalidStatusTransition
		}
		span.RecordError(err)
		return dto.AdminTestResponse{}, err
	}

	test.Status = req.Status
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    adminID,
		Action:     models.ActivityTestStatusChanged,
		EntityType: models.ActivityEntityTest,
		EntityID:   uintPtr(testID),
		Metadata:   map[string]interface{}{"from": from, "to": req.Status},
	})
	s.logger.Info().Uint("test_id", testID).Str("status", req.Status).Msg("test status updated")
	return dto.NewAdminTestResponse(test), nil
}

func (s *testService) ListResults(ctx context.Context, testID uint) ([]dto.TestResultResponse, error) {
	if _, err := s.load(ctx, testID); err != nil {
		return nil, err
	}

	results, err := s.results.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(results))
	for _, result := range results {
		ids = append(ids, result.StudentID)
	}
	students, err := s.students.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TestResultResponse, 0, len(results))
	for _, result := range results {
		item := dto.NewTestResultResponse(result)
		if student, ok := students[result.StudentID]; ok {
			item.StudentName = student.StudentName
			item.RegistrationID = student.RegistrationID
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *testService) GradeAnswer(ctx context.Context, adminID, testID, resultID uint, req dto.GradeAnswerRequest) (dto.TestResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "tests.grade_answer")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.TestResultResponse{}, err
	}

	test, err := s.load(ctx, testID)
	if err != nil {
		return dto.TestResultResponse{}, err
	}

	var question *models.Question
	for i := range test.Questions {
		if test.Questions[i].ID == req.QuestionID {
			question = &test.Questions[i]
			break
		}
	}
	if question == nil || question.IsObjective() {
		return dto.TestResultResponse{}, ErrAnswerNotGradable
	}
	if req.Marks < 0 || req.Marks > question.Marks {
		return dto.TestResultResponse{}, fmt.Errorf("%w: 0 to %.2f", ErrMarksOutOfRange, question.Marks)
	}

	var result models.TestResult
	applied := false
	for attempt := 0; attempt < maxGradeAttempts && !applied; attempt++ {
		result, err = s.results.GetByID(ctx, resultID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.TestResultResponse{}, ErrResultNotFound
			}
			return dto.TestResultResponse{}, err
		}
		if result.TestID != test.ID {
			return dto.TestResultResponse{}, ErrResultNotFound
		}
		if !applyGrade(&result, question.ID, req.Marks, test.PassingMarks) {
			return dto.TestResultResponse{}, ErrAnswerNotGradable
		}

		applied, err = s.results.ApplyGrade(ctx, &result)
		if err != nil {
			span.RecordError(err)
			return dto.TestResultResponse{}, err
		}
		if !applied {
			s.logger.Debug().Uint("result_id", resultID).Int("attempt", attempt+1).Msg("result changed while grading, retrying")
		}
	}
	if !applied {
		span.RecordError(ErrGradeConflict)
		return dto.TestResultResponse{}, ErrGradeConflict
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    adminID,
		Action:     models.ActivityAnswerGraded,
		EntityType: models.ActivityEntityTestResult,
		EntityID:   uintPtr(result.ID),
		Metadata:   map[string]interface{}{"test_id": testID, "question_id": question.ID, "marks": req.Marks},
	})
	s.logger.Info().Uint("result_id", result.ID).Uint("question_id", question.ID).Float64("marks", req.Marks).Msg("answer graded")
	return dto.NewTestResultResponse(result), nil
}

// applyGrade awards marks to the answer for questionID and recomputes the totals.
// It reports false when the result holds no answer for that question.
func applyGrade(result *models.TestResult, questionID uint, marks, passingMarks float64) bool {
	answers := []models.AnswerRecord(result.Answers)
	graded := false
	var obtained float64
	for i := range answers {
		if answers[i].QuestionID == questionID {
			answers[i].Awarded = marks
			answers[i].Graded = true
			graded = true
		}
		obtained += answers[i].Awarded
	}
	if !graded {
		return false
	}

	result.Answers = datatypes.NewJSONSlice(answers)
	result.MarksObtained = obtained
	result.Status = models.ResultStatusFor(obtained, passingMarks)
	return true
}

// gradeSubmission matches answers to questions by ID, falling back to exact
// question text, and scores objective questions. Subjective answers are kept
// ungraded at zero marks. Only the first answer per question counts.
func gradeSubmission(questions []models.Question, answers []dto.AnswerInput) ([]models.AnswerRecord, float64) {
	byID := make(map[uint]models.Question, len(questions))
	byText := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
		if _, exists := byText[q.Text]; !exists {
			byText[q.Text] = q
		}
	}

	seen := make(map[uint]struct{}, len(answers))
	records := make([]models.AnswerRecord, 0, len(answers))
	var total float64
	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok || answer.QuestionID == 0 {
			question, ok = byText[answer.QuestionText]
		}
		if !ok {
			continue
		}
		if _, dup := seen[question.ID]; dup {
			continue
		}
		seen[question.ID] = struct{}{}

		record := models.AnswerRecord{
			QuestionID:   question.ID,
			QuestionText: question.Text,
			Answer:       answer.Answer,
		}
		if question.IsObjective() {
			correct := answer.Answer == question.CorrectAnswer
			record.IsCorrect = &correct
			record.Graded = true
			if correct {
				record.Awarded = question.Marks
			}
		}
		total += record.Awarded
		records = append(records, record)
	}

	return records, total
}
