package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

func seedTest(t *testing.T, db *gorm.DB) models.Test {
	t.Helper()
	test := models.Test{
		Title:           "Algebra Basics",
		Standard:        "8",
		DurationMinutes: 30,
		TotalMarks:      10,
		PassingMarks:    5,
		Status:          models.TestStatusPublished,
		Questions: []models.Question{
			{Position: 2, Type: models.QuestionTypeTrueFalse, Text: "2+2=4", CorrectAnswer: "True", Marks: 5},
			{Position: 1, Type: models.QuestionTypeMCQ, Text: "3x=9, x=?", Options: []string{"1", "3"}, CorrectAnswer: "3", Marks: 5},
		},
	}
	require.NoError(t, NewTestRepository(db).Create(context.Background(), &test))
	return test
}

func TestTestRepositoryGetByIDOrdersQuestions(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedTest(t, db)

	test, err := NewTestRepository(db).GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, test.Questions, 2)
	require.Equal(t, 1, test.Questions[0].Position)
	require.Equal(t, []string{"1", "3"}, []string(test.Questions[0].Options))
}

func TestTestRepositoryUpdateStatusIsConditional(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedTest(t, db)
	repo := NewTestRepository(db)

	err := repo.UpdateStatus(context.Background(), seeded.ID, models.TestStatusDraft, models.TestStatusPublished)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.UpdateStatus(context.Background(), seeded.ID, models.TestStatusPublished, models.TestStatusCompleted))

	listed, err := repo.ListByStandard(context.Background(), "8", models.TestStatusCompleted)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestTestResultRepositoryInsertRejectsSecondResult(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedTest(t, db)
	repo := NewTestResultRepository(db)

	first := models.TestResult{TestID: seeded.ID, StudentID: 7, MarksObtained: 5, Status: models.ResultStatusPass, SubmittedAt: time.Now()}
	require.NoError(t, repo.Insert(context.Background(), &first))

	second := models.TestResult{TestID: seeded.ID, StudentID: 7, MarksObtained: 10, Status: models.ResultStatusPass, SubmittedAt: time.Now()}
	require.ErrorIs(t, repo.Insert(context.Background(), &second), ErrResultExists)

	exists, err := repo.Exists(context.Background(), seeded.ID, 7)
	require.NoError(t, err)
	require.True(t, exists)

	attempted, err := repo.AttemptedTestIDs(context.Background(), 7)
	require.NoError(t, err)
	require.Contains(t, attempted, seeded.ID)

	stored, err := repo.GetByTestAndStudent(context.Background(), seeded.ID, 7)
	require.NoError(t, err)
	require.Equal(t, float64(5), stored.MarksObtained)
}

func TestTestResultRepositoryConcurrentInsertsKeepOne(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedTest(t, db)
	repo := NewTestResultRepository(db)

	const callers = 6
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := models.TestResult{TestID: seeded.ID, StudentID: 9, Status: models.ResultStatusFail, SubmittedAt: time.Now()}
			errs <- repo.Insert(context.Background(), &result)
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrResultExists)
	}
	require.Equal(t, 1, succeeded)

	results, err := repo.ListByTest(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestTestResultRepositoryApplyGradeRejectsStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedTest(t, db)
	repo := NewTestResultRepository(db)

	result := models.TestResult{TestID: seeded.ID, StudentID: 3, Status: models.ResultStatusFail, SubmittedAt: time.Now()}
	require.NoError(t, repo.Insert(context.Background(), &result))

	first, err := repo.GetByID(context.Background(), result.ID)
	require.NoError(t, err)
	second := first

	first.MarksObtained = 4
	ok, err := repo.ApplyGrade(context.Background(), &first)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, first.Version)

	second.MarksObtained = 1
	ok, err = repo.ApplyGrade(context.Background(), &second)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := repo.GetByID(context.Background(), result.ID)
	require.NoError(t, err)
	require.Equal(t, float64(4), stored.MarksObtained)
	require.Equal(t, 1, stored.Version)
}
