package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// ErrResultExists indicates the student already has a result for the test.
var ErrResultExists = errors.New("test result already recorded")

// TestRepository defines data operations for assessments.
type TestRepository interface {
	Create(ctx context.Context, test *models.Test) error
	GetByID(ctx context.Context, id uint) (models.Test, error)
	ListByStandard(ctx context.Context, standard, status string) ([]models.Test, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) error
}

// TestResultRepository defines data operations for submissions to assessments.
type TestResultRepository interface {
	Insert(ctx context.Context, result *models.TestResult) error
	Exists(ctx context.Context, testID, studentID uint) (bool, error)
	GetByID(ctx context.Context, id uint) (models.TestResult, error)
	GetByTestAndStudent(ctx context.Context, testID, studentID uint) (models.TestResult, error)
	ListByTest(ctx context.Context, testID uint) ([]models.TestResult, error)
	AttemptedTestIDs(ctx context.Context, studentID uint) (map[uint]struct{}, error)
	ApplyGrade(ctx context.Context, result *models.TestResult) (bool, error)
}

type testRepository struct {
	db *gorm.DB
}

// NewTestRepository instantiates the repository.
func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(ctx context.Context, test *models.Test) error {
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) GetByID(ctx context.Context, id uint) (models.Test, error) {
	var test models.Test
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&test, id).Error
	if err != nil {
		return models.Test{}, err
	}

	return test, nil
}

func (r *testRepository) ListByStandard(ctx context.Context, standard, status string) ([]models.Test, error) {
	query := r.db.WithContext(ctx).Model(&models.Test{}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("standard = ?", standard)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var tests []models.Test
	if err := query.Order("created_at DESC").Find(&tests).Error; err != nil {
		return nil, err
	}

	return tests, nil
}

// UpdateStatus moves the test from one status to another, failing with
// gorm.ErrRecordNotFound when the test is not currently in the from state.
func (r *testRepository) UpdateStatus(ctx context.Context, id uint, from, to string) error {
	result := r.db.WithContext(ctx).Model(&models.Test{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type testResultRepository struct {
	db *gorm.DB
}

// NewTestResultRepository instantiates the repository.
func NewTestResultRepository(db *gorm.DB) TestResultRepository {
	return &testResultRepository{db: db}
}

// Insert appends the result unless one already exists for the (test, student)
// pair. The unique index makes the check and the write a single statement.
func (r *testResultRepository) Insert(ctx context.Context, result *models.TestResult) error {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "test_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(result)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return ErrResultExists
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrResultExists
	}
	return nil
}

func (r *testResultRepository) Exists(ctx context.Context, testID, studentID uint) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.TestResult{}).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		Count(&total).Error
	return total > 0, err
}

func (r *testResultRepository) GetByID(ctx context.Context, id uint) (models.TestResult, error) {
	var result models.TestResult
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return models.TestResult{}, err
	}
	return result, nil
}

func (r *testResultRepository) GetByTestAndStudent(ctx context.Context, testID, studentID uint) (models.TestResult, error) {
	var result models.TestResult
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		Take(&result).Error
	if err != nil {
		return models.TestResult{}, err
	}
	return result, nil
}

func (r *testResultRepository) ListByTest(ctx context.Context, testID uint) ([]models.TestResult, error) {
	var results []models.TestResult
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("marks_obtained DESC, submitted_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *testResultRepository) AttemptedTestIDs(ctx context.Context, studentID uint) (map[uint]struct{}, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.TestResult{}).
		Where("student_id = ?", studentID).
		Pluck("test_id", &ids).Error
	if err != nil {
		return nil, err
	}

	attempted := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		attempted[id] = struct{}{}
	}
	return attempted, nil
}

// ApplyGrade stores regraded answers and totals only if the result still carries
// the version it was read at, then bumps the version. It reports false when
// another write landed first.
func (r *testResultRepository) ApplyGrade(ctx context.Context, result *models.TestResult) (bool, error) {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&models.TestResult{}).
		Where("id = ? AND version = ?", result.ID, result.Version).
		Updates(map[string]interface{}{
			"answers":        result.Answers,
			"marks_obtained": result.MarksObtained,
			"status":         result.Status,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return false, nil
	}
	result.Version++
	result.UpdatedAt = now
	return true, nil
}
