package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// StudentFilter narrows student listings for the back office.
type StudentFilter struct {
	Search   string
	Standard string
	Page     int
	PageSize int
}

// StudentRepository provides access to permanent student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByEmail(ctx context.Context, email string) (models.Student, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return studentEmailTaken(r.db.WithContext(ctx), email)
}

func (r *studentRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]models.Student, error) {
	result := make(map[uint]models.Student, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var students []models.Student
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&students).Error; err != nil {
		return nil, err
	}
	for _, student := range students {
		result[student.ID] = student
	}

	return result, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(student_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(registration_id) LIKE ?", like, like, like)
	}

	if filter.Standard != "" {
		query = query.Where("standard = ?", filter.Standard)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func studentEmailTaken(db *gorm.DB, email string) (bool, error) {
	var student models.Student
	err := db.Select("id").Where("email = ?", normalizeEmail(email)).Take(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
