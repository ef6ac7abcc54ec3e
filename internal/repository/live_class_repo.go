package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// LiveClassRepository persists scheduled classes and attendance bookkeeping.
type LiveClassRepository interface {
	Create(ctx context.Context, class *models.LiveClass) error
	GetByID(ctx context.Context, id uint) (models.LiveClass, error)
	ListUpcoming(ctx context.Context, standard string, after time.Time) ([]models.LiveClass, error)
	OpenAttendance(ctx context.Context, classID, studentID uint) (models.LiveClassAttendance, error)
	CreateAttendance(ctx context.Context, attendance *models.LiveClassAttendance) error
	UpdateAttendance(ctx context.Context, attendance *models.LiveClassAttendance) error
}

type liveClassRepository struct {
	db *gorm.DB
}

// NewLiveClassRepository constructs the live class repository.
func NewLiveClassRepository(db *gorm.DB) LiveClassRepository {
	return &liveClassRepository{db: db}
}

func (r *liveClassRepository) Create(ctx context.Context, class *models.LiveClass) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *liveClassRepository) GetByID(ctx context.Context, id uint) (models.LiveClass, error) {
	var class models.LiveClass
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.LiveClass{}, err
	}
	return class, nil
}

// ListUpcoming returns classes for the standard that have not finished yet.
func (r *liveClassRepository) ListUpcoming(ctx context.Context, standard string, after time.Time) ([]models.LiveClass, error) {
	var classes []models.LiveClass
	err := r.db.WithContext(ctx).
		Where("standard = ? AND starts_at >= ?", standard, after.Add(-24*time.Hour)).
		Order("starts_at ASC").
		Find(&classes).Error
	if err != nil {
		return nil, err
	}

	upcoming := classes[:0]
	for _, class := range classes {
		if class.EndsAt().After(after) {
			upcoming = append(upcoming, class)
		}
	}
	return upcoming, nil
}

func (r *liveClassRepository) OpenAttendance(ctx context.Context, classID, studentID uint) (models.LiveClassAttendance, error) {
	var attendance models.LiveClassAttendance
	err := r.db.WithContext(ctx).
		Where("live_class_id = ? AND student_id = ? AND left_at IS NULL", classID, studentID).
		Order("joined_at DESC").
		Take(&attendance).Error
	if err != nil {
		return models.LiveClassAttendance{}, err
	}
	return attendance, nil
}

func (r *liveClassRepository) CreateAttendance(ctx context.Context, attendance *models.LiveClassAttendance) error {
	return r.db.WithContext(ctx).Create(attendance).Error
}

func (r *liveClassRepository) UpdateAttendance(ctx context.Context, attendance *models.LiveClassAttendance) error {
	return r.db.WithContext(ctx).Save(attendance).Error
}
