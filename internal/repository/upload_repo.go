package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// UploadRepository persists metadata about uploaded files.
type UploadRepository interface {
	Create(ctx context.Context, record *models.UploadRecord) error
	ReassignOwner(ctx context.Context, fromRef, toRef string) error
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository constructs a repository for upload records.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, record *models.UploadRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ReassignOwner moves uploads filed under a draft reference to the permanent owner.
func (r *uploadRepository) ReassignOwner(ctx context.Context, fromRef, toRef string) error {
	return r.db.WithContext(ctx).Model(&models.UploadRecord{}).Where("owner_ref = ?", fromRef).Update("owner_ref", toRef).Error
}
