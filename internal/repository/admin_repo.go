package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// AdminRepository stores back-office accounts.
type AdminRepository interface {
	GetByID(ctx context.Context, id uint) (models.Admin, error)
	GetByEmail(ctx context.Context, email string) (models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository constructs an admin repository.
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) GetByID(ctx context.Context, id uint) (models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return models.Admin{}, err
	}
	return admin, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&admin).Error; err != nil {
		return models.Admin{}, err
	}
	return admin, nil
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	admin.Email = normalizeEmail(admin.Email)
	return r.db.WithContext(ctx).Create(admin).Error
}
