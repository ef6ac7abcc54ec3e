package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// TemporaryAdmissionRepository persists in-flight admission drafts.
type TemporaryAdmissionRepository interface {
	Create(ctx context.Context, admission *models.TemporaryAdmission) error
	GetByID(ctx context.Context, id string) (models.TemporaryAdmission, error)
	ReissueOTP(ctx context.Context, id, otp string, otpExpiry, now time.Time) (bool, error)
	ConsumeOTP(ctx context.Context, id, otp, orderID string, now time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

type temporaryAdmissionRepository struct {
	db *gorm.DB
}

// NewTemporaryAdmissionRepository constructs the repository.
func NewTemporaryAdmissionRepository(db *gorm.DB) TemporaryAdmissionRepository {
	return &temporaryAdmissionRepository{db: db}
}

func (r *temporaryAdmissionRepository) Create(ctx context.Context, admission *models.TemporaryAdmission) error {
	return r.db.WithContext(ctx).Create(admission).Error
}

func (r *temporaryAdmissionRepository) GetByID(ctx context.Context, id string) (models.TemporaryAdmission, error) {
	var admission models.TemporaryAdmission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&admission).Error; err != nil {
		return models.TemporaryAdmission{}, err
	}

	return admission, nil
}

// ReissueOTP replaces the code on a live draft and resets verification. It never
// recreates a draft that was finalized, superseded or swept after it was read,
// and reports false when no live draft matched.
func (r *temporaryAdmissionRepository) ReissueOTP(ctx context.Context, id, otp string, otpExpiry, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TemporaryAdmission{}).
		Where("id = ? AND expires_at > ?", id, now).
		Updates(map[string]interface{}{
			"otp":         otp,
			"otp_expiry":  otpExpiry,
			"is_verified": false,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ConsumeOTP marks the draft verified and attaches the payment order only if the code
// is still outstanding. It reports false when another caller consumed it first.
func (r *temporaryAdmissionRepository) ConsumeOTP(ctx context.Context, id, otp, orderID string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TemporaryAdmission{}).
		Where("id = ? AND is_verified = ? AND otp = ? AND otp_expiry > ? AND expires_at > ?", id, false, otp, now, now).
		Updates(map[string]interface{}{
			"otp":         nil,
			"is_verified": true,
			"order_id":    orderID,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *temporaryAdmissionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TemporaryAdmission{}).Error
}

func (r *temporaryAdmissionRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	result := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Delete(&models.TemporaryAdmission{})
	return result.RowsAffected, result.Error
}

func (r *temporaryAdmissionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.TemporaryAdmission{})
	return result.RowsAffected, result.Error
}

func (r *temporaryAdmissionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.TemporaryAdmission{}).Where("expires_at > ?", now).Count(&total).Error
	return total, err
}
