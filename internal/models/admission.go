package models

import "time"

// TemporaryAdmission is the time-boxed draft created when an applicant submits the admission form.
// It carries the OTP challenge and is removed on finalization, on expiry or when superseded.
type TemporaryAdmission struct {
	ID               string `gorm:"primaryKey;size:36" json:"id"`
	ApplicantProfile `gorm:"embedded"`
	OTP              *string   `gorm:"column:otp;size:6" json:"-"`
	OTPExpiry        time.Time `gorm:"column:otp_expiry;not null" json:"-"`
	IsVerified       bool      `gorm:"not null;default:false" json:"is_verified"`
	ExpiresAt        time.Time `gorm:"index;not null" json:"expires_at"`
	PaymentAmount    int64     `gorm:"not null" json:"payment_amount"`
	OrderID          string    `gorm:"size:64" json:"order_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsExpired reports whether the record outlived its lifetime.
func (t TemporaryAdmission) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// OTPUsable reports whether the challenge can still be checked.
func (t TemporaryAdmission) OTPUsable(now time.Time) bool {
	return !t.IsVerified && t.OTP != nil && now.Before(t.OTPExpiry)
}

// Counter is a named monotonically increasing sequence.
type Counter struct {
	Name      string    `gorm:"primaryKey;size:64" json:"name"`
	Value     int64     `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
