package models

import "time"

// Payment status values for permanent admissions.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// ApplicantProfile holds the form fields shared by temporary and permanent admissions.
type ApplicantProfile struct {
	StudentName string    `gorm:"size:255;not null" json:"student_name"`
	FatherName  string    `gorm:"size:255;not null" json:"father_name"`
	MotherName  string    `gorm:"size:255;not null" json:"mother_name"`
	DateOfBirth time.Time `gorm:"not null" json:"date_of_birth"`
	Gender      string    `gorm:"size:16" json:"gender"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone       string    `gorm:"size:32;not null" json:"phone"`
	Address     string    `gorm:"type:text;not null" json:"address"`
	Standard    string    `gorm:"size:32;index;not null" json:"standard"`
	SchoolName  string    `gorm:"size:255" json:"school_name"`
	PhotoURL    string    `gorm:"size:512" json:"photo_url"`
}

// Student is the durable, credentialed record created when an admission is finalized.
type Student struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	RegistrationID   string `gorm:"size:32;uniqueIndex;not null" json:"registration_id"`
	ApplicantProfile `gorm:"embedded"`
	Password         string     `gorm:"size:16;not null" json:"-"`
	PaymentStatus    string     `gorm:"size:16;not null;default:pending" json:"payment_status"`
	IsPendingPayment bool       `gorm:"not null;default:false" json:"is_pending_payment"`
	PaymentAmount    int64      `gorm:"not null" json:"payment_amount"`
	OrderID          string     `gorm:"size:64;index" json:"order_id"`
	PaymentID        string     `gorm:"size:64;index" json:"payment_id"`
	AdmittedAt       *time.Time `json:"admitted_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CanLogin reports whether the student has cleared payment and may open a session.
func (s Student) CanLogin() bool {
	return !s.IsPendingPayment && s.PaymentStatus == PaymentStatusCompleted
}

// Admin is a back-office account.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
