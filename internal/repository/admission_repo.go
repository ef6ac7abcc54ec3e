package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

var (
	// ErrAdmissionAlreadyClaimed indicates another caller already promoted or removed the draft.
	ErrAdmissionAlreadyClaimed = errors.New("temporary admission already claimed")
	// ErrStudentEmailTaken indicates a permanent record already owns the email.
	ErrStudentEmailTaken = errors.New("student email already registered")
)

// StudentBuilder produces the permanent record for an allocated sequence number.
// An error aborts the promotion and rolls the sequence back.
type StudentBuilder func(admission models.TemporaryAdmission, sequence int64) (models.Student, error)

// AdmissionRepository promotes temporary admissions into permanent students.
type AdmissionRepository interface {
	Promote(ctx context.Context, tempID, counterName string, build StudentBuilder) (models.Student, error)
}

type admissionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAdmissionRepository constructs the admission promotion repository.
func NewAdmissionRepository(db *gorm.DB) AdmissionRepository {
	return &admissionRepository{db: db, now: time.Now}
}

// Promote claims the verified draft with a conditional delete, allocates the next
// sequence value and inserts the student, all in one transaction. Only one caller
// can win the delete for a given tempID; the rest get ErrAdmissionAlreadyClaimed.
func (r *admissionRepository) Promote(ctx context.Context, tempID, counterName string, build StudentBuilder) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admission models.TemporaryAdmission
		if err := tx.Where("id = ?", tempID).Take(&admission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAdmissionAlreadyClaimed
			}
			return err
		}

		claim := tx.Where("id = ? AND is_verified = ?", tempID, true).Delete(&models.TemporaryAdmission{})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected != 1 {
			return ErrAdmissionAlreadyClaimed
		}

		taken, err := studentEmailTaken(tx, admission.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrStudentEmailTaken
		}

		sequence, err := incrementCounter(tx, counterName, r.now().UTC())
		if err != nil {
			return err
		}

		student, err = build(admission, sequence)
		if err != nil {
			return err
		}
		if err := tx.Create(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrStudentEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Student{}, err
	}

	return student, nil
}
