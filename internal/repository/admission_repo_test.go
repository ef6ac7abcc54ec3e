package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/models"
)

func seedTemporaryAdmission(t *testing.T, repo TemporaryAdmissionRepository, id, email string, verified bool) models.TemporaryAdmission {
	t.Helper()
	now := time.Now().UTC()
	admission := models.TemporaryAdmission{
		ID: id,
		ApplicantProfile: models.ApplicantProfile{
			StudentName: "Asha Verma",
			FatherName:  "Ravi Verma",
			MotherName:  "Meena Verma",
			DateOfBirth: time.Date(2010, time.March, 7, 0, 0, 0, 0, time.UTC),
			Email:       email,
			Phone:       "9876543210",
			Address:     "12 Park Street",
			Standard:    "8",
		},
		OTPExpiry:     now.Add(10 * time.Minute),
		IsVerified:    verified,
		ExpiresAt:     now.Add(30 * time.Minute),
		PaymentAmount: 50000,
	}
	require.NoError(t, repo.Create(context.Background(), &admission))
	return admission
}

func buildStudent(admission models.TemporaryAdmission, sequence int64) (models.Student, error) {
	return models.Student{
		RegistrationID:   fmt.Sprintf("RT26%04d", sequence),
		ApplicantProfile: admission.ApplicantProfile,
		Password:         admission.DateOfBirth.Format("02012006"),
		PaymentStatus:    models.PaymentStatusCompleted,
		PaymentAmount:    admission.PaymentAmount,
	}, nil
}

func TestCounterRepositoryNextIsSequentialUnderConcurrency(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCounterRepository(db)

	const workers = 20
	values := make(chan int64, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := repo.Next(context.Background(), "registration_26")
			if err != nil {
				errs <- err
				return
			}
			values <- value
		}()
	}
	wg.Wait()
	close(values)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := map[int64]bool{}
	for value := range values {
		require.False(t, seen[value], "duplicate counter value %d", value)
		seen[value] = true
	}
	require.Len(t, seen, workers)

	current, err := repo.Current(context.Background(), "registration_26")
	require.NoError(t, err)
	require.Equal(t, int64(workers), current)
}

func TestAdmissionRepositoryPromoteCreatesStudentAndDeletesDraft(t *testing.T) {
	db := setupTestDB(t)
	temps := NewTemporaryAdmissionRepository(db)
	repo := NewAdmissionRepository(db)

	seedTemporaryAdmission(t, temps, "temp-1", "asha@example.com", true)

	student, err := repo.Promote(context.Background(), "temp-1", "registration_26", buildStudent)
	require.NoError(t, err)
	require.Equal(t, "RT260001", student.RegistrationID)
	require.Equal(t, "07032010", student.Password)
	require.NotZero(t, student.ID)

	_, err = temps.GetByID(context.Background(), "temp-1")
	require.Error(t, err)

	_, err = repo.Promote(context.Background(), "temp-1", "registration_26", buildStudent)
	require.ErrorIs(t, err, ErrAdmissionAlreadyClaimed)
}

func TestAdmissionRepositoryPromoteRequiresVerifiedDraft(t *testing.T) {
	db := setupTestDB(t)
	temps := NewTemporaryAdmissionRepository(db)
	repo := NewAdmissionRepository(db)

	seedTemporaryAdmission(t, temps, "temp-unverified", "unverified@example.com", false)

	_, err := repo.Promote(context.Background(), "temp-unverified", "registration_26", buildStudent)
	require.ErrorIs(t, err, ErrAdmissionAlreadyClaimed)

	_, err = temps.GetByID(context.Background(), "temp-unverified")
	require.NoError(t, err, "rolled back claim must leave the draft in place")
}

func TestAdmissionRepositoryPromoteRejectsTakenEmail(t *testing.T) {
	db := setupTestDB(t)
	temps := NewTemporaryAdmissionRepository(db)
	repo := NewAdmissionRepository(db)

	existing := seedTemporaryAdmission(t, temps, "temp-a", "dup@example.com", true)
	require.NoError(t, db.Create(&models.Student{RegistrationID: "RT250001", ApplicantProfile: existing.ApplicantProfile, Password: "07032010"}).Error)

	_, err := repo.Promote(context.Background(), "temp-a", "registration_26", buildStudent)
	require.ErrorIs(t, err, ErrStudentEmailTaken)

	_, err = NewCounterRepository(db).Current(context.Background(), "registration_26")
	require.Error(t, err, "failed promotion must not consume a sequence value")
}

func TestAdmissionRepositoryPromoteConcurrentClaimsCreateOneStudent(t *testing.T) {
	db := setupTestDB(t)
	temps := NewTemporaryAdmissionRepository(db)
	repo := NewAdmissionRepository(db)

	seedTemporaryAdmission(t, temps, "temp-race", "race@example.com", true)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Promote(context.Background(), "temp-race", "registration_26", buildStudent)
			errs <- err
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
		require.ErrorIs(t, err, ErrAdmissionAlreadyClaimed)
	}
	require.Equal(t, 1, succeeded)

	var total int64
	require.NoError(t, db.Model(&models.Student{}).Count(&total).Error)
	require.Equal(t, int64(1), total)
}

func TestTemporaryAdmissionRepositorySweeps(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemporaryAdmissionRepository(db)

	fresh := seedTemporaryAdmission(t, repo, "temp-fresh", "fresh@example.com", false)
	stale := seedTemporaryAdmission(t, repo, "temp-stale", "stale@example.com", false)
	require.NoError(t, db.Model(&models.TemporaryAdmission{}).
		Where("id = ?", stale.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	active, err := repo.CountActive(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, int64(1), active)

	removed, err := repo.DeleteExpired(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	removed, err = repo.DeleteByEmail(context.Background(), "  FRESH@example.com ")
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, err = repo.GetByID(context.Background(), fresh.ID)
	require.Error(t, err)
}

func TestTemporaryAdmissionRepositoryConsumeOTPOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemporaryAdmissionRepository(db)

	admission := seedTemporaryAdmission(t, repo, "temp-otp", "otp@example.com", false)
	code := "482913"
	now := time.Now().UTC()
	reissued, err := repo.ReissueOTP(context.Background(), admission.ID, code, now.Add(10*time.Minute), now)
	require.NoError(t, err)
	require.True(t, reissued)

	ok, err := repo.ConsumeOTP(context.Background(), admission.ID, "000000", "order_1", now)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.ConsumeOTP(context.Background(), admission.ID, code, "order_1", now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ConsumeOTP(context.Background(), admission.ID, code, "order_2", now)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := repo.GetByID(context.Background(), admission.ID)
	require.NoError(t, err)
	require.True(t, stored.IsVerified)
	require.Nil(t, stored.OTP)
	require.Equal(t, "order_1", stored.OrderID)
}

func TestTemporaryAdmissionRepositoryReissueOTPNeverRecreatesDraft(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemporaryAdmissionRepository(db)
	now := time.Now().UTC()

	verified := seedTemporaryAdmission(t, repo, "temp-verified", "verified@example.com", true)
	reissued, err := repo.ReissueOTP(context.Background(), verified.ID, "111222", now.Add(10*time.Minute), now)
	require.NoError(t, err)
	require.True(t, reissued)

	stored, err := repo.GetByID(context.Background(), verified.ID)
	require.NoError(t, err)
	require.False(t, stored.IsVerified)
	require.Equal(t, "111222", *stored.OTP)
	require.WithinDuration(t, verified.ExpiresAt, stored.ExpiresAt, time.Second)

	gone := seedTemporaryAdmission(t, repo, "temp-gone", "gone@example.com", true)
	require.NoError(t, repo.Delete(context.Background(), gone.ID))
	reissued, err = repo.ReissueOTP(context.Background(), gone.ID, "333444", now.Add(10*time.Minute), now)
	require.NoError(t, err)
	require.False(t, reissued)
	_, err = repo.GetByID(context.Background(), gone.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	expired := seedTemporaryAdmission(t, repo, "temp-expired", "expired@example.com", false)
	reissued, err = repo.ReissueOTP(context.Background(), expired.ID, "555666", now.Add(time.Hour), now.Add(31*time.Minute))
	require.NoError(t, err)
	require.False(t, reissued)
}
