package service

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/models"
	"github.com/noah-isme/risetutor-api/internal/repository"
	"github.com/noah-isme/risetutor-api/pkg/events"
)

type photoStub struct {
	owners []string
	err    error
}

func (p *photoStub) Store(ctx context.Context, file *multipart.FileHeader, ownerRef string) (StoredPhoto, error) {
	if p.err != nil {
		return StoredPhoto{}, p.err
	}
	p.owners = append(p.owners, ownerRef)
	return StoredPhoto{URL: "https://cdn.example.com/admissions/" + ownerRef + ".png", MimeType: "image/png"}, nil
}

type admissionFixture struct {
	db        *gorm.DB
	svc       *admissionService
	temps     repository.TemporaryAdmissionRepository
	gateway   *gatewayStub
	notifier  *notifierStub
	publisher *publisherStub
	photos    *photoStub
	redis     *miniredis.Miniredis
}

func newAdmissionFixture(t *testing.T) *admissionFixture {
	t.Helper()
	db := setupServiceDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	temps := repository.NewTemporaryAdmissionRepository(db)
	fx := &admissionFixture{
		db:        db,
		temps:     temps,
		gateway:   newGatewayStub(),
		notifier:  newNotifierStub(),
		publisher: &publisherStub{},
		photos:    &photoStub{},
		redis:     mr,
	}

	svc := NewAdmissionService(AdmissionDependencies{
		Temporary:  temps,
		Students:   repository.NewStudentRepository(db),
		Admissions: repository.NewAdmissionRepository(db),
		Uploads:    repository.NewUploadRepository(db),
		Photos:     fx.photos,
		Gateway:    fx.gateway,
		Notifier:   fx.notifier,
		Publisher:  fx.publisher,
		Cache:      client,
		Validator:  testValidator(),
	}, AdmissionSettings{
		Fee:            50000,
		Currency:       "INR",
		AdmissionTTL:   30 * time.Minute,
		OTPTTL:         10 * time.Minute,
		ResendCooldown: 30 * time.Second,
	}, testLogger())
	fx.svc = svc.(*admissionService)
	return fx
}

func sampleSubmission(email string) dto.AdmissionSubmitRequest {
	return dto.AdmissionSubmitRequest{
		StudentName: "Asha <b>Verma</b>",
		FatherName:  "Ravi Verma",
		MotherName:  "Meena Verma",
		DateOfBirth: "2010-03-07",
		Gender:      "Female",
		Email:       email,
		Phone:       "9876543210",
		Address:     "12 Park Street & Lane",
		Standard:    "8",
		SchoolName:  "City Public School",
	}
}

func (fx *admissionFixture) submit(t *testing.T, email string) dto.AdmissionSubmitResponse {
	t.Helper()
	resp, err := fx.svc.Submit(context.Background(), sampleSubmission(email), &multipart.FileHeader{Filename: "photo.png"})
	require.NoError(t, err)
	return resp
}

func (fx *admissionFixture) verify(t *testing.T, submitted dto.AdmissionSubmitResponse) dto.VerifyOTPResponse {
	t.Helper()
	resp, err := fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		OTP:             fx.notifier.codeFor(submitted.TempAdmissionID),
		Email:           submitted.Email,
	})
	require.NoError(t, err)
	return resp
}

func (fx *admissionFixture) paymentFor(tempID, orderID string) dto.VerifyPaymentRequest {
	paymentID := "pay_" + orderID
	return dto.VerifyPaymentRequest{
		OrderID:         orderID,
		PaymentID:       paymentID,
		Signature:       fx.gateway.sign(orderID, paymentID),
		TempAdmissionID: tempID,
	}
}

func TestAdmissionSubmitCreatesDraftWithoutLeakingOTP(t *testing.T) {
	fx := newAdmissionFixture(t)

	resp := fx.submit(t, "  Asha@Example.com ")
	require.Equal(t, "asha@example.com", resp.Email)
	require.Equal(t, "Asha Verma", resp.StudentName)
	require.Equal(t, int64(50000), resp.Amount)

	code := fx.notifier.codeFor(resp.TempAdmissionID)
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	require.NotContains(t, string(body), code)

	stored, err := fx.temps.GetByID(context.Background(), resp.TempAdmissionID)
	require.NoError(t, err)
	require.NotNil(t, stored.OTP)
	require.Equal(t, code, *stored.OTP)
	require.False(t, stored.IsVerified)
	require.Equal(t, "12 Park Street & Lane", stored.Address)
	require.Contains(t, stored.PhotoURL, resp.TempAdmissionID)
	require.WithinDuration(t, stored.CreatedAt.Add(10*time.Minute), stored.OTPExpiry, 2*time.Second)
	require.WithinDuration(t, stored.CreatedAt.Add(30*time.Minute), stored.ExpiresAt, 2*time.Second)
}

func TestAdmissionSubmitRejectsEnrolledEmail(t *testing.T) {
	fx := newAdmissionFixture(t)
	require.NoError(t, fx.db.Create(&models.Student{
		RegistrationID: "RT260001",
		ApplicantProfile: models.ApplicantProfile{
			StudentName: "Existing",
			FatherName:  "F",
			MotherName:  "M",
			DateOfBirth: time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC),
			Email:       "taken@example.com",
			Phone:       "123456789",
			Address:     "Somewhere",
			Standard:    "9",
		},
		Password:      "01012009",
		PaymentStatus: models.PaymentStatusCompleted,
	}).Error)

	_, err := fx.svc.Submit(context.Background(), sampleSubmission("TAKEN@example.com"), &multipart.FileHeader{})
	require.ErrorIs(t, err, ErrDuplicateEmail)
	require.Empty(t, fx.photos.owners)
}

func TestAdmissionSubmitRejectsFutureBirthDate(t *testing.T) {
	fx := newAdmissionFixture(t)
	req := sampleSubmission("future@example.com")
	req.DateOfBirth = time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	_, err := fx.svc.Submit(context.Background(), req, &multipart.FileHeader{})
	require.ErrorIs(t, err, ErrInvalidDateOfBirth)
}

func TestAdmissionSubmitSupersedesPreviousDraftAndSweepsExpired(t *testing.T) {
	fx := newAdmissionFixture(t)
	first := fx.submit(t, "repeat@example.com")

	stale := fx.submit(t, "stale@example.com")
	require.NoError(t, fx.db.Model(&models.TemporaryAdmission{}).
		Where("id = ?", stale.TempAdmissionID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	second := fx.submit(t, "repeat@example.com")
	require.NotEqual(t, first.TempAdmissionID, second.TempAdmissionID)

	_, err := fx.temps.GetByID(context.Background(), first.TempAdmissionID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = fx.temps.GetByID(context.Background(), stale.TempAdmissionID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	pending, err := fx.svc.PendingCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)
}

func TestVerifyOTPConsumesCodeOnce(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "once@example.com")
	code := fx.notifier.codeFor(submitted.TempAdmissionID)

	resp := fx.verify(t, submitted)
	require.Equal(t, "order_1", resp.OrderID)
	require.Equal(t, int64(50000), resp.Amount)
	require.Equal(t, "INR", resp.Currency)
	require.Equal(t, "rzp_test_key", resp.RazorpayKeyID)
	require.LessOrEqual(t, len(fx.gateway.lastReq.Receipt), 40)

	_, err := fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		OTP:             code,
		Email:           submitted.Email,
	})
	require.ErrorIs(t, err, ErrAlreadyVerified)

	stored, err := fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.NoError(t, err)
	require.True(t, stored.IsVerified)
	require.Nil(t, stored.OTP)
	require.Equal(t, "order_1", stored.OrderID)
}

func TestVerifyOTPRejections(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "reject@example.com")
	code := fx.notifier.codeFor(submitted.TempAdmissionID)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: "5b0c6f8e-3c41-4d38-9d7f-1f2a3b4c5d6e",
		OTP:             code,
		Email:           submitted.Email,
	})
	require.ErrorIs(t, err, ErrAdmissionNotFound)

	_, err = fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		OTP:             code,
		Email:           "someone-else@example.com",
	})
	require.ErrorIs(t, err, ErrEmailMismatch)

	_, err = fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		OTP:             wrong,
		Email:           submitted.Email,
	})
	require.ErrorIs(t, err, ErrInvalidOTP)
	require.Zero(t, fx.gateway.orders)
}

func TestVerifyOTPAfterOTPExpiry(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "slow@example.com")

	fx.svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	_, err := fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		OTP:             fx.notifier.codeFor(submitted.TempAdmissionID),
		Email:           submitted.Email,
	})
	require.ErrorIs(t, err, ErrOTPExpired)

	_, err = fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.NoError(t, err)
}

func TestVerifyOTPAfterAdmissionExpiryRemovesDraft(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "late@example.com")

	fx.svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	_, err := fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		OTP:             fx.notifier.codeFor(submitted.TempAdmissionID),
		Email:           submitted.Email,
	})
	require.ErrorIs(t, err, ErrAdmissionExpired)

	_, err = fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestVerifyOTPGatewayFailureKeepsCodeUsable(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "gateway@example.com")

	fx.gateway.err = errors.New("connection reset")
	_, err := fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		OTP:             fx.notifier.codeFor(submitted.TempAdmissionID),
		Email:           submitted.Email,
	})
	require.ErrorIs(t, err, ErrPaymentUpstream)

	fx.gateway.err = nil
	resp := fx.verify(t, submitted)
	require.NotEmpty(t, resp.OrderID)
}

func TestResendOTPResetsVerificationAndHonoursCooldown(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "resend@example.com")
	fx.verify(t, submitted)

	resp, err := fx.svc.ResendOTP(context.Background(), dto.ResendOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		Email:           submitted.Email,
	})
	require.NoError(t, err)
	require.Equal(t, 10, resp.ExpiresInMinutes)

	stored, err := fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.NoError(t, err)
	require.False(t, stored.IsVerified)
	require.NotNil(t, stored.OTP)
	require.Equal(t, fx.notifier.codeFor(submitted.TempAdmissionID), *stored.OTP)

	_, err = fx.svc.ResendOTP(context.Background(), dto.ResendOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		Email:           submitted.Email,
	})
	require.ErrorIs(t, err, ErrOTPCooldown)

	fx.redis.FastForward(31 * time.Second)
	_, err = fx.svc.ResendOTP(context.Background(), dto.ResendOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		Email:           submitted.Email,
	})
	require.NoError(t, err)
}

func TestFinalizeIssuesCredentials(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "finalize@example.com")
	order := fx.verify(t, submitted)

	creds, err := fx.svc.Finalize(context.Background(), fx.paymentFor(submitted.TempAdmissionID, order.OrderID))
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^RT\d{2}\d{4}$`), creds.RegistrationID)
	require.Regexp(t, regexp.MustCompile(`^\d{8}$`), creds.Password)
	require.Equal(t, "07032010", creds.Password)
	require.Equal(t, "8", creds.Standard)
	require.Equal(t, "finalize@example.com", creds.Email)

	_, err = fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var student models.Student
	require.NoError(t, fx.db.Where("email = ?", "finalize@example.com").Take(&student).Error)
	require.Equal(t, models.PaymentStatusCompleted, student.PaymentStatus)
	require.False(t, student.IsPendingPayment)
	require.True(t, student.CanLogin())
	require.Equal(t, order.OrderID, student.OrderID)
	require.Equal(t, "pay_"+order.OrderID, student.PaymentID)

	require.Len(t, fx.notifier.welcome, 1)
	require.Equal(t, []string{events.SubjectAdmissionFinalized}, fx.publisher.published())

	second := fx.submit(t, "second@example.com")
	secondOrder := fx.verify(t, second)
	next, err := fx.svc.Finalize(context.Background(), fx.paymentFor(second.TempAdmissionID, secondOrder.OrderID))
	require.NoError(t, err)
	require.Greater(t, next.RegistrationID, creds.RegistrationID)
}

func TestFinalizeInvalidSignatureDiscardsDraft(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "forged@example.com")
	order := fx.verify(t, submitted)

	req := fx.paymentFor(submitted.TempAdmissionID, order.OrderID)
	req.Signature = "deadbeef"
	_, err := fx.svc.Finalize(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFinalizeRequiresVerifiedOTP(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "early@example.com")

	_, err := fx.svc.Finalize(context.Background(), fx.paymentFor(submitted.TempAdmissionID, "order_x"))
	require.ErrorIs(t, err, ErrOTPNotVerified)

	_, err = fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.NoError(t, err)
}

func TestFinalizeRejectsForeignOrder(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "foreign@example.com")
	fx.verify(t, submitted)

	_, err := fx.svc.Finalize(context.Background(), fx.paymentFor(submitted.TempAdmissionID, "order_other"))
	require.ErrorIs(t, err, ErrOrderMismatch)
}

func TestFinalizeDuplicateEmailDiscardsDraft(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "dupe@example.com")
	order := fx.verify(t, submitted)

	require.NoError(t, fx.db.Create(&models.Student{
		RegistrationID: "RT269999",
		ApplicantProfile: models.ApplicantProfile{
			StudentName: "Other",
			FatherName:  "F",
			MotherName:  "M",
			DateOfBirth: time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC),
			Email:       "dupe@example.com",
			Phone:       "123456789",
			Address:     "Elsewhere",
			Standard:    "9",
		},
		Password:      "01012009",
		PaymentStatus: models.PaymentStatusCompleted,
	}).Error)

	_, err := fx.svc.Finalize(context.Background(), fx.paymentFor(submitted.TempAdmissionID, order.OrderID))
	require.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFinalizeConcurrentRetriesCreateOneStudent(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "retry@example.com")
	order := fx.verify(t, submitted)
	req := fx.paymentFor(submitted.TempAdmissionID, order.OrderID)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.Finalize(context.Background(), req)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrAdmissionNotFound)
	}
	require.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, fx.db.Model(&models.Student{}).Where("email = ?", "retry@example.com").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

// interleavedTemps runs a one-shot action right after the next draft load or
// right before the next OTP consume, standing in for a concurrent request.
type interleavedTemps struct {
	repository.TemporaryAdmissionRepository
	mu            sync.Mutex
	afterLoad     func()
	beforeConsume func()
}

func (r *interleavedTemps) GetByID(ctx context.Context, id string) (models.TemporaryAdmission, error) {
	admission, err := r.TemporaryAdmissionRepository.GetByID(ctx, id)
	r.mu.Lock()
	hook := r.afterLoad
	r.afterLoad = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return admission, err
}

func (r *interleavedTemps) ConsumeOTP(ctx context.Context, id, otp, orderID string, now time.Time) (bool, error) {
	r.mu.Lock()
	hook := r.beforeConsume
	r.beforeConsume = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return r.TemporaryAdmissionRepository.ConsumeOTP(ctx, id, otp, orderID, now)
}

func TestResendOTPDoesNotReviveFinalizedDraft(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "raced@example.com")
	order := fx.verify(t, submitted)
	codeBefore := fx.notifier.codeFor(submitted.TempAdmissionID)

	interleaved := &interleavedTemps{TemporaryAdmissionRepository: fx.temps}
	interleaved.afterLoad = func() {
		_, err := fx.svc.Finalize(context.Background(), fx.paymentFor(submitted.TempAdmissionID, order.OrderID))
		require.NoError(t, err)
	}
	fx.svc.temps = interleaved

	_, err := fx.svc.ResendOTP(context.Background(), dto.ResendOTPRequest{
		TempAdmissionID: submitted.TempAdmissionID,
		Email:           submitted.Email,
	})
	require.ErrorIs(t, err, ErrAdmissionNotFound)

	_, err = fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var students int64
	require.NoError(t, fx.db.Model(&models.Student{}).Where("email = ?", "raced@example.com").Count(&students).Error)
	require.Equal(t, int64(1), students)
	require.Equal(t, codeBefore, fx.notifier.codeFor(submitted.TempAdmissionID))
}

func TestVerifyOTPReportsWhatChangedWhenConsumeLoses(t *testing.T) {
	cases := map[string]struct {
		interfere func(t *testing.T, fx *admissionFixture, id string)
		want      error
	}{
		"code reissued": {
			interfere: func(t *testing.T, fx *admissionFixture, id string) {
				now := time.Now().UTC()
				_, err := fx.temps.ReissueOTP(context.Background(), id, "999999", now.Add(10*time.Minute), now)
				require.NoError(t, err)
			},
			want: ErrInvalidOTP,
		},
		"draft removed": {
			interfere: func(t *testing.T, fx *admissionFixture, id string) {
				require.NoError(t, fx.temps.Delete(context.Background(), id))
			},
			want: ErrAdmissionNotFound,
		},
		"already verified": {
			interfere: func(t *testing.T, fx *admissionFixture, id string) {
				ok, err := fx.temps.ConsumeOTP(context.Background(), id, fx.notifier.codeFor(id), "order_other", time.Now().UTC())
				require.NoError(t, err)
				require.True(t, ok)
			},
			want: ErrAlreadyVerified,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fx := newAdmissionFixture(t)
			submitted := fx.submit(t, "contended@example.com")
			if fx.notifier.codeFor(submitted.TempAdmissionID) == "999999" {
				t.Skip("generated code collides with the replacement code")
			}

			interleaved := &interleavedTemps{TemporaryAdmissionRepository: fx.temps}
			interleaved.beforeConsume = func() { tc.interfere(t, fx, submitted.TempAdmissionID) }
			fx.svc.temps = interleaved

			_, err := fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
				TempAdmissionID: submitted.TempAdmissionID,
				OTP:             fx.notifier.codeFor(submitted.TempAdmissionID),
				Email:           submitted.Email,
			})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerifyOTPUnknownHandleIsNotFound(t *testing.T) {
	fx := newAdmissionFixture(t)

	_, err := fx.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		TempAdmissionID: "not-a-uuid",
		OTP:             "123456",
		Email:           "someone@example.com",
	})
	require.ErrorIs(t, err, ErrAdmissionNotFound)

	_, err = fx.svc.ResendOTP(context.Background(), dto.ResendOTPRequest{
		TempAdmissionID: "not-a-uuid",
		Email:           "someone@example.com",
	})
	require.ErrorIs(t, err, ErrAdmissionNotFound)

	_, err = fx.svc.ResendOTP(context.Background(), dto.ResendOTPRequest{
		TempAdmissionID: strings.Repeat("a", 65),
		Email:           "someone@example.com",
	})
	var invalid validator.ValidationErrors
	require.ErrorAs(t, err, &invalid)
}

func TestFinalizeRefusesWhenYearSequenceIsExhausted(t *testing.T) {
	fx := newAdmissionFixture(t)
	submitted := fx.submit(t, "overflow@example.com")
	order := fx.verify(t, submitted)

	counterName := registrationCounterName(time.Now().UTC())
	require.NoError(t, fx.db.Create(&models.Counter{Name: counterName, Value: maxRegistrationSequence, UpdatedAt: time.Now().UTC()}).Error)

	_, err := fx.svc.Finalize(context.Background(), fx.paymentFor(submitted.TempAdmissionID, order.OrderID))
	require.ErrorIs(t, err, ErrRegistrationCapacity)

	var counter models.Counter
	require.NoError(t, fx.db.Where("name = ?", counterName).Take(&counter).Error)
	require.Equal(t, int64(maxRegistrationSequence), counter.Value)

	_, err = fx.temps.GetByID(context.Background(), submitted.TempAdmissionID)
	require.NoError(t, err)

	var students int64
	require.NoError(t, fx.db.Model(&models.Student{}).Count(&students).Error)
	require.Zero(t, students)
}

func TestFormatRegistrationIDKeepsFixedWidth(t *testing.T) {
	at := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	first, err := formatRegistrationID(at, 1)
	require.NoError(t, err)
	require.Equal(t, "RT260001", first)

	last, err := formatRegistrationID(at, maxRegistrationSequence)
	require.NoError(t, err)
	require.Equal(t, "RT269999", last)

	_, err = formatRegistrationID(at, maxRegistrationSequence+1)
	require.ErrorIs(t, err, ErrRegistrationCapacity)
}
