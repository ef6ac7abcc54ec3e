package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/models"
	"github.com/noah-isme/risetutor-api/internal/observability"
	"github.com/noah-isme/risetutor-api/internal/repository"
	"github.com/noah-isme/risetutor-api/pkg/events"
	"github.com/noah-isme/risetutor-api/pkg/razorpay"
)

var (
	// ErrAdmissionNotFound indicates the temporary admission is unknown or already finalized.
	ErrAdmissionNotFound = errors.New("admission session not found")
	// ErrEmailMismatch indicates the email does not belong to the admission session.
	ErrEmailMismatch = errors.New("email does not match admission session")
	// ErrAdmissionExpired indicates the temporary admission outlived its lifetime and was removed.
	ErrAdmissionExpired = errors.New("admission session expired, please submit the form again")
	// ErrAdmissionInProgress indicates a concurrent submission for the same email won.
	ErrAdmissionInProgress = errors.New("another admission for this email is being submitted")
	// ErrAlreadyVerified indicates the OTP was already consumed.
	ErrAlreadyVerified = errors.New("otp already verified")
	// ErrOTPExpired indicates the code is past its expiry.
	ErrOTPExpired = errors.New("otp expired, request a new code")
	// ErrInvalidOTP indicates the submitted code is wrong.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrOTPCooldown indicates a resend was requested too soon after the previous one.
	ErrOTPCooldown = errors.New("otp was sent recently, please wait before requesting another")
	// ErrInvalidSignature indicates the payment callback failed authenticity checks.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrOrderMismatch indicates the callback belongs to a different payment order.
	ErrOrderMismatch = errors.New("payment order does not match admission session")
	// ErrOTPNotVerified indicates payment arrived before OTP verification.
	ErrOTPNotVerified = errors.New("otp not verified")
	// ErrDuplicateEmail indicates a permanent student already owns the email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidDateOfBirth indicates the date of birth is not in the past.
	ErrInvalidDateOfBirth = errors.New("date of birth must be in the past")
	// ErrPaymentUpstream indicates the payment gateway could not create an order.
	ErrPaymentUpstream = errors.New("payment gateway unavailable")
	// ErrRegistrationCapacity indicates this year's registration numbers are used up.
	ErrRegistrationCapacity = errors.New("registration numbers exhausted for this year")
)

// PaymentGateway is the payment provider surface used by admissions.
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (razorpay.Order, error)
	VerifyCallback(orderID, paymentID, signature string) bool
}

// AdmissionSettings carries the fee and lifetimes of the admission funnel.
type AdmissionSettings struct {
	Fee            int64
	Currency       string
	AdmissionTTL   time.Duration
	OTPTTL         time.Duration
	ResendCooldown time.Duration
}

// AdmissionDependencies groups the collaborators of the admission service.
type AdmissionDependencies struct {
	Temporary  repository.TemporaryAdmissionRepository
	Students   repository.StudentRepository
	Admissions repository.AdmissionRepository
	Uploads    repository.UploadRepository
	Photos     PhotoService
	Gateway    PaymentGateway
	Notifier   AdmissionNotifier
	Publisher  events.Publisher
	Cache      *redis.Client
	Validator  *validator.Validate
}

// AdmissionService runs the submit, OTP and payment finalization funnel.
type AdmissionService interface {
	Submit(ctx context.Context, req dto.AdmissionSubmitRequest, photo *multipart.FileHeader) (dto.AdmissionSubmitResponse, error)
	VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (dto.VerifyOTPResponse, error)
	ResendOTP(ctx context.Context, req dto.ResendOTPRequest) (dto.ResendOTPResponse, error)
	Finalize(ctx context.Context, req dto.VerifyPaymentRequest) (dto.AdmissionCredentials, error)
	PendingCount(ctx context.Context) (int64, error)
}

type admissionService struct {
	temps      repository.TemporaryAdmissionRepository
	students   repository.StudentRepository
	admissions repository.AdmissionRepository
	uploads    repository.UploadRepository
	photos     PhotoService
	gateway    PaymentGateway
	notifier   AdmissionNotifier
	publisher  events.Publisher
	cache      *redis.Client
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	settings   AdmissionSettings
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAdmissionService constructs the admission funnel.
func NewAdmissionService(deps AdmissionDependencies, settings AdmissionSettings, logger zerolog.Logger) AdmissionService {
	if settings.AdmissionTTL <= 0 {
		settings.AdmissionTTL = 30 * time.Minute
	}
	if settings.OTPTTL <= 0 {
		settings.OTPTTL = 10 * time.Minute
	}
	if settings.Currency == "" {
		settings.Currency = "INR"
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &admissionService{
		temps:      deps.Temporary,
		students:   deps.Students,
		admissions: deps.Admissions,
		uploads:    deps.Uploads,
		photos:     deps.Photos,
		gateway:    deps.Gateway,
		notifier:   deps.Notifier,
		publisher:  publisher,
		cache:      deps.Cache,
		validator:  deps.Validator,
		sanitizer:  newTextSanitizer(),
		settings:   settings,
		logger:     logger.With().Str("component", "admission_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/risetutor-api/internal/service/admission"),
		now:        time.Now,
	}
}

func (s *admissionService) Submit(ctx context.Context, req dto.AdmissionSubmitRequest, photo *multipart.FileHeader) (dto.AdmissionSubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admission.submit")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		s.fail(span, "submit", "invalid", err)
		return dto.AdmissionSubmitResponse{}, err
	}

	now := s.now().UTC()
	profile, err := s.buildProfile(req, now)
	if err != nil {
		s.fail(span, "submit", "invalid", err)
		return dto.AdmissionSubmitResponse{}, err
	}
	span.SetAttributes(attribute.String("admission.standard", profile.Standard))

	taken, err := s.students.ExistsByEmail(ctx, profile.Email)
	if err != nil {
		s.fail(span, "submit", "error", err)
		return dto.AdmissionSubmitResponse{}, err
	}
	if taken {
		s.fail(span, "submit", "duplicate", ErrDuplicateEmail)
		return dto.AdmissionSubmitResponse{}, ErrDuplicateEmail
	}

	if superseded, err := s.temps.DeleteByEmail(ctx, profile.Email); err != nil {
		s.fail(span, "submit", "error", err)
		return dto.AdmissionSubmitResponse{}, err
	} else if superseded > 0 {
		s.logger.Debug().Str("email", maskEmail(profile.Email)).Msg("superseded previous admission draft")
	}
	if swept, err := s.temps.DeleteExpired(ctx, now); err != nil {
		s.logger.Warn().Err(err).Msg("expired admission sweep failed")
	} else if swept > 0 {
		s.logger.Info().Int64("removed", swept).Msg("expired admission drafts removed")
	}

	tempID := uuid.NewString()
	stored, err := s.photos.Store(ctx, photo, tempID)
	if err != nil {
		s.fail(span, "submit", "photo_rejected", err)
		return dto.AdmissionSubmitResponse{}, err
	}
	profile.PhotoURL = stored.URL

	code, err := generateOTP()
	if err != nil {
		s.fail(span, "submit", "error", err)
		return dto.AdmissionSubmitResponse{}, err
	}

	admission := models.TemporaryAdmission{
		ID:               tempID,
		ApplicantProfile: profile,
		OTP:              &code,
		OTPExpiry:        now.Add(s.settings.OTPTTL),
		ExpiresAt:        now.Add(s.settings.AdmissionTTL),
		PaymentAmount:    s.settings.Fee,
	}
	if err := s.temps.Create(ctx, &admission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.fail(span, "submit", "conflict", ErrAdmissionInProgress)
			return dto.AdmissionSubmitResponse{}, ErrAdmissionInProgress
		}
		s.fail(span, "submit", "error", err)
		return dto.AdmissionSubmitResponse{}, err
	}

	if err := s.notifier.SendOTP(ctx, admission, code, s.settings.OTPTTL); err != nil {
		span.RecordError(err)
	}
	s.refreshDraftGauge(ctx, now)

	observability.AdmissionEvents().WithLabelValues("submit", "created").Inc()
	span.SetStatus(codes.Ok, "draft created")
	s.logger.Info().Str("temp_admission_id", tempID).Str("email", maskEmail(profile.Email)).Msg("admission draft created")

	return dto.AdmissionSubmitResponse{
		TempAdmissionID: tempID,
		StudentName:     profile.StudentName,
		Email:           profile.Email,
		Amount:          admission.PaymentAmount,
	}, nil
}

func (s *admissionService) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (dto.VerifyOTPResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admission.verify_otp")
	defer span.End()
	span.SetAttributes(attribute.String("admission.temp_id", req.TempAdmissionID))

	req.Email = normalizeEmail(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if err := s.validator.Struct(req); err != nil {
		s.fail(span, "verify_otp", "invalid", err)
		return dto.VerifyOTPResponse{}, err
	}

	now := s.now().UTC()
	admission, err := s.loadSession(ctx, req.TempAdmissionID, req.Email, now)
	if err != nil {
		s.otpOutcome(err)
		s.fail(span, "verify_otp", outcomeFor(err), err)
		return dto.VerifyOTPResponse{}, err
	}

	if err := checkOTP(admission, req.OTP, now); err != nil {
		s.otpOutcome(err)
		s.fail(span, "verify_otp", outcomeFor(err), err)
		return dto.VerifyOTPResponse{}, err
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountMinor: admission.PaymentAmount,
		Currency:    s.settings.Currency,
		Receipt:     receiptFor(admission.ID),
		Notes: map[string]string{
			"tempAdmissionId": admission.ID,
			"standard":        admission.Standard,
		},
	})
	if err != nil {
		s.fail(span, "verify_otp", "upstream", err)
		return dto.VerifyOTPResponse{}, fmt.Errorf("%w: %v", ErrPaymentUpstream, err)
	}

	consumed, err := s.temps.ConsumeOTP(ctx, admission.ID, req.OTP, order.ID, now)
	if err != nil {
		s.fail(span, "verify_otp", "error", err)
		return dto.VerifyOTPResponse{}, err
	}
	if !consumed {
		err := s.explainUnconsumed(ctx, admission.ID, req.OTP, now)
		s.otpOutcome(err)
		s.fail(span, "verify_otp", outcomeFor(err), err)
		return dto.VerifyOTPResponse{}, err
	}

	observability.OTPVerifications().WithLabelValues("verified").Inc()
	observability.AdmissionEvents().WithLabelValues("verify_otp", "verified").Inc()
	span.SetStatus(codes.Ok, "verified")
	s.logger.Info().Str("temp_admission_id", admission.ID).Str("order_id", order.ID).Msg("otp verified, payment order created")

	currency := order.Currency
	if currency == "" {
		currency = s.settings.Currency
	}
	return dto.VerifyOTPResponse{
		TempAdmissionID: admission.ID,
		Amount:          order.Amount,
		OrderID:         order.ID,
		Currency:        currency,
		RazorpayKeyID:   s.gateway.KeyID(),
	}, nil
}

func (s *admissionService) ResendOTP(ctx context.Context, req dto.ResendOTPRequest) (dto.ResendOTPResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admission.resend_otp")
	defer span.End()
	span.SetAttributes(attribute.String("admission.temp_id", req.TempAdmissionID))

	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		s.fail(span, "resend_otp", "invalid", err)
		return dto.ResendOTPResponse{}, err
	}

	now := s.now().UTC()
	admission, err := s.loadSession(ctx, req.TempAdmissionID, req.Email, now)
	if err != nil {
		s.fail(span, "resend_otp", outcomeFor(err), err)
		return dto.ResendOTPResponse{}, err
	}

	if s.cache != nil && s.settings.ResendCooldown > 0 {
		key := fmt.Sprintf("admission:otp:resend:%s", admission.ID)
		ok, err := s.cache.SetNX(ctx, key, 1, s.settings.ResendCooldown).Result()
		if err != nil {
			s.fail(span, "resend_otp", "error", err)
			return dto.ResendOTPResponse{}, err
		}
		if !ok {
			s.fail(span, "resend_otp", "cooldown", ErrOTPCooldown)
			return dto.ResendOTPResponse{}, ErrOTPCooldown
		}
	}

	code, err := generateOTP()
	if err != nil {
		s.fail(span, "resend_otp", "error", err)
		return dto.ResendOTPResponse{}, err
	}

	// A resend restarts verification even if the previous code was already accepted.
	admission.OTP = &code
	admission.OTPExpiry = now.Add(s.settings.OTPTTL)
	admission.IsVerified = false
	reissued, err := s.temps.ReissueOTP(ctx, admission.ID, code, admission.OTPExpiry, now)
	if err != nil {
		s.fail(span, "resend_otp", "error", err)
		return dto.ResendOTPResponse{}, err
	}
	if !reissued {
		s.fail(span, "resend_otp", "not_found", ErrAdmissionNotFound)
		return dto.ResendOTPResponse{}, ErrAdmissionNotFound
	}

	if err := s.notifier.SendOTP(ctx, admission, code, s.settings.OTPTTL); err != nil {
		span.RecordError(err)
	}

	observability.AdmissionEvents().WithLabelValues("resend_otp", "sent").Inc()
	span.SetStatus(codes.Ok, "resent")

	return dto.ResendOTPResponse{
		TempAdmissionID:  admission.ID,
		ExpiresInMinutes: int(s.settings.OTPTTL / time.Minute),
	}, nil
}

func (s *admissionService) Finalize(ctx context.Context, req dto.VerifyPaymentRequest) (dto.AdmissionCredentials, error) {
	ctx, span := s.tracer.Start(ctx, "admission.finalize")
	defer span.End()
	span.SetAttributes(
		attribute.String("admission.temp_id", req.TempAdmissionID),
		attribute.String("payment.order_id", req.OrderID),
	)

	if err := s.validator.Struct(req); err != nil {
		s.fail(span, "finalize", "invalid", err)
		return dto.AdmissionCredentials{}, err
	}

	if !s.gateway.VerifyCallback(req.OrderID, req.PaymentID, req.Signature) {
		observability.PaymentsVerified().WithLabelValues("invalid_signature").Inc()
		s.discard(ctx, req.TempAdmissionID, "invalid payment signature")
		s.fail(span, "finalize", "invalid_signature", ErrInvalidSignature)
		return dto.AdmissionCredentials{}, ErrInvalidSignature
	}
	observability.PaymentsVerified().WithLabelValues("valid").Inc()

	now := s.now().UTC()
	admission, err := s.temps.GetByID(ctx, req.TempAdmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrAdmissionNotFound
		}
		s.fail(span, "finalize", outcomeFor(err), err)
		return dto.AdmissionCredentials{}, err
	}
	if admission.IsExpired(now) {
		s.discard(ctx, admission.ID, "expired before payment verification")
		s.fail(span, "finalize", "expired", ErrAdmissionExpired)
		return dto.AdmissionCredentials{}, ErrAdmissionExpired
	}
	if !admission.IsVerified {
		s.fail(span, "finalize", "otp_not_verified", ErrOTPNotVerified)
		return dto.AdmissionCredentials{}, ErrOTPNotVerified
	}
	if admission.OrderID != "" && admission.OrderID != req.OrderID {
		s.fail(span, "finalize", "order_mismatch", ErrOrderMismatch)
		return dto.AdmissionCredentials{}, ErrOrderMismatch
	}

	if err := s.ensureEmailFree(ctx, admission, req.PaymentID); err != nil {
		s.fail(span, "finalize", outcomeFor(err), err)
		return dto.AdmissionCredentials{}, err
	}

	student, err := s.admissions.Promote(ctx, admission.ID, registrationCounterName(now), func(draft models.TemporaryAdmission, sequence int64) (models.Student, error) {
		registrationID, err := formatRegistrationID(now, sequence)
		if err != nil {
			return models.Student{}, err
		}
		admittedAt := now
		return models.Student{
			RegistrationID:   registrationID,
			ApplicantProfile: draft.ApplicantProfile,
			Password:         passwordFromDOB(draft.DateOfBirth),
			PaymentStatus:    models.PaymentStatusCompleted,
			IsPendingPayment: false,
			PaymentAmount:    draft.PaymentAmount,
			OrderID:          req.OrderID,
			PaymentID:        req.PaymentID,
			AdmittedAt:       &admittedAt,
		}, nil
	})
	switch {
	case errors.Is(err, repository.ErrAdmissionAlreadyClaimed):
		s.fail(span, "finalize", "not_found", ErrAdmissionNotFound)
		return dto.AdmissionCredentials{}, ErrAdmissionNotFound
	case errors.Is(err, repository.ErrStudentEmailTaken):
		err = s.ensureEmailFree(ctx, admission, req.PaymentID)
		if err == nil {
			err = ErrDuplicateEmail
		}
		s.fail(span, "finalize", outcomeFor(err), err)
		return dto.AdmissionCredentials{}, err
	case errors.Is(err, ErrRegistrationCapacity):
		s.logger.Error().Err(err).Str("temp_admission_id", admission.ID).Msg("registration sequence exhausted for the year")
		s.fail(span, "finalize", "capacity", err)
		return dto.AdmissionCredentials{}, ErrRegistrationCapacity
	case err != nil:
		s.fail(span, "finalize", "error", err)
		return dto.AdmissionCredentials{}, err
	}

	logger := s.logger.With().Str("registration_id", student.RegistrationID).Logger()
	if s.uploads != nil {
		if err := s.uploads.ReassignOwner(ctx, admission.ID, student.RegistrationID); err != nil {
			logger.Warn().Err(err).Msg("photo ownership update failed")
		}
	}
	if err := s.notifier.SendWelcome(ctx, student, student.Password); err != nil {
		span.RecordError(err)
	}
	if err := s.publisher.Publish(ctx, events.SubjectAdmissionFinalized, map[string]interface{}{
		"registrationId": student.RegistrationID,
		"standard":       student.Standard,
		"finalizedAt":    now,
	}); err != nil {
		logger.Warn().Err(err).Msg("admission event publish failed")
	}

	observability.AdmissionEvents().WithLabelValues("finalize", "admitted").Inc()
	span.SetStatus(codes.Ok, "admitted")
	logger.Info().Str("email", maskEmail(student.Email)).Msg("admission finalized")

	return dto.AdmissionCredentials{
		RegistrationID: student.RegistrationID,
		StudentName:    student.StudentName,
		Email:          student.Email,
		Password:       student.Password,
		Standard:       student.Standard,
	}, nil
}

func (s *admissionService) PendingCount(ctx context.Context) (int64, error) {
	total, err := s.temps.CountActive(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	observability.ActiveDrafts().Set(float64(total))
	return total, nil
}

// loadSession resolves a draft for verify and resend, removing it when it has expired.
func (s *admissionService) loadSession(ctx context.Context, id, email string, now time.Time) (models.TemporaryAdmission, error) {
	admission, err := s.temps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TemporaryAdmission{}, ErrAdmissionNotFound
		}
		return models.TemporaryAdmission{}, err
	}
	if admission.Email != normalizeEmail(email) {
		return models.TemporaryAdmission{}, ErrEmailMismatch
	}
	if admission.IsExpired(now) {
		s.discard(ctx, admission.ID, "expired")
		return models.TemporaryAdmission{}, ErrAdmissionExpired
	}
	return admission, nil
}

// explainUnconsumed rereads a draft whose code could not be consumed and reports
// what changed since it was checked: removed, expired, re-issued or already verified.
func (s *admissionService) explainUnconsumed(ctx context.Context, id, code string, now time.Time) error {
	current, err := s.temps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdmissionNotFound
		}
		return err
	}
	if current.IsExpired(now) {
		s.discard(ctx, current.ID, "expired")
		return ErrAdmissionExpired
	}
	if err := checkOTP(current, code, now); err != nil {
		return err
	}
	return ErrAlreadyVerified
}

// ensureEmailFree fails when a permanent record owns the email. A record created by
// this same payment means a concurrent retry already finalized the draft.
func (s *admissionService) ensureEmailFree(ctx context.Context, admission models.TemporaryAdmission, paymentID string) error {
	existing, err := s.students.GetByEmail(ctx, admission.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.PaymentID == paymentID {
		return ErrAdmissionNotFound
	}
	s.discard(ctx, admission.ID, "email already registered")
	return ErrDuplicateEmail
}

func checkOTP(admission models.TemporaryAdmission, code string, now time.Time) error {
	if admission.IsVerified {
		return ErrAlreadyVerified
	}
	if admission.OTP == nil || !now.Before(admission.OTPExpiry) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(*admission.OTP), []byte(code)) != 1 {
		return ErrInvalidOTP
	}
	return nil
}

func (s *admissionService) buildProfile(req dto.AdmissionSubmitRequest, now time.Time) (models.ApplicantProfile, error) {
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		return models.ApplicantProfile{}, ErrInvalidDateOfBirth
	}
	if !dob.Before(now) {
		return models.ApplicantProfile{}, ErrInvalidDateOfBirth
	}

	return models.ApplicantProfile{
		StudentName: cleanText(s.sanitizer, req.StudentName),
		FatherName:  cleanText(s.sanitizer, req.FatherName),
		MotherName:  cleanText(s.sanitizer, req.MotherName),
		DateOfBirth: dob,
		Gender:      strings.TrimSpace(req.Gender),
		Email:       normalizeEmail(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     cleanText(s.sanitizer, req.Address),
		Standard:    strings.TrimSpace(req.Standard),
		SchoolName:  cleanText(s.sanitizer, req.SchoolName),
	}, nil
}

func (s *admissionService) discard(ctx context.Context, id, reason string) {
	if strings.TrimSpace(id) == "" {
		return
	}
	if err := s.temps.Delete(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("temp_admission_id", id).Str("reason", reason).Msg("admission draft removal failed")
		return
	}
	s.logger.Info().Str("temp_admission_id", id).Str("reason", reason).Msg("admission draft removed")
}

func (s *admissionService) refreshDraftGauge(ctx context.Context, now time.Time) {
	total, err := s.temps.CountActive(ctx, now)
	if err != nil {
		return
	}
	observability.ActiveDrafts().Set(float64(total))
}

func (s *admissionService) fail(span trace.Span, stage, outcome string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	observability.AdmissionEvents().WithLabelValues(stage, outcome).Inc()
}

func (s *admissionService) otpOutcome(err error) {
	observability.OTPVerifications().WithLabelValues(outcomeFor(err)).Inc()
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrAdmissionNotFound):
		return "not_found"
	case errors.Is(err, ErrEmailMismatch):
		return "email_mismatch"
	case errors.Is(err, ErrAdmissionExpired):
		return "expired"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrOTPExpired):
		return "otp_expired"
	case errors.Is(err, ErrInvalidOTP):
		return "invalid_otp"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate"
	default:
		return "error"
	}
}

// receiptFor fits the provider's 40 character receipt limit.
func receiptFor(tempID string) string {
	return "adm_" + strings.ReplaceAll(tempID, "-", "")
}
