package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/middleware"
	"github.com/noah-isme/risetutor-api/internal/models"
	"github.com/noah-isme/risetutor-api/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the email/password pair is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrPaymentPending indicates the student has not completed payment.
	ErrPaymentPending = errors.New("admission payment pending")
)

// AuthSettings controls session issuance.
type AuthSettings struct {
	Secret     string
	SessionTTL time.Duration
}

// AuthService authenticates students and admins.
type AuthService interface {
	StudentLogin(ctx context.Context, req dto.LoginRequest) (dto.LoginResult, error)
	AdminLogin(ctx context.Context, req dto.LoginRequest) (dto.LoginResult, error)
	Me(ctx context.Context, session middleware.Session) (dto.SessionResponse, error)
	EnsureAdmin(ctx context.Context, name, email, password string) error
}

type authService struct {
	students  repository.StudentRepository
	admins    repository.AdminRepository
	validator *validator.Validate
	settings  AuthSettings
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAuthService constructs the authentication service.
func NewAuthService(students repository.StudentRepository, admins repository.AdminRepository, validator *validator.Validate, settings AuthSettings, logger zerolog.Logger) AuthService {
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = time.Hour
	}
	return &authService{
		students:  students,
		admins:    admins,
		validator: validator,
		settings:  settings,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/risetutor-api/internal/service/auth"),
		now:       time.Now,
	}
}

func (s *authService) StudentLogin(ctx context.Context, req dto.LoginRequest) (dto.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.student_login")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.LoginResult{}, err
	}

	student, err := s.students.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "unknown email")
			return dto.LoginResult{}, ErrInvalidCredentials
		}
		span.RecordError(err)
		return dto.LoginResult{}, err
	}

	// Student passwords are the DOB string issued at admission.
	if subtle.ConstantTimeCompare([]byte(student.Password), []byte(req.Password)) != 1 {
		span.SetStatus(codes.Error, "wrong password")
		return dto.LoginResult{}, ErrInvalidCredentials
	}
	if !student.CanLogin() {
		span.SetStatus(codes.Error, "payment pending")
		return dto.LoginResult{}, ErrPaymentPending
	}

	result, err := s.issue(middleware.Session{
		UserID:         student.ID,
		Role:           middleware.AuthRoleStudent,
		Email:          student.Email,
		Name:           student.StudentName,
		RegistrationID: student.RegistrationID,
		Standard:       student.Standard,
	})
	if err != nil {
		span.RecordError(err)
		return dto.LoginResult{}, err
	}

	span.SetAttributes(attribute.String("auth.registration_id", student.RegistrationID))
	s.logger.Info().Str("registration_id", student.RegistrationID).Msg("student signed in")
	return result, nil
}

func (s *authService) AdminLogin(ctx context.Context, req dto.LoginRequest) (dto.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.admin_login")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.LoginResult{}, err
	}

	admin, err := s.admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "unknown email")
			return dto.LoginResult{}, ErrInvalidCredentials
		}
		span.RecordError(err)
		return dto.LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		span.SetStatus(codes.Error, "wrong password")
		return dto.LoginResult{}, ErrInvalidCredentials
	}

	result, err := s.issue(middleware.Session{
		UserID: admin.ID,
		Role:   middleware.AuthRoleAdmin,
		Email:  admin.Email,
		Name:   admin.Name,
	})
	if err != nil {
		span.RecordError(err)
		return dto.LoginResult{}, err
	}

	s.logger.Info().Uint("admin_id", admin.ID).Msg("admin signed in")
	return result, nil
}

// Me re-reads the subject so deleted accounts lose access before their token expires.
func (s *authService) Me(ctx context.Context, session middleware.Session) (dto.SessionResponse, error) {
	switch session.Role {
	case middleware.AuthRoleStudent:
		student, err := s.students.GetByID(ctx, session.UserID)
		if err != nil {
			return dto.SessionResponse{}, subjectError(err)
		}
		return dto.SessionResponse{
			ID:             student.ID,
			Role:           session.Role,
			Name:           student.StudentName,
			Email:          student.Email,
			RegistrationID: student.RegistrationID,
			Standard:       student.Standard,
			ExpiresAt:      session.ExpiresAt,
		}, nil
	case middleware.AuthRoleAdmin:
		admin, err := s.admins.GetByID(ctx, session.UserID)
		if err != nil {
			return dto.SessionResponse{}, subjectError(err)
		}
		return dto.SessionResponse{
			ID:        admin.ID,
			Role:      session.Role,
			Name:      admin.Name,
			Email:     admin.Email,
			ExpiresAt: session.ExpiresAt,
		}, nil
	default:
		return dto.SessionResponse{}, ErrForbidden
	}
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	admin := models.Admin{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.admins.Create(ctx, &admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	s.logger.Info().Str("email", maskEmail(email)).Msg("bootstrap admin created")
	return nil
}

func subjectError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	return err
}

func (s *authService) issue(session middleware.Session) (dto.LoginResult, error) {
	token, expires, err := middleware.IssueSession(s.settings.Secret, session, s.settings.SessionTTL, s.now())
	if err != nil {
		return dto.LoginResult{}, err
	}

	return dto.LoginResult{
		Token: token,
		Session: dto.SessionResponse{
			ID:             session.UserID,
			Role:           session.Role,
			Name:           session.Name,
			Email:          session.Email,
			RegistrationID: session.RegistrationID,
			Standard:       session.Standard,
			ExpiresAt:      expires,
		},
	}, nil
}
