package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/middleware"
	"github.com/noah-isme/risetutor-api/internal/service"
	"github.com/noah-isme/risetutor-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || value == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(value), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if id, ok := c.Locals("user_id").(uint); ok {
		return id
	}
	return 0
}

func studentFromContext(c *fiber.Ctx) (service.StudentIdentity, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok || session.Role != middleware.AuthRoleStudent {
		return service.StudentIdentity{}, false
	}
	return service.StudentIdentity{ID: session.UserID, Standard: session.Standard}, true
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

// statusFor maps service errors onto HTTP statuses. Unknown errors yield 500.
func statusFor(err error) int {
	switch {
	case isValidationError(err),
		errors.Is(err, service.ErrEmailMismatch),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrOrderMismatch),
		errors.Is(err, service.ErrOTPNotVerified),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrInvalidDateOfBirth),
		errors.Is(err, service.ErrPhotoRequired),
		errors.Is(err, service.ErrUploadTypeNotAllowed),
		errors.Is(err, service.ErrInvalidQuestion),
		errors.Is(err, service.ErrAnswerNotGradable),
		errors.Is(err, service.ErrMarksOutOfRange):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrUploadTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrPaymentPending):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrAdmissionNotFound),
		errors.Is(err, service.ErrTestNotFound),
		errors.Is(err, service.ErrResultNotFound),
		errors.Is(err, service.ErrLiveClassNotFound),
		errors.Is(err, service.ErrNotJoined),
		errors.Is(err, service.ErrAdminStudentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrAdmissionInProgress),
		errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrTestNotAvailable),
		errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrLiveClassClosed),
		errors.Is(err, service.ErrGradeConflict):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrAdmissionExpired),
		errors.Is(err, service.ErrOTPExpired):
		return fiber.StatusGone
	case errors.Is(err, service.ErrOTPCooldown):
		return fiber.StatusTooManyRequests
	case errors.Is(err, service.ErrPaymentUpstream):
		return fiber.StatusBadGateway
	case errors.Is(err, service.ErrRegistrationCapacity):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the error envelope. Server errors are logged and their
// message replaced with fallback.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	status := statusFor(err)
	switch {
	case status == fiber.StatusInternalServerError:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, status, fallback)
	case status == fiber.StatusBadGateway:
		requestLogger(logger, c).Error().Err(err).Msg("upstream failure")
		return utils.SendError(c, status, service.ErrPaymentUpstream.Error())
	case isValidationError(err):
		return utils.Fail(c, status, "validation failed", validationDetails(err))
	default:
		return utils.SendError(c, status, err.Error())
	}
}
