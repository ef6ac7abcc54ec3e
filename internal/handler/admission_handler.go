package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/service"
	"github.com/noah-isme/risetutor-api/internal/utils"
)

// AdmissionHandler exposes the public admission funnel.
type AdmissionHandler struct {
	service service.AdmissionService
	logger  zerolog.Logger
}

// NewAdmissionHandler constructs the handler.
func NewAdmissionHandler(service service.AdmissionService, logger zerolog.Logger) *AdmissionHandler {
	return &AdmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "admission_handler").Logger(),
	}
}

// Register wires the submit and payment routes. OTP routes are registered
// separately so the router can rate limit them.
func (h *AdmissionHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Post("/verify-payment", h.verifyPayment)
}

// RegisterOTP wires the OTP verification routes behind the given limiter.
func (h *AdmissionHandler) RegisterOTP(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/verify-otp", limiter, h.verifyOTP)
	router.Post("/resend-otp", limiter, h.resendOTP)
}

func (h *AdmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.AdmissionSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// A missing photo is reported by the service as ErrPhotoRequired.
	photo, _ := c.FormFile("photo")

	response, err := h.service.Submit(c.UserContext(), payload, photo)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit admission")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "admission submitted, check your email for the verification code", response)
}

func (h *AdmissionHandler) verifyOTP(c *fiber.Ctx) error {
	var payload dto.VerifyOTPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.VerifyOTP(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to verify otp")
	}

	return utils.SendSuccess(c, "email verified", response)
}

func (h *AdmissionHandler) resendOTP(c *fiber.Ctx) error {
	var payload dto.ResendOTPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.ResendOTP(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to resend otp")
	}

	return utils.SendSuccess(c, "verification code sent", response)
}

func (h *AdmissionHandler) verifyPayment(c *fiber.Ctx) error {
	var payload dto.VerifyPaymentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	credentials, err := h.service.Finalize(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to finalize admission")
	}

	return utils.SendSuccess(c, "admission completed", credentials)
}
