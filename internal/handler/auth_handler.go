package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/middleware"
	"github.com/noah-isme/risetutor-api/internal/service"
	"github.com/noah-isme/risetutor-api/internal/utils"
)

// AuthHandler issues and clears session cookies.
type AuthHandler struct {
	service      service.AuthService
	cookieSecure bool
	logger       zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, cookieSecure bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieSecure: cookieSecure,
		logger:       logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the public login/logout routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/student/login", h.studentLogin)
	router.Post("/admin/login", h.adminLogin)
	router.Post("/logout", h.logout)
}

// RegisterSession wires routes that need an authenticated session behind auth.
func (h *AuthHandler) RegisterSession(router fiber.Router, auth fiber.Handler) {
	router.Get("/me", auth, middleware.WithAuth(h.me, middleware.AuthOptions{
		Roles: []string{middleware.AuthRoleStudent, middleware.AuthRoleAdmin},
	}))
}

func (h *AuthHandler) studentLogin(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.StudentLogin(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to sign in")
	}

	middleware.SetSessionCookie(c, result.Token, result.Session.ExpiresAt, h.cookieSecure)
	return utils.SendSuccess(c, "signed in", result.Session)
}

func (h *AuthHandler) adminLogin(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.AdminLogin(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to sign in")
	}

	middleware.SetSessionCookie(c, result.Token, result.Session.ExpiresAt, h.cookieSecure)
	return utils.SendSuccess(c, "signed in", result.Session)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c, h.cookieSecure)
	return utils.SendSuccess(c, "signed out", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	profile, err := h.service.Me(c.UserContext(), session)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load session")
	}

	return utils.SendSuccess(c, "session active", profile)
}
