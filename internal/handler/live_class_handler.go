package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/service"
	"github.com/noah-isme/risetutor-api/internal/utils"
)

// LiveClassHandler serves live class schedules and attendance.
type LiveClassHandler struct {
	service service.LiveClassService
	logger  zerolog.Logger
}

// NewLiveClassHandler constructs the handler.
func NewLiveClassHandler(service service.LiveClassService, logger zerolog.Logger) *LiveClassHandler {
	return &LiveClassHandler{
		service: service,
		logger:  logger.With().Str("component", "live_class_handler").Logger(),
	}
}

// RegisterStudent wires student routes.
func (h *LiveClassHandler) RegisterStudent(router fiber.Router) {
	router.Get("", h.upcoming)
	router.Post("/:id/join", h.join)
	router.Post("/:id/leave", h.leave)
}

// RegisterAdmin wires staff routes.
func (h *LiveClassHandler) RegisterAdmin(router fiber.Router) {
	router.Post("", h.schedule)
	router.Get("", h.listForStandard)
}

func (h *LiveClassHandler) schedule(c *fiber.Ctx) error {
	var payload dto.ScheduleLiveClassRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	class, err := h.service.Schedule(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to schedule live class")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "live class scheduled", class)
}

func (h *LiveClassHandler) listForStandard(c *fiber.Ctx) error {
	standard := c.Query("standard")
	if standard == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "standard is required")
	}

	classes, err := h.service.ListUpcoming(c.UserContext(), standard)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list live classes")
	}

	return utils.SendSuccess(c, "live classes retrieved", classes)
}

func (h *LiveClassHandler) upcoming(c *fiber.Ctx) error {
	student, ok := studentFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "student session required")
	}

	classes, err := h.service.ListUpcoming(c.UserContext(), student.Standard)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list live classes")
	}

	return utils.SendSuccess(c, "live classes retrieved", classes)
}

func (h *LiveClassHandler) join(c *fiber.Ctx) error {
	student, ok := studentFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "student session required")
	}
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid live class id")
	}

	attendance, err := h.service.Join(c.UserContext(), classID, student)
	if err != nil {
		return respondError(c, h.logger, err, "failed to join live class")
	}

	return utils.SendSuccess(c, "joined live class", attendance)
}

func (h *LiveClassHandler) leave(c *fiber.Ctx) error {
	student, ok := studentFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "student session required")
	}
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid live class id")
	}

	attendance, err := h.service.Leave(c.UserContext(), classID, student)
	if err != nil {
		return respondError(c, h.logger, err, "failed to leave live class")
	}

	return utils.SendSuccess(c, "left live class", attendance)
}
