package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/service"
	"github.com/noah-isme/risetutor-api/internal/utils"
)

// AdminActivityHandler exposes the staff audit trail.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches activity log routes to the router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	req := dto.AdminActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if actor := strings.TrimSpace(c.Query("actor_id")); actor != "" {
		id, err := strconv.ParseUint(actor, 10, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
		}
		req.ActorID = uint(id)
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity")
	}

	return utils.OK(c, response.Items, "activity retrieved", utils.NewPageMeta(response.Page, response.PageSize, response.TotalItems))
}
