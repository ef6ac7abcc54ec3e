package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/risetutor-api/internal/dto"
	"github.com/noah-isme/risetutor-api/internal/service"
	"github.com/noah-isme/risetutor-api/internal/utils"
)

// AdminStudentHandler wires admin student endpoints.
type AdminStudentHandler struct {
	service service.AdminStudentService
	logger  zerolog.Logger
}

// NewAdminStudentHandler constructs the handler.
func NewAdminStudentHandler(service service.AdminStudentService, logger zerolog.Logger) *AdminStudentHandler {
	return &AdminStudentHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_student_handler").Logger(),
	}
}

// Register attaches student admin routes to the router group.
func (h *AdminStudentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

// RegisterAdmissions attaches the admissions backlog route.
func (h *AdminStudentHandler) RegisterAdmissions(router fiber.Router) {
	router.Get("/pending", h.pending)
}

func (h *AdminStudentHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	req := dto.AdminStudentListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Standard: c.Query("standard"),
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list students")
	}

	return utils.OK(c, response.Items, "students retrieved", utils.NewPageMeta(response.Page, response.PageSize, response.TotalItems))
}

func (h *AdminStudentHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	student, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load student")
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *AdminStudentHandler) pending(c *fiber.Ctx) error {
	response, err := h.service.PendingAdmissions(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to count pending admissions")
	}

	return utils.SendSuccess(c, "pending admissions counted", response)
}
