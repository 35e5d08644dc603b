package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/repository"
	"github.com/noah-isme/attendly-go-api/internal/service"
	"github.com/noah-isme/attendly-go-api/internal/utils"
)

// StudentHandler wires the admin student roster routes.
type StudentHandler struct {
	students service.StudentService
	importer service.ImportService
	logger   zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students service.StudentService, importer service.ImportService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students: students,
		importer: importer,
		logger:   logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student roster endpoints to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.deactivate)
}

// RegisterImport attaches the CSV import endpoint. Kept separate so the
// router can rate limit it without touching the CRUD routes.
func (h *StudentHandler) RegisterImport(router fiber.Router) {
	router.Post("/import", h.importCSV)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	batchID, err := parseQueryUint(c, "batch_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid batch_id")
	}

	filter := repository.StudentFilter{
		Search:   c.Query("search"),
		BatchID:  batchID,
		Page:     page,
		PageSize: pageSize,
	}
	if active := strings.TrimSpace(c.Query("active")); active != "" {
		value := active == "true"
		filter.Active = &value
	}

	response, err := h.students.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, response.Items, "students retrieved", response.Pagination)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	student, err := h.students.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.students.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.students.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) deactivate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.students.Deactivate(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student deactivated", fiber.Map{"id": id})
}

// importCSV ingests a roster file. A report with any failed rows comes back
// as 207 so callers notice partial success.
func (h *StudentHandler) importCSV(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "missing file")
	}

	handle, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unreadable file")
	}
	defer handle.Close()

	report, err := h.importer.ImportStudents(c.Context(), actorFromContext(c), file.Filename, handle)
	if err != nil {
		if errors.Is(err, service.ErrEmptyImport) {
			return utils.SendError(c, fiber.StatusBadRequest, "import file has no data rows")
		}
		return h.handleError(c, err)
	}

	status := fiber.StatusOK
	if report.HasFailures() {
		status = fiber.StatusMultiStatus
	}

	return utils.SendSuccessWithStatus(c, status, "import completed", report)
}

func (h *StudentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", utils.ValidationDetails(validationErrors))
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrDuplicateEmail):
		return utils.SendError(c, fiber.StatusConflict, "email already registered")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
