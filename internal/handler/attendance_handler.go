package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/service"
	"github.com/noah-isme/attendly-go-api/internal/utils"
)

// AttendanceHandler wires the attendance intake and session routes.
type AttendanceHandler struct {
	attendance service.AttendanceService
	sessions   service.SessionService
	logger     zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance service.AttendanceService, sessions service.SessionService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: attendance,
		sessions:   sessions,
		logger:     logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches attendance endpoints to the router group.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Post("", h.take)
	router.Get("/sessions", h.listSessions)
	router.Get("/sessions/:sessionId", h.roster)
	router.Patch("/bulk", h.bulkUpdate)
	router.Get("/at-risk", h.listAtRisk)
}

func (h *AttendanceHandler) take(c *fiber.Ctx) error {
	var payload dto.TakeAttendanceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.attendance.Take(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance recorded", response)
}

func (h *AttendanceHandler) listSessions(c *fiber.Ctx) error {
	batchID, err := parseQueryUint(c, "batch_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid batch_id")
	}
	subjectID, err := parseQueryUint(c, "subject_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject_id")
	}
	teacherID, err := parseQueryUint(c, "teacher_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid teacher_id")
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	response, err := h.sessions.List(c.Context(), dto.SessionListRequest{
		TeacherID: teacherID,
		BatchID:   batchID,
		SubjectID: subjectID,
		Date:      c.Query("date"),
		Subject:   c.Query("subject"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, response.Items, "sessions retrieved", response.Pagination)
}

func (h *AttendanceHandler) roster(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "missing session id")
	}

	response, err := h.sessions.Roster(c.Context(), sessionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session retrieved", response)
}

func (h *AttendanceHandler) bulkUpdate(c *fiber.Ctx) error {
	var payload dto.BulkUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.attendance.BulkUpdate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance updated", response)
}

func (h *AttendanceHandler) listAtRisk(c *fiber.Ctx) error {
	atRisk, err := h.attendance.ListAtRisk(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "at-risk students retrieved", atRisk)
}

func (h *AttendanceHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", utils.ValidationDetails(validationErrors))
	case errors.Is(err, service.ErrNotTeacher):
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can record attendance")
	case errors.Is(err, service.ErrDuplicateStudent):
		return utils.SendError(c, fiber.StatusBadRequest, "duplicate student in submission")
	case errors.Is(err, service.ErrStudentUnknown):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown student in submission")
	case errors.Is(err, service.ErrAttendanceNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attendance row not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
