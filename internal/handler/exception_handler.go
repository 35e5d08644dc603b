package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/service"
	"github.com/noah-isme/attendly-go-api/internal/utils"
)

// ExceptionHandler wires the absence justification routes.
type ExceptionHandler struct {
	service service.ExceptionService
	logger  zerolog.Logger
}

// NewExceptionHandler constructs the handler.
func NewExceptionHandler(service service.ExceptionService, logger zerolog.Logger) *ExceptionHandler {
	return &ExceptionHandler{
		service: service,
		logger:  logger.With().Str("component", "exception_handler").Logger(),
	}
}

// Register attaches the role-scoped exception listing to the router group.
// Submission and review carry their own role gates at the router.
func (h *ExceptionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

// RegisterSubmit attaches the student submission endpoint.
func (h *ExceptionHandler) RegisterSubmit(router fiber.Router) {
	router.Post("", h.submit)
}

// RegisterReview attaches the admin review endpoint.
func (h *ExceptionHandler) RegisterReview(router fiber.Router) {
	router.Patch("/:id/review", h.review)
}

func (h *ExceptionHandler) submit(c *fiber.Ctx) error {
	payload := dto.ExceptionCreateRequest{
		Date:   c.FormValue("date"),
		Reason: c.FormValue("reason"),
	}

	proof, err := c.FormFile("proof")
	if err != nil {
		proof = nil
	}

	response, err := h.service.Submit(c.Context(), actorFromContext(c), payload, proof)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exception submitted", response)
}

// list returns the caller's own exceptions for students and the full,
// filterable listing for staff.
func (h *ExceptionHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	payload := dto.ExceptionListRequest{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}

	actor := actorFromContext(c)
	if actor.Role == models.RoleStudent {
		payload.StudentID = actor.ID
	} else {
		studentID, err := parseQueryUint(c, "student_id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid student_id")
		}
		payload.StudentID = studentID
	}

	response, err := h.service.List(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, response.Items, "exceptions retrieved", response.Pagination)
}

func (h *ExceptionHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ExceptionReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Review(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exception reviewed", response)
}

func (h *ExceptionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", utils.ValidationDetails(validationErrors))
	case errors.Is(err, service.ErrExceptionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exception not found")
	case errors.Is(err, service.ErrExceptionDecided):
		return utils.SendError(c, fiber.StatusConflict, "exception already decided")
	case errors.Is(err, service.ErrProofTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "proof file exceeds the allowed size")
	case errors.Is(err, service.ErrProofTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "proof file type not allowed")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
