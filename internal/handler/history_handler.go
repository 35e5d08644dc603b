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

// HistoryHandler wires the student self-service routes.
type HistoryHandler struct {
	service service.HistoryService
	logger  zerolog.Logger
}

// NewHistoryHandler constructs the handler.
func NewHistoryHandler(service service.HistoryService, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger.With().Str("component", "history_handler").Logger(),
	}
}

// Register attaches the student portal endpoints to the router group.
func (h *HistoryHandler) Register(router fiber.Router) {
	router.Get("/attendance", h.history)
	router.Get("/attendance/summary", h.summary)
}

func (h *HistoryHandler) history(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	response, err := h.service.History(c.Context(), dto.HistoryRequest{
		StudentID: userIDFromContext(c),
		DateFrom:  c.Query("date_from"),
		DateTo:    c.Query("date_to"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, response.Items, "attendance history retrieved", response.Pagination)
}

func (h *HistoryHandler) summary(c *fiber.Ctx) error {
	response, err := h.service.Summary(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance summary retrieved", response)
}

func (h *HistoryHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", utils.ValidationDetails(validationErrors))
	}

	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
