package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-engage-api/internal/service"
	"github.com/noah-isme/campus-engage-api/internal/utils"
)

// EventHandler manages event browsing and registration endpoints.
type EventHandler struct {
	service service.EventService
	logger  zerolog.Logger
}

// NewEventHandler builds an event handler instance.
func NewEventHandler(service service.EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register attaches the routes to the provided router groups.
func (h *EventHandler) Register(events fiber.Router, registrations fiber.Router, registerLimiter fiber.Handler) {
	events.Get("", h.list)
	events.Post("/:id/registrations", registerLimiter, h.register)

	registrations.Get("", h.listMine)
	registrations.Delete("/:id", h.cancel)
}

func (h *EventHandler) list(c *fiber.Ctx) error {
	includeFull := c.QueryBool("include_full", false)

	slots, err := h.service.ListUpcoming(c.Context(), includeFull)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "events retrieved", slots)
}

func (h *EventHandler) register(c *fiber.Ctx) error {
	eventID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	registration, err := h.service.Register(c.Context(), actorFromContext(c), eventID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "registration created", registration)
}

func (h *EventHandler) listMine(c *fiber.Ctx) error {
	registrations, err := h.service.ListRegistrations(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "registrations retrieved", registrations)
}

func (h *EventHandler) cancel(c *fiber.Ctx) error {
	registrationID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Cancel(c.Context(), actorFromContext(c), registrationID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "registration canceled", nil)
}

func (h *EventHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "event not found")
	case errors.Is(err, service.ErrRegistrationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "registration not found")
	case errors.Is(err, service.ErrEventEnded):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "event already ended")
	case errors.Is(err, service.ErrDuplicateRegistration):
		return utils.SendError(c, fiber.StatusConflict, "already registered for this event")
	case errors.Is(err, service.ErrNotRegistrationOwner):
		return utils.SendError(c, fiber.StatusForbidden, "registration belongs to another user")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
