package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-engage-api/internal/service"
	"github.com/noah-isme/campus-engage-api/internal/utils"
)

// PointsHandler exposes ledger totals, history and the leaderboard.
type PointsHandler struct {
	service service.PointsService
	logger  zerolog.Logger
}

// NewPointsHandler builds a points handler instance.
func NewPointsHandler(service service.PointsService, logger zerolog.Logger) *PointsHandler {
	return &PointsHandler{
		service: service,
		logger:  logger.With().Str("component", "points_handler").Logger(),
	}
}

// Register attaches the routes to the provided router groups.
func (h *PointsHandler) Register(points fiber.Router, leaderboard fiber.Router) {
	points.Get("", h.summary)
	points.Get("/history", h.history)

	leaderboard.Get("", h.leaderboard)
}

func (h *PointsHandler) summary(c *fiber.Ctx) error {
	window, err := parseQueryWindow(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.Summary(c.Context(), actorFromContext(c), window)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "points retrieved", summary)
}

func (h *PointsHandler) history(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	history, err := h.service.History(c.Context(), actorFromContext(c), limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "point history retrieved", history)
}

func (h *PointsHandler) leaderboard(c *fiber.Ctx) error {
	window, err := parseQueryWindow(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	board, err := h.service.Leaderboard(c.Context(), window, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leaderboard retrieved", board)
}

func (h *PointsHandler) handleError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
