package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-engage-api/internal/service"
	"github.com/noah-isme/campus-engage-api/internal/utils"
)

// RewardHandler manages reward browsing, redemption and fulfillment endpoints.
type RewardHandler struct {
	service service.RedemptionService
	logger  zerolog.Logger
}

// NewRewardHandler builds a reward handler instance.
func NewRewardHandler(service service.RedemptionService, logger zerolog.Logger) *RewardHandler {
	return &RewardHandler{
		service: service,
		logger:  logger.With().Str("component", "reward_handler").Logger(),
	}
}

// Register attaches the routes to the provided router groups.
func (h *RewardHandler) Register(rewards fiber.Router, redemptions fiber.Router, redeemLimiter fiber.Handler) {
	rewards.Get("", h.list)
	rewards.Post("/:id/redemptions", redeemLimiter, h.redeem)

	redemptions.Get("", h.listMine)
	redemptions.Post("/:id/fulfill", h.fulfill)
}

func (h *RewardHandler) list(c *fiber.Ctx) error {
	rewards, err := h.service.ListRewards(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rewards retrieved", rewards)
}

func (h *RewardHandler) redeem(c *fiber.Ctx) error {
	rewardID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	redemption, err := h.service.Redeem(c.Context(), actorFromContext(c), rewardID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "redemption created", redemption)
}

func (h *RewardHandler) listMine(c *fiber.Ctx) error {
	redemptions, err := h.service.ListRedemptions(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "redemptions retrieved", redemptions)
}

func (h *RewardHandler) fulfill(c *fiber.Ctx) error {
	redemptionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	redemption, err := h.service.Fulfill(c.Context(), actorFromContext(c), redemptionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "redemption fulfilled", redemption)
}

func (h *RewardHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrRewardNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "reward not found")
	case errors.Is(err, service.ErrRedemptionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "redemption not found")
	case errors.Is(err, service.ErrRewardInactive):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "reward not active")
	case errors.Is(err, service.ErrRewardOutOfStock):
		return utils.SendError(c, fiber.StatusConflict, "reward out of stock")
	case errors.Is(err, service.ErrInsufficientPoints):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "insufficient points")
	case errors.Is(err, service.ErrRedemptionNotPending):
		return utils.SendError(c, fiber.StatusConflict, "redemption not pending")
	case errors.Is(err, service.ErrNotElevated):
		return utils.SendError(c, fiber.StatusForbidden, "staff access required")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
