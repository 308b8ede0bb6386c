package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-engage-api/internal/dto"
	"github.com/noah-isme/campus-engage-api/internal/service"
	"github.com/noah-isme/campus-engage-api/internal/utils"
)

// SubmissionHandler manages evidence submission and verification endpoints.
type SubmissionHandler struct {
	submissions  service.SubmissionService
	verification service.VerificationService
	logger       zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(submissions service.SubmissionService, verification service.VerificationService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions:  submissions,
		verification: verification,
		logger:       logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router, verifyLimiter fiber.Handler) {
	router.Get("", h.listMine)
	router.Post("", h.create)
	router.Get("/queue", h.queue)
	router.Post("/:id/approve", verifyLimiter, h.approve)
	router.Post("/:id/reject", verifyLimiter, h.reject)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest

	activityID, err := strconv.ParseUint(c.FormValue("activity_id"), 10, 64)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity_id")
	}
	payload.ActivityID = uint(activityID)

	if raw := c.FormValue("event_slot_id"); raw != "" {
		slotID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid event_slot_id")
		}
		id := uint(slotID)
		payload.EventSlotID = &id
	}

	evidence, err := c.FormFile("evidence")
	if err != nil {
		evidence = nil
	}

	submission, err := h.submissions.Create(c.Context(), actorFromContext(c), payload, evidence)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) listMine(c *fiber.Ctx) error {
	submissions, err := h.submissions.ListMine(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) queue(c *fiber.Ctx) error {
	submissions, err := h.verification.PendingQueue(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "pending submissions retrieved", submissions)
}

func (h *SubmissionHandler) approve(c *fiber.Ctx) error {
	submissionID, payload, err := h.parseVerify(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.verification.Approve(c.Context(), submissionID, actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission approved", submission)
}

func (h *SubmissionHandler) reject(c *fiber.Ctx) error {
	submissionID, payload, err := h.parseVerify(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.verification.Reject(c.Context(), submissionID, actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission rejected", submission)
}

func (h *SubmissionHandler) parseVerify(c *fiber.Ctx) (uint, dto.VerifyRequest, error) {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return 0, dto.VerifyRequest{}, err
	}

	var payload dto.VerifyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return 0, dto.VerifyRequest{}, errors.New("invalid request body")
		}
	}

	return submissionID, payload, nil
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrStudentProfileRequired):
		return utils.SendError(c, fiber.StatusForbidden, "student profile required")
	case errors.Is(err, service.ErrNotAuthorized):
		return utils.SendError(c, fiber.StatusForbidden, "not allowed to verify this submission")
	case errors.Is(err, service.ErrMonthlyCapReached):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "monthly cap reached for this activity")
	case errors.Is(err, service.ErrEvidenceRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "evidence file is required")
	case errors.Is(err, service.ErrEvidenceTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "evidence exceeds maximum allowed size")
	case errors.Is(err, service.ErrEvidenceTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "evidence file type not allowed")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
