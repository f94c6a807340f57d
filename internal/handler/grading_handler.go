package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/service"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/utils"
)

// GradingHandler manages grading endpoints: the heuristic rubric, the
// multi-agent review and the grade push payload.
type GradingHandler struct {
	rubric service.RubricService
	review service.ReviewService
	logger zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(rubric service.RubricService, review service.ReviewService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		rubric: rubric,
		review: review,
		logger: logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The guards run
// only on these routes so sibling submission routes stay unaffected.
func (h *GradingHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/:id/grade", withGuards(guards, h.grade)...)
	router.Post("/:id/review", withGuards(guards, h.reviewSubmission)...)
	router.Get("/:id/push-payload", withGuards(guards, h.pushPayload)...)
}

func withGuards(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, handler)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	maxGrade := 0.0
	if raw := c.Query("max_grade"); raw != "" {
		maxGrade, err = strconv.ParseFloat(raw, 64)
		if err != nil || maxGrade <= 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "max_grade must be positive")
		}
	}

	result, err := h.rubric.Grade(c.Context(), id, maxGrade)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", result)
}

func (h *GradingHandler) reviewSubmission(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.review.Review(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission reviewed", result)
}

func (h *GradingHandler) pushPayload(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, err := h.review.PushPayload(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "push payload retrieved", payload)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrFeedbackNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "no feedback result for submission")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
