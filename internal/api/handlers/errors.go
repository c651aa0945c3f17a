package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/feedback"
	"github.com/mockprep/backend/internal/interview"
	"github.com/mockprep/backend/internal/jobs"
	"github.com/mockprep/backend/pkg/logger"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, feedback.ErrInterviewNotFound),
		errors.Is(err, feedback.ErrFeedbackNotFound),
		errors.Is(err, interview.ErrInterviewNotFound),
		errors.Is(err, interview.ErrJobNotFound),
		errors.Is(err, interview.ErrTranscriptNotFound),
		errors.Is(err, jobs.ErrJobNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, feedback.ErrAlreadyCompleted),
		errors.Is(err, feedback.ErrInterviewCancelled),
		errors.Is(err, feedback.ErrSubmissionInProgress),
		errors.Is(err, interview.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, interview.ErrInvalidQuestions),
		errors.Is(err, feedback.ErrUnknownQuestion),
		errors.Is(err, jobs.ErrEmptyDescription):
		return fiber.StatusBadRequest
	case errors.Is(err, feedback.ErrGenerationFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, interview.ErrGeneratorUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes {"error": ...}. Internal failures get a generic message.
func respondError(c *fiber.Ctx, err error, msg string) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error(msg, zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}
