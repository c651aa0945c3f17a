package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mockprep/backend/internal/feedback"
	"github.com/mockprep/backend/internal/middleware/security"
	"github.com/mockprep/backend/internal/middleware/validation"
	"github.com/mockprep/backend/internal/storage/models"
)

type FeedbackHandler struct {
	feedback *feedback.Service
}

func NewFeedbackHandler(service *feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{feedback: service}
}

type utteranceInput struct {
	Role    string `json:"role" validate:"max=32"`
	Content string `json:"content"`
}

type submittedQuestion struct {
	ID      string `json:"id" validate:"required"`
	Order   int    `json:"order"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type createFeedbackRequest struct {
	Transcript []utteranceInput    `json:"transcript" validate:"dive"`
	Questions  []submittedQuestion `json:"questions" validate:"dive"`
}

// CreateFeedback runs the feedback pipeline for an interview. The body is
// always {success, feedbackId?}; the status code carries the failure class.
func (h *FeedbackHandler) CreateFeedback(c *fiber.Ctx) error {
	var req createFeedbackRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(feedback.Result{Success: false})
	}

	utterances := make([]models.Utterance, 0, len(req.Transcript))
	for _, u := range req.Transcript {
		utterances = append(utterances, models.Utterance{Role: u.Role, Content: u.Content})
	}

	var questions []models.Question
	for _, q := range req.Questions {
		questions = append(questions, models.Question{
			ID:      q.ID,
			Order:   q.Order,
			Type:    models.QuestionType(q.Type),
			Content: q.Content,
		})
	}

	feedbackID, err := h.feedback.Run(c.UserContext(), feedback.Request{
		UserID:      security.UserID(c),
		InterviewID: c.Params("id"),
		Transcript:  utterances,
		Questions:   questions,
	})
	if err != nil {
		return c.Status(statusFor(err)).JSON(feedback.Result{Success: false})
	}

	return c.Status(fiber.StatusCreated).JSON(feedback.Result{Success: true, FeedbackID: feedbackID})
}

func (h *FeedbackHandler) GetFeedback(c *fiber.Ctx) error {
	report, err := h.feedback.GetFeedback(c.UserContext(), security.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get feedback")
	}
	return c.JSON(report)
}
