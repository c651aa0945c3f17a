package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mockprep/backend/internal/interview"
	"github.com/mockprep/backend/internal/middleware/security"
	"github.com/mockprep/backend/internal/middleware/validation"
)

type InterviewHandler struct {
	interviews *interview.Service
}

func NewInterviewHandler(interviews *interview.Service) *InterviewHandler {
	return &InterviewHandler{interviews: interviews}
}

type questionInput struct {
	Type    string `json:"type" validate:"required"`
	Content string `json:"content" validate:"required,max=2000"`
}

type createInterviewRequest struct {
	JobID         string          `json:"job_id" validate:"required"`
	Title         string          `json:"title" validate:"max=200"`
	Questions     []questionInput `json:"questions" validate:"max=15,dive"`
	QuestionCount int             `json:"question_count" validate:"min=0,max=15"`
}

func (h *InterviewHandler) CreateInterview(c *fiber.Ctx) error {
	var req createInterviewRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	inputs := make([]interview.QuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		inputs = append(inputs, interview.QuestionInput{Type: q.Type, Content: q.Content})
	}

	detail, err := h.interviews.Create(c.UserContext(), interview.CreateRequest{
		UserID:        security.UserID(c),
		JobID:         req.JobID,
		Title:         req.Title,
		Questions:     inputs,
		QuestionCount: req.QuestionCount,
	})
	if err != nil {
		return respondError(c, err, "Failed to create interview")
	}

	return c.Status(fiber.StatusCreated).JSON(detail)
}

func (h *InterviewHandler) ListInterviews(c *fiber.Ctx) error {
	list, err := h.interviews.List(c.UserContext(), security.UserID(c))
	if err != nil {
		return respondError(c, err, "Failed to list interviews")
	}
	return c.JSON(fiber.Map{"interviews": list})
}

func (h *InterviewHandler) GetInterview(c *fiber.Ctx) error {
	detail, err := h.interviews.Get(c.UserContext(), security.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get interview")
	}
	return c.JSON(detail)
}

func (h *InterviewHandler) StartInterview(c *fiber.Ctx) error {
	iv, err := h.interviews.Start(c.UserContext(), security.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to start interview")
	}
	return c.JSON(iv)
}

func (h *InterviewHandler) CancelInterview(c *fiber.Ctx) error {
	iv, err := h.interviews.Cancel(c.UserContext(), security.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to cancel interview")
	}
	return c.JSON(iv)
}

func (h *InterviewHandler) GetTranscript(c *fiber.Ctx) error {
	view, err := h.interviews.Transcript(c.UserContext(), security.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get transcript")
	}
	return c.JSON(view)
}
