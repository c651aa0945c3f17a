package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mockprep/backend/internal/jobs"
	"github.com/mockprep/backend/internal/middleware/security"
	"github.com/mockprep/backend/internal/middleware/validation"
)

type JobHandler struct {
	jobs *jobs.Service
}

func NewJobHandler(jobService *jobs.Service) *JobHandler {
	return &JobHandler{jobs: jobService}
}

type createJobRequest struct {
	Title           string `json:"title" validate:"max=200"`
	Company         string `json:"company" validate:"max=200"`
	Description     string `json:"description" validate:"required_without=DescriptionHTML,max=20000"`
	DescriptionHTML string `json:"description_html" validate:"max=2000000"`
}

func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	var req createJobRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	job, err := h.jobs.Create(c.UserContext(), jobs.CreateRequest{
		UserID:          security.UserID(c),
		Title:           req.Title,
		Company:         req.Company,
		Description:     req.Description,
		DescriptionHTML: req.DescriptionHTML,
	})
	if err != nil {
		return respondError(c, err, "Failed to create job posting")
	}

	return c.Status(fiber.StatusCreated).JSON(job)
}

func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	list, err := h.jobs.List(c.UserContext(), security.UserID(c))
	if err != nil {
		return respondError(c, err, "Failed to list job postings")
	}
	return c.JSON(fiber.Map{"jobs": list})
}

func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.jobs.Get(c.UserContext(), security.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get job posting")
	}
	return c.JSON(job)
}
