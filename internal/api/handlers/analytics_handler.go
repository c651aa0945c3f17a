package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mockprep/backend/internal/analytics"
	"github.com/mockprep/backend/internal/middleware/security"
)

type AnalyticsHandler struct {
	analytics *analytics.Service
}

func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: service}
}

func (h *AnalyticsHandler) GetAnalytics(c *fiber.Ctx) error {
	result, err := h.analytics.Get(c.UserContext(), security.UserID(c))
	if err != nil {
		return respondError(c, err, "Failed to load analytics")
	}
	return c.JSON(result)
}
