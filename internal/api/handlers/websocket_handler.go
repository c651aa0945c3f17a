package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/feedback"
	"github.com/mockprep/backend/internal/interview"
	"github.com/mockprep/backend/internal/metrics"
	"github.com/mockprep/backend/internal/middleware/security"
	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/pkg/logger"
)

const maxSessionUtterances = 2000

// SessionHandler runs a live interview session: the voice agent streams
// utterances, and a final complete message submits them to the feedback
// pipeline.
type SessionHandler struct {
	interviews *interview.Service
	feedback   *feedback.Service
}

func NewSessionHandler(interviews *interview.Service, feedbackService *feedback.Service) *SessionHandler {
	return &SessionHandler{
		interviews: interviews,
		feedback:   feedbackService,
	}
}

type sessionMessage struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Upgrade only lets websocket handshakes through to the session route.
func (h *SessionHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("interview_id", strings.Clone(c.Params("id")))
	return c.Next()
}

func (h *SessionHandler) HandleSession(c *websocket.Conn) {
	userID, _ := c.Locals(security.UserLocalsKey).(string)
	interviewID, _ := c.Locals("interview_id").(string)
	ctx := context.Background()

	metrics.ActiveSessions.Inc()
	logger.Info("Interview session opened", zap.String("interview_id", interviewID))

	defer func() {
		metrics.ActiveSessions.Dec()
		c.Close()
		logger.Info("Interview session closed", zap.String("interview_id", interviewID))
	}()

	if err := h.begin(ctx, userID, interviewID); err != nil {
		logger.Warn("Interview session rejected", zap.String("interview_id", interviewID), zap.Error(err))
		h.sendError(c, err.Error())
		return
	}
	h.send(c, fiber.Map{"type": "ready", "interview_id": interviewID})

	utterances := make([]models.Utterance, 0, 64)
	for {
		var msg sessionMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Info("Interview session ended without completion",
				zap.String("interview_id", interviewID),
				zap.Int("utterances", len(utterances)),
				zap.Error(err),
			)
			return
		}

		switch msg.Type {
		case "utterance":
			if len(utterances) >= maxSessionUtterances {
				h.sendError(c, "Transcript limit reached")
				continue
			}
			utterances = append(utterances, models.Utterance{Role: msg.Role, Content: msg.Content})
			h.send(c, fiber.Map{"type": "ack", "count": len(utterances)})

		case "complete":
			h.send(c, fiber.Map{"type": "status", "content": "Generating feedback..."})
			result := h.feedback.CreateFeedback(ctx, feedback.Request{
				UserID:      userID,
				InterviewID: interviewID,
				Transcript:  utterances,
			})
			h.send(c, fiber.Map{
				"type":       "feedback",
				"success":    result.Success,
				"feedbackId": result.FeedbackID,
			})
			return

		default:
			h.sendError(c, "Unknown message type")
		}
	}
}

// begin moves a freshly created interview to in_progress. Sessions may be
// resumed while the interview is already in progress.
func (h *SessionHandler) begin(ctx context.Context, userID, interviewID string) error {
	detail, err := h.interviews.Get(ctx, userID, interviewID)
	if err != nil {
		return err
	}

	switch detail.Interview.Status {
	case models.StatusCreated:
		_, err = h.interviews.Start(ctx, userID, interviewID)
		return err
	case models.StatusInProgress:
		return nil
	}
	return interview.ErrInvalidTransition
}

func (h *SessionHandler) send(c *websocket.Conn, msg fiber.Map) {
	if err := c.WriteJSON(msg); err != nil {
		logger.Debug("Failed to write session message", zap.Error(err))
	}
}

func (h *SessionHandler) sendError(c *websocket.Conn, errorMsg string) {
	h.send(c, fiber.Map{"type": "error", "error": errorMsg})
}
