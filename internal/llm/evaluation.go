package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/feedback"
	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/pkg/logger"
	"github.com/mockprep/backend/pkg/utils"
)

var _ feedback.Generator = (*Client)(nil)

func stringList(description string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.Array,
		Description: description,
		Items:       &jsonschema.Definition{Type: jsonschema.String},
	}
}

func metricSchema(metric models.Metric) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.Object,
		Description: metric.Label() + " evaluation",
		Properties: map[string]jsonschema.Definition{
			"score":        {Type: jsonschema.Integer, Description: "Score from 1 to 10"},
			"feedback":     {Type: jsonschema.String},
			"strengths":    stringList("What the candidate did well"),
			"improvements": stringList("What the candidate should improve"),
		},
		Required:             []string{"score", "feedback", "strengths", "improvements"},
		AdditionalProperties: false,
	}
}

// EvaluationSchema is the strict response schema for interview evaluation.
func EvaluationSchema() jsonschema.Definition {
	metricProps := make(map[string]jsonschema.Definition, len(models.AllMetrics))
	metricKeys := make([]string, 0, len(models.AllMetrics))
	for _, m := range models.AllMetrics {
		metricProps[string(m)] = metricSchema(m)
		metricKeys = append(metricKeys, string(m))
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"overallScore":    {Type: jsonschema.Integer, Description: "Overall score from 0 to 100"},
			"overallFeedback": {Type: jsonschema.String},
			"strengths":       stringList("Overall strengths"),
			"improvements":    stringList("Overall areas for improvement"),
			"metrics": {
				Type:                 jsonschema.Object,
				Properties:           metricProps,
				Required:             metricKeys,
				AdditionalProperties: false,
			},
			"questionEvaluations": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"questionId":        {Type: jsonschema.String, Description: "The ID of the evaluated question"},
						"score":             {Type: jsonschema.Integer, Description: "Score from 1 to 10"},
						"relevanceScore":    {Type: jsonschema.Integer, Description: "Relevance of the answer from 1 to 10"},
						"completenessScore": {Type: jsonschema.Integer, Description: "Completeness of the answer from 1 to 10"},
						"feedback":          {Type: jsonschema.String},
						"strengths":         stringList("Strengths of the answer"),
						"improvements":      stringList("Improvements for the answer"),
					},
					Required:             []string{"questionId", "score", "relevanceScore", "completenessScore", "feedback", "strengths", "improvements"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"overallScore", "overallFeedback", "strengths", "improvements", "metrics", "questionEvaluations"},
		AdditionalProperties: false,
	}
}

// ParseEvaluation decodes and validates a model reply.
func ParseEvaluation(content string) (*feedback.Evaluation, error) {
	var evaluation feedback.Evaluation
	if err := json.Unmarshal([]byte(content), &evaluation); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation: %w", err)
	}
	if err := evaluation.Validate(); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// EvaluateInterview makes one structured-output call and returns the
// validated evaluation.
func (c *Client) EvaluateInterview(ctx context.Context, prompt feedback.Prompt) (*feedback.Evaluation, error) {
	schema := EvaluationSchema()
	promptHash := utils.HashString(prompt.User)

	logger.Info("Requesting interview evaluation",
		zap.String("model", c.model),
		zap.String("prompt_hash", promptHash),
	)

	var evaluation *feedback.Evaluation
	_, err := c.Complete(ctx, CompletionRequest{
		Operation:    "evaluate_interview",
		SystemPrompt: prompt.System,
		UserPrompt:   prompt.User,
		MaxAttempts:  c.feedbackMaxAttempts,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "interview_evaluation",
				Schema: &schema,
				Strict: true,
			},
		},
		Decode: func(content string) error {
			var err error
			evaluation, err = ParseEvaluation(content)
			return err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate interview: %w", err)
	}

	logger.Info("Interview evaluated",
		zap.String("prompt_hash", promptHash),
		zap.Int("overall_score", evaluation.OverallScore),
		zap.Int("question_evaluations", len(evaluation.QuestionEvaluations)),
	)

	return evaluation, nil
}
