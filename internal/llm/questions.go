package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/pkg/logger"
)

type GeneratedQuestion struct {
	Type    models.QuestionType `json:"type"`
	Content string              `json:"content"`
}

type questionSet struct {
	Questions []struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"questions"`
}

func questionSetSchema() jsonschema.Definition {
	types := make([]string, 0, len(models.AllQuestionTypes))
	for _, t := range models.AllQuestionTypes {
		types = append(types, string(t))
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"questions": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"type":    {Type: jsonschema.String, Enum: types},
						"content": {Type: jsonschema.String},
					},
					Required:             []string{"type", "content"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"questions"},
		AdditionalProperties: false,
	}
}

// ParseQuestions decodes a question-set reply, rejecting unknown types and
// empty questions, and truncates it to count.
func ParseQuestions(content string, count int) ([]GeneratedQuestion, error) {
	var set questionSet
	if err := json.Unmarshal([]byte(content), &set); err != nil {
		return nil, fmt.Errorf("failed to decode question set: %w", err)
	}

	questions := make([]GeneratedQuestion, 0, len(set.Questions))
	for i, q := range set.Questions {
		qType, err := models.ParseQuestionType(q.Type)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		text := strings.TrimSpace(q.Content)
		if text == "" {
			return nil, fmt.Errorf("question %d is empty", i+1)
		}
		questions = append(questions, GeneratedQuestion{Type: qType, Content: text})
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions generated")
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

func (c *Client) GenerateQuestions(ctx context.Context, job *models.JobPosting, count int) ([]GeneratedQuestion, error) {
	systemPrompt := `You are an expert technical recruiter preparing a realistic mock interview.
Write interview questions tailored to the job posting. Mix question types across technical, behavioral, situational, problem_solving and cultural.
Each question must be a single, self-contained question a voice interviewer can read aloud.`

	userPrompt := fmt.Sprintf(`Job title: %s
Company: %s

Job description:
%s

Write exactly %d interview questions.`, job.Title, job.Company, job.Description, count)

	schema := questionSetSchema()

	var questions []GeneratedQuestion
	_, err := c.Complete(ctx, CompletionRequest{
		Operation:    "generate_questions",
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.7,
		MaxTokens:    1500,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "question_set",
				Schema: &schema,
				Strict: true,
			},
		},
		Decode: func(content string) error {
			var err error
			questions, err = ParseQuestions(content, count)
			return err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	logger.Info("Questions generated",
		zap.String("job_id", job.ID),
		zap.Int("requested", count),
		zap.Int("generated", len(questions)),
	)

	return questions, nil
}
