package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/metrics"
	"github.com/mockprep/backend/pkg/circuitbreaker"
	"github.com/mockprep/backend/pkg/logger"
	"github.com/mockprep/backend/pkg/retry"
)

var (
	ErrEmptyResponse = errors.New("model returned no choices")
	// ErrInvalidOutput marks replies that could not be decoded or validated.
	// They are not retried and do not trip the circuit breaker.
	ErrInvalidOutput = errors.New("model output failed validation")
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	// MaxAttempts bounds retries for question generation.
	MaxAttempts int
	// FeedbackMaxAttempts bounds retries for interview evaluation. One means
	// a single call.
	FeedbackMaxAttempts int
}

type Client struct {
	client              *openai.Client
	model               string
	temperature         float32
	maxTokens           int
	timeout             time.Duration
	cb                  *circuitbreaker.CircuitBreaker
	retryPolicy         retry.Policy
	feedbackMaxAttempts int
}

type CompletionRequest struct {
	Operation      string
	SystemPrompt   string
	UserPrompt     string
	Temperature    float32
	MaxTokens      int
	MaxAttempts    int
	ResponseFormat *openai.ChatCompletionResponseFormat
	// Decode, when set, parses the reply inside the protected call. Its
	// errors are reported as ErrInvalidOutput.
	Decode func(content string) error
}

type CompletionResponse struct {
	Content      string
	FinishReason string
	Usage        Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(cfg Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.FeedbackMaxAttempts == 0 {
		cfg.FeedbackMaxAttempts = 1
	}

	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		IsSuccessful: func(err error) bool {
			return errors.Is(err, ErrInvalidOutput)
		},
		Logger: logger.GetLogger(),
	})

	retryPolicy := retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.1,
		Retryable:   isRetryable,
		Logger:      logger.GetLogger(),
	}

	logger.Info("LLM client initialized",
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)

	return &Client{
		client:              openai.NewClientWithConfig(clientConfig),
		model:               cfg.Model,
		temperature:         clampTemperature(cfg.Temperature),
		maxTokens:           cfg.MaxTokens,
		timeout:             cfg.Timeout,
		cb:                  cb,
		retryPolicy:         retryPolicy,
		feedbackMaxAttempts: cfg.FeedbackMaxAttempts,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	temperature = clampTemperature(temperature)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	policy := c.retryPolicy
	if req.MaxAttempts > 0 {
		policy.MaxAttempts = req.MaxAttempts
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	result, err := retry.Do(ctx, policy, func() (*CompletionResponse, error) {
		var completion *CompletionResponse
		err := c.cb.Execute(ctx, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:          c.model,
					Messages:       messages,
					Temperature:    temperature,
					MaxTokens:      maxTokens,
					ResponseFormat: req.ResponseFormat,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			if len(resp.Choices) == 0 {
				return ErrEmptyResponse
			}

			metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

			logger.Debug("LLM completion generated",
				zap.String("operation", req.Operation),
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			if req.Decode != nil {
				if err := req.Decode(resp.Choices[0].Message.Content); err != nil {
					return fmt.Errorf("%w: %w (finish reason %s)", ErrInvalidOutput, err, resp.Choices[0].FinishReason)
				}
			}

			completion = &CompletionResponse{
				Content:      resp.Choices[0].Message.Content,
				FinishReason: string(resp.Choices[0].FinishReason),
				Usage: Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}

			return nil
		})
		return completion, err
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequests.WithLabelValues(req.Operation, status).Inc()

	if err != nil {
		return nil, err
	}

	return result, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrInvalidOutput) || errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	return true
}

// minTemperature is the lowest value sent upstream. The request field is
// omitted when zero, which would fall back to the provider default of 1.
const minTemperature float32 = 0.01

func clampTemperature(t float32) float32 {
	if t < minTemperature {
		return minTemperature
	}
	if t > 1 {
		return 1
	}
	return t
}
