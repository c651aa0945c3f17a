package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mockprep/backend/internal/storage/models"
)

var (
	ErrInterviewNotFound    = errors.New("interview not found")
	ErrFeedbackNotFound     = errors.New("feedback not available for interview")
	ErrAlreadyCompleted     = errors.New("interview already completed")
	ErrInterviewCancelled   = errors.New("interview was cancelled")
	ErrSubmissionInProgress = errors.New("feedback submission already in progress")
	ErrGenerationFailed     = errors.New("feedback generation failed")
	ErrInvalidEvaluation    = errors.New("evaluation does not match the result schema")
	ErrUnknownQuestion      = errors.New("question does not belong to interview")
)

// Store is the relational storage the pipeline reads from and writes to.
type Store interface {
	GetInterview(ctx context.Context, id string) (*models.Interview, error)
	GetQuestions(ctx context.Context, interviewID string) ([]models.Question, error)
	InsertTranscript(ctx context.Context, t *models.Transcript) (bool, error)
	SaveFeedback(ctx context.Context, record *models.FeedbackRecord, completedAt time.Time) error
	GetFeedback(ctx context.Context, interviewID string) (*models.FeedbackRecord, error)
}

// Generator calls the structured-generation service once and returns a
// validated evaluation.
type Generator interface {
	EvaluateInterview(ctx context.Context, prompt Prompt) (*Evaluation, error)
}

// SubmissionGuard serialises concurrent submissions for the same interview.
type SubmissionGuard interface {
	// AcquireSubmission returns a token identifying this holder. ok is false
	// when another submission holds the interview.
	AcquireSubmission(ctx context.Context, interviewID string) (token string, ok bool, err error)
	ReleaseSubmission(ctx context.Context, interviewID, token string) error
}

type CacheInvalidator interface {
	InvalidateAnalytics(ctx context.Context, userID string) error
}

type Request struct {
	UserID      string
	InterviewID string
	Transcript  []models.Utterance
	Questions   []models.Question
}

// Result is the remote procedure response. Failures are reported only
// through Success.
type Result struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}

type Prompt struct {
	System string
	User   string
}

type Evaluation struct {
	OverallScore        int                         `json:"overallScore" validate:"min=0,max=100"`
	OverallFeedback     string                      `json:"overallFeedback" validate:"required"`
	Strengths           []string                    `json:"strengths" validate:"required"`
	Improvements        []string                    `json:"improvements" validate:"required"`
	Metrics             map[string]MetricEvaluation `json:"metrics" validate:"required,dive"`
	QuestionEvaluations []QuestionEvaluation        `json:"questionEvaluations" validate:"required,dive"`
}

type MetricEvaluation struct {
	Score        int      `json:"score" validate:"min=1,max=10"`
	Feedback     string   `json:"feedback" validate:"required"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

type QuestionEvaluation struct {
	QuestionID        string   `json:"questionId" validate:"required"`
	Score             int      `json:"score" validate:"min=1,max=10"`
	RelevanceScore    int      `json:"relevanceScore" validate:"min=1,max=10"`
	CompletenessScore int      `json:"completenessScore" validate:"min=1,max=10"`
	Feedback          string   `json:"feedback" validate:"required"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks score ranges and required fields. Unknown metric keys are
// not a validation failure; the persister skips them.
func (e *Evaluation) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvaluation, err)
	}
	return nil
}

// Report is the read model returned for a completed interview.
type Report struct {
	Interview *models.Interview        `json:"interview"`
	Feedback  models.OverallFeedback   `json:"feedback"`
	Metrics   []models.MetricScore     `json:"metrics"`
	Questions []models.QuestionFeedback `json:"questions"`
}
