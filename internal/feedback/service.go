package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/metrics"
	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/internal/storage/sqlite"
	"github.com/mockprep/backend/pkg/logger"
)

type Service struct {
	store     Store
	generator Generator
	guard     SubmissionGuard
	cache     CacheInvalidator
	now       func() time.Time
}

type Option func(*Service)

func WithSubmissionGuard(guard SubmissionGuard) Option {
	return func(s *Service) { s.guard = guard }
}

func WithCacheInvalidator(cache CacheInvalidator) Option {
	return func(s *Service) { s.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, generator Generator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		generator: generator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFeedback runs the pipeline and reports the outcome as a Result.
// Errors are logged, never returned.
func (s *Service) CreateFeedback(ctx context.Context, req Request) Result {
	feedbackID, err := s.Run(ctx, req)
	if err != nil {
		return Result{Success: false}
	}
	return Result{Success: true, FeedbackID: feedbackID}
}

// Run records the transcript, generates the evaluation and persists it. It
// returns the id of the overall feedback row.
func (s *Service) Run(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	feedbackID, err := s.run(ctx, req)

	outcome := outcomeLabel(err)
	metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	metrics.PipelineDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error("Feedback pipeline failed",
			zap.String("interview_id", req.InterviewID),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return "", err
	}

	logger.Info("Feedback pipeline completed",
		zap.String("interview_id", req.InterviewID),
		zap.String("feedback_id", feedbackID),
		zap.Duration("duration", time.Since(start)),
	)
	return feedbackID, nil
}

func (s *Service) run(ctx context.Context, req Request) (string, error) {
	if s.guard != nil {
		token, acquired, err := s.guard.AcquireSubmission(ctx, req.InterviewID)
		if err != nil {
			logger.Warn("Submission guard unavailable, relying on storage constraints",
				zap.String("interview_id", req.InterviewID),
				zap.Error(err),
			)
		} else if !acquired {
			return "", ErrSubmissionInProgress
		} else {
			defer func() {
				if err := s.guard.ReleaseSubmission(context.WithoutCancel(ctx), req.InterviewID, token); err != nil {
					logger.Warn("Failed to release submission guard", zap.String("interview_id", req.InterviewID), zap.Error(err))
				}
			}()
		}
	}

	interview, err := s.loadInterview(ctx, req.UserID, req.InterviewID)
	if err != nil {
		return "", err
	}

	questions, err := s.resolveQuestions(ctx, interview.ID, req.Questions)
	if err != nil {
		return "", err
	}

	if err := s.recordTranscript(ctx, interview.ID, req.Transcript); err != nil {
		return "", err
	}

	prompt := AssemblePrompt(req.Transcript, questions)

	evaluation, err := s.generator.EvaluateInterview(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	record := s.buildRecord(interview.ID, evaluation, questions)

	if err := s.store.SaveFeedback(ctx, record, s.now()); err != nil {
		if errors.Is(err, sqlite.ErrStatusConflict) {
			return "", ErrAlreadyCompleted
		}
		return "", fmt.Errorf("failed to persist feedback: %w", err)
	}

	metrics.OverallScore.Observe(float64(record.Overall.OverallScore))

	if s.cache != nil {
		if err := s.cache.InvalidateAnalytics(ctx, interview.UserID); err != nil {
			logger.Warn("Failed to invalidate analytics cache", zap.String("user_id", interview.UserID), zap.Error(err))
		}
	}

	return record.Overall.ID, nil
}

func (s *Service) loadInterview(ctx context.Context, userID, interviewID string) (*models.Interview, error) {
	interview, err := s.store.GetInterview(ctx, interviewID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load interview: %w", err)
	}

	if userID != "" && interview.UserID != userID {
		return nil, ErrInterviewNotFound
	}

	switch interview.Status {
	case models.StatusCompleted:
		return nil, ErrAlreadyCompleted
	case models.StatusCancelled:
		return nil, ErrInterviewCancelled
	}

	return interview, nil
}

// resolveQuestions returns the stored questions the run evaluates. Submitted
// questions select a subset by id; any id outside the interview is rejected
// before the transcript is recorded or the generator is called.
func (s *Service) resolveQuestions(ctx context.Context, interviewID string, submitted []models.Question) ([]models.Question, error) {
	stored, err := s.store.GetQuestions(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(submitted) == 0 {
		return stored, nil
	}

	byID := make(map[string]models.Question, len(stored))
	for _, q := range stored {
		byID[q.ID] = q
	}

	selected := make([]models.Question, 0, len(submitted))
	seen := make(map[string]bool, len(submitted))
	for _, q := range submitted {
		row, ok := byID[q.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownQuestion, q.ID)
		}
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		selected = append(selected, row)
	}
	return selected, nil
}

func (s *Service) recordTranscript(ctx context.Context, interviewID string, utterances []models.Utterance) error {
	transcript := &models.Transcript{
		ID:               uuid.New().String(),
		InterviewID:      interviewID,
		Utterances:       utterances,
		ParticipantCount: models.ParticipantCount,
		CreatedAt:        s.now(),
	}

	created, err := s.store.InsertTranscript(ctx, transcript)
	if err != nil {
		return fmt.Errorf("failed to record transcript: %w", err)
	}
	if !created {
		logger.Info("Transcript already recorded, keeping original", zap.String("interview_id", interviewID))
	}
	return nil
}

// buildRecord maps the evaluation onto storage rows. Metric keys outside the
// five known metrics and evaluations for questions not in the interview are
// dropped with a warning.
func (s *Service) buildRecord(interviewID string, evaluation *Evaluation, questions []models.Question) *models.FeedbackRecord {
	now := s.now()
	feedbackID := uuid.New().String()

	record := &models.FeedbackRecord{
		Overall: models.OverallFeedback{
			ID:           feedbackID,
			InterviewID:  interviewID,
			OverallScore: evaluation.OverallScore,
			Feedback:     evaluation.OverallFeedback,
			Strengths:    evaluation.Strengths,
			Improvements: evaluation.Improvements,
			CreatedAt:    now,
		},
	}

	for _, metric := range models.AllMetrics {
		result, ok := evaluation.Metrics[string(metric)]
		if !ok {
			logger.Warn("Evaluation is missing metric", zap.String("interview_id", interviewID), zap.String("metric", string(metric)))
			continue
		}
		record.Metrics = append(record.Metrics, models.MetricScore{
			ID:           uuid.New().String(),
			InterviewID:  interviewID,
			FeedbackID:   feedbackID,
			Metric:       metric,
			Score:        result.Score,
			Feedback:     result.Feedback,
			Strengths:    result.Strengths,
			Improvements: result.Improvements,
			CreatedAt:    now,
		})
	}
	for key := range evaluation.Metrics {
		if _, err := models.ParseMetric(key); err != nil {
			metrics.SkippedEvaluationItems.WithLabelValues("metric").Inc()
			logger.Warn("Skipping unrecognized metric", zap.String("interview_id", interviewID), zap.String("metric", key))
		}
	}

	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	seen := make(map[string]bool, len(evaluation.QuestionEvaluations))
	for _, qe := range evaluation.QuestionEvaluations {
		if !known[qe.QuestionID] || seen[qe.QuestionID] {
			metrics.SkippedEvaluationItems.WithLabelValues("question").Inc()
			logger.Warn("Skipping question evaluation",
				zap.String("interview_id", interviewID),
				zap.String("question_id", qe.QuestionID),
				zap.Bool("duplicate", seen[qe.QuestionID]),
			)
			continue
		}
		seen[qe.QuestionID] = true

		record.Questions = append(record.Questions, models.QuestionFeedback{
			ID:                uuid.New().String(),
			InterviewID:       interviewID,
			QuestionID:        qe.QuestionID,
			Score:             qe.Score,
			RelevanceScore:    qe.RelevanceScore,
			CompletenessScore: qe.CompletenessScore,
			Feedback:          qe.Feedback,
			Strengths:         qe.Strengths,
			Improvements:      qe.Improvements,
			CreatedAt:         now,
		})
	}

	return record
}

// GetFeedback returns the stored feedback for one of the user's interviews.
func (s *Service) GetFeedback(ctx context.Context, userID, interviewID string) (*Report, error) {
	interview, err := s.store.GetInterview(ctx, interviewID)
	if errors.Is(err, sqlite.ErrNotFound) || (err == nil && interview.UserID != userID) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load interview: %w", err)
	}

	record, err := s.store.GetFeedback(ctx, interviewID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrFeedbackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}

	return &Report{
		Interview: interview,
		Feedback:  record.Overall,
		Metrics:   record.Metrics,
		Questions: record.Questions,
	}, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrAlreadyCompleted), errors.Is(err, ErrSubmissionInProgress):
		return "duplicate"
	case errors.Is(err, ErrInterviewNotFound), errors.Is(err, ErrInterviewCancelled), errors.Is(err, ErrUnknownQuestion):
		return "rejected"
	default:
		return "persistence_failed"
	}
}
