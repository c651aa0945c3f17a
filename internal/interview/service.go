package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/llm"
	"github.com/mockprep/backend/internal/metrics"
	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/internal/storage/sqlite"
	"github.com/mockprep/backend/internal/transcript"
	"github.com/mockprep/backend/pkg/logger"
)

const (
	DefaultQuestionCount = 5
	MaxQuestions         = 15
)

var (
	ErrInterviewNotFound    = errors.New("interview not found")
	ErrJobNotFound          = errors.New("job posting not found")
	ErrTranscriptNotFound   = errors.New("transcript not recorded")
	ErrInvalidQuestions     = errors.New("invalid question set")
	ErrInvalidTransition    = errors.New("interview status does not allow this action")
	ErrGeneratorUnavailable = errors.New("question generation is not configured")
)

// QuestionGenerator drafts a question set from a job posting.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, job *models.JobPosting, count int) ([]llm.GeneratedQuestion, error)
}

type QuestionInput struct {
	Type    string
	Content string
}

type CreateRequest struct {
	UserID        string
	JobID         string
	Title         string
	Questions     []QuestionInput
	QuestionCount int
}

type Detail struct {
	Interview *models.Interview `json:"interview"`
	Questions []models.Question `json:"questions"`
}

type TranscriptView struct {
	Transcript *models.Transcript `json:"transcript"`
	Stats      *transcript.Stats  `json:"stats"`
}

// CacheInvalidator drops a user's cached analytics after their interviews change.
type CacheInvalidator interface {
	InvalidateAnalytics(ctx context.Context, userID string) error
}

type Service struct {
	db        *sqlite.Client
	generator QuestionGenerator
	cache     CacheInvalidator
	now       func() time.Time
}

type Option func(*Service)

func WithCacheInvalidator(cache CacheInvalidator) Option {
	return func(s *Service) { s.cache = cache }
}

// NewService builds the interview service. generator may be nil, in which
// case interviews must be created with explicit questions.
func NewService(db *sqlite.Client, generator QuestionGenerator, opts ...Option) *Service {
	s := &Service{db: db, generator: generator, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAnalytics(ctx, userID); err != nil {
		logger.Warn("Failed to invalidate analytics cache", zap.Error(err))
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Detail, error) {
	job, err := s.db.GetJobPosting(ctx, req.JobID)
	if errors.Is(err, sqlite.ErrNotFound) || (err == nil && job.UserID != req.UserID) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	var drafts []QuestionInput
	source := "explicit"
	if len(req.Questions) > 0 {
		drafts = req.Questions
	} else {
		drafts, err = s.generate(ctx, job, req.QuestionCount)
		if err != nil {
			return nil, err
		}
		source = "generated"
	}

	now := s.now()
	questions, err := buildQuestions(drafts, now)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = job.Title + " mock interview"
	}

	iv := &models.Interview{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		JobID:     job.ID,
		Title:     title,
		Status:    models.StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range questions {
		questions[i].InterviewID = iv.ID
	}

	if err := s.db.CreateInterview(ctx, iv, questions); err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.UserID)

	metrics.InterviewsCreated.WithLabelValues(source).Inc()
	logger.Info("Interview prepared",
		zap.String("interview_id", iv.ID),
		zap.String("job_id", job.ID),
		zap.String("source", source),
		zap.Int("questions", len(questions)),
	)

	return &Detail{Interview: iv, Questions: questions}, nil
}

func (s *Service) generate(ctx context.Context, job *models.JobPosting, count int) ([]QuestionInput, error) {
	if count == 0 {
		count = DefaultQuestionCount
	}
	if count < 0 || count > MaxQuestions {
		return nil, fmt.Errorf("%w: question count must be between 1 and %d", ErrInvalidQuestions, MaxQuestions)
	}
	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	generated, err := s.generator.GenerateQuestions(ctx, job, count)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	drafts := make([]QuestionInput, 0, len(generated))
	for _, q := range generated {
		drafts = append(drafts, QuestionInput{Type: string(q.Type), Content: q.Content})
	}
	return drafts, nil
}

func buildQuestions(drafts []QuestionInput, now time.Time) ([]models.Question, error) {
	if len(drafts) == 0 || len(drafts) > MaxQuestions {
		return nil, fmt.Errorf("%w: expected 1 to %d questions, got %d", ErrInvalidQuestions, MaxQuestions, len(drafts))
	}

	questions := make([]models.Question, 0, len(drafts))
	for i, d := range drafts {
		qType, err := models.ParseQuestionType(d.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrInvalidQuestions, i+1, err)
		}
		content := strings.TrimSpace(d.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: question %d is empty", ErrInvalidQuestions, i+1)
		}
		questions = append(questions, models.Question{
			ID:        uuid.New().String(),
			Order:     i + 1,
			Type:      qType,
			Content:   content,
			CreatedAt: now,
		})
	}
	return questions, nil
}

func (s *Service) owned(ctx context.Context, userID, id string) (*models.Interview, error) {
	iv, err := s.db.GetInterview(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, err
	}
	if iv.UserID != userID {
		return nil, ErrInterviewNotFound
	}
	return iv, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Detail, error) {
	iv, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	questions, err := s.db.GetQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Interview: iv, Questions: questions}, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Interview, error) {
	return s.db.ListInterviews(ctx, userID)
}

// Start moves a created interview to in_progress.
func (s *Service) Start(ctx context.Context, userID, id string) (*models.Interview, error) {
	return s.transition(ctx, userID, id, models.StatusInProgress)
}

// Cancel abandons an interview that has not been scored.
func (s *Service) Cancel(ctx context.Context, userID, id string) (*models.Interview, error) {
	return s.transition(ctx, userID, id, models.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, userID, id string, next models.InterviewStatus) (*models.Interview, error) {
	iv, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !iv.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, iv.Status, next)
	}

	// A concurrent completion or cancellation turns the update into a no-op.
	err = s.db.UpdateInterviewStatus(ctx, id, next, models.SourcesOf(next)...)
	if errors.Is(err, sqlite.ErrStatusConflict) {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)

	return s.db.GetInterview(ctx, id)
}

// Transcript returns the recorded transcript with speaker statistics.
func (s *Service) Transcript(ctx context.Context, userID, id string) (*TranscriptView, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}

	t, err := s.db.GetTranscript(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrTranscriptNotFound
	}
	if err != nil {
		return nil, err
	}

	stats, err := transcript.Analyze(t.Utterances)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze transcript: %w", err)
	}
	return &TranscriptView{Transcript: t, Stats: stats}, nil
}
