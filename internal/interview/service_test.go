package interview

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockprep/backend/internal/llm"
	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/internal/storage/sqlite"
)

type fakeGenerator struct {
	questions []llm.GeneratedQuestion
	err       error
	count     int
}

func (f *fakeGenerator) GenerateQuestions(_ context.Context, _ *models.JobPosting, count int) ([]llm.GeneratedQuestion, error) {
	f.count = count
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

type fakeCache struct {
	invalidated []string
	err         error
}

func (c *fakeCache) InvalidateAnalytics(_ context.Context, userID string) error {
	c.invalidated = append(c.invalidated, userID)
	return c.err
}

func newTestService(t *testing.T, gen QuestionGenerator, opts ...Option) (*Service, *sqlite.Client) {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "interview.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	require.NoError(t, db.InsertJobPosting(context.Background(), &models.JobPosting{
		ID:          "job-1",
		UserID:      "user-1",
		Title:       "Backend Engineer",
		Description: "Go services",
		CreatedAt:   time.Now(),
	}))

	return NewService(db, gen, opts...), db
}

func explicitRequest() CreateRequest {
	return CreateRequest{
		UserID: "user-1",
		JobID:  "job-1",
		Questions: []QuestionInput{
			{Type: "technical", Content: "Explain channels"},
			{Type: "behavioral", Content: " Describe a conflict "},
		},
	}
}

func TestCreateWithExplicitQuestions(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()

	detail, err := svc.Create(ctx, explicitRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusCreated, detail.Interview.Status)
	assert.Equal(t, "Backend Engineer mock interview", detail.Interview.Title)
	require.Len(t, detail.Questions, 2)
	assert.Equal(t, 2, detail.Questions[1].Order)
	assert.Equal(t, "Describe a conflict", detail.Questions[1].Content)

	stored, err := db.GetQuestions(ctx, detail.Interview.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, detail.Interview.ID, stored[0].InterviewID)
}

func TestCreateGeneratesQuestions(t *testing.T) {
	gen := &fakeGenerator{questions: []llm.GeneratedQuestion{
		{Type: models.QuestionTechnical, Content: "What is a goroutine?"},
		{Type: models.QuestionCultural, Content: "Why us?"},
	}}
	svc, _ := newTestService(t, gen)

	detail, err := svc.Create(context.Background(), CreateRequest{UserID: "user-1", JobID: "job-1", Title: "Practice"})
	require.NoError(t, err)

	assert.Equal(t, DefaultQuestionCount, gen.count)
	assert.Equal(t, "Practice", detail.Interview.Title)
	require.Len(t, detail.Questions, 2)
	assert.Equal(t, models.QuestionCultural, detail.Questions[1].Type)
}

func TestCreateValidation(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{UserID: "user-1", JobID: "job-1", QuestionCount: MaxQuestions + 1})
	assert.ErrorIs(t, err, ErrInvalidQuestions)

	req := explicitRequest()
	req.Questions[0].Type = "trivia"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidQuestions)

	req = explicitRequest()
	req.UserID = "user-2"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = svc.Create(ctx, CreateRequest{UserID: "user-1", JobID: "job-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestCreateWithoutGenerator(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Create(context.Background(), CreateRequest{UserID: "user-1", JobID: "job-1"})
	assert.ErrorIs(t, err, ErrGeneratorUnavailable)
}

func TestLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	detail, err := svc.Create(ctx, explicitRequest())
	require.NoError(t, err)
	id := detail.Interview.ID

	_, err = svc.Start(ctx, "user-2", id)
	assert.ErrorIs(t, err, ErrInterviewNotFound)

	iv, err := svc.Start(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, iv.Status)

	_, err = svc.Start(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	iv, err = svc.Cancel(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, iv.Status)

	_, err = svc.Cancel(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := svc.Get(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Len(t, got.Questions, 2)
}

func TestTranscript(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()

	detail, err := svc.Create(ctx, explicitRequest())
	require.NoError(t, err)
	id := detail.Interview.ID

	_, err = svc.Transcript(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrTranscriptNotFound)

	_, err = db.InsertTranscript(ctx, &models.Transcript{
		ID:               "tr-1",
		InterviewID:      id,
		Utterances:       []models.Utterance{{Role: "assistant", Content: "Hi there."}, {Role: "user", Content: "Hello."}},
		ParticipantCount: models.ParticipantCount,
		CreatedAt:        time.Now(),
	})
	require.NoError(t, err)

	view, err := svc.Transcript(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Len(t, view.Transcript.Utterances, 2)
	assert.Equal(t, 1, view.Stats.CandidateAnswers)
	assert.Equal(t, 2, view.Stats.InterviewerWords)
}

func TestLifecycleInvalidatesAnalyticsCache(t *testing.T) {
	cache := &fakeCache{}
	svc, _ := newTestService(t, nil, WithCacheInvalidator(cache))
	ctx := context.Background()

	detail, err := svc.Create(ctx, explicitRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, cache.invalidated)

	_, err = svc.Start(ctx, "user-1", detail.Interview.ID)
	require.NoError(t, err)
	assert.Len(t, cache.invalidated, 2)

	// Rejected transitions leave the cache alone.
	_, err = svc.Start(ctx, "user-1", detail.Interview.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, cache.invalidated, 2)

	cache.err = errors.New("redis down")
	iv, err := svc.Cancel(ctx, "user-1", detail.Interview.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, iv.Status)
	assert.Equal(t, []string{"user-1", "user-1", "user-1"}, cache.invalidated)
}
