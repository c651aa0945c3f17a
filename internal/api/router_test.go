package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockprep/backend/internal/analytics"
	"github.com/mockprep/backend/internal/api/handlers"
	"github.com/mockprep/backend/internal/feedback"
	"github.com/mockprep/backend/internal/interview"
	"github.com/mockprep/backend/internal/jobs"
	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/internal/storage/sqlite"
	"github.com/mockprep/backend/pkg/config"
)

type scriptedGenerator struct {
	questionIDs []string
	err         error
}

func (g *scriptedGenerator) EvaluateInterview(_ context.Context, _ feedback.Prompt) (*feedback.Evaluation, error) {
	if g.err != nil {
		return nil, g.err
	}

	byMetric := map[string]feedback.MetricEvaluation{}
	for _, m := range models.AllMetrics {
		byMetric[string(m)] = feedback.MetricEvaluation{Score: 7, Feedback: "ok", Strengths: []string{}, Improvements: []string{}}
	}
	evaluation := &feedback.Evaluation{
		OverallScore:    74,
		OverallFeedback: "Good session",
		Strengths:       []string{"clarity"},
		Improvements:    []string{"depth"},
		Metrics:         byMetric,
	}
	for _, id := range g.questionIDs {
		evaluation.QuestionEvaluations = append(evaluation.QuestionEvaluations, feedback.QuestionEvaluation{
			QuestionID: id, Score: 7, RelevanceScore: 8, CompletenessScore: 6, Feedback: "fine",
		})
	}
	return evaluation, nil
}

type testServer struct {
	t         *testing.T
	generator *scriptedGenerator
	handler   func(req *http.Request) (*http.Response, error)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	gen := &scriptedGenerator{}
	interviews := interview.NewService(db, nil)
	feedbackService := feedback.NewService(db, gen)

	app := NewApp(Options{
		Server:     config.ServerConfig{BodyLimit: 4 * 1024 * 1024},
		ReadyCheck: db.Ping,
	}, Handlers{
		Jobs:       handlers.NewJobHandler(jobs.NewService(db)),
		Interviews: handlers.NewInterviewHandler(interviews),
		Feedback:   handlers.NewFeedbackHandler(feedbackService),
		Analytics:  handlers.NewAnalyticsHandler(analytics.NewService(db)),
		Sessions:   handlers.NewSessionHandler(interviews, feedbackService),
	})

	return &testServer{
		t:         t,
		generator: gen,
		handler:   func(req *http.Request) (*http.Response, error) { return app.Test(req, -1) },
	}
}

func (s *testServer) do(method, path, user, body string, out any) int {
	s.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}

	resp, err := s.handler(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) createInterview(user string) interview.Detail {
	s.t.Helper()

	var job models.JobPosting
	status := s.do("POST", "/api/v1/jobs", user, `{"title":"Go Engineer","company":"Acme","description":"Build APIs"}`, &job)
	require.Equal(s.t, http.StatusCreated, status)

	var detail interview.Detail
	status = s.do("POST", "/api/v1/interviews", user, `{
		"job_id": "`+job.ID+`",
		"questions": [
			{"type": "technical", "content": "Explain interfaces"},
			{"type": "behavioral", "content": "Describe a failure"}
		]
	}`, &detail)
	require.Equal(s.t, http.StatusCreated, status)
	return detail
}

func TestHealthDoesNotRequireUser(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do("GET", "/api/v1/health", "", "", nil))
	assert.Equal(t, http.StatusOK, s.do("GET", "/api/v1/ready", "", "", nil))
	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/api/v1/jobs", "", "", nil))
}

func TestFeedbackFlow(t *testing.T) {
	s := newTestServer(t)
	detail := s.createInterview("user-1")
	id := detail.Interview.ID
	s.generator.questionIDs = []string{detail.Questions[0].ID, detail.Questions[1].ID}

	var started models.Interview
	require.Equal(t, http.StatusOK, s.do("POST", "/api/v1/interviews/"+id+"/start", "user-1", "", &started))
	assert.Equal(t, models.StatusInProgress, started.Status)

	var result feedback.Result
	status := s.do("POST", "/api/v1/interviews/"+id+"/feedback", "user-1", `{
		"transcript": [
			{"role": "assistant", "content": "Tell me about interfaces."},
			{"role": "user", "content": "They describe behaviour."}
		]
	}`, &result)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.FeedbackID)

	var report feedback.Report
	require.Equal(t, http.StatusOK, s.do("GET", "/api/v1/interviews/"+id+"/feedback", "user-1", "", &report))
	assert.Equal(t, result.FeedbackID, report.Feedback.ID)
	assert.Len(t, report.Metrics, 5)
	assert.Len(t, report.Questions, 2)
	assert.Equal(t, models.StatusCompleted, report.Interview.Status)

	var view interview.TranscriptView
	require.Equal(t, http.StatusOK, s.do("GET", "/api/v1/interviews/"+id+"/transcript", "user-1", "", &view))
	assert.Len(t, view.Transcript.Utterances, 2)
	assert.Equal(t, 1, view.Stats.CandidateAnswers)

	var stats models.UserAnalytics
	require.Equal(t, http.StatusOK, s.do("GET", "/api/v1/analytics", "user-1", "", &stats))
	assert.Equal(t, 1, stats.CompletedInterviews)
	assert.InDelta(t, 74, stats.AverageOverallScore, 0.001)

	var second feedback.Result
	status = s.do("POST", "/api/v1/interviews/"+id+"/feedback", "user-1", `{"transcript": []}`, &second)
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, second.Success)
}

func TestFeedbackFailureReportsUnsuccessful(t *testing.T) {
	s := newTestServer(t)
	detail := s.createInterview("user-1")
	s.generator.err = assert.AnError

	var result feedback.Result
	status := s.do("POST", "/api/v1/interviews/"+detail.Interview.ID+"/feedback", "user-1", `{"transcript": [{"role": "user", "content": "hi"}]}`, &result)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.False(t, result.Success)
	assert.Empty(t, result.FeedbackID)

	var body map[string]any
	assert.Equal(t, http.StatusNotFound, s.do("GET", "/api/v1/interviews/"+detail.Interview.ID+"/feedback", "user-1", "", &body))
}

func TestInterviewsAreScopedToOwner(t *testing.T) {
	s := newTestServer(t)
	detail := s.createInterview("user-1")
	id := detail.Interview.ID

	var body map[string]any
	assert.Equal(t, http.StatusNotFound, s.do("GET", "/api/v1/interviews/"+id, "user-2", "", &body))
	assert.Equal(t, http.StatusNotFound, s.do("POST", "/api/v1/interviews/"+id+"/cancel", "user-2", "", &body))

	var result feedback.Result
	assert.Equal(t, http.StatusNotFound, s.do("POST", "/api/v1/interviews/"+id+"/feedback", "user-2", `{"transcript": []}`, &result))
	assert.False(t, result.Success)

	var list struct {
		Interviews []models.Interview `json:"interviews"`
	}
	require.Equal(t, http.StatusOK, s.do("GET", "/api/v1/interviews", "user-2", "", &list))
	assert.Empty(t, list.Interviews)
}

func TestCreateInterviewValidation(t *testing.T) {
	s := newTestServer(t)

	var body map[string]any
	assert.Equal(t, http.StatusBadRequest, s.do("POST", "/api/v1/interviews", "user-1", `{"question_count": 3}`, &body))
	assert.Contains(t, body["error"], "JobID is required")

	detail := s.createInterview("user-1")
	status := s.do("POST", "/api/v1/interviews", "user-1", `{"job_id": "`+detail.Interview.JobID+`"}`, &body)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status = s.do("POST", "/api/v1/interviews", "user-1", `{"job_id": "`+detail.Interview.JobID+`", "questions": [{"type": "trivia", "content": "x"}]}`, &body)
	assert.Equal(t, http.StatusBadRequest, status)

	var cancelled models.Interview
	require.Equal(t, http.StatusOK, s.do("POST", "/api/v1/interviews/"+detail.Interview.ID+"/cancel", "user-1", "", &cancelled))
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, http.StatusConflict, s.do("POST", "/api/v1/interviews/"+detail.Interview.ID+"/start", "user-1", "", &body))
}

func TestCreateJobFromHTML(t *testing.T) {
	s := newTestServer(t)

	var job models.JobPosting
	status := s.do("POST", "/api/v1/jobs", "user-1", `{"description_html": "<h1>SRE</h1>\n<p>Keep things up</p>"}`, &job)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "SRE", job.Title)
	assert.Equal(t, "SRE Keep things up", job.Description)

	var body map[string]any
	assert.Equal(t, http.StatusBadRequest, s.do("POST", "/api/v1/jobs", "user-1", `{"title": "x"}`, &body))
	assert.Equal(t, http.StatusNotFound, s.do("GET", "/api/v1/jobs/"+job.ID, "user-2", "", &body))
}

func TestFeedbackRejectsForeignQuestionIDs(t *testing.T) {
	s := newTestServer(t)
	victim := s.createInterview("user-2")
	own := s.createInterview("user-1")
	foreignID := victim.Questions[0].ID

	var result feedback.Result
	status := s.do("POST", "/api/v1/interviews/"+own.Interview.ID+"/feedback", "user-1", `{
		"transcript": [{"role": "user", "content": "hi"}],
		"questions": [{"id": "`+foreignID+`", "order": 1, "type": "technical", "content": "Explain interfaces"}]
	}`, &result)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, result.Success)

	s.generator.questionIDs = []string{victim.Questions[0].ID, victim.Questions[1].ID}
	status = s.do("POST", "/api/v1/interviews/"+victim.Interview.ID+"/feedback", "user-2", `{"transcript": []}`, &result)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, result.Success)

	var report feedback.Report
	require.Equal(t, http.StatusOK, s.do("GET", "/api/v1/interviews/"+victim.Interview.ID+"/feedback", "user-2", "", &report))
	assert.Len(t, report.Questions, 2)
}
