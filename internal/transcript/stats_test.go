package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockprep/backend/internal/storage/models"
)

func TestAnalyze(t *testing.T) {
	stats, err := Analyze([]models.Utterance{
		{Role: "assistant", Content: "Tell me about your last project."},
		{Role: "user", Content: "I built a cache for the team. It was fast."},
		{Role: "assistant", Content: "Why Go?"},
		{Role: "user", Content: "Simple concurrency."},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.UtteranceCount)
	assert.Equal(t, 2, stats.CandidateAnswers)
	assert.Equal(t, 12, stats.CandidateWords)
	assert.Equal(t, 8, stats.InterviewerWords)
	assert.Equal(t, 3, stats.CandidateSentences)
	assert.InDelta(t, 6.0, stats.AvgAnswerWords, 0.001)
}

func TestAnalyzeSkipsEmptyUtterances(t *testing.T) {
	stats, err := Analyze([]models.Utterance{
		{Role: "user", Content: "   "},
		{Role: "assistant", Content: ""},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.UtteranceCount)
	assert.Zero(t, stats.CandidateAnswers)
	assert.Zero(t, stats.AvgAnswerWords)
}

func TestAnalyzeEmptyTranscript(t *testing.T) {
	stats, err := Analyze(nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
}
