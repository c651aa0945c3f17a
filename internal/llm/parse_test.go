package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockprep/backend/internal/storage/models"
)

func TestParseEvaluationKeepsUnknownMetricKeys(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(validEvaluationJSON), &raw))
	raw["metrics"].(map[string]any)["charisma"] = map[string]any{"score": 5, "feedback": "n/a"}
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	evaluation, err := ParseEvaluation(string(data))
	require.NoError(t, err)
	assert.Len(t, evaluation.Metrics, 6)
}

func TestParseEvaluationRejectsMalformedJSON(t *testing.T) {
	_, err := ParseEvaluation(`{"overallScore": `)
	assert.Error(t, err)
}

func TestEvaluationSchemaRequiresEveryMetric(t *testing.T) {
	schema := EvaluationSchema()

	metricsDef, ok := schema.Properties["metrics"]
	require.True(t, ok)
	assert.Len(t, metricsDef.Required, len(models.AllMetrics))
	for _, m := range models.AllMetrics {
		assert.Contains(t, metricsDef.Properties, string(m))
	}
	assert.ElementsMatch(t,
		[]string{"overallScore", "overallFeedback", "strengths", "improvements", "metrics", "questionEvaluations"},
		schema.Required,
	)

	_, err := json.Marshal(&schema)
	require.NoError(t, err)
}

func TestParseQuestions(t *testing.T) {
	questions, err := ParseQuestions(`{"questions": [{"type": "situational", "content": "  What if prod is down?  "}]}`, 5)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, models.QuestionSituational, questions[0].Type)
	assert.Equal(t, "What if prod is down?", questions[0].Content)

	_, err = ParseQuestions(`{"questions": [{"type": "trivia", "content": "Capital of France?"}]}`, 5)
	assert.Error(t, err)

	_, err = ParseQuestions(`{"questions": []}`, 5)
	assert.Error(t, err)
}
