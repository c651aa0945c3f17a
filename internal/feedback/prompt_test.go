package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mockprep/backend/internal/storage/models"
)

func TestFormatQuestions(t *testing.T) {
	questions := []models.Question{
		{ID: "q1", Order: 1, Type: models.QuestionTechnical, Content: "Explain X"},
		{ID: "q2", Order: 2, Type: models.QuestionBehavioral, Content: "Tell me about a conflict"},
	}

	got := FormatQuestions(questions)

	assert.Equal(t,
		"Question 1: [technical] Explain X (ID: q1)\n"+
			"Question 2: [behavioral] Tell me about a conflict (ID: q2)\n",
		got,
	)
}

func TestFormatTranscript(t *testing.T) {
	utterances := []models.Utterance{
		{Role: "assistant", Content: "Hi"},
		{Role: "user", Content: "Hello"},
	}

	assert.Equal(t, "- assistant: Hi\n- user: Hello\n", FormatTranscript(utterances))
	assert.Empty(t, FormatTranscript(nil))
}

func TestAssemblePromptIsDeterministic(t *testing.T) {
	utterances := []models.Utterance{{Role: "assistant", Content: "Hi"}, {Role: "user", Content: "Hello"}}
	questions := []models.Question{{ID: "q1", Order: 1, Type: models.QuestionTechnical, Content: "Explain X"}}

	first := AssemblePrompt(utterances, questions)
	second := AssemblePrompt(utterances, questions)

	assert.Equal(t, first, second)
	assert.Contains(t, first.User, "Question 1: [technical] Explain X (ID: q1)")
	assert.Contains(t, first.User, "- user: Hello")
	for _, m := range models.AllMetrics {
		assert.Contains(t, first.System, string(m))
	}
}
