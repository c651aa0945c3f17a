package feedback

import (
	"fmt"
	"strings"

	"github.com/mockprep/backend/internal/storage/models"
)

const evaluationSystemPrompt = `You are an experienced hiring manager and interview coach. You evaluate mock interview transcripts and give candidates honest, specific, actionable feedback.

Score the candidate on exactly these five metrics, each from 1 (poor) to 10 (excellent):
- communication: structure, conciseness and listening
- technical_knowledge: accuracy and depth of domain knowledge
- problem_solving: reasoning, trade-offs and approach to unfamiliar problems
- cultural_fit: alignment with the role, motivation and collaboration
- confidence_clarity: composure, clarity of expression and conviction

For every question, return its questionId exactly as given, a score, a relevance score and a completeness score (each 1 to 10).
The overall score is from 0 to 100. Base every judgement only on what the candidate said in the transcript.`

// FormatQuestions renders one line per question in interview order.
func FormatQuestions(questions []models.Question) string {
	var b strings.Builder
	for _, q := range questions {
		fmt.Fprintf(&b, "Question %d: [%s] %s (ID: %s)\n", q.Order, q.Type, q.Content, q.ID)
	}
	return b.String()
}

func FormatTranscript(utterances []models.Utterance) string {
	var b strings.Builder
	for _, u := range utterances {
		fmt.Fprintf(&b, "- %s: %s\n", u.Role, u.Content)
	}
	return b.String()
}

// AssemblePrompt builds the evaluation prompt. It is deterministic for a
// given transcript and question set.
func AssemblePrompt(utterances []models.Utterance, questions []models.Question) Prompt {
	user := fmt.Sprintf(`Evaluate this mock interview.

Interview questions:
%s
Transcript:
%s
Return the overall assessment, the five metric evaluations and one evaluation per question.`,
		FormatQuestions(questions),
		FormatTranscript(utterances),
	)

	return Prompt{
		System: evaluationSystemPrompt,
		User:   user,
	}
}
