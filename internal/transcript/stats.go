package transcript

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"

	"github.com/mockprep/backend/internal/storage/models"
)

// Candidate utterances carry this role; every other role is the interviewer.
const CandidateRole = "user"

type Stats struct {
	UtteranceCount     int     `json:"utterance_count"`
	CandidateAnswers   int     `json:"candidate_answers"`
	CandidateWords     int     `json:"candidate_words"`
	CandidateSentences int     `json:"candidate_sentences"`
	InterviewerWords   int     `json:"interviewer_words"`
	AvgAnswerWords     float64 `json:"avg_answer_words"`
}

// Analyze tokenizes each utterance and aggregates word and sentence counts
// per speaker.
func Analyze(utterances []models.Utterance) (*Stats, error) {
	stats := &Stats{UtteranceCount: len(utterances)}

	for i, u := range utterances {
		text := strings.TrimSpace(u.Content)
		if text == "" {
			continue
		}

		doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false))
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize utterance %d: %w", i, err)
		}

		words := countWords(doc.Tokens())
		if u.Role == CandidateRole {
			stats.CandidateAnswers++
			stats.CandidateWords += words
			stats.CandidateSentences += len(doc.Sentences())
		} else {
			stats.InterviewerWords += words
		}
	}

	if stats.CandidateAnswers > 0 {
		stats.AvgAnswerWords = float64(stats.CandidateWords) / float64(stats.CandidateAnswers)
	}
	return stats, nil
}

func countWords(tokens []prose.Token) int {
	n := 0
	for _, tok := range tokens {
		if strings.IndexFunc(tok.Text, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			n++
		}
	}
	return n
}
