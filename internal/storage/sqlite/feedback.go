package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/pkg/logger"
)

// InsertTranscript stores the transcript for an interview. Transcripts are
// immutable: when one already exists the stored row is kept and created is false.
func (c *Client) InsertTranscript(ctx context.Context, t *models.Transcript) (created bool, err error) {
	utterances := t.Utterances
	if utterances == nil {
		utterances = []models.Utterance{}
	}
	data, err := json.Marshal(utterances)
	if err != nil {
		return false, fmt.Errorf("failed to marshal utterances: %w", err)
	}

	query := `
		INSERT INTO transcripts (id, interview_id, utterances, participant_count, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(interview_id) DO NOTHING
	`

	res, err := c.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.InterviewID,
		string(data),
		t.ParticipantCount,
		t.CreatedAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transcript: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	logger.Debug("Transcript recorded",
		zap.String("interview_id", t.InterviewID),
		zap.Int("utterances", len(utterances)),
		zap.Bool("created", n > 0),
	)
	return n > 0, nil
}

func (c *Client) GetTranscript(ctx context.Context, interviewID string) (*models.Transcript, error) {
	query := `SELECT id, interview_id, utterances, participant_count, created_at FROM transcripts WHERE interview_id = ?`

	var t models.Transcript
	var utterances string
	var createdAt int64

	err := c.db.QueryRowContext(ctx, query, interviewID).Scan(&t.ID, &t.InterviewID, &utterances, &t.ParticipantCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	if err := json.Unmarshal([]byte(utterances), &t.Utterances); err != nil {
		return nil, fmt.Errorf("failed to decode utterances: %w", err)
	}
	t.CreatedAt = time.Unix(createdAt, 0)

	return &t, nil
}

// SaveFeedback writes the overall feedback, metric scores and question
// feedback, then marks the interview completed, all in one transaction. The
// status update is the last statement; if the interview is no longer open the
// whole write is rolled back with ErrStatusConflict.
func (c *Client) SaveFeedback(ctx context.Context, record *models.FeedbackRecord, completedAt time.Time) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	overall := record.Overall
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO interview_feedback (id, interview_id, overall_score, feedback, strengths, improvements, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		overall.ID,
		overall.InterviewID,
		overall.OverallScore,
		overall.Feedback,
		marshalStrings(overall.Strengths),
		marshalStrings(overall.Improvements),
		overall.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert interview feedback: %w", err)
	}

	for _, m := range record.Metrics {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO metric_scores (id, interview_id, feedback_id, metric, score, feedback, strengths, improvements, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID,
			m.InterviewID,
			overall.ID,
			string(m.Metric),
			m.Score,
			m.Feedback,
			marshalStrings(m.Strengths),
			marshalStrings(m.Improvements),
			m.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert metric score %s: %w", m.Metric, err)
		}
	}

	for _, q := range record.Questions {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO question_feedback (id, interview_id, question_id, score, relevance_score, completeness_score, feedback, strengths, improvements, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID,
			q.InterviewID,
			q.QuestionID,
			q.Score,
			q.RelevanceScore,
			q.CompletenessScore,
			q.Feedback,
			marshalStrings(q.Strengths),
			marshalStrings(q.Improvements),
			q.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert question feedback %s: %w", q.QuestionID, err)
		}
	}

	res, err := tx.ExecContext(
		ctx,
		`UPDATE interviews SET status = ?, overall_score = ?, completed_at = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		string(models.StatusCompleted),
		overall.OverallScore,
		completedAt.Unix(),
		completedAt.Unix(),
		overall.InterviewID,
		string(models.StatusCreated),
		string(models.StatusInProgress),
	)
	if err != nil {
		return fmt.Errorf("failed to complete interview: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feedback: %w", err)
	}

	logger.Info("Interview feedback saved",
		zap.String("interview_id", overall.InterviewID),
		zap.String("feedback_id", overall.ID),
		zap.Int("overall_score", overall.OverallScore),
		zap.Int("metric_scores", len(record.Metrics)),
		zap.Int("question_feedback", len(record.Questions)),
	)
	return nil
}

func (c *Client) GetFeedback(ctx context.Context, interviewID string) (*models.FeedbackRecord, error) {
	var record models.FeedbackRecord
	var strengths, improvements string
	var createdAt int64

	err := c.db.QueryRowContext(
		ctx,
		`SELECT id, interview_id, overall_score, feedback, strengths, improvements, created_at FROM interview_feedback WHERE interview_id = ?`,
		interviewID,
	).Scan(
		&record.Overall.ID,
		&record.Overall.InterviewID,
		&record.Overall.OverallScore,
		&record.Overall.Feedback,
		&strengths,
		&improvements,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interview feedback: %w", err)
	}
	record.Overall.Strengths = unmarshalStrings(strengths)
	record.Overall.Improvements = unmarshalStrings(improvements)
	record.Overall.CreatedAt = time.Unix(createdAt, 0)

	record.Metrics, err = c.getMetricScores(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	record.Questions, err = c.getQuestionFeedback(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (c *Client) getMetricScores(ctx context.Context, interviewID string) ([]models.MetricScore, error) {
	rows, err := c.db.QueryContext(
		ctx,
		`SELECT id, interview_id, feedback_id, metric, score, feedback, strengths, improvements, created_at FROM metric_scores WHERE interview_id = ? ORDER BY created_at, rowid`,
		interviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get metric scores: %w", err)
	}
	defer rows.Close()

	scores := []models.MetricScore{}
	for rows.Next() {
		var m models.MetricScore
		var metric, strengths, improvements string
		var createdAt int64

		err := rows.Scan(&m.ID, &m.InterviewID, &m.FeedbackID, &metric, &m.Score, &m.Feedback, &strengths, &improvements, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		m.Metric = models.Metric(metric)
		m.Strengths = unmarshalStrings(strengths)
		m.Improvements = unmarshalStrings(improvements)
		m.CreatedAt = time.Unix(createdAt, 0)
		scores = append(scores, m)
	}

	return scores, rows.Err()
}

func (c *Client) getQuestionFeedback(ctx context.Context, interviewID string) ([]models.QuestionFeedback, error) {
	query := `
		SELECT qf.id, qf.interview_id, qf.question_id, qf.score, qf.relevance_score, qf.completeness_score,
			qf.feedback, qf.strengths, qf.improvements, qf.created_at
		FROM question_feedback qf
		JOIN questions q ON q.id = qf.question_id
		WHERE qf.interview_id = ?
		ORDER BY q.question_order ASC
	`

	rows, err := c.db.QueryContext(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question feedback: %w", err)
	}
	defer rows.Close()

	feedback := []models.QuestionFeedback{}
	for rows.Next() {
		var q models.QuestionFeedback
		var strengths, improvements string
		var createdAt int64

		err := rows.Scan(&q.ID, &q.InterviewID, &q.QuestionID, &q.Score, &q.RelevanceScore, &q.CompletenessScore,
			&q.Feedback, &strengths, &improvements, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		q.Strengths = unmarshalStrings(strengths)
		q.Improvements = unmarshalStrings(improvements)
		q.CreatedAt = time.Unix(createdAt, 0)
		feedback = append(feedback, q)
	}

	return feedback, rows.Err()
}
