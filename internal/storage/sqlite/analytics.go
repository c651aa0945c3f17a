package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mockprep/backend/internal/storage/models"
)

const recentScoreLimit = 10

func (c *Client) GetUserAnalytics(ctx context.Context, userID string) (*models.UserAnalytics, error) {
	analytics := &models.UserAnalytics{
		UserID:             userID,
		InterviewsByStatus: map[models.InterviewStatus]int{},
		MetricAverages:     []models.MetricAverage{},
		RecentScores:       []models.ScorePoint{},
	}

	rows, err := c.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM interviews WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count interviews: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		analytics.InterviewsByStatus[models.InterviewStatus(status)] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	analytics.CompletedInterviews = analytics.InterviewsByStatus[models.StatusCompleted]

	var avg sql.NullFloat64
	err = c.db.QueryRowContext(
		ctx,
		`SELECT AVG(overall_score) FROM interviews WHERE user_id = ? AND status = ? AND overall_score IS NOT NULL`,
		userID, string(models.StatusCompleted),
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("failed to average overall scores: %w", err)
	}
	if avg.Valid {
		analytics.AverageOverallScore = avg.Float64
	}

	rows, err = c.db.QueryContext(ctx, `
		SELECT ms.metric, AVG(ms.score), COUNT(*)
		FROM metric_scores ms
		JOIN interviews i ON i.id = ms.interview_id
		WHERE i.user_id = ?
		GROUP BY ms.metric
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to average metric scores: %w", err)
	}
	byMetric := map[models.Metric]models.MetricAverage{}
	for rows.Next() {
		var ma models.MetricAverage
		var metric string
		if err := rows.Scan(&metric, &ma.AverageScore, &ma.Samples); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ma.Metric = models.Metric(metric)
		byMetric[ma.Metric] = ma
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range models.AllMetrics {
		if ma, ok := byMetric[m]; ok {
			analytics.MetricAverages = append(analytics.MetricAverages, ma)
		}
	}

	rows, err = c.db.QueryContext(ctx, `
		SELECT id, title, overall_score, completed_at
		FROM interviews
		WHERE user_id = ? AND status = ? AND overall_score IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT ?
	`, userID, string(models.StatusCompleted), recentScoreLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p models.ScorePoint
		var completedAt int64
		if err := rows.Scan(&p.InterviewID, &p.Title, &p.Score, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		p.CompletedAt = time.Unix(completedAt, 0)
		analytics.RecentScores = append(analytics.RecentScores, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// oldest first so clients can plot the trend directly
	for i, j := 0, len(analytics.RecentScores)-1; i < j; i, j = i+1, j-1 {
		analytics.RecentScores[i], analytics.RecentScores[j] = analytics.RecentScores[j], analytics.RecentScores[i]
	}

	return analytics, nil
}
