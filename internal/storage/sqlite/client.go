package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/pkg/logger"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrStatusConflict = errors.New("interview status does not allow this transition")
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS job_postings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		company TEXT,
		description TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_user ON job_postings(user_id);

	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		job_id TEXT NOT NULL,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'created'
			CHECK (status IN ('created', 'in_progress', 'completed', 'cancelled')),
		overall_score INTEGER CHECK (overall_score BETWEEN 0 AND 100),
		completed_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (job_id) REFERENCES job_postings(id)
	);
	CREATE INDEX IF NOT EXISTS idx_interviews_user ON interviews(user_id);
	CREATE INDEX IF NOT EXISTS idx_interviews_status ON interviews(status);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL,
		question_order INTEGER NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (interview_id, question_order),
		FOREIGN KEY (interview_id) REFERENCES interviews(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_questions_interview ON questions(interview_id);

	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL UNIQUE,
		utterances TEXT NOT NULL,
		participant_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (interview_id) REFERENCES interviews(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS interview_feedback (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL UNIQUE,
		overall_score INTEGER NOT NULL,
		feedback TEXT NOT NULL,
		strengths TEXT NOT NULL,
		improvements TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (interview_id) REFERENCES interviews(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metric_scores (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL,
		feedback_id TEXT NOT NULL,
		metric TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 10),
		feedback TEXT NOT NULL,
		strengths TEXT NOT NULL,
		improvements TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (interview_id, metric),
		FOREIGN KEY (interview_id) REFERENCES interviews(id) ON DELETE CASCADE,
		FOREIGN KEY (feedback_id) REFERENCES interview_feedback(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_metric_scores_interview ON metric_scores(interview_id);

	CREATE TABLE IF NOT EXISTS question_feedback (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 10),
		relevance_score INTEGER NOT NULL CHECK (relevance_score BETWEEN 1 AND 10),
		completeness_score INTEGER NOT NULL CHECK (completeness_score BETWEEN 1 AND 10),
		feedback TEXT NOT NULL,
		strengths TEXT NOT NULL,
		improvements TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (question_id),
		FOREIGN KEY (interview_id) REFERENCES interviews(id) ON DELETE CASCADE,
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_question_feedback_interview ON question_feedback(interview_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertJobPosting(ctx context.Context, job *models.JobPosting) error {
	query := `INSERT INTO job_postings (id, user_id, title, company, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := c.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.UserID,
		job.Title,
		job.Company,
		job.Description,
		job.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job posting: %w", err)
	}

	logger.Debug("Job posting inserted", zap.String("job_id", job.ID))
	return nil
}

func (c *Client) GetJobPosting(ctx context.Context, id string) (*models.JobPosting, error) {
	query := `SELECT id, user_id, title, company, description, created_at FROM job_postings WHERE id = ?`

	var job models.JobPosting
	var createdAt int64

	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.UserID,
		&job.Title,
		&job.Company,
		&job.Description,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}

	job.CreatedAt = time.Unix(createdAt, 0)
	return &job, nil
}

func (c *Client) ListJobPostings(ctx context.Context, userID string) ([]models.JobPosting, error) {
	query := `
		SELECT id, user_id, title, company, description, created_at
		FROM job_postings
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}
	defer rows.Close()

	jobs := []models.JobPosting{}
	for rows.Next() {
		var job models.JobPosting
		var createdAt int64

		err := rows.Scan(&job.ID, &job.UserID, &job.Title, &job.Company, &job.Description, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		job.CreatedAt = time.Unix(createdAt, 0)
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// CreateInterview inserts the interview and its question set atomically.
func (c *Client) CreateInterview(ctx context.Context, interview *models.Interview, questions []models.Question) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO interviews (id, user_id, job_id, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		interview.ID,
		interview.UserID,
		interview.JobID,
		interview.Title,
		string(interview.Status),
		interview.CreatedAt.Unix(),
		interview.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert interview: %w", err)
	}

	for _, q := range questions {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO questions (id, interview_id, question_order, type, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			q.ID,
			interview.ID,
			q.Order,
			string(q.Type),
			q.Content,
			q.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert question %d: %w", q.Order, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit interview: %w", err)
	}

	logger.Info("Interview created",
		zap.String("interview_id", interview.ID),
		zap.Int("questions", len(questions)),
	)
	return nil
}

const interviewColumns = `id, user_id, job_id, title, status, overall_score, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*models.Interview, error) {
	var iv models.Interview
	var status string
	var score, completedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&iv.ID, &iv.UserID, &iv.JobID, &iv.Title, &status, &score, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	iv.Status = models.InterviewStatus(status)
	if score.Valid {
		s := int(score.Int64)
		iv.OverallScore = &s
	}
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		iv.CompletedAt = &t
	}
	iv.CreatedAt = time.Unix(createdAt, 0)
	iv.UpdatedAt = time.Unix(updatedAt, 0)

	return &iv, nil
}

func (c *Client) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id)

	iv, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	return iv, nil
}

func (c *Client) ListInterviews(ctx context.Context, userID string) ([]models.Interview, error) {
	rows, err := c.db.QueryContext(
		ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	interviews := []models.Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		interviews = append(interviews, *iv)
	}

	return interviews, rows.Err()
}

// UpdateInterviewStatus moves an interview to status when its current status
// is one of from. ErrStatusConflict is returned when no row matched.
func (c *Client) UpdateInterviewStatus(ctx context.Context, id string, status models.InterviewStatus, from ...models.InterviewStatus) error {
	if len(from) == 0 {
		return fmt.Errorf("no source status given")
	}

	query := `UPDATE interviews SET status = ?, updated_at = ? WHERE id = ? AND status IN (?` + repeatPlaceholder(len(from)-1) + `)`
	args := []any{string(status), time.Now().Unix(), id}
	for _, s := range from {
		args = append(args, string(s))
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update interview status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}

	logger.Info("Interview status updated",
		zap.String("interview_id", id),
		zap.String("status", string(status)),
	)
	return nil
}

func (c *Client) GetQuestions(ctx context.Context, interviewID string) ([]models.Question, error) {
	query := `
		SELECT id, interview_id, question_order, type, content, created_at
		FROM questions
		WHERE interview_id = ?
		ORDER BY question_order ASC
	`

	rows, err := c.db.QueryContext(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		var qType string
		var createdAt int64

		err := rows.Scan(&q.ID, &q.InterviewID, &q.Order, &qType, &q.Content, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		q.Type = models.QuestionType(qType)
		q.CreatedAt = time.Unix(createdAt, 0)
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func repeatPlaceholder(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ", ?"
	}
	return s
}

func marshalStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func unmarshalStrings(data string) []string {
	values := []string{}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		logger.Warn("Failed to decode stored string list", zap.Error(err))
	}
	return values
}
