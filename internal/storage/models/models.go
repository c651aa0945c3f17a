package models

import "time"

type InterviewStatus string

const (
	StatusCreated    InterviewStatus = "created"
	StatusInProgress InterviewStatus = "in_progress"
	StatusCompleted  InterviewStatus = "completed"
	StatusCancelled  InterviewStatus = "cancelled"
)

// ParticipantCount is recorded on every transcript: the interview agent and the candidate.
const ParticipantCount = 2

type JobPosting struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Interview struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	JobID        string          `json:"job_id"`
	Title        string          `json:"title"`
	Status       InterviewStatus `json:"status"`
	OverallScore *int            `json:"overall_score,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Question struct {
	ID          string       `json:"id"`
	InterviewID string       `json:"interview_id"`
	Order       int          `json:"order"`
	Type        QuestionType `json:"type"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Utterance struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Transcript struct {
	ID               string      `json:"id"`
	InterviewID      string      `json:"interview_id"`
	Utterances       []Utterance `json:"utterances"`
	ParticipantCount int         `json:"participant_count"`
	CreatedAt        time.Time   `json:"created_at"`
}

type OverallFeedback struct {
	ID           string    `json:"id"`
	InterviewID  string    `json:"interview_id"`
	OverallScore int       `json:"overall_score"`
	Feedback     string    `json:"feedback"`
	Strengths    []string  `json:"strengths"`
	Improvements []string  `json:"improvements"`
	CreatedAt    time.Time `json:"created_at"`
}

type MetricScore struct {
	ID           string    `json:"id"`
	InterviewID  string    `json:"interview_id"`
	FeedbackID   string    `json:"feedback_id"`
	Metric       Metric    `json:"metric"`
	Score        int       `json:"score"`
	Feedback     string    `json:"feedback"`
	Strengths    []string  `json:"strengths"`
	Improvements []string  `json:"improvements"`
	CreatedAt    time.Time `json:"created_at"`
}

type QuestionFeedback struct {
	ID                string    `json:"id"`
	InterviewID       string    `json:"interview_id"`
	QuestionID        string    `json:"question_id"`
	Score             int       `json:"score"`
	RelevanceScore    int       `json:"relevance_score"`
	CompletenessScore int       `json:"completeness_score"`
	Feedback          string    `json:"feedback"`
	Strengths         []string  `json:"strengths"`
	Improvements      []string  `json:"improvements"`
	CreatedAt         time.Time `json:"created_at"`
}

// FeedbackRecord is the complete set of rows written when an interview is scored.
type FeedbackRecord struct {
	Overall   OverallFeedback
	Metrics   []MetricScore
	Questions []QuestionFeedback
}

type MetricAverage struct {
	Metric       Metric  `json:"metric"`
	AverageScore float64 `json:"average_score"`
	Samples      int     `json:"samples"`
}

type ScorePoint struct {
	InterviewID string    `json:"interview_id"`
	Title       string    `json:"title"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

type UserAnalytics struct {
	UserID              string                  `json:"user_id"`
	InterviewsByStatus  map[InterviewStatus]int `json:"interviews_by_status"`
	CompletedInterviews int                     `json:"completed_interviews"`
	AverageOverallScore float64                 `json:"average_overall_score"`
	MetricAverages      []MetricAverage         `json:"metric_averages"`
	RecentScores        []ScorePoint            `json:"recent_scores"`
}
