package jobs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/internal/storage/sqlite"
	"github.com/mockprep/backend/pkg/logger"
)

var (
	ErrJobNotFound      = errors.New("job posting not found")
	ErrEmptyDescription = errors.New("job posting has no description")
)

const maxDescriptionLength = 20000

var whitespace = regexp.MustCompile(`\s+`)

type CreateRequest struct {
	UserID          string
	Title           string
	Company         string
	Description     string
	DescriptionHTML string
}

type Service struct {
	db  *sqlite.Client
	now func() time.Time
}

func NewService(db *sqlite.Client) *Service {
	return &Service{db: db, now: time.Now}
}

// Create stores a posting. An HTML description takes precedence over the
// plain one and also supplies the title when none is given.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.JobPosting, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)

	if req.DescriptionHTML != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.DescriptionHTML))
		if err != nil {
			return nil, fmt.Errorf("failed to parse description html: %w", err)
		}
		if title == "" {
			title = extractTitle(doc)
		}
		description = cleanHTML(doc)
	}

	if description == "" {
		return nil, ErrEmptyDescription
	}
	description = truncate(description, maxDescriptionLength)
	if title == "" {
		title = "Untitled"
	}

	job := &models.JobPosting{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Title:       title,
		Company:     strings.TrimSpace(req.Company),
		Description: description,
		CreatedAt:   s.now(),
	}

	if err := s.db.InsertJobPosting(ctx, job); err != nil {
		return nil, err
	}

	logger.Info("Job posting created",
		zap.String("job_id", job.ID),
		zap.Int("description_length", len(job.Description)),
		zap.Bool("from_html", req.DescriptionHTML != ""),
	)
	return job, nil
}

// Get returns the posting only when it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.JobPosting, error) {
	job, err := s.db.GetJobPosting(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.JobPosting, error) {
	return s.db.ListJobPostings(ctx, userID)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func cleanHTML(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, sel *goquery.Selection) {
		sel.Remove()
	})

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return whitespace.ReplaceAllString(title, " ")
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
