package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/metrics"
	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/pkg/logger"
	"github.com/mockprep/backend/pkg/utils"
)

const (
	submissionPrefix = "submission:"
	analyticsPrefix  = "analytics:"
)

type Client struct {
	client        *redis.Client
	submissionTTL time.Duration
	analyticsTTL  time.Duration
}

func NewClient(host string, port int, password string, db int, submissionTTL, analyticsTTL time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return NewFromClient(client, submissionTTL, analyticsTTL), nil
}

// NewFromClient wraps an existing connection.
func NewFromClient(client *redis.Client, submissionTTL, analyticsTTL time.Duration) *Client {
	return &Client{client: client, submissionTTL: submissionTTL, analyticsTTL: analyticsTTL}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// releaseScript deletes the lock only while it still carries the caller's
// token, so an expired holder cannot drop a newer submission's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireSubmission takes the per-interview submission lock. It reports false
// when another submission holds it. The returned token must be passed to
// ReleaseSubmission.
func (c *Client) AcquireSubmission(ctx context.Context, interviewID string) (string, bool, error) {
	token := uuid.New().String()
	ok, err := c.client.SetNX(ctx, submissionPrefix+interviewID, token, c.submissionTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	if !ok {
		logger.Debug("Submission lock held", zap.String("interview_id", interviewID))
		return "", false, nil
	}
	return token, true, nil
}

func (c *Client) ReleaseSubmission(ctx context.Context, interviewID, token string) error {
	deleted, err := releaseScript.Run(ctx, c.client, []string{submissionPrefix + interviewID}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release submission lock: %w", err)
	}
	if deleted == 0 {
		logger.Warn("Submission lock expired before release", zap.String("interview_id", interviewID))
	}
	return nil
}

func analyticsKey(userID string) string {
	return analyticsPrefix + utils.HashString(userID)
}

func (c *Client) SetAnalytics(ctx context.Context, userID string, analytics *models.UserAnalytics) error {
	data, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}

	if err := c.client.Set(ctx, analyticsKey(userID), data, c.analyticsTTL).Err(); err != nil {
		return fmt.Errorf("failed to set analytics cache: %w", err)
	}

	logger.Debug("Analytics cached", zap.String("user_hash", utils.HashString(userID)), zap.Duration("ttl", c.analyticsTTL))
	return nil
}

func (c *Client) GetAnalytics(ctx context.Context, userID string) (*models.UserAnalytics, bool, error) {
	data, err := c.client.Get(ctx, analyticsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues("analytics").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get analytics cache: %w", err)
	}

	var analytics models.UserAnalytics
	if err := json.Unmarshal(data, &analytics); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal analytics: %w", err)
	}

	metrics.CacheHits.WithLabelValues("analytics").Inc()
	logger.Debug("Analytics cache hit", zap.String("user_hash", utils.HashString(userID)))
	return &analytics, true, nil
}

func (c *Client) InvalidateAnalytics(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, analyticsKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate analytics cache: %w", err)
	}
	return nil
}
