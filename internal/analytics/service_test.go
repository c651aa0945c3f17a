package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockprep/backend/internal/storage/models"
)

type fakeStore struct {
	calls int
	err   error
}

func (f *fakeStore) GetUserAnalytics(_ context.Context, userID string) (*models.UserAnalytics, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.UserAnalytics{UserID: userID, CompletedInterviews: 3, AverageOverallScore: 70}, nil
}

type fakeCache struct {
	entries map[string]*models.UserAnalytics
	readErr error
}

func (f *fakeCache) GetAnalytics(_ context.Context, userID string) (*models.UserAnalytics, bool, error) {
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	a, ok := f.entries[userID]
	return a, ok, nil
}

func (f *fakeCache) SetAnalytics(_ context.Context, userID string, a *models.UserAnalytics) error {
	f.entries[userID] = a
	return nil
}

func TestGetWithoutCache(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	got, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.CompletedInterviews)
	assert.Equal(t, 1, store.calls)
}

func TestGetPopulatesAndServesCache(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{entries: map[string]*models.UserAnalytics{}}
	svc := NewService(store, WithCache(cache))
	ctx := context.Background()

	_, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Contains(t, cache.entries, "user-1")
}

func TestGetFallsBackWhenCacheFails(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{entries: map[string]*models.UserAnalytics{}, readErr: errors.New("connection refused")}
	svc := NewService(store, WithCache(cache))

	got, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, 1, store.calls)
}

func TestGetPropagatesStoreError(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("disk I/O error")})

	_, err := svc.Get(context.Background(), "user-1")
	assert.Error(t, err)
}
