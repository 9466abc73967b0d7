package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCacheManager struct {
	mock.Mock
}

func (m *mockCacheManager) Get(ctx context.Context, key string) (*parsed, bool) {
	args := m.Called(ctx, key)
	v, _ := args.Get(0).(*parsed)
	return v, args.Bool(1)
}

func (m *mockCacheManager) GetWithRefresh(ctx context.Context, key string, ttl time.Duration) (*parsed, bool) {
	args := m.Called(ctx, key, ttl)
	v, _ := args.Get(0).(*parsed)
	return v, args.Bool(1)
}

func (m *mockCacheManager) Set(ctx context.Context, key string, value *parsed, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCacheManager) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCacheManager) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func loadFrom(calls *int) func(context.Context, string) (*parsed, error) {
	return func(_ context.Context, path string) (*parsed, error) {
		*calls++
		if path == "" {
			return nil, errors.New("no path")
		}
		return &parsed{Name: path}, nil
	}
}

func TestReadThroughCache_SkipCache(t *testing.T) {
	managerMock := &mockCacheManager{}
	calls := 0
	rtc := NewReadThroughCache[string, *parsed, string](managerMock, loadFrom(&calls), true)

	got, err := rtc.Get(context.Background(), "k", "a.yaml", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "a.yaml", got.Name)

	_, err = rtc.GetWithRefresh(context.Background(), "k", "a.yaml", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	managerMock.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestReadThroughCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	managerMock := &mockCacheManager{}
	cached := &parsed{Name: "cached"}
	managerMock.On("Get", ctx, "k").Return(nil, false).Once()
	managerMock.On("Set", ctx, "k", mock.AnythingOfType("*cachemanager.parsed"), time.Minute).Once()
	managerMock.On("Get", ctx, "k").Return(cached, true).Once()

	calls := 0
	rtc := NewReadThroughCache[string, *parsed, string](managerMock, loadFrom(&calls), false)

	first, err := rtc.Get(ctx, "k", "a.yaml", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "a.yaml", first.Name)

	second, err := rtc.Get(ctx, "k", "a.yaml", time.Minute)
	require.NoError(t, err)
	require.Same(t, cached, second)
	require.Equal(t, 1, calls)
	managerMock.AssertExpectations(t)
}

func TestReadThroughCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	managerMock := &mockCacheManager{}
	managerMock.On("GetWithRefresh", ctx, "k", time.Minute).Return(nil, false)

	calls := 0
	rtc := NewReadThroughCache[string, *parsed, string](managerMock, loadFrom(&calls), false)

	_, err := rtc.GetWithRefresh(ctx, "k", "", time.Minute)
	require.Error(t, err)
	managerMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_RefreshHitSkipsLoader(t *testing.T) {
	ctx := context.Background()
	managerMock := &mockCacheManager{}
	cached := &parsed{Name: "cached"}
	managerMock.On("GetWithRefresh", ctx, "k", time.Hour).Return(cached, true).Once()

	calls := 0
	rtc := NewReadThroughCache[string, *parsed, string](managerMock, loadFrom(&calls), false)

	got, err := rtc.GetWithRefresh(ctx, "k", "a.yaml", time.Hour)
	require.NoError(t, err)
	require.Same(t, cached, got)
	require.Zero(t, calls)
	managerMock.AssertExpectations(t)
}

func TestReadThroughCache_WithInMemoryManager(t *testing.T) {
	ctx := context.Background()
	calls := 0
	rtc := NewReadThroughCache[scriptKey, *parsed, string](
		NewInMemoryCacheManager[scriptKey, *parsed]("scripts", DefaultExpiration, DefaultCleanupInterval),
		func(_ context.Context, path string) (*parsed, error) {
			calls++
			return &parsed{Name: path}, nil
		},
		false,
	)

	a, err := rtc.Get(ctx, "a@1", "a.yaml", 0)
	require.NoError(t, err)
	b, err := rtc.Get(ctx, "a@1", "a.yaml", 0)
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 1, calls)

	require.NoError(t, rtc.Invalidate(ctx, "a@1"))
	_, err = rtc.Get(ctx, "a@1", "a.yaml", 0)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
