package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
)

type memoryCache struct {
	items   map[string][]byte
	deleted []string
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	delete(m.items, pattern)
	return nil
}

func TestCacheServiceStudentsReadThrough(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	loads := 0
	load := func(context.Context) ([]models.Student, error) {
		loads++
		return []models.Student{{ID: "s-1", FullName: "Ana"}}, nil
	}

	first, err := svc.Students(context.Background(), "cong-1", load)
	require.NoError(t, err)
	second, err := svc.Students(context.Background(), "cong-1", load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)

	svc.InvalidateStudents(context.Background(), "cong-1")
	_, err = svc.Students(context.Background(), "cong-1", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Equal(t, []string{"students:cong-1"}, repo.deleted)
}

func TestCacheServiceDisabledAlwaysLoads(t *testing.T) {
	svc := NewCacheService(newMemoryCache(), nil, 0, nil, false)
	loads := 0
	for i := 0; i < 2; i++ {
		_, err := svc.Students(context.Background(), "cong-1", func(context.Context) ([]models.Student, error) {
			loads++
			return nil, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, loads)
}

func TestCacheServiceFallsBackOnCacheErrors(t *testing.T) {
	repo := newMemoryCache()
	repo.getErr = errors.New("redis down")
	svc := NewCacheService(repo, nil, 0, nil, true)

	students, err := svc.Students(context.Background(), "cong-1", func(context.Context) ([]models.Student, error) {
		return []models.Student{{ID: "s-1"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, students, 1)
}
