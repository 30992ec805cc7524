package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turcrm/internal/models"
)

func newTestCache(t *testing.T) (*SummaryCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSummaryCache(client, time.Minute), mr
}

func TestSummaryCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, _, ok := c.Get(ctx, 3, "abc")
	assert.False(t, ok)

	c.Set(ctx, 3, 0, "abc", &models.TourSummary{Cities: []string{"Алматы"}, TotalTourists: 4})
	got, _, ok := c.Get(ctx, 3, "abc")
	require.True(t, ok)
	assert.Equal(t, 4, got.TotalTourists)
	assert.Equal(t, []string{"Алматы"}, got.Cities)

	_, _, ok = c.Get(ctx, 3, "other")
	assert.False(t, ok)
}

func TestSummaryCache_OnChangeInvalidatesEvent(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, 3, 0, "k", &models.TourSummary{TotalTourists: 1})
	c.Set(ctx, 4, 0, "k", &models.TourSummary{TotalTourists: 2})

	eventID := int64(3)
	c.OnChange(ctx, models.ChangeEvent{Type: models.ChangeVisit, EventID: &eventID})

	_, _, ok := c.Get(ctx, 3, "k")
	assert.False(t, ok)
	_, _, ok = c.Get(ctx, 4, "k")
	assert.True(t, ok)

	// без тура: ничего не сбрасываем
	c.OnChange(ctx, models.ChangeEvent{Type: models.ChangeLeadUpdated, LeadID: 9})
	_, _, ok = c.Get(ctx, 4, "k")
	assert.True(t, ok)
}

func TestSummaryCache_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, 3, 0, "k", &models.TourSummary{})
	mr.FastForward(2 * time.Minute)
	_, _, ok := c.Get(ctx, 3, "k")
	assert.False(t, ok)
}

func TestSummaryCache_RedisDownIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, _, ok := c.Get(context.Background(), 3, "k")
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		c.Set(context.Background(), 3, 0, "k", &models.TourSummary{})
		c.Invalidate(context.Background(), 3)
	})
}

func TestSummaryCache_SetUnderStaleVersionIsNotServed(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ver, ok := c.Get(ctx, 3, "k")
	require.False(t, ok)
	assert.Equal(t, int64(0), ver)

	// тур поменялся, пока сводка собиралась
	c.Invalidate(ctx, 3)
	c.Set(ctx, 3, ver, "k", &models.TourSummary{TotalTourists: 1})

	_, ver, ok = c.Get(ctx, 3, "k")
	assert.False(t, ok)
	assert.Equal(t, int64(1), ver)
}

func TestSummaryCache_UnknownVersionSkipsWrite(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, 3, -1, "k", &models.TourSummary{})
	assert.Empty(t, mr.Keys())
}
