package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"turcrm/internal/models"
)

const defaultSummaryTTL = 10 * time.Minute

// SummaryCache хранит готовые сводки по туру в Redis. Ключ включает версию тура:
// Invalidate увеличивает версию, старые записи просто истекают по TTL.
type SummaryCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if client == nil {
		panic("cache: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	return &SummaryCache{redis: client, ttl: ttl}
}

func versionKey(eventID int64) string {
	return fmt.Sprintf("turcrm:summary:%d:ver", eventID)
}

func entryKey(eventID, version int64, key string) string {
	return fmt.Sprintf("turcrm:summary:%d:v%d:%s", eventID, version, key)
}

func (c *SummaryCache) version(ctx context.Context, eventID int64) (int64, error) {
	v, err := c.redis.Get(ctx, versionKey(eventID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get возвращает сводку и версию тура, под которой её искали. Эту же версию
// надо передать в Set: Invalidate во время сборки не даст записать устаревшее.
// Версия -1 значит, что Redis недоступен и писать не нужно.
func (c *SummaryCache) Get(ctx context.Context, eventID int64, key string) (*models.TourSummary, int64, bool) {
	ver, err := c.version(ctx, eventID)
	if err != nil {
		log.Printf("[cache][summary][get] event=%d: %v", eventID, err)
		return nil, -1, false
	}
	data, err := c.redis.Get(ctx, entryKey(eventID, ver, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[cache][summary][get] event=%d: %v", eventID, err)
		}
		return nil, ver, false
	}
	var s models.TourSummary
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("[cache][summary][decode] event=%d: %v", eventID, err)
		return nil, ver, false
	}
	return &s, ver, true
}

func (c *SummaryCache) Set(ctx context.Context, eventID, version int64, key string, s *models.TourSummary) {
	if version < 0 {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		log.Printf("[cache][summary][encode] event=%d: %v", eventID, err)
		return
	}
	if err := c.redis.Set(ctx, entryKey(eventID, version, key), data, c.ttl).Err(); err != nil {
		log.Printf("[cache][summary][set] event=%d: %v", eventID, err)
	}
}

func (c *SummaryCache) Invalidate(ctx context.Context, eventID int64) {
	if err := c.redis.Incr(ctx, versionKey(eventID)).Err(); err != nil {
		log.Printf("[cache][summary][invalidate] event=%d: %v", eventID, err)
	}
}

// OnChange сбрасывает сводку тура, затронутого мутацией.
func (c *SummaryCache) OnChange(ctx context.Context, ev models.ChangeEvent) {
	if ev.EventID != nil {
		c.Invalidate(ctx, *ev.EventID)
	}
}
