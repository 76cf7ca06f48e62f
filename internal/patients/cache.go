package patients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheTTL bounds staleness when an invalidation is missed (e.g. a
// second process writing the patients container directly).
const cacheTTL = 15 * time.Minute

// Cache keeps the merged directory in redis per owner partition so a
// lookup does not re-read and re-merge both source tables on every
// request. A nil Cache disables caching.
type Cache struct {
	redis *redis.Client
}

// NewCache creates a directory cache over the given redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{redis: client}
}

func (c *Cache) key(orgID string) string {
	return fmt.Sprintf("patients:directory:%s", orgID)
}

// Get returns the cached directory for a partition, or (nil, nil) on a
// cache miss.
func (c *Cache) Get(ctx context.Context, orgID string) (*Directory, error) {
	if c == nil || c.redis == nil {
		return nil, nil
	}
	data, err := c.redis.Get(ctx, c.key(orgID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("patients: cache get: %w", err)
	}
	var identities []Identity
	if err := json.Unmarshal(data, &identities); err != nil {
		return nil, fmt.Errorf("patients: cache unmarshal: %w", err)
	}
	return NewDirectory(identities), nil
}

// Set stores a merged directory for a partition.
func (c *Cache) Set(ctx context.Context, orgID string, dir *Directory) error {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := json.Marshal(dir.All())
	if err != nil {
		return fmt.Errorf("patients: cache marshal: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(orgID), data, cacheTTL).Err(); err != nil {
		return fmt.Errorf("patients: cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached directory after a patient-table save.
func (c *Cache) Invalidate(ctx context.Context, orgID string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(orgID)).Err(); err != nil {
		return fmt.Errorf("patients: cache invalidate: %w", err)
	}
	return nil
}
