package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/ledger/models"
	"doceo/internal/sentinel"
	id "doceo/pkg/domain"
	platformsync "doceo/pkg/platform/sync"
)

const (
	cacheVersionKey = "ledger:cache:version"
	cacheKeyPrefix  = "ledger:v"
)

// notFoundMarker caches negative lookups so absent hashes do not hammer
// the database.
const notFoundMarker = "__absent__"

// CachedStore decorates a Store with a Redis read-through cache for
// credentials, verifier entries, the config record, and per-tutor counts.
// The event log is never cached; relays and event reads need fresh rows.
//
// Invalidation is by version: every cached key embeds a shared version
// number and InvalidateAll bumps it, orphaning all older keys at once.
// Orphans expire by TTL. Mutations run inside transactions that call
// InvalidateAll after commit, so readers never see a stale record after a
// completed write.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	fill   *platformsync.ShardedMutex
	flight singleflight.Group
	logger *slog.Logger
}

// NewCached wraps inner with a Redis cache. A nil logger disables logging.
func NewCached(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{
		inner:  inner,
		client: client,
		ttl:    ttl,
		fill:   platformsync.NewShardedMutex(),
		logger: logger,
	}
}

// InvalidateAll bumps the cache version, orphaning every cached entry.
// Called after each committed mutation.
func (c *CachedStore) InvalidateAll(ctx context.Context) {
	if err := c.client.Incr(ctx, cacheVersionKey).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}

func (c *CachedStore) version(ctx context.Context) string {
	v, err := c.client.Get(ctx, cacheVersionKey).Result()
	if err != nil {
		return "0"
	}
	return v
}

func (c *CachedStore) key(ctx context.Context, kind, suffix string) string {
	return cacheKeyPrefix + c.version(ctx) + ":" + kind + ":" + suffix
}

func (c *CachedStore) GetCredential(ctx context.Context, hash id.DocumentHash) (*models.Credential, error) {
	key := c.key(ctx, "cred", hash.String())
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if string(data) == notFoundMarker {
			return nil, sentinel.ErrNotFound
		}
		var credential models.Credential
		if err := json.Unmarshal(data, &credential); err == nil {
			return &credential, nil
		}
	} else if !errors.Is(err, redis.Nil) && c.logger != nil {
		c.logger.WarnContext(ctx, "credential cache read failed", "error", err)
	}

	// One fill per key at a time; concurrent misses wait and re-check.
	c.fill.Lock(key)
	defer c.fill.Unlock(key)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if string(data) == notFoundMarker {
			return nil, sentinel.ErrNotFound
		}
		var credential models.Credential
		if err := json.Unmarshal(data, &credential); err == nil {
			return &credential, nil
		}
	}

	credential, err := c.inner.GetCredential(ctx, hash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			c.set(ctx, key, []byte(notFoundMarker))
		}
		return nil, err
	}
	if payload, err := json.Marshal(credential); err == nil {
		c.set(ctx, key, payload)
	}
	return credential, nil
}

func (c *CachedStore) InsertCredential(ctx context.Context, credential *models.Credential) error {
	if err := c.inner.InsertCredential(ctx, credential); err != nil {
		return err
	}
	c.InvalidateAll(ctx)
	return nil
}

func (c *CachedStore) UpdateCredential(ctx context.Context, credential *models.Credential) error {
	if err := c.inner.UpdateCredential(ctx, credential); err != nil {
		return err
	}
	c.InvalidateAll(ctx)
	return nil
}

func (c *CachedStore) CredentialCount(ctx context.Context, tutor id.Principal) (uint64, error) {
	key := c.key(ctx, "count", tutor.String())
	if v, err := c.client.Get(ctx, key).Result(); err == nil {
		if count, err := strconv.ParseUint(v, 10, 64); err == nil {
			return count, nil
		}
	}

	count, err := c.inner.CredentialCount(ctx, tutor)
	if err != nil {
		return 0, err
	}
	c.set(ctx, key, []byte(strconv.FormatUint(count, 10)))
	return count, nil
}

func (c *CachedStore) IncrementCredentialCount(ctx context.Context, tutor id.Principal) (uint64, error) {
	count, err := c.inner.IncrementCredentialCount(ctx, tutor)
	if err != nil {
		return 0, err
	}
	c.InvalidateAll(ctx)
	return count, nil
}

func (c *CachedStore) GetVerifier(ctx context.Context, principal id.Principal) (*models.VerifierEntry, error) {
	key := c.key(ctx, "verifier", principal.String())
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if string(data) == notFoundMarker {
			return nil, sentinel.ErrNotFound
		}
		var entry models.VerifierEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			return &entry, nil
		}
	}

	entry, err := c.inner.GetVerifier(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			c.set(ctx, key, []byte(notFoundMarker))
		}
		return nil, err
	}
	if payload, err := json.Marshal(entry); err == nil {
		c.set(ctx, key, payload)
	}
	return entry, nil
}

func (c *CachedStore) PutVerifier(ctx context.Context, entry *models.VerifierEntry) error {
	if err := c.inner.PutVerifier(ctx, entry); err != nil {
		return err
	}
	c.InvalidateAll(ctx)
	return nil
}

func (c *CachedStore) GetConfig(ctx context.Context) (*models.Config, error) {
	key := c.key(ctx, "config", "current")
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var config models.Config
		if err := json.Unmarshal(data, &config); err == nil {
			return &config, nil
		}
	}

	// Every operation reads the config row, so a fresh invalidation would
	// send one database read per in-flight request. Collapse concurrent
	// misses into a single fill; callers unmarshal their own copy.
	payload, err, _ := c.flight.Do(key, func() (any, error) {
		if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
			return data, nil
		}

		config, err := c.inner.GetConfig(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(config)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(payload.([]byte), &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *CachedStore) PutConfig(ctx context.Context, config *models.Config) error {
	if err := c.inner.PutConfig(ctx, config); err != nil {
		return err
	}
	c.InvalidateAll(ctx)
	return nil
}

// Event log operations bypass the cache entirely.

func (c *CachedStore) AppendEvent(ctx context.Context, typ ledgerevents.EventType, payload string, tick id.Tick) (*models.Event, error) {
	return c.inner.AppendEvent(ctx, typ, payload, tick)
}

func (c *CachedStore) ListEvents(ctx context.Context, afterID uint64, limit int) ([]*models.Event, error) {
	return c.inner.ListEvents(ctx, afterID, limit)
}

func (c *CachedStore) FetchUnpublished(ctx context.Context, limit int) ([]*models.Event, error) {
	return c.inner.FetchUnpublished(ctx, limit)
}

func (c *CachedStore) MarkPublished(ctx context.Context, eventID uint64, at time.Time) error {
	return c.inner.MarkPublished(ctx, eventID, at)
}

func (c *CachedStore) CountPending(ctx context.Context) (int, error) {
	return c.inner.CountPending(ctx)
}

func (c *CachedStore) set(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*CachedStore)(nil)
)
