package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/bwise1/moment_stack/internal/metrics"
	"github.com/bwise1/moment_stack/internal/model"
	"github.com/bwise1/moment_stack/internal/moments"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "moment:"

	// ownersKey is bumped on any profile change; entries filled under an
	// older value are treated as misses.
	ownersKey = keyPrefix + "owners:gen"

	// generationTTL bounds how long a per-moment generation outlives its entry.
	// It must exceed any Version to SetIfCurrent window.
	generationTTL = 24 * time.Hour
)

// setIfCurrent writes KEYS[1] only while the moment (KEYS[2]) and owner
// (KEYS[3]) generations still match ARGV[2] and ARGV[3].
var setIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[2] then return 0 end
if (redis.call('GET', KEYS[3]) or '0') ~= ARGV[3] then return 0 end
if tonumber(ARGV[4]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[4])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// entry is the stored value; Owners is the owner generation it was filled under.
type entry struct {
	Owners int64                     `json:"owners"`
	Moment model.MomentWithOwnerInfo `json:"moment"`
}

var _ moments.Cache = (*MomentCache)(nil)

// MomentCache is a read-through cache of single moments backed by Redis.
type MomentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect creates a Redis client and verifies connectivity.
func Connect(addr, password string, db int, ttl time.Duration) (*MomentCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return New(rdb, ttl), nil
}

func New(rdb *redis.Client, ttl time.Duration) *MomentCache {
	return &MomentCache{rdb: rdb, ttl: ttl}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func generationKey(id uuid.UUID) string {
	return key(id) + ":gen"
}

// Get returns the cached moment. Entries filled before the last profile
// change count as misses.
func (c *MomentCache) Get(ctx context.Context, id uuid.UUID) (model.MomentWithOwnerInfo, bool, error) {
	vals, err := c.rdb.MGet(ctx, key(id), ownersKey).Result()
	if err != nil {
		metrics.CacheLookup("error")
		return model.MomentWithOwnerInfo{}, false, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		metrics.CacheLookup("miss")
		return model.MomentWithOwnerInfo{}, false, nil
	}
	owners, err := generation(vals[1])
	if err != nil {
		metrics.CacheLookup("error")
		return model.MomentWithOwnerInfo{}, false, err
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		metrics.CacheLookup("error")
		return model.MomentWithOwnerInfo{}, false, fmt.Errorf("decode cached moment: %w", err)
	}
	if e.Owners != owners {
		metrics.CacheLookup("miss")
		return model.MomentWithOwnerInfo{}, false, nil
	}
	metrics.CacheLookup("hit")
	return e.Moment, true, nil
}

// Version reads the generations a later SetIfCurrent is checked against.
func (c *MomentCache) Version(ctx context.Context, id uuid.UUID) (moments.CacheVersion, error) {
	vals, err := c.rdb.MGet(ctx, generationKey(id), ownersKey).Result()
	if err != nil {
		return moments.CacheVersion{}, err
	}
	m, err := generation(vals[0])
	if err != nil {
		return moments.CacheVersion{}, err
	}
	o, err := generation(vals[1])
	if err != nil {
		return moments.CacheVersion{}, err
	}
	return moments.CacheVersion{Moment: m, Owners: o}, nil
}

// SetIfCurrent stores m unless an invalidation happened since v was read.
// It reports whether the write took place.
func (c *MomentCache) SetIfCurrent(ctx context.Context, m model.MomentWithOwnerInfo, v moments.CacheVersion) (bool, error) {
	raw, err := json.Marshal(entry{Owners: v.Owners, Moment: m})
	if err != nil {
		return false, err
	}
	keys := []string{key(m.ID), generationKey(m.ID), ownersKey}
	n, err := setIfCurrent.Run(ctx, c.rdb, keys, raw, v.Moment, v.Owners, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate drops the entry and bumps its generation so in-flight fills are discarded.
func (c *MomentCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), generationTTL)
		pipe.Del(ctx, key(id))
		return nil
	})
	return err
}

// InvalidateOwners voids every entry filled before the call.
func (c *MomentCache) InvalidateOwners(ctx context.Context) error {
	return c.rdb.Incr(ctx, ownersKey).Err()
}

func (c *MomentCache) Close() error {
	return c.rdb.Close()
}

func generation(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected generation value %T", v)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse generation: %w", err)
	}
	return n, nil
}
