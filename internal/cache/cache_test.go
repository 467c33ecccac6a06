package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwise1/moment_stack/internal/model"
	"github.com/bwise1/moment_stack/internal/moments"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("short mode")
	}
	ctx := context.Background()

	var (
		container testcontainers.Container
		err       error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("container runtime: %v", r)
			}
		}()
		container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
			Started: true,
		})
	}()
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func sampleMoment() model.MomentWithOwnerInfo {
	return model.WithOwner(model.Moment{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Title:     "cached",
		Mood:      model.MoodInspiring,
		Location:  model.Location{Latitude: 1.5, Longitude: -2.25},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, model.OwnerInfo{Username: "ana"})
}

func TestMomentCache(t *testing.T) {
	rdb := startRedis(t)
	c := New(rdb, time.Minute)
	ctx := context.Background()
	m := sampleMoment()

	_, ok, err := c.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := c.Version(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, moments.CacheVersion{}, v)

	written, err := c.SetIfCurrent(ctx, m, v)
	require.NoError(t, err)
	assert.True(t, written)

	got, ok, err := c.Get(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, m.Location, got.Location)
	assert.Equal(t, "ana", got.Username)
	assert.True(t, m.CreatedAt.Equal(got.CreatedAt))

	ttl, err := rdb.TTL(ctx, key(m.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx, m.ID))
	_, ok, err = c.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err = c.Version(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Moment)
	ttl, err = rdb.TTL(ctx, generationKey(m.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Minute)
}

func TestMomentCacheSkipsFillAfterInvalidate(t *testing.T) {
	rdb := startRedis(t)
	c := New(rdb, time.Minute)
	ctx := context.Background()
	m := sampleMoment()

	// Version read, then an update commits and invalidates before the fill.
	v, err := c.Version(ctx, m.ID)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, m.ID))

	written, err := c.SetIfCurrent(ctx, m, v)
	require.NoError(t, err)
	assert.False(t, written)

	_, ok, err := c.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := rdb.Exists(ctx, key(m.ID)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	// A fill under the fresh version goes through.
	v, err = c.Version(ctx, m.ID)
	require.NoError(t, err)
	written, err = c.SetIfCurrent(ctx, m, v)
	require.NoError(t, err)
	assert.True(t, written)
}

func TestMomentCacheInvalidateOwners(t *testing.T) {
	rdb := startRedis(t)
	c := New(rdb, time.Minute)
	ctx := context.Background()
	m := sampleMoment()

	v, err := c.Version(ctx, m.ID)
	require.NoError(t, err)
	written, err := c.SetIfCurrent(ctx, m, v)
	require.NoError(t, err)
	require.True(t, written)

	require.NoError(t, c.InvalidateOwners(ctx))

	_, ok, err := c.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok, "entry filled before a profile change must not be served")

	// A fill that read its version before the profile change is dropped too.
	written, err = c.SetIfCurrent(ctx, m, v)
	require.NoError(t, err)
	assert.False(t, written)

	v, err = c.Version(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Owners)
	m.Username = "ana2"
	written, err = c.SetIfCurrent(ctx, m, v)
	require.NoError(t, err)
	require.True(t, written)

	got, ok, err := c.Get(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ana2", got.Username)
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	assert.Equal(t, "moment:0f8fad5b-d9cb-469f-a165-70867728950e", key(id))
	assert.Equal(t, "moment:0f8fad5b-d9cb-469f-a165-70867728950e:gen", generationKey(id))
}

func TestGeneration(t *testing.T) {
	n, err := generation(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = generation("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = generation("x")
	assert.Error(t, err)
}
