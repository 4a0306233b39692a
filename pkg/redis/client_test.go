package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/landedcost/pkg/config"
)

type memoryCommands struct {
	data   map[string]string
	ttls   map[string]time.Duration
	closed bool
}

func newMemoryCommands() *memoryCommands {
	return &memoryCommands{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryCommands) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := m.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (m *memoryCommands) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.data[key], m.ttls[key] = fmt.Sprint(value), ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryCommands) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key], m.ttls[key] = fmt.Sprint(value), ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *memoryCommands) Close() error {
	m.closed = true
	return nil
}

func newTestClient() (*Client, *memoryCommands) {
	mem := newMemoryCommands()
	return &Client{Keyspace: NewKeyspace("test"), cmd: mem}, mem
}

func TestSetNXKeepsFirstWriter(t *testing.T) {
	ctx := context.Background()
	client, mem := newTestClient()

	won, err := client.SetNX(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = client.SetNX(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, won)

	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.Equal(t, time.Minute, mem.ttls["k"])
}

func TestGetAfterDelIsMiss(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient()

	require.NoError(t, client.Set(ctx, "snap", "payload", time.Hour))
	require.NoError(t, client.Del(ctx, "snap"))
	_, err := client.Get(ctx, "snap")
	assert.True(t, IsMiss(err))
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	assert.ErrorIs(t, client.Ping(context.Background()), ErrNotInitialized)
	_, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.NoError(t, client.Close())
}

func TestCloseReleasesConnection(t *testing.T) {
	client, mem := newTestClient()
	require.NoError(t, client.Close())
	assert.True(t, mem.closed)
}

func TestKeyspace(t *testing.T) {
	keys := NewKeyspace(" tenant-a: ")
	assert.Equal(t, "tenant-a:idempotency:POST|/api/v1/presets:abc", keys.IdempotencyKey("POST|/api/v1/presets", "abc"))
	assert.Equal(t, "tenant-a:exchange_rate:snapshot:krw", keys.ExchangeRateKey("KRW"))
	assert.Equal(t, "tenant-a:idempotency:abc", keys.IdempotencyKey(" ", "abc"))

	assert.Equal(t, "lc:a", NewKeyspace("").Key("a"))
	assert.Equal(t, "lc:a", Keyspace{}.Key("a"))
}

func TestOptions(t *testing.T) {
	_, err := options(config.RedisConfig{})
	require.Error(t, err)

	opts, err := options(config.RedisConfig{URL: "redis://localhost:6380/2", DB: 5, PoolSize: 7, DialTimeout: 3 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)

	opts, err = options(config.RedisConfig{Address: "cache:6379", Password: "secret", DB: 1, MinIdleConns: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)
	assert.Equal(t, 2, opts.MinIdleConns)
}
