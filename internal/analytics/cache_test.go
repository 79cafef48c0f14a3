package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"ordermgmt/internal/audit"
	"ordermgmt/internal/auth"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedAggregatorPassthrough(t *testing.T) {
	now := time.Now()
	store := newStore(t, seed{now.Add(-time.Hour), audit.QueryTypeWeb})
	cached := NewCachedAggregator(NewAggregator(store), nil, time.Minute)

	types, err := cached.CountByType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"WEB": 1}, types)

	hours, err := cached.CountByHour(context.Background())
	require.NoError(t, err)
	assert.Len(t, hours, 24)

	assert.NoError(t, cached.Invalidate(context.Background()))
}

func TestCachedAggregatorRedisDown(t *testing.T) {
	now := time.Now()
	store := newStore(t, seed{now.Add(-time.Hour), audit.QueryTypeOrder})
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	cached := NewCachedAggregator(NewAggregator(store), rdb, time.Minute)
	types, err := cached.CountByType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ORDER": 1}, types)
}

// memRedis 只实现缓存用到的 Get/Set/Del
type memRedis struct {
	redis.UniversalClient

	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	dels int
}

func newMemRedis() *memRedis {
	return &memRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dels++
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type countingReader struct {
	Reader
	typeCalls int
}

func (r *countingReader) CountByType(ctx context.Context) (map[string]int64, error) {
	r.typeCalls++
	return r.Reader.CountByType(ctx)
}

type fixedActor struct{}

func (fixedActor) ResolveActor(context.Context, *auth.Principal) (uint, error) { return 1, nil }

func TestCachedAggregatorHitAndMiss(t *testing.T) {
	store := newStore(t, seed{time.Now().Add(-time.Hour), audit.QueryTypeOrder})
	inner := &countingReader{Reader: NewAggregator(store)}
	rdb := newMemRedis()
	cached := NewCachedAggregator(inner, rdb, 30*time.Second)
	ctx := context.Background()

	types, err := cached.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ORDER": 1}, types)
	assert.Equal(t, 1, inner.typeCalls)
	assert.JSONEq(t, `{"ORDER":1}`, rdb.data[typeCountsKey])
	assert.Equal(t, 30*time.Second, rdb.ttls[typeCountsKey])

	types, err = cached.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ORDER": 1}, types)
	assert.Equal(t, 1, inner.typeCalls, "命中缓存时不查询数据库")

	require.NoError(t, cached.Invalidate(ctx))
	_, err = cached.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.typeCalls)
}

func TestCachedAggregatorCorruptPayload(t *testing.T) {
	store := newStore(t, seed{time.Now().Add(-time.Hour), audit.QueryTypeWeb})
	inner := &countingReader{Reader: NewAggregator(store)}
	rdb := newMemRedis()
	rdb.data[typeCountsKey] = "not-json"
	cached := NewCachedAggregator(inner, rdb, time.Minute)

	types, err := cached.CountByType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"WEB": 1}, types)
	assert.Equal(t, 1, inner.typeCalls)
	assert.JSONEq(t, `{"WEB":1}`, rdb.data[typeCountsKey])
}

func TestCachedAggregatorDisabledSkipsRedis(t *testing.T) {
	store := newStore(t, seed{time.Now().Add(-time.Hour), audit.QueryTypeWeb})
	rdb := newMemRedis()
	cached := NewCachedAggregator(NewAggregator(store), rdb, 0)

	_, err := cached.CountByType(context.Background())
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(context.Background()))
	assert.Empty(t, rdb.data)
	assert.Zero(t, rdb.dels)
}

func TestCachedAggregatorFreshAfterAuditWrite(t *testing.T) {
	db := initTestDB(t)
	store := audit.NewRecordStore(db)
	rdb := newMemRedis()
	cached := NewCachedAggregator(NewAggregator(store), rdb, 30*time.Second)
	interceptor := audit.NewInterceptor(audit.NewRegistry(nil), store, fixedActor{}, audit.WithInvalidator(cached))
	ctx := context.Background()
	alice := &auth.Principal{Username: "alice", Roles: []string{"USER"}, Authenticated: true}

	interceptor.Record(ctx, alice, audit.Call{Owner: "OrderController", Method: "getAllOrders"})
	types, err := cached.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ORDER": 1}, types)

	interceptor.Record(ctx, alice, audit.Call{Owner: "OrderController", Method: "getAllOrders"})
	interceptor.Record(ctx, alice, audit.Call{Owner: "WebController", Method: "home"})
	types, err = cached.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ORDER": 2, "WEB": 1}, types)
}
