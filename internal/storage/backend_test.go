package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop/internal/config"
)

// exerciseBackend runs the behavior every backend must share.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Put(ctx, "cart", []byte(`[{"id":1}]`)))
	v, ok, err := b.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, string(v))

	require.NoError(t, b.Put(ctx, "cart", []byte(`[]`)))
	v, _, err = b.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(v))

	require.NoError(t, b.Delete(ctx, "cart"))
	_, ok, err = b.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Delete(ctx, "never-written"))
}

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()
	exerciseBackend(t, m)
	require.NoError(t, m.Close())
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", buf))
	buf[0] = 'x'

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
	v[1] = 'y'
	v, _, _ = m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestBoltBackend(t *testing.T) {
	b, err := OpenBolt(filepath.Join(t.TempDir(), "shop.db"), "storefront")
	require.NoError(t, err)
	defer b.Close()
	exerciseBackend(t, b)
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shop.db")

	b, err := OpenBolt(path, "storefront")
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "users", []byte(`[]`)))
	require.NoError(t, b.Close())

	b, err = OpenBolt(path, "storefront")
	require.NoError(t, err)
	defer b.Close()
	v, ok, err := b.Get(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisBackend(t *testing.T) {
	_, client := setupTestRedis(t)
	r := NewRedis(client, 0)
	defer r.Close()
	exerciseBackend(t, r)
}

func TestRedisBackendTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	r := NewRedis(client, time.Hour)
	defer r.Close()

	require.NoError(t, r.Put(context.Background(), "cart", []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL("cart"))

	mr.FastForward(2 * time.Hour)
	_, ok, err := r.Get(context.Background(), "cart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackendReportsFailures(t *testing.T) {
	mr, client := setupTestRedis(t)
	r := NewRedis(client, 0)
	defer r.Close()

	mr.SetError("READONLY")
	_, _, err := r.Get(context.Background(), "cart")
	assert.Error(t, err)
}

func TestScyllaBackend(t *testing.T) {
	hosts := os.Getenv("SCYLLA_TEST_HOSTS")
	if hosts == "" {
		t.Skip("SCYLLA_TEST_HOSTS not set")
	}
	keyspace := os.Getenv("SCYLLA_TEST_KEYSPACE")
	if keyspace == "" {
		keyspace = "coffeeshop_test"
	}
	session, err := scyllaCluster(config.ScyllaConfig{
		Hosts:    strings.Split(hosts, ","),
		Keyspace: keyspace,
		Timeout:  10 * time.Second,
	}).CreateSession()
	require.NoError(t, err)

	s, err := NewScylla(context.Background(), session, "kv_test")
	require.NoError(t, err)
	defer s.Close()
	exerciseBackend(t, s)
}

func TestScyllaRejectsTableName(t *testing.T) {
	_, err := NewScylla(context.Background(), (*gocql.Session)(nil), "kv; DROP")
	assert.Error(t, err)
}

func TestMinIOBackend(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(os.Getenv("MINIO_TEST_ACCESS_KEY"), os.Getenv("MINIO_TEST_SECRET_KEY"), ""),
	})
	require.NoError(t, err)

	m, err := NewMinIO(context.Background(), client, "coffeeshop-test")
	require.NoError(t, err)
	exerciseBackend(t, m)
}

func TestPrefixIsolatesNamespaces(t *testing.T) {
	ctx := context.Background()
	shared := NewMemory()
	a := WithPrefix(shared, "profile:a:")
	b := WithPrefix(shared, "profile:b:")

	require.NoError(t, a.Put(ctx, "cart", []byte(`[1]`)))
	_, ok, err := b.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, _ := shared.Get(ctx, "profile:a:cart")
	assert.True(t, ok)
	assert.Equal(t, `[1]`, string(v))

	nested := WithPrefix(a, "tab:")
	require.NoError(t, nested.Put(ctx, "cart", []byte(`[2]`)))
	_, ok, _ = shared.Get(ctx, "profile:a:tab:cart")
	assert.True(t, ok)

	require.NoError(t, a.Close())
	require.NoError(t, shared.Put(ctx, "still", []byte("open")))
}

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		b, err := Open(context.Background(), &config.Config{Driver: config.DriverMemory}, nil)
		require.NoError(t, err)
		assert.IsType(t, &Memory{}, b)
	})

	t.Run("bolt", func(t *testing.T) {
		cfg := &config.Config{Driver: config.DriverBolt}
		cfg.Bolt.Path = filepath.Join(t.TempDir(), "shop.db")
		cfg.Bolt.Bucket = "storefront"
		b, err := Open(context.Background(), cfg, nil)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &Bolt{}, b)
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		cfg := &config.Config{Driver: config.DriverRedis}
		cfg.Redis.Host = mr.Addr()
		b, err := Open(context.Background(), cfg, nil)
		require.NoError(t, err)
		defer b.Close()
		exerciseBackend(t, b)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(context.Background(), &config.Config{Driver: "tape"}, nil)
		assert.Error(t, err)
	})
}
