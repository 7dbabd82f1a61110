package respcache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestMemory_EvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	require.NoError(t, m.Set(ctx, "c", []byte("3")))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "c")
	assert.True(t, ok, "newest entry is always kept")
}

func TestNamespaced_IsolatesProviders(t *testing.T) {
	ctx := context.Background()
	shared := NewMemory(0)
	a := WithNamespace(shared, "thegamesdb")
	b := WithNamespace(shared, "mobygames")

	require.NoError(t, a.Set(ctx, "search|sonic", []byte("tgdb")))

	_, ok, _ := b.Get(ctx, "search|sonic")
	assert.False(t, ok)
	v, ok, _ := a.Get(ctx, "search|sonic")
	assert.True(t, ok)
	assert.Equal(t, "tgdb", string(v))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "search|sonic|18", Key("search", "sonic", "18"))

	long := Key("search", strings.Repeat("x", 200))
	assert.Len(t, long, 64)
	assert.Equal(t, long, Key("search", strings.Repeat("x", 200)))
}

func TestRedis_RoundTrip(t *testing.T) {
	url := os.Getenv("ROMSCRAPER_TEST_REDIS")
	if url == "" {
		t.Skip("ROMSCRAPER_TEST_REDIS not set")
	}
	ctx := context.Background()

	r, err := NewRedis(ctx, url, time.Minute)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	key := "romscraper-test:" + time.Now().Format(time.RFC3339Nano)
	_, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, key, []byte("payload")))
	v, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", string(v))
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-url", time.Minute)
	assert.Error(t, err)
}
