package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type convo struct {
	Menu  string   `yaml:"menu" json:"menu"`
	Items []string `yaml:"items" json:"items"`
}

func exerciseStore(t *testing.T, s Store[convo]) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	want := convo{Menu: "M1", Items: []string{"M1/0", "M1/1"}}
	require.NoError(t, s.Put(ctx, 1, want))
	require.NoError(t, s.Put(ctx, 2, convo{Menu: "M2"}))

	got, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, s.Delete(ctx, 1))
	_, ok, err = s.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, 99))
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory[convo]()
	exerciseStore(t, m)
	assert.Equal(t, 1, m.Len())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.yaml")
	f, err := OpenFile[convo](path)
	require.NoError(t, err)
	exerciseStore(t, f)

	reopened, err := OpenFile[convo](path)
	require.NoError(t, err)
	got, ok, err := reopened.Get(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "M2", got.Menu)
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries: [: :"), 0o644))
	_, err := OpenFile[convo](path)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := ConnectRedis(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	prefix := "menubot:test:" + time.Now().Format("150405.000000") + ":"
	s := NewRedis[convo](client, prefix, time.Minute)
	exerciseStore(t, s)

	require.NoError(t, client.Set(ctx, prefix+"7", "{not json", time.Minute).Err())
	_, ok, err := s.Get(ctx, 7)
	assert.True(t, ok)
	assert.True(t, errors.Is(err, ErrDecode))

	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	})
}
