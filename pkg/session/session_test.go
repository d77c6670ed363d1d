package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract 对所有 Store 实现执行相同的读写清除检查。
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Save(ctx, "tok-1"))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, s.Save(ctx, "tok-2"))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Clear(ctx))
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	storeContract(t, s)

	require.NoError(t, s.Save(context.Background(), "tok"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_ExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "old"))

	// 另一个进程改写令牌文件
	require.NoError(t, os.WriteFile(path, []byte("new\n"), 0o600))
	assert.Eventually(t, func() bool {
		tok, err := s.Load(ctx)
		return err == nil && tok == "new"
	}, 2*time.Second, 20*time.Millisecond)

	// 另一个进程删除令牌文件
	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		_, err := s.Load(ctx)
		return errors.Is(err, ErrNoToken)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFileStore_CloseTwice(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "session"))
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rdb.Close()

	key := "campus-portal:test:" + t.Name()
	defer rdb.Del(context.Background(), key)
	storeContract(t, NewRedisStore(rdb, key, time.Minute))
}

type brokenStore struct{ MemoryStore }

func (*brokenStore) Load(context.Context) (string, error) {
	return "", errors.New("disk on fire")
}

func TestProvider(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	p := Provider(mem, nil)

	_, ok := p(ctx)
	assert.False(t, ok)

	require.NoError(t, mem.Save(ctx, " abc "))
	tok, ok := p(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = Provider(&brokenStore{}, nil)(ctx)
	assert.False(t, ok)
}
