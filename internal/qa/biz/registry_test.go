package biz

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 辅助函数：创建测试用 Redis 客户端
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("Redis 不可用，跳过测试")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRegistry(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	registry := NewRedisRegistry(client, "test:resume-qa:index:")
	t.Cleanup(func() { _ = registry.Forget(ctx, "resume") })

	rec, err := registry.Lookup(ctx, "resume", "doc-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	indexedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, registry.Record(ctx, "resume", &IndexRecord{
		DocumentID:   "doc-1",
		DocumentName: "resume.md",
		Fingerprint:  "abc",
		Chunks:       3,
		RunID:        "run-1",
		IndexedAt:    indexedAt,
	}))

	rec, err = registry.Lookup(ctx, "resume", "doc-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "abc", rec.Fingerprint)
	assert.Equal(t, 3, rec.Chunks)
	assert.True(t, indexedAt.Equal(rec.IndexedAt))

	require.NoError(t, registry.Forget(ctx, "resume"))
	rec, err = registry.Lookup(ctx, "resume", "doc-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
