package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/resume-qa/pkg/utils/json"
)

// IndexRecord 记录一个文件最近一次索引的结果。
type IndexRecord struct {
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	Fingerprint  string    `json:"fingerprint"`
	Chunks       int       `json:"chunks"`
	RunID        string    `json:"run_id"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// Registry 保存已索引文件的内容指纹，仅在索引时使用。
type Registry interface {
	// Lookup 返回文档的索引记录，不存在时返回 nil。
	Lookup(ctx context.Context, collection, documentID string) (*IndexRecord, error)
	// Record 保存文档的索引记录。
	Record(ctx context.Context, collection string, rec *IndexRecord) error
}

type noopRegistry struct{}

func (noopRegistry) Lookup(context.Context, string, string) (*IndexRecord, error) { return nil, nil }

func (noopRegistry) Record(context.Context, string, *IndexRecord) error { return nil }

// RedisRegistry 用 Redis 哈希保存索引记录，每个集合一个 key，字段为文档 ID。
type RedisRegistry struct {
	client goredis.UniversalClient
	prefix string
}

// NewRedisRegistry 创建 Redis 索引登记表。
func NewRedisRegistry(client goredis.UniversalClient, keyPrefix string) *RedisRegistry {
	return &RedisRegistry{client: client, prefix: keyPrefix}
}

func (r *RedisRegistry) key(collection string) string {
	return r.prefix + collection
}

// Lookup 实现 Registry。
func (r *RedisRegistry) Lookup(ctx context.Context, collection, documentID string) (*IndexRecord, error) {
	data, err := r.client.HGet(ctx, r.key(collection), documentID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry lookup %s: %w", documentID, err)
	}

	var rec IndexRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("registry decode %s: %w", documentID, err)
	}
	return &rec, nil
}

// Record 实现 Registry。
func (r *RedisRegistry) Record(ctx context.Context, collection string, rec *IndexRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("registry encode %s: %w", rec.DocumentID, err)
	}
	if err := r.client.HSet(ctx, r.key(collection), rec.DocumentID, data).Err(); err != nil {
		return fmt.Errorf("registry record %s: %w", rec.DocumentID, err)
	}
	return nil
}

// Forget 删除集合的全部记录，用于强制重建索引。
func (r *RedisRegistry) Forget(ctx context.Context, collection string) error {
	return r.client.Del(ctx, r.key(collection)).Err()
}
