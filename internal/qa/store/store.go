// Package store 提供简历文本块的向量存储：Milvus 持久化实现与进程内实现。
package store

import (
	"context"
)

// Chunk 表示一个已嵌入的简历文本块。
type Chunk struct {
	// ID 文档块 ID（为空时由存储分配）。
	ID string
	// DocumentID 所属文档 ID。
	DocumentID string
	// DocumentName 文档名称。
	DocumentName string
	// Section 所属章节。
	Section string
	// Content 文本内容。
	Content string
	// Embedding 嵌入向量。
	Embedding []float32
}

// SearchResult 表示检索结果。
type SearchResult struct {
	// ID 文档块 ID。
	ID string
	// DocumentID 所属文档 ID。
	DocumentID string
	// DocumentName 文档名称。
	DocumentName string
	// Section 所属章节。
	Section string
	// Content 文本内容。
	Content string
	// Score 余弦相似度，越大越相关。
	Score float32
}

// CollectionConfig 集合配置。
type CollectionConfig struct {
	// Name 集合名称。
	Name string
	// Description 集合描述。
	Description string
	// Dimension 向量维度。
	Dimension int
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// CreateCollection 创建集合，已存在时不做任何修改。
	CreateCollection(ctx context.Context, config *CollectionConfig) error

	// Insert 批量插入文档块，返回文档块 ID。
	Insert(ctx context.Context, collection string, chunks []*Chunk) ([]string, error)

	// Search 返回与 embedding 最相似的 topK 个文档块，按相似度降序。
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error)

	// DeleteDocument 删除某文档的全部文档块。
	DeleteDocument(ctx context.Context, collection, documentID string) error

	// GetStats 获取集合中的文档块数量。
	GetStats(ctx context.Context, collection string) (int64, error)

	// Close 关闭连接。
	Close(ctx context.Context) error
}
