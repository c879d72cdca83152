package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/internal/qa/store"
	"github.com/kart-io/resume-qa/pkg/llm"
)

// Retriever 按查询文本返回相关片段，按相关度降序，可以为空。
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// RetrieverFunc 把函数适配为 Retriever。
type RetrieverFunc func(ctx context.Context, query string) ([]string, error)

// Retrieve 实现 Retriever。
func (f RetrieverFunc) Retrieve(ctx context.Context, query string) ([]string, error) {
	return f(ctx, query)
}

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 返回的片段数量。
	TopK int
	// Collection 集合名称。
	Collection string
}

// VectorRetriever 先嵌入查询，再在向量库中搜索。
type VectorRetriever struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	config        *RetrieverConfig
}

// NewVectorRetriever 创建向量检索器。
func NewVectorRetriever(vectorStore store.VectorStore, embedProvider llm.EmbeddingProvider, config *RetrieverConfig) *VectorRetriever {
	return &VectorRetriever{
		store:         vectorStore,
		embedProvider: embedProvider,
		config:        config,
	}
}

// Retrieve 实现 Retriever。
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	embedding, err := r.embedProvider.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, r.config.Collection, embedding, r.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.config.Collection, err)
	}

	passages := make([]string, 0, len(results))
	for _, res := range results {
		passages = append(passages, res.Content)
	}
	logger.Debugw("retrieved passages", "collection", r.config.Collection, "count", len(passages))
	return passages, nil
}
